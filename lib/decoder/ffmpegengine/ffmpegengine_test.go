package ffmpegengine

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fosdem/quadplayer/lib/decoder"
	"github.com/fosdem/quadplayer/lib/encdec"
	"github.com/fosdem/quadplayer/lib/surface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgs(t *testing.T) {
	info := encdec.FrameInfo{
		FrameCfg:  encdec.FrameCfg{Width: 640, Height: 360, NumAllocatedFrames: 3},
		FrameType: encdec.RGBAFrames,
	}
	args := Args("/videos/talk.webm", info)

	assert.Contains(t, args, "-re")
	assert.Equal(t, "-", args[len(args)-1])
	assert.Subset(t, args, []string{"-i", "/videos/talk.webm", "scale=640:360", "rgba", "rawvideo"})

	info.FrameType = encdec.RGBFrames
	assert.Contains(t, Args("x", info), "rgb24")
}

// fakeFFmpeg writes a shell script standing in for ffmpeg
func fakeFFmpeg(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ffmpeg")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func videoFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	return path
}

func newTarget() *surface.Surface {
	info := &encdec.FrameInfo{
		FrameCfg:  encdec.FrameCfg{Width: 2, Height: 2, NumAllocatedFrames: 8},
		FrameType: encdec.RGBAFrames,
	}
	return surface.New("test", info, &encdec.DumbFrameAllocator{}, 1, nil)
}

func TestPlaysUntilEOF(t *testing.T) {
	// four 2x2 RGBA frames
	engine := New(fakeFFmpeg(t, "head -c 64 /dev/zero"))
	target := newTarget()
	s := decoder.NewSession(engine, videoFile(t), target)
	require.NoError(t, s.Start(context.Background()))

	assert.Eventually(t, func() bool { return s.State() == decoder.Completed }, 5*time.Second, 5*time.Millisecond)
	assert.Equal(t, 4, target.Pending())

	s.Release()
	assert.Equal(t, decoder.Stopped, s.State())
}

func TestExitStatusIsReported(t *testing.T) {
	engine := New(fakeFFmpeg(t, "exit 3"))
	s := decoder.NewSession(engine, videoFile(t), newTarget())
	require.NoError(t, s.Start(context.Background()))

	require.Eventually(t, func() bool { return s.State() == decoder.Failed }, 5*time.Second, 5*time.Millisecond)
	var runtimeErr *decoder.DecodeRuntimeError
	require.True(t, errors.As(s.Err(), &runtimeErr))
	assert.Equal(t, 3, runtimeErr.Code)
	s.Release()
}

func TestStderrIsLoggedBeforeExit(t *testing.T) {
	engine := New(fakeFFmpeg(t, "echo 'moov atom not found' >&2\necho 'clip.mp4: Invalid data found' >&2\nexit 1"))
	var logs bytes.Buffer
	engine.log = slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	s := decoder.NewSession(engine, videoFile(t), newTarget())
	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool { return s.State() == decoder.Failed }, 5*time.Second, 5*time.Millisecond)

	// the error event is only sent once ffmpeg has been reaped
	assert.Contains(t, logs.String(), "moov atom not found")
	assert.Contains(t, logs.String(), "Invalid data found")
	s.Release()
}

func TestSpawnFailureClosesPipes(t *testing.T) {
	// executable, but not something the kernel can run
	binary := filepath.Join(t.TempDir(), "ffmpeg")
	require.NoError(t, os.WriteFile(binary, []byte{0x00, 0x01, 0x02, 0x03}, 0o755))
	engine := New(binary)

	s := decoder.NewSession(engine, videoFile(t), newTarget())
	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool { return s.State() == decoder.Failed }, 5*time.Second, 5*time.Millisecond)

	var runtimeErr *decoder.DecodeRuntimeError
	require.True(t, errors.As(s.Err(), &runtimeErr))
	assert.Equal(t, CodeSpawn, runtimeErr.Code)

	for _, pipe := range []io.ReadCloser{engine.stdout, engine.stderr} {
		require.NotNil(t, pipe)
		_, err := pipe.Read(make([]byte, 1))
		assert.ErrorIs(t, err, os.ErrClosed)
	}
	s.Release()
}

func TestReleaseTerminatesFFmpeg(t *testing.T) {
	engine := New(fakeFFmpeg(t, "exec cat /dev/zero"))
	target := newTarget()
	s := decoder.NewSession(engine, videoFile(t), target)
	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool { return target.FreeFrames() == 0 }, 5*time.Second, 5*time.Millisecond)

	done := make(chan struct{})
	go func() {
		s.Release()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("release did not stop ffmpeg")
	}
}

func TestMissingSource(t *testing.T) {
	engine := New(fakeFFmpeg(t, "exit 0"))
	s := decoder.NewSession(engine, "/does/not/exist.mp4", newTarget())

	var openErr *decoder.DataSourceOpenError
	assert.True(t, errors.As(s.Start(context.Background()), &openErr))
	assert.Equal(t, decoder.Failed, s.State())
	s.Release()
}
