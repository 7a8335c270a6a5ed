package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "video.mp4")
	require.NoError(t, os.WriteFile(path, []byte("one"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	require.NoError(t, OnChange(ctx, path, func() { calls.Add(1) }))

	// several writes in a row settle into one call
	for range 3 {
		require.NoError(t, os.WriteFile(path, []byte("two"), 0o644))
	}
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("three"), 0o644))
	time.Sleep(3 * settle)
	assert.Equal(t, int32(1), calls.Load())
}

func TestOnChangeFollowsReplacedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "video.mp4")
	require.NoError(t, os.WriteFile(path, []byte("one"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	require.NoError(t, OnChange(ctx, path, func() { calls.Add(1) }))

	// replaced the way editors and mv do it, twice so the second
	// replacement lands on a new inode
	for i := range 2 {
		tmp := filepath.Join(dir, ".video.mp4.tmp")
		require.NoError(t, os.WriteFile(tmp, []byte("new"), 0o644))
		time.Sleep(3 * settle)
		before := calls.Load()
		require.NoError(t, os.Rename(tmp, path))
		assert.Eventually(t, func() bool { return calls.Load() == before+1 }, 2*time.Second, 10*time.Millisecond, "replacement %d", i)
	}
}

func TestOnChangeIgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "video.mp4")
	require.NoError(t, os.WriteFile(path, []byte("one"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	require.NoError(t, OnChange(ctx, path, func() { calls.Add(1) }))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.mp4"), []byte("x"), 0o644))
	time.Sleep(3 * settle)
	assert.Equal(t, int32(0), calls.Load())
}

func TestOnChangeMissingFile(t *testing.T) {
	err := OnChange(context.Background(), filepath.Join(t.TempDir(), "missing"), func() {})
	assert.Error(t, err)
}
