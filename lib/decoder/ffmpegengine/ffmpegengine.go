// Package ffmpegengine decodes video files by running ffmpeg and reading
// raw frames from its stdout.
package ffmpegengine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"github.com/fosdem/quadplayer/lib/decoder"
	"github.com/fosdem/quadplayer/lib/encdec"
	"github.com/fosdem/quadplayer/lib/log"
	"golang.org/x/sys/unix"
)

// CodeSpawn is reported when the process could not be started; otherwise
// the error code is the exit status and the subcode the terminating signal.
const CodeSpawn = -1

type Engine struct {
	Binary string

	path   string
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr io.ReadCloser

	ctx    context.Context
	target decoder.Target
	events chan<- decoder.Event

	start      chan struct{}
	startOnce  sync.Once
	stderrDone chan struct{}

	wg  sync.WaitGroup
	log *slog.Logger
}

func New(binary string) *Engine {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Engine{
		Binary:     binary,
		start:      make(chan struct{}),
		stderrDone: make(chan struct{}),
		log:        log.Module("ffmpegengine"),
	}
}

func (e *Engine) Name() string {
	return "ffmpeg"
}

// Args returns the ffmpeg arguments decoding path into raw frames at
// native playback rate
func Args(path string, info encdec.FrameInfo) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "warning",
		"-nostdin",
		"-re",
		"-i", path,
		"-an",
		"-vf", fmt.Sprintf("scale=%d:%d", info.Width, info.Height),
		"-pix_fmt", pixFmt(info.FrameType),
		"-f", "rawvideo",
		"-",
	}
}

func pixFmt(t encdec.FrameType) string {
	switch t {
	case encdec.RGBFrames:
		return "rgb24"
	default:
		return "rgba"
	}
}

func (e *Engine) SetDataSource(path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	if _, err := exec.LookPath(e.Binary); err != nil {
		return fmt.Errorf("could not find %s: %w", e.Binary, err)
	}
	e.path = path
	return nil
}

func (e *Engine) setupCmd() error {
	e.cmd = exec.Command(e.Binary, Args(e.path, e.target.Info())...)
	e.cmd.SysProcAttr = &syscall.SysProcAttr{Pdeathsig: unix.SIGTERM}
	var err error
	e.stdout, err = e.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("could not get ffmpeg stdout: %w", err)
	}
	e.stderr, err = e.cmd.StderrPipe()
	if err != nil {
		e.closePipes()
		return fmt.Errorf("could not get ffmpeg stderr: %w", err)
	}
	return nil
}

func (e *Engine) closePipes() {
	for _, pipe := range []io.ReadCloser{e.stdout, e.stderr} {
		if pipe != nil {
			_ = pipe.Close()
		}
	}
}

func (e *Engine) PrepareAsync(ctx context.Context, target decoder.Target, events chan<- decoder.Event) {
	e.ctx = ctx
	e.target = target
	e.events = events

	err := e.setupCmd()
	if err == nil {
		e.log.Debug("starting ffmpeg", "args", e.cmd.Args)
		err = e.cmd.Start()
	}
	if err != nil {
		e.closePipes()
		e.cmd = nil
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			decoder.Emit(ctx, events, decoder.Error{Code: CodeSpawn, Err: err})
		}()
		return
	}

	e.wg.Add(3)
	go e.processStderr()
	go e.processStdout()
	go func() {
		defer e.wg.Done()
		decoder.Emit(ctx, events, decoder.Prepared{})
	}()
}

func (e *Engine) processStderr() {
	defer e.wg.Done()
	defer close(e.stderrDone)
	scanner := bufio.NewScanner(e.stderr)
	for scanner.Scan() {
		e.log.Debug("[ffmpeg] " + scanner.Text())
	}
}

func (e *Engine) processStdout() {
	defer e.wg.Done()

	select {
	case <-e.start:
	case <-e.ctx.Done():
		e.wait()
		return
	}

	for {
		frame, err := e.target.DequeueFrame(e.ctx)
		if err != nil {
			e.wait()
			return
		}

		_, err = io.ReadFull(e.stdout, frame.Data)
		if err != nil {
			e.target.CancelFrame(frame)
			if !errors.Is(err, io.EOF) {
				e.log.Warn("could not read from ffmpeg's output", "error", err)
			}
			e.finish(e.wait())
			return
		}

		e.target.QueueFrame(frame)
	}
}

// wait terminates ffmpeg if it is still running on shutdown and reaps it
func (e *Engine) wait() error {
	if e.ctx.Err() != nil {
		e.terminate()
	}
	// unblock a process stuck writing to a pipe nobody reads
	_, _ = io.Copy(io.Discard, e.stdout)
	// Wait closes the pipes, stderr has to be read to the end first
	<-e.stderrDone
	return e.cmd.Wait()
}

func (e *Engine) finish(err error) {
	if err == nil {
		decoder.Emit(e.ctx, e.events, decoder.EndOfStream{})
		return
	}

	ev := decoder.Error{Code: CodeSpawn, Err: err}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		ev.Code = exitErr.ExitCode()
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			ev.Subcode = int(ws.Signal())
		}
	}
	decoder.Emit(e.ctx, e.events, ev)
}

func (e *Engine) terminate() {
	if e.cmd == nil || e.cmd.Process == nil {
		return
	}
	if err := e.cmd.Process.Signal(unix.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
		e.log.Warn("could not terminate ffmpeg", "error", err)
	}
}

func (e *Engine) Start() error {
	if e.cmd == nil {
		return fmt.Errorf("ffmpeg not running")
	}
	e.startOnce.Do(func() { close(e.start) })
	return nil
}

func (e *Engine) Stop() error {
	e.terminate()
	return nil
}

func (e *Engine) Release() {
	e.wg.Wait()
	e.cmd = nil
}
