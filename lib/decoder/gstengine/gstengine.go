// Package gstengine decodes video files with a GStreamer pipeline ending in
// an appsink.
package gstengine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fosdem/quadplayer/lib/decoder"
	"github.com/fosdem/quadplayer/lib/encdec"
	"github.com/fosdem/quadplayer/lib/log"
	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"
)

const sinkName = "sink"

// Error codes sent with decoder.Error, the subcode is a Category
const (
	CodeSetup    = -1
	CodePipeline = 1
)

type Engine struct {
	path string

	pipeline *gst.Pipeline
	sink     *app.Sink

	ctx    context.Context
	target decoder.Target
	events chan<- decoder.Event

	wg  sync.WaitGroup
	log *slog.Logger
}

func New() *Engine {
	return &Engine{log: log.Module("gstengine")}
}

func (e *Engine) Name() string {
	return "gstreamer"
}

// PipelineDescription returns the gst-launch style description decoding
// path into raw frames of the given geometry.
func PipelineDescription(path string, info encdec.FrameInfo) string {
	location := strings.ReplaceAll(path, `"`, `\"`)
	return fmt.Sprintf(
		`filesrc location="%s" ! decodebin ! videoconvert ! videoscale ! `+
			`capsfilter caps="video/x-raw,format=%s,width=%d,height=%d" ! `+
			`appsink name=%s sync=true max-buffers=2 qos=true`,
		location, info.FrameType, info.Width, info.Height, sinkName,
	)
}

func (e *Engine) SetDataSource(path string) error {
	st, err := os.Stat(path)
	if err != nil {
		return err
	}
	if st.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	e.path = path
	return nil
}

func (e *Engine) PrepareAsync(ctx context.Context, target decoder.Target, events chan<- decoder.Event) {
	e.ctx = ctx
	e.target = target
	e.events = events

	if err := e.buildPipeline(); err != nil {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			decoder.Emit(ctx, events, decoder.Error{Code: CodeSetup, Err: err})
		}()
		return
	}

	e.wg.Add(1)
	go e.watchBus()
}

func (e *Engine) buildPipeline() error {
	gst.Init(nil)

	desc := PipelineDescription(e.path, e.target.Info())
	e.log.Debug("creating pipeline", "pipeline", desc)

	pipeline, err := gst.NewPipelineFromString(desc)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}

	elem, err := pipeline.GetElementByName(sinkName)
	if err != nil {
		return fmt.Errorf("failed to find appsink: %w", err)
	}
	e.sink = app.SinkFromElement(elem)
	e.sink.SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: e.onNewSample,
	})

	// prerolls in the background, ASYNC_DONE on the bus signals readiness
	if err := pipeline.SetState(gst.StatePaused); err != nil {
		return fmt.Errorf("failed to pause pipeline: %w", err)
	}

	e.pipeline = pipeline
	return nil
}

func (e *Engine) watchBus() {
	defer e.wg.Done()

	bus := e.pipeline.GetPipelineBus()
	prepared := false
	for {
		select {
		case <-e.ctx.Done():
			return
		default:
		}

		msg := bus.TimedPop(50 * time.Millisecond)
		if msg == nil {
			continue
		}

		switch msg.Type() {
		case gst.MessageAsyncDone:
			if !prepared {
				prepared = true
				decoder.Emit(e.ctx, e.events, decoder.Prepared{})
			}

		case gst.MessageEOS:
			decoder.Emit(e.ctx, e.events, decoder.EndOfStream{})

		case gst.MessageError:
			gerr := msg.ParseError()
			category := Classify(gerr.Error(), gerr.DebugString())
			e.log.Debug("pipeline error", "error", gerr.Error(), "debug", gerr.DebugString(), "category", category)
			decoder.Emit(e.ctx, e.events, decoder.Error{
				Code:    CodePipeline,
				Subcode: int(category),
				Err:     gerr,
			})

		case gst.MessageStateChanged:
			if msg.Source() == e.pipeline.GetName() {
				old, new := msg.ParseStateChanged()
				e.log.Debug("pipeline state changed", "from", old, "to", new)
			}
		}
	}
}

func (e *Engine) onNewSample(sink *app.Sink) gst.FlowReturn {
	sample := sink.PullSample()
	if sample == nil {
		return gst.FlowEOS
	}

	buffer := sample.GetBuffer()
	if buffer == nil {
		e.log.Warn("sample without buffer, skipping")
		return gst.FlowOK
	}

	// blocks while every surface buffer is queued
	frame, err := e.target.DequeueFrame(e.ctx)
	if err != nil {
		return gst.FlowFlushing
	}

	mapInfo := buffer.Map(gst.MapRead)
	err = frame.Fill(mapInfo.Bytes())
	buffer.Unmap()
	if err != nil {
		e.log.Warn("dropping malformed sample", "error", err)
		e.target.CancelFrame(frame)
		return gst.FlowOK
	}

	e.target.QueueFrame(frame)
	return gst.FlowOK
}

func (e *Engine) Start() error {
	if e.pipeline == nil {
		return fmt.Errorf("pipeline not prepared")
	}
	return e.pipeline.SetState(gst.StatePlaying)
}

func (e *Engine) Stop() error {
	if e.pipeline == nil {
		return nil
	}
	return e.pipeline.SetState(gst.StateNull)
}

func (e *Engine) Release() {
	e.wg.Wait()
	e.pipeline = nil
	e.sink = nil
}
