// Package libavengine decodes video files in process with libav.
package libavengine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/asticode/go-astiav"
	"github.com/fosdem/quadplayer/lib/decoder"
	"github.com/fosdem/quadplayer/lib/encdec"
	"github.com/fosdem/quadplayer/lib/log"
)

// Error codes sent with decoder.Error
const (
	CodeOpen   = -1
	CodeDecode = 1
	CodeScale  = 2
)

const defaultFrameRate = 25.0

// rows of the scaled picture are padded to this many bytes
const frameAlign = 32

type Engine struct {
	decoderCodecName string
	inputFormatName  string

	path string

	inputFormat        *astiav.InputFormat
	inputFormatContext *astiav.FormatContext
	inputStream        *astiav.Stream
	decoderCodec       *astiav.Codec
	decoderContext     *astiav.CodecContext
	scaleContext       *astiav.SoftwareScaleContext
	packet             *astiav.Packet
	decFrame           *astiav.Frame
	rgbaFrame          *astiav.Frame
	frameInterval      time.Duration

	ctx    context.Context
	target decoder.Target
	events chan<- decoder.Event

	start     chan struct{}
	startOnce sync.Once
	wg        sync.WaitGroup

	log *slog.Logger
}

// New creates an engine. An empty codec name picks the decoder from the
// stream, an empty input format lets libav probe.
func New(decoderCodec string, inputFormat string) *Engine {
	return &Engine{
		decoderCodecName: decoderCodec,
		inputFormatName:  inputFormat,
		start:            make(chan struct{}),
		log:              log.Module("libavengine"),
	}
}

func (e *Engine) Name() string {
	return "libav"
}

func pixelFormat(t encdec.FrameType) astiav.PixelFormat {
	switch t {
	case encdec.RGBFrames:
		return astiav.PixelFormatRgb24
	default:
		return astiav.PixelFormatRgba
	}
}

// SetDataSource opens the container and finds the first video stream
func (e *Engine) SetDataSource(path string) error {
	e.path = path

	if e.inputFormatName != "" {
		astiav.RegisterAllDevices()
		e.inputFormat = astiav.FindInputFormat(e.inputFormatName)
		if e.inputFormat == nil {
			return fmt.Errorf("input format %s not found", e.inputFormatName)
		}
	}

	e.inputFormatContext = astiav.AllocFormatContext()
	if e.inputFormatContext == nil {
		return errors.New("unable to allocate input format context")
	}

	if err := e.inputFormatContext.OpenInput(path, e.inputFormat, nil); err != nil {
		e.inputFormatContext.Free()
		e.inputFormatContext = nil
		return fmt.Errorf("open: %w", err)
	}

	if err := e.inputFormatContext.FindStreamInfo(nil); err != nil {
		e.closeInput()
		return fmt.Errorf("find-stream-info: %w", err)
	}

	for _, stream := range e.inputFormatContext.Streams() {
		if stream.CodecParameters().MediaType() != astiav.MediaTypeVideo {
			continue
		}
		e.inputStream = stream
		break
	}
	if e.inputStream == nil {
		e.closeInput()
		return errors.New("no video stream")
	}

	params := e.inputStream.CodecParameters()
	e.log.Info("input stream", "codec", params.CodecID().Name(), "width", params.Width(), "height", params.Height())
	return nil
}

// PrepareAsync opens the decoder and the scaler in the background
func (e *Engine) PrepareAsync(ctx context.Context, target decoder.Target, events chan<- decoder.Event) {
	e.ctx = ctx
	e.target = target
	e.events = events

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if err := e.openDecoder(); err != nil {
			decoder.Emit(ctx, events, decoder.Error{Code: CodeOpen, Err: err})
			return
		}
		if !decoder.Emit(ctx, events, decoder.Prepared{}) {
			return
		}

		select {
		case <-e.start:
			e.processFrames()
		case <-ctx.Done():
		}
	}()
}

func (e *Engine) openDecoder() error {
	params := e.inputStream.CodecParameters()

	if e.decoderCodecName != "" {
		e.decoderCodec = astiav.FindDecoderByName(e.decoderCodecName)
	} else {
		e.decoderCodec = astiav.FindDecoder(params.CodecID())
	}
	if e.decoderCodec == nil {
		return fmt.Errorf("decoder codec not found for %s", params.CodecID().Name())
	}

	e.decoderContext = astiav.AllocCodecContext(e.decoderCodec)
	if e.decoderContext == nil {
		return fmt.Errorf("unable to allocate decoder codec context")
	}
	if err := params.ToCodecContext(e.decoderContext); err != nil {
		return fmt.Errorf("unable to update codec context: %w", err)
	}
	if err := e.decoderContext.Open(e.decoderCodec, nil); err != nil {
		return fmt.Errorf("unable to start decoder codec: %w", err)
	}

	info := e.target.Info()
	var err error
	e.scaleContext, err = astiav.CreateSoftwareScaleContext(
		e.decoderContext.Width(), e.decoderContext.Height(), e.decoderContext.PixelFormat(),
		info.Width, info.Height, pixelFormat(info.FrameType),
		astiav.NewSoftwareScaleContextFlags(astiav.SoftwareScaleContextFlagBilinear),
	)
	if err != nil {
		return fmt.Errorf("unable to create scale context: %w", err)
	}

	e.packet = astiav.AllocPacket()
	e.decFrame = astiav.AllocFrame()
	e.rgbaFrame = astiav.AllocFrame()
	e.rgbaFrame.SetWidth(info.Width)
	e.rgbaFrame.SetHeight(info.Height)
	e.rgbaFrame.SetPixelFormat(pixelFormat(info.FrameType))
	if err := e.rgbaFrame.AllocBuffer(frameAlign); err != nil {
		return fmt.Errorf("unable to allocate scaled frame: %w", err)
	}

	fps := e.inputStream.AvgFrameRate().Float64()
	if fps <= 0 {
		fps = defaultFrameRate
	}
	e.frameInterval = time.Duration(float64(time.Second) / fps)
	e.log.Debug("decoder opened", "codec", e.decoderCodec.Name(), "pixfmt", e.decoderContext.PixelFormat().String(), "fps", fps)
	return nil
}

func (e *Engine) processFrames() {
	next := time.Now()
	for {
		err := e.inputFormatContext.ReadFrame(e.packet)
		if err != nil {
			if errors.Is(err, astiav.ErrEof) {
				e.drain(&next)
				decoder.Emit(e.ctx, e.events, decoder.EndOfStream{})
				return
			}
			decoder.Emit(e.ctx, e.events, decoder.Error{Code: CodeDecode, Err: err})
			return
		}

		if e.packet.StreamIndex() != e.inputStream.Index() {
			e.packet.Unref()
			continue
		}

		err = e.decoderContext.SendPacket(e.packet)
		e.packet.Unref()
		if err != nil {
			decoder.Emit(e.ctx, e.events, decoder.Error{Code: CodeDecode, Err: fmt.Errorf("unable to send packet: %w", err)})
			return
		}

		if !e.receiveFrames(&next) {
			return
		}
	}
}

// drain flushes the frames buffered in the decoder at end of stream
func (e *Engine) drain(next *time.Time) {
	if err := e.decoderContext.SendPacket(nil); err != nil {
		return
	}
	e.receiveFrames(next)
}

// receiveFrames hands every frame the decoder has ready to the target,
// paced at the stream frame rate. Returns false when decoding must stop.
func (e *Engine) receiveFrames(next *time.Time) bool {
	for {
		err := e.decoderContext.ReceiveFrame(e.decFrame)
		if err != nil {
			if errors.Is(err, astiav.ErrEof) || errors.Is(err, astiav.ErrEagain) {
				return true
			}
			decoder.Emit(e.ctx, e.events, decoder.Error{Code: CodeDecode, Err: err})
			return false
		}

		ok := e.deliver()
		e.decFrame.Unref()
		if !ok {
			return false
		}

		*next = next.Add(e.frameInterval)
		select {
		case <-time.After(time.Until(*next)):
		case <-e.ctx.Done():
			return false
		}
	}
}

func (e *Engine) deliver() bool {
	if err := e.scaleContext.ScaleFrame(e.decFrame, e.rgbaFrame); err != nil {
		decoder.Emit(e.ctx, e.events, decoder.Error{Code: CodeScale, Err: err})
		return false
	}

	raw, err := e.rgbaFrame.Data().Bytes(frameAlign)
	if err != nil {
		decoder.Emit(e.ctx, e.events, decoder.Error{Code: CodeScale, Err: err})
		return false
	}

	frame, err := e.target.DequeueFrame(e.ctx)
	if err != nil {
		return false
	}
	if err := fillPadded(frame, raw); err != nil {
		e.log.Warn("dropping frame", "error", err)
		e.target.CancelFrame(frame)
		return true
	}
	e.target.QueueFrame(frame)
	return true
}

// fillPadded copies a single plane picture whose rows are padded to a
// common stride
func fillPadded(frame *encdec.Frame, raw []byte) error {
	if frame.Height < 1 || len(raw)%frame.Height != 0 {
		return fmt.Errorf("buffer of size %d is not %d padded rows", len(raw), frame.Height)
	}
	return frame.FillStrided(raw, len(raw)/frame.Height)
}

func (e *Engine) Start() error {
	e.startOnce.Do(func() { close(e.start) })
	return nil
}

func (e *Engine) Stop() error {
	return nil
}

func (e *Engine) closeInput() {
	if e.inputFormatContext == nil {
		return
	}
	e.inputFormatContext.CloseInput()
	e.inputFormatContext.Free()
	e.inputFormatContext = nil
}

// Release frees the libav objects once the decode goroutine is gone
func (e *Engine) Release() {
	e.wg.Wait()

	if e.rgbaFrame != nil {
		e.rgbaFrame.Free()
	}
	if e.decFrame != nil {
		e.decFrame.Free()
	}
	if e.packet != nil {
		e.packet.Free()
	}
	if e.scaleContext != nil {
		e.scaleContext.Free()
	}
	if e.decoderContext != nil {
		e.decoderContext.Free()
	}
	e.closeInput()
}
