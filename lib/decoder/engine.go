package decoder

import (
	"context"

	"github.com/fosdem/quadplayer/lib/encdec"
)

// Event is sent by an engine to its session
type Event interface {
	isEvent()
}

// Prepared means the engine can start producing frames
type Prepared struct{}

// Error reports an asynchronous engine failure
type Error struct {
	Code    int
	Subcode int
	Err     error
}

// EndOfStream means the end of the stream was reached
type EndOfStream struct{}

func (Prepared) isEvent()    {}
func (Error) isEvent()       {}
func (EndOfStream) isEvent() {}

// Target is where an engine writes decoded frames. It is implemented by
// surface.Surface.
type Target interface {
	Info() encdec.FrameInfo
	DequeueFrame(ctx context.Context) (*encdec.Frame, error)
	QueueFrame(frame *encdec.Frame)
	CancelFrame(frame *encdec.Frame)
}

// Engine decodes a single data source into a Target.
//
// SetDataSource must fail synchronously when the source cannot be opened.
// PrepareAsync returns immediately and later sends Prepared (or Error) on
// events. Frames are only produced after Start. Stop and Release are called
// once each, after ctx passed to PrepareAsync is cancelled; Release must not
// return while engine goroutines still touch the target.
type Engine interface {
	Name() string
	SetDataSource(path string) error
	PrepareAsync(ctx context.Context, target Target, events chan<- Event)
	Start() error
	Stop() error
	Release()
}

// Emit delivers ev unless ctx is done first
func Emit(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
