package stats

import (
	"sync"
	"time"

	"github.com/fosdem/quadplayer/lib/bridge"
	"github.com/fosdem/quadplayer/lib/rendering"
)

type SessionStats struct {
	ID     string `json:"id"`
	Engine string `json:"engine"`
	Path   string `json:"path"`
	State  string `json:"state"`
	Error  string `json:"error,omitempty"`
}

// Snapshot is what the API serves
type Snapshot struct {
	TextureUpload      uint64  `json:"texture_upload"`
	TextureUploadAvgMb float64 `json:"texture_upload_avg_mb"`
	Uptime             float64 `json:"uptime"`
	FPS                uint64  `json:"fps"`
	WsClients          int     `json:"ws_clients"`
	Reloads            uint64  `json:"reloads"`

	RenderingEnabled bool                 `json:"rendering_enabled"`
	Frames           bridge.FrameCounters `json:"frames"`
	PendingFrames    uint64               `json:"pending_frames"`
	QueuedFrames     int                  `json:"queued_frames"`
	Session          *SessionStats        `json:"session,omitempty"`
}

// Stats is written by the render loop and read by the API
type Stats struct {
	mu   sync.Mutex
	snap Snapshot

	frameCounter uint64
	frameTimer   time.Time
	start        time.Time
}

func New() *Stats {
	s := &Stats{}
	s.start = time.Now()
	s.frameTimer = s.start
	return s
}

// Update is called once per rendered frame with the current bridge, which
// may be nil between surfaces
func (s *Stats) Update(b *bridge.Bridge) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frameCounter++
	if time.Since(s.frameTimer) > 1*time.Second {
		s.snap.FPS = s.frameCounter
		s.frameCounter = 0
		s.frameTimer = time.Now()
	}

	s.snap.Uptime = float64(time.Since(s.start).Nanoseconds()) / 1e9
	s.snap.TextureUpload = rendering.TextureUploadCounter()
	if s.snap.Uptime > 0 {
		s.snap.TextureUploadAvgMb = float64(s.snap.TextureUpload) / (s.snap.Uptime * 1024 * 1024)
	}

	if b == nil {
		s.snap.RenderingEnabled = false
		s.snap.Session = nil
		return
	}

	s.snap.RenderingEnabled = b.Enabled()
	s.snap.Frames = b.Counters()
	s.snap.PendingFrames = s.snap.Frames.Pending()
	s.snap.QueuedFrames = b.Surface().Pending()

	session := b.Session()
	s.snap.Session = &SessionStats{
		ID:     session.ID().String(),
		Engine: session.EngineName(),
		Path:   session.Path(),
		State:  session.State().String(),
	}
	if err := session.Err(); err != nil {
		s.snap.Session.Error = err.Error()
	}
}

func (s *Stats) CountReload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Reloads++
}

func (s *Stats) SetWsClients(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.WsClients = n
}

func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snap
	if snap.Session != nil {
		session := *snap.Session
		snap.Session = &session
	}
	return snap
}
