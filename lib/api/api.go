package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime/pprof"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/fosdem/quadplayer/docs"
	"github.com/fosdem/quadplayer/lib/config"
	"github.com/fosdem/quadplayer/lib/log"
	"github.com/fosdem/quadplayer/lib/metrics"
	"github.com/fosdem/quadplayer/lib/stats"
)

type Api struct {
	srv      http.Server
	mux      *http.ServeMux
	cfg      *config.ApiCfg
	shutdown func()
	logger   *slog.Logger

	Stats *stats.Stats

	wsMu      sync.Mutex
	wsClients map[*websocket.Conn]bool
}

// New wires the handlers. shutdown is called when a client asks the player
// to exit through /api/kill.
func New(cfg *config.ApiCfg, st *stats.Stats, shutdown func()) *Api {
	a := &Api{}
	a.cfg = cfg
	a.mux = http.NewServeMux()
	a.shutdown = shutdown
	a.logger = log.Module("api")
	a.srv.Addr = cfg.Bind
	a.srv.Handler = a.mux
	a.wsClients = make(map[*websocket.Conn]bool)
	a.Stats = st

	if a.cfg.EnableProfiler {
		a.mux.HandleFunc("/prof", a.profileCPU)
	}
	a.mux.HandleFunc("POST /api/kill", a.suicide)
	a.mux.HandleFunc("GET /api/stats", a.getStats)
	a.mux.HandleFunc("/api/ws", a.handleWebsocket)
	a.mux.Handle("/metrics", metrics.Handler())
	a.mux.Handle("/swagger/", httpSwagger.WrapHandler)
	return a
}

func (a *Api) Handler() http.Handler {
	return a.mux
}

func (a *Api) Serve() error {
	err := a.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// ServeInBackground binds synchronously so address errors surface to the
// caller, then serves from a goroutine.
func (a *Api) ServeInBackground() error {
	ln, err := net.Listen("tcp", a.cfg.Bind)
	if err != nil {
		return fmt.Errorf("could not listen on %s: %w", a.cfg.Bind, err)
	}
	a.logger.Info("api listening", "addr", ln.Addr().String())
	go func() {
		err := a.srv.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("api server stopped", "error", err)
		}
	}()
	return nil
}

func (a *Api) Shutdown(ctx context.Context) error {
	a.wsMu.Lock()
	for ws := range a.wsClients {
		_ = ws.Close()
	}
	a.wsMu.Unlock()
	return a.srv.Shutdown(ctx)
}

// @Summary	Capture a 10 second CPU profile
// @Router		/prof [get]
// @Tags		debug
// @Produce	octet-stream
// @Success	200
func (a *Api) profileCPU(w http.ResponseWriter, _ *http.Request) {
	err := pprof.StartCPUProfile(w)
	if err != nil {
		http.Error(w, fmt.Sprintf("Could not start CPU profile: %s", err), http.StatusInternalServerError)
		return
	}
	time.Sleep(10 * time.Second)
	pprof.StopCPUProfile()
}

// @Summary	Stop the player
// @Router		/api/kill [post]
// @Tags		base
// @Produce	json
// @Success	200	{string}	string	"ok"
func (a *Api) suicide(w http.ResponseWriter, _ *http.Request) {
	a.logger.Warn("shutting down as per api request")
	if a.shutdown != nil {
		a.shutdown()
	}
	_, err := fmt.Fprintf(w, "\"ok\"\n")
	if err != nil {
		a.logger.Error("could not write response", "error", err)
		return
	}
}

// @Summary	Get renderer, bridge and decoder statistics
// @Router		/api/stats [get]
// @Tags		base
// @Produce	json
// @Success	200	{object}	stats.Snapshot
func (a *Api) getStats(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	encoder := json.NewEncoder(w)
	err := encoder.Encode(a.Stats.Snapshot())
	if err != nil {
		http.Error(w, fmt.Sprintf("could encode stats: %s", err), http.StatusInternalServerError)
		return
	}
}
