package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fosdem/quadplayer/lib/config"
	"github.com/fosdem/quadplayer/lib/stats"
)

func newTestApi(t *testing.T) (*Api, *httptest.Server, *atomic.Int32) {
	t.Helper()
	var kills atomic.Int32
	a := New(&config.ApiCfg{Bind: "127.0.0.1:0"}, stats.New(), func() { kills.Add(1) })
	srv := httptest.NewServer(a.Handler())
	t.Cleanup(srv.Close)
	return a, srv, &kills
}

func TestGetStats(t *testing.T) {
	a, srv, _ := newTestApi(t)
	a.Stats.CountReload()

	resp, err := http.Get(srv.URL + "/api/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var snap stats.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, uint64(1), snap.Reloads)
	assert.False(t, snap.RenderingEnabled)
}

func TestKillRequiresPost(t *testing.T) {
	_, srv, kills := newTestApi(t)

	resp, err := http.Get(srv.URL + "/api/kill")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, int32(0), kills.Load())

	resp, err = http.Post(srv.URL+"/api/kill", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(1), kills.Load())
}

func TestProfilerDisabledByDefault(t *testing.T) {
	_, srv, _ := newTestApi(t)

	resp, err := http.Get(srv.URL + "/prof")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	_, srv, _ := newTestApi(t)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWebsocketPushesStats(t *testing.T) {
	a, srv, _ := newTestApi(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, msg, err := ws.ReadMessage()
	require.NoError(t, err)

	var snap stats.Snapshot
	require.NoError(t, json.Unmarshal(msg, &snap))

	assert.Eventually(t, func() bool {
		return a.Stats.Snapshot().WsClients == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, ws.Close())
	assert.Eventually(t, func() bool {
		return a.Stats.Snapshot().WsClients == 0
	}, time.Second, 10*time.Millisecond)
}
