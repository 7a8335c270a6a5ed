package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(req *http.Request) bool {
		return true
	},
}

const (
	statsInterval = 2 * time.Second
	writeTimeout  = 10 * time.Second
)

// @Summary	Open websocket for realtime status information
// @Router		/api/ws [get]
// @Param		Upgrade	header	string	true	"websocket"
// @Tags		base
// @Success	101
func (a *Api) handleWebsocket(w http.ResponseWriter, req *http.Request) {
	ws, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		// Upgrade already replied to the client
		a.logger.Warn("couldn't make websocket", "error", err)
		return
	}
	defer func(ws *websocket.Conn) {
		_ = ws.Close()
	}(ws)

	a.addClient(ws)
	defer a.removeClient(ws)

	done := make(chan struct{})
	defer close(done)
	go a.websocketWriter(ws, done)

	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			break
		}
		a.logger.Debug("websocket message", "msg", string(msg))
	}
}

func (a *Api) addClient(ws *websocket.Conn) {
	a.wsMu.Lock()
	defer a.wsMu.Unlock()
	a.wsClients[ws] = true
	a.Stats.SetWsClients(len(a.wsClients))
}

func (a *Api) removeClient(ws *websocket.Conn) {
	a.wsMu.Lock()
	defer a.wsMu.Unlock()
	delete(a.wsClients, ws)
	a.Stats.SetWsClients(len(a.wsClients))
}

func (a *Api) writeStats(ws *websocket.Conn) error {
	packet, err := json.Marshal(a.Stats.Snapshot())
	if err != nil {
		return fmt.Errorf("could not encode stats: %w", err)
	}
	err = ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err != nil {
		return fmt.Errorf("could not set write deadline: %w", err)
	}
	return ws.WriteMessage(websocket.TextMessage, packet)
}

// websocketWriter is the only writer on ws
func (a *Api) websocketWriter(ws *websocket.Conn, done <-chan struct{}) {
	if err := a.writeStats(ws); err != nil {
		a.logger.Debug("websocket write failed", "error", err)
		return
	}

	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := a.writeStats(ws); err != nil {
				a.logger.Debug("websocket write failed", "error", err)
				_ = ws.Close()
				return
			}
		}
	}
}
