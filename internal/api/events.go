package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	eventsWriteWait  = 10 * time.Second
	eventsPongWait   = 60 * time.Second
	eventsPingPeriod = eventsPongWait * 9 / 10
	eventsBuffer     = 64
)

// eventsHandler streams orchestrator events over a WebSocket. The first frame
// is a "snapshot" StreamMessage so clients start from the current state.
func eventsHandler(cfg ServerConfig) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || isAllowedOrigin(origin)
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		requestID, _ := r.Context().Value(RequestIDKey).(string)
		logger := cfg.Logger.With("request_id", requestID)

		// Subscribe before the snapshot so nothing published in between is lost.
		events, unsubscribe := cfg.Requests.Subscribe(eventsBuffer)
		defer unsubscribe()

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", "error", err)
			return
		}
		defer conn.Close()

		logger.Info("event stream opened", "remote_addr", r.RemoteAddr)

		conn.SetWriteDeadline(time.Now().Add(eventsWriteWait))
		if err := conn.WriteJSON(StreamMessage{
			Type:    "snapshot",
			Request: SnapshotToResponse(cfg.Requests.Snapshot()),
		}); err != nil {
			logger.Warn("failed to write snapshot", "error", err)
			return
		}

		// The read pump only exists to observe pongs and the client closing.
		closed := make(chan struct{})
		conn.SetReadDeadline(time.Now().Add(eventsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(eventsPongWait))
		})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(eventsPingPeriod)
		defer ticker.Stop()

		for {
			select {
			case evt, ok := <-events:
				conn.SetWriteDeadline(time.Now().Add(eventsWriteWait))
				if !ok {
					conn.WriteMessage(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
					return
				}
				if err := conn.WriteJSON(evt); err != nil {
					logger.Warn("failed to write event", "event", evt.Type, "error", err)
					return
				}
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(eventsWriteWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-closed:
				logger.Info("event stream closed by client")
				return
			case <-r.Context().Done():
				return
			}
		}
	}
}
