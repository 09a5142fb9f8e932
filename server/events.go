package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/vantage-modeller/vantage/wizard"
)

const (
	eventWriteWait = 10 * time.Second
	eventPingEvery = 30 * time.Second
)

// StateEvent is pushed on the events socket after every state change.
type StateEvent struct {
	Type  string       `json:"type"` // always "state"
	ID    string       `json:"id"`
	State wizard.State `json:"state"`
}

func (s *Server) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.allowOrigin,
	}
}

// streamEvents upgrades to a websocket and pushes the session state until
// either side closes or the session is deleted.
func (s *Server) streamEvents(c *gin.Context) {
	id := c.Param("id")
	sess, ok := s.session(id)
	if !ok {
		abort(c, http.StatusNotFound, CodeNotFound, "Unknown wizard session")
		return
	}
	conn, err := s.upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already replied.
		logrus.Debugf("session %s: upgrade failed: %v", id, err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	go func() {
		select {
		case <-sess.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	// The read side only notices the client going away.
	go func() {
		defer cancel()
		conn.SetReadLimit(512)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logrus.Debugf("session %s: events socket: %v", id, err)
				}
				return
			}
		}
	}()

	ping := time.NewTicker(eventPingEvery)
	defer ping.Stop()
	updates := sess.ctrl.Watch(ctx)
	for {
		select {
		case st, open := <-updates:
			if !open {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(eventWriteWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(eventWriteWait))
			if err := conn.WriteJSON(StateEvent{Type: "state", ID: id, State: st}); err != nil {
				logrus.Debugf("session %s: events write: %v", id, err)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(eventWriteWait)); err != nil {
				return
			}
		}
	}
}
