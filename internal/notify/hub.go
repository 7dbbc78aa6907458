// Package notify pushes stored notifications to a user's open websocket
// connections.
package notify

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/olahol/melody"
	"go.uber.org/zap"

	"fintrack/internal/logger"
	"fintrack/internal/models"
)

const userKey = "user_id"

// Message is the frame sent to clients.
type Message struct {
	Event        string               `json:"event"`
	Notification *models.Notification `json:"notification"`
}

// Hub fans notifications out to websocket sessions keyed by user.
type Hub struct {
	m   *melody.Melody
	log *zap.SugaredLogger
}

// NewHub configures a melody instance for notification streaming.
func NewHub() *Hub {
	m := melody.New()
	m.Config.MaxMessageSize = 1024
	m.Config.PingPeriod = 30 * time.Second
	m.Config.PongWait = 60 * time.Second

	h := &Hub{m: m, log: logger.Named("notify")}

	m.HandleConnect(func(s *melody.Session) {
		h.log.Debugw("websocket connected", "user_id", sessionUser(s))
	})
	m.HandleDisconnect(func(s *melody.Session) {
		h.log.Debugw("websocket disconnected", "user_id", sessionUser(s))
	})
	m.HandleError(func(s *melody.Session, err error) {
		h.log.Warnw("websocket error", "user_id", sessionUser(s), "error", err)
	})

	return h
}

// Serve upgrades the request and subscribes the connection to userID's notifications.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID string) error {
	return h.m.HandleRequestWithKeys(w, r, map[string]any{userKey: userID})
}

// Publish sends n to every session of its owner. Delivery is best effort.
func (h *Hub) Publish(n *models.Notification) {
	if n == nil {
		return
	}

	msg, err := json.Marshal(Message{Event: "notification", Notification: n})
	if err != nil {
		h.log.Errorw("failed to encode notification", "notification_id", n.ID, "error", err)
		return
	}

	err = h.m.BroadcastFilter(msg, func(s *melody.Session) bool {
		return sessionUser(s) == n.UserID
	})
	if err != nil {
		h.log.Warnw("failed to broadcast notification", "user_id", n.UserID, "error", err)
	}
}

// Sessions returns the number of open connections.
func (h *Hub) Sessions() int {
	return h.m.Len()
}

// Close disconnects every session.
func (h *Hub) Close() error {
	return h.m.Close()
}

func sessionUser(s *melody.Session) string {
	v, ok := s.Get(userKey)
	if !ok {
		return ""
	}
	id, _ := v.(string)
	return id
}
