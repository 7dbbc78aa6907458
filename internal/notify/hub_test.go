package notify

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/logger"
	"fintrack/internal/models"
)

func init() {
	logger.Init("test")
}

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := hub.Serve(w, r, r.URL.Query().Get("user")); err != nil {
			t.Logf("serve: %v", err)
		}
	}))
	t.Cleanup(func() {
		_ = hub.Close()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestHubPublish(t *testing.T) {
	hub, url := startHub(t)

	alice := dial(t, url+"?user=alice")
	bob := dial(t, url+"?user=bob")

	require.Eventually(t, func() bool { return hub.Sessions() == 2 }, 2*time.Second, 10*time.Millisecond)

	hub.Publish(&models.Notification{
		Base:    models.Base{ID: "n-1"},
		UserID:  "alice",
		Type:    models.NotificationBudgetExceeded,
		Title:   "Budget Exceeded!",
		Message: "You have exceeded your Food budget of 500.00. Total spent: 550.00",
	})

	t.Run("owner_receives", func(t *testing.T) {
		require.NoError(t, alice.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, data, err := alice.ReadMessage()
		require.NoError(t, err)

		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, "notification", msg.Event)
		require.NotNil(t, msg.Notification)
		assert.Equal(t, "n-1", msg.Notification.ID)
		assert.Equal(t, models.NotificationBudgetExceeded, msg.Notification.Type)
	})

	t.Run("other_users_do_not", func(t *testing.T) {
		require.NoError(t, bob.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
		_, _, err := bob.ReadMessage()
		assert.Error(t, err)
	})
}

func TestHubPublishNil(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	assert.NotPanics(t, func() { hub.Publish(nil) })
	assert.Equal(t, 0, hub.Sessions())
}
