package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/schoolyard/internal/app/models"
	"github.com/yigit/schoolyard/internal/app/repositories"
	"github.com/yigit/schoolyard/internal/app/repositories/memory"
	"github.com/yigit/schoolyard/internal/app/services"
	"github.com/yigit/schoolyard/internal/app/session"
	"github.com/yigit/schoolyard/internal/middleware"
	"github.com/yigit/schoolyard/internal/pkg/auth"
	"github.com/yigit/schoolyard/internal/pkg/realtime"
)

type wsFixture struct {
	ctx    context.Context
	repos  *repositories.Repositories
	broker *realtime.Broker
	svc    *services.Services
	hub    *Hub
	server *httptest.Server
	viewer *session.Viewer
}

func newWSFixture(t *testing.T) *wsFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	broker := realtime.NewBroker(zerolog.Nop(), 16)
	store := memory.New(broker)
	repos := store.Repositories()
	jwt := auth.NewJWTService(auth.JWTConfig{SecretKey: "secret", AccessTokenExp: time.Hour})
	svc := services.New(repos, jwt, services.Options{}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(zerolog.Nop())
	go hub.Run(ctx)

	f := &wsFixture{ctx: context.Background(), repos: repos, broker: broker, svc: svc, hub: hub}

	school := &models.School{Name: "Central"}
	require.NoError(t, repos.Schools.Create(f.ctx, school))
	grade := "10"
	u := &models.User{Email: "ada@example.com", PasswordHash: "x"}
	p := &models.Profile{Username: "ada", SchoolID: &school.ID, GradeLevel: &grade}
	require.NoError(t, repos.Users.CreateWithProfile(f.ctx, u, p))
	viewer, err := svc.Identity.ResolveViewer(f.ctx, &auth.Claims{UserID: u.ID, Email: u.Email})
	require.NoError(t, err)
	f.viewer = viewer

	handler := NewHandler(hub, svc.Notifications, svc.Chats, broker, nil, zerolog.Nop())
	engine := gin.New()
	ws := engine.Group("/ws", func(c *gin.Context) {
		c.Set(middleware.ViewerKey, f.viewer)
		c.Next()
	})
	ws.GET("/notifications", handler.HandleNotifications)
	ws.GET("/chats/:id", handler.HandleChat)

	f.server = httptest.NewServer(engine)
	t.Cleanup(func() {
		cancel()
		f.server.Close()
	})
	return f
}

func (f *wsFixture) dial(t *testing.T, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + path
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { conn.Close() })
	return conn
}

type inFrame struct {
	Type  string          `json:"type"`
	ID    string          `json:"id"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func readFrame(t *testing.T, conn *websocket.Conn) inFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f inFrame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

// readUntil reads frames until one of type kind arrives
func readUntil(t *testing.T, conn *websocket.Conn, kind string) inFrame {
	t.Helper()
	for i := 0; i < 10; i++ {
		if f := readFrame(t, conn); f.Type == kind {
			return f
		}
	}
	t.Fatalf("no %s frame", kind)
	return inFrame{}
}

func TestNotificationSocket(t *testing.T) {
	f := newWSFixture(t)
	_, err := f.svc.Notifications.Notify(f.ctx, f.viewer.ProfileID, models.NotificationComment, "earlier", nil, nil)
	require.NoError(t, err)

	conn := f.dial(t, "/ws/notifications")
	snap := readFrame(t, conn)
	require.Equal(t, "snapshot", snap.Type)
	var list struct {
		Notifications []map[string]interface{} `json:"notifications"`
		UnreadCount   int                      `json:"unreadCount"`
	}
	require.NoError(t, json.Unmarshal(snap.Data, &list))
	assert.Len(t, list.Notifications, 1)
	assert.Equal(t, 1, list.UnreadCount)

	assert.Eventually(t, func() bool { return f.hub.ClientsCount(EndpointNotifications) == 1 }, time.Second, 10*time.Millisecond)

	pushed, err := f.svc.Notifications.Notify(f.ctx, f.viewer.ProfileID, models.NotificationComment, "fresh", nil, nil)
	require.NoError(t, err)
	frame := readUntil(t, conn, "notification")
	var view map[string]interface{}
	require.NoError(t, json.Unmarshal(frame.Data, &view))
	assert.Equal(t, pushed.ID, view["id"])

	require.NoError(t, conn.WriteJSON(Frame{Type: "mark_all_read"}))
	snap = readUntil(t, conn, "snapshot")
	require.NoError(t, json.Unmarshal(snap.Data, &list))
	assert.Equal(t, 0, list.UnreadCount)
	assert.Len(t, list.Notifications, 2)

	require.NoError(t, conn.WriteJSON(Frame{Type: "dance"}))
	assert.Equal(t, "error", readUntil(t, conn, "error").Type)

	conn.Close()
	assert.Eventually(t, func() bool {
		return f.hub.ClientsCount(EndpointNotifications) == 0 &&
			f.broker.SubscriberCount(models.RelationNotifications) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestChatSocket(t *testing.T) {
	f := newWSFixture(t)
	chat := &models.GroupChat{SchoolID: f.viewer.School(), Name: "General"}
	require.NoError(t, f.repos.Chats.CreateChat(f.ctx, chat))
	_, err := f.svc.Chats.SendMessage(f.ctx, f.viewer, chat.ID, "first")
	require.NoError(t, err)

	conn := f.dial(t, "/ws/chats/"+chat.ID)
	snap := readFrame(t, conn)
	require.Equal(t, "snapshot", snap.Type)
	assert.Equal(t, chat.ID, snap.ID)
	var history []map[string]interface{}
	require.NoError(t, json.Unmarshal(snap.Data, &history))
	require.Len(t, history, 1)
	assert.Equal(t, "first", history[0]["content"])

	require.NoError(t, conn.WriteJSON(Frame{Type: "send", Content: "hello there"}))
	seen := map[string]inFrame{}
	for len(seen) < 2 {
		fr := readFrame(t, conn)
		if fr.Type == "ack" || fr.Type == "message" {
			seen[fr.Type] = fr
		}
	}
	var pushed map[string]interface{}
	require.NoError(t, json.Unmarshal(seen["message"].Data, &pushed))
	assert.Equal(t, seen["ack"].ID, pushed["id"])
	assert.Equal(t, "ada", pushed["senderUsername"])

	require.NoError(t, conn.WriteJSON(Frame{Type: "send", Content: "   "}))
	assert.NotEmpty(t, readUntil(t, conn, "error").Error)
}

func TestChatSocketRejectsForeignChat(t *testing.T) {
	f := newWSFixture(t)
	other := &models.School{Name: "Remote"}
	require.NoError(t, f.repos.Schools.Create(f.ctx, other))
	chat := &models.GroupChat{SchoolID: other.ID, Name: "Theirs"}
	require.NoError(t, f.repos.Chats.CreateChat(f.ctx, chat))

	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws/chats/" + chat.ID
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(f.server.URL, "http")+"/ws/chats/nope", nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 0, f.broker.SubscriberCount(models.RelationMessages))
}

func TestHubShutdownClosesSessions(t *testing.T) {
	f := newWSFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(zerolog.Nop())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	handler := NewHandler(hub, f.svc.Notifications, f.svc.Chats, f.broker, []string{"*"}, zerolog.Nop())
	engine := gin.New()
	engine.GET("/ws", func(c *gin.Context) {
		c.Set(middleware.ViewerKey, f.viewer)
		handler.HandleNotifications(c)
	})
	server := httptest.NewServer(engine)
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	readFrame(t, conn)

	cancel()
	<-done
	assert.Equal(t, 0, hub.ClientsCount(EndpointNotifications))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
	assert.False(t, hub.Register(&Client{}))
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://school.example"})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.True(t, check(req))
	req.Header.Set("Origin", "https://school.example")
	assert.True(t, check(req))
	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, check(req))
	assert.True(t, originChecker(nil)(req))
}
