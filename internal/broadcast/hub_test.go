package broadcast

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/staffboard/staffboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMaxClients = 5

func testEvent(kind domain.EventKind, recipientID uuid.UUID, title string) domain.NotificationEvent {
	return domain.NotificationEvent{
		Kind: kind,
		Notification: domain.Notification{
			ID:          uuid.New(),
			RecipientID: recipientID,
			Type:        domain.NotificationAnnouncement,
			Title:       title,
			Priority:    domain.PriorityNormal,
			CreatedAt:   time.Now().UTC(),
		},
	}
}

// testHub sets up a Hub with a test HTTP server.
func testHub(t *testing.T, onFirstClient, onRecipientEmpty func(uuid.UUID)) (*Hub, func(recipientID uuid.UUID) *ws.Conn) {
	t.Helper()

	hub := NewHub(onFirstClient, onRecipientEmpty, clockwork.NewRealClock(), testMaxClients)
	t.Cleanup(func() { hub.Stop() })

	upgrader := ws.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Fatalf("upgrade failed: %v", err)
		}
		recipientID := uuid.MustParse(r.URL.Query().Get("recipient"))
		_ = hub.Register(recipientID, conn)

		go func() {
			defer hub.Unregister(recipientID, conn)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					break
				}
			}
		}()
	}))
	t.Cleanup(func() { server.Close() })

	dial := func(recipientID uuid.UUID) *ws.Conn {
		t.Helper()
		url := "ws" + strings.TrimPrefix(server.URL, "http") + "?recipient=" + recipientID.String()
		conn, _, err := ws.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		t.Cleanup(func() { conn.Close() })
		return conn
	}

	return hub, dial
}

func waitForClientCount(h *Hub, recipientID uuid.UUID, expected int) bool {
	for range 100 {
		if h.GetClientCount(recipientID) == expected {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return false
}

func TestHub_RegisterAndReceiveEvent(t *testing.T) {
	hub, dial := testHub(t, nil, nil)
	recipientID := uuid.New()

	conn := dial(recipientID)
	require.True(t, waitForClientCount(hub, recipientID, 1))

	require.NoError(t, hub.Publish(testEvent(domain.EventCreated, recipientID, "Parking lot closed Monday")))

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var event domain.NotificationEvent
	require.NoError(t, json.Unmarshal(msg, &event))
	assert.Equal(t, domain.EventCreated, event.Kind)
	assert.Equal(t, "Parking lot closed Monday", event.Notification.Title)
}

func TestHub_MultipleClients(t *testing.T) {
	hub, dial := testHub(t, nil, nil)
	recipientID := uuid.New()

	conn1 := dial(recipientID)
	conn2 := dial(recipientID)
	require.True(t, waitForClientCount(hub, recipientID, 2))

	require.NoError(t, hub.Publish(testEvent(domain.EventCreated, recipientID, "payday")))

	// Both clients should receive the event
	for _, conn := range []*ws.Conn{conn1, conn2} {
		conn.SetReadDeadline(time.Now().Add(time.Second))
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)

		var event domain.NotificationEvent
		require.NoError(t, json.Unmarshal(msg, &event))
		assert.Equal(t, "payday", event.Notification.Title)
	}
}

func TestHub_EventRoutedToOwnRecipientOnly(t *testing.T) {
	hub, dial := testHub(t, nil, nil)
	recipient1 := uuid.New()
	recipient2 := uuid.New()

	conn1 := dial(recipient1)
	conn2 := dial(recipient2)
	require.True(t, waitForClientCount(hub, recipient1, 1))
	require.True(t, waitForClientCount(hub, recipient2, 1))

	require.NoError(t, hub.Publish(testEvent(domain.EventCreated, recipient1, "for you only")))

	conn1.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err := conn1.ReadMessage()
	require.NoError(t, err)

	conn2.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err = conn2.ReadMessage()
	assert.Error(t, err, "other recipient should not receive the event")
}

func TestHub_FirstAndLastClientCallbacks(t *testing.T) {
	var mu sync.Mutex
	var firsts, empties []uuid.UUID
	onFirst := func(id uuid.UUID) {
		mu.Lock()
		defer mu.Unlock()
		firsts = append(firsts, id)
	}
	onEmpty := func(id uuid.UUID) {
		mu.Lock()
		defer mu.Unlock()
		empties = append(empties, id)
	}

	hub, dial := testHub(t, onFirst, onEmpty)
	recipientID := uuid.New()

	conn1 := dial(recipientID)
	require.True(t, waitForClientCount(hub, recipientID, 1))

	conn2 := dial(recipientID)
	require.True(t, waitForClientCount(hub, recipientID, 2))

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	require.Len(t, firsts, 1, "onFirstClient fires once per recipient")
	assert.Equal(t, recipientID, firsts[0])
	mu.Unlock()

	// Close first: still one client left, no callback
	conn1.Close()
	require.True(t, waitForClientCount(hub, recipientID, 1))
	mu.Lock()
	assert.Empty(t, empties)
	mu.Unlock()

	// Close second: last client, callback fires
	conn2.Close()
	require.True(t, waitForClientCount(hub, recipientID, 0))
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	require.Len(t, empties, 1)
	assert.Equal(t, recipientID, empties[0])
	mu.Unlock()
}

func TestHub_GetClientCount(t *testing.T) {
	hub, dial := testHub(t, nil, nil)
	recipientID := uuid.New()

	assert.Equal(t, 0, hub.GetClientCount(recipientID))

	conn1 := dial(recipientID)
	require.True(t, waitForClientCount(hub, recipientID, 1))

	dial(recipientID)
	require.True(t, waitForClientCount(hub, recipientID, 2))

	conn1.Close()
	require.True(t, waitForClientCount(hub, recipientID, 1))
}

func TestHub_MaxClientsPerRecipient(t *testing.T) {
	hub := NewHub(nil, nil, clockwork.NewRealClock(), testMaxClients)
	t.Cleanup(func() { hub.Stop() })

	recipientID := uuid.New()

	conns := make([]*ws.Conn, 0, testMaxClients)
	for i := range testMaxClients {
		server, client := newTestConnPair(t)
		err := hub.Register(recipientID, server)
		require.NoError(t, err, "client %d should register successfully", i)
		conns = append(conns, client)
	}

	assert.Equal(t, testMaxClients, hub.GetClientCount(recipientID))

	// The next client should be rejected
	server, _ := newTestConnPair(t)
	err := hub.Register(recipientID, server)
	assert.Error(t, err, "client beyond max should be rejected")
	assert.Contains(t, err.Error(), "max clients per recipient")

	for _, c := range conns {
		c.Close()
	}
}

func newTestConnPair(t *testing.T) (server *ws.Conn, client *ws.Conn) {
	t.Helper()
	upgrader := ws.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	ready := make(chan *ws.Conn, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Fatalf("upgrade failed: %v", err)
		}
		ready <- conn
	}))
	t.Cleanup(func() { srv.Close() })

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	clientConn, _, err := ws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { clientConn.Close() })

	serverConn := <-ready
	t.Cleanup(func() { serverConn.Close() })

	return serverConn, clientConn
}

func TestHub_PublishWithoutClients(t *testing.T) {
	hub := NewHub(nil, nil, clockwork.NewRealClock(), testMaxClients)
	t.Cleanup(func() { hub.Stop() })

	// No live clients; publish must be a silent no-op
	require.NoError(t, hub.Publish(testEvent(domain.EventCreated, uuid.New(), "nobody home")))
	time.Sleep(50 * time.Millisecond)
}

func TestHub_StopWithActiveClients(t *testing.T) {
	var mu sync.Mutex
	var emptyCalled []uuid.UUID
	onEmpty := func(id uuid.UUID) {
		mu.Lock()
		defer mu.Unlock()
		emptyCalled = append(emptyCalled, id)
	}

	hub := NewHub(nil, onEmpty, clockwork.NewRealClock(), testMaxClients)

	recipient1 := uuid.New()
	recipient2 := uuid.New()

	server1, client1 := newTestConnPair(t)
	require.NoError(t, hub.Register(recipient1, server1))

	server2, client2 := newTestConnPair(t)
	require.NoError(t, hub.Register(recipient2, server2))

	assert.Equal(t, 1, hub.GetClientCount(recipient1))
	assert.Equal(t, 1, hub.GetClientCount(recipient2))

	hub.Stop()

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, emptyCalled, 2)
	assert.Contains(t, emptyCalled, recipient1)
	assert.Contains(t, emptyCalled, recipient2)

	client1.Close()
	client2.Close()
}

func TestHub_StopIdempotent(t *testing.T) {
	hub := NewHub(nil, nil, clockwork.NewRealClock(), testMaxClients)

	recipientID := uuid.New()
	server, client := newTestConnPair(t)
	require.NoError(t, hub.Register(recipientID, server))
	t.Cleanup(func() { client.Close() })

	// Call Stop multiple times - should not panic
	hub.Stop()
	hub.Stop()
	hub.Stop()

	time.Sleep(50 * time.Millisecond)
}
