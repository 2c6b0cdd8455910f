package broadcast

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/staffboard/staffboard/internal/domain"
	"github.com/staffboard/staffboard/internal/metrics"
)

const (
	commandTimeout = 5 * time.Second  // Actor command timeout
	stopTimeout    = 10 * time.Second // Graceful shutdown timeout
)

type recipientClients map[*websocket.Conn]*clientWriter

// hubCmd is the command interface for the Hub actor.
type hubCmd interface{ isHubCmd() }

type baseHubCmd struct{}

func (baseHubCmd) isHubCmd() {}

type registerCmd struct {
	baseHubCmd
	recipientID  uuid.UUID
	connection   *websocket.Conn
	errorChannel chan error
}

type unregisterCmd struct {
	baseHubCmd
	recipientID uuid.UUID
	connection  *websocket.Conn
}

type publishCmd struct {
	baseHubCmd
	recipientID uuid.UUID
	payload     []byte
}

type getClientCountCmd struct {
	baseHubCmd
	recipientID  uuid.UUID
	replyChannel chan int
}

type stopCmd struct {
	baseHubCmd
}

// Hub manages WebSocket connections keyed by recipient and fans incoming
// notification events out to each recipient's live clients.
type Hub struct {
	cmdCh                  chan hubCmd
	clock                  clockwork.Clock
	activeClients          map[uuid.UUID]recipientClients
	onFirstClient          func(recipientID uuid.UUID)
	onRecipientEmpty       func(recipientID uuid.UUID)
	done                   chan struct{}
	stopTimeout            time.Duration
	maxClientsPerRecipient int
}

// NewHub creates a new hub and starts its actor goroutine.
// onFirstClient is called when the first client of a recipient connects on this
// instance (the server uses it to open the recipient's change-feed subscription).
// onRecipientEmpty is called when the last client disconnects.
// maxClientsPerRecipient limits connections per recipient (prevents resource exhaustion).
func NewHub(onFirstClient func(uuid.UUID), onRecipientEmpty func(uuid.UUID), clock clockwork.Clock, maxClientsPerRecipient int) *Hub {
	h := &Hub{
		cmdCh:                  make(chan hubCmd, 256),
		clock:                  clock,
		activeClients:          make(map[uuid.UUID]recipientClients),
		onFirstClient:          onFirstClient,
		onRecipientEmpty:       onRecipientEmpty,
		done:                   make(chan struct{}),
		stopTimeout:            stopTimeout,
		maxClientsPerRecipient: maxClientsPerRecipient,
	}
	go h.run()
	return h
}

// Register adds a client connection for a recipient.
// Returns an error only if max clients per recipient is reached.
func (h *Hub) Register(recipientID uuid.UUID, conn *websocket.Conn) error {
	errCh := make(chan error, 1)
	h.cmdCh <- registerCmd{recipientID: recipientID, connection: conn, errorChannel: errCh}

	// Use timeout to prevent blocking forever if the hub is stuck
	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case err := <-errCh:
		return err
	case <-timer.Chan():
		return fmt.Errorf("register command timed out after %v", commandTimeout)
	}
}

// Unregister removes a client connection for a recipient.
func (h *Hub) Unregister(recipientID uuid.UUID, conn *websocket.Conn) {
	h.cmdCh <- unregisterCmd{recipientID: recipientID, connection: conn}
}

// Publish fans a notification event out to all live clients of its recipient.
// Marshalling happens on the caller's goroutine to keep the actor loop cheap.
func (h *Hub) Publish(event domain.NotificationEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal notification event: %w", err)
	}
	h.cmdCh <- publishCmd{recipientID: event.Notification.RecipientID, payload: data}
	return nil
}

// GetClientCount returns the number of connected clients for a recipient.
// Returns -1 if the command times out.
func (h *Hub) GetClientCount(recipientID uuid.UUID) int {
	replyCh := make(chan int, 1)
	h.cmdCh <- getClientCountCmd{recipientID: recipientID, replyChannel: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case count := <-replyCh:
		return count
	case <-timer.Chan():
		slog.Warn("GetClientCount timed out", "timeout", commandTimeout)
		return -1
	}
}

// Stop shuts down the hub, closing all client connections.
// Blocks until the hub goroutine has exited or timeout is reached.
func (h *Hub) Stop() {
	h.cmdCh <- stopCmd{}

	timeout := h.clock.NewTimer(h.stopTimeout)
	defer timeout.Stop()

	select {
	case <-h.done:
		slog.Info("Hub stopped gracefully")
	case <-timeout.Chan():
		slog.Warn("Hub stop timeout exceeded, forcing exit",
			"timeout", h.stopTimeout,
		)
		metrics.HubStopTimeouts.Inc()

		// Force goroutine exit
		close(h.done)

		slog.Error("Hub goroutine may have leaked",
			"active_recipients", len(h.activeClients),
		)
	}
}

func (h *Hub) run() {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Hub panic recovered", "panic", r)
			metrics.HubPanics.Inc()
			h.closeAllClients("hub panic")
		}
	}()

	defer close(h.done)

	// Track command channel depth every second
	depthTicker := h.clock.NewTicker(1 * time.Second)
	defer depthTicker.Stop()

	for {
		select {
		case <-depthTicker.Chan():
			depth := len(h.cmdCh)
			metrics.HubCommandChannelDepth.Set(float64(depth))

			if depth > 200 { // 80% of 256
				slog.Warn("Command channel near capacity",
					"depth", depth,
					"capacity", cap(h.cmdCh),
				)
			}

		case cmd := <-h.cmdCh:
			switch c := cmd.(type) {
			case registerCmd:
				h.handleRegister(c)
			case unregisterCmd:
				h.handleUnregister(c)
			case publishCmd:
				h.handlePublish(c)
			case getClientCountCmd:
				c.replyChannel <- len(h.activeClients[c.recipientID])
			case stopCmd:
				h.handleStop()
				return
			default:
				slog.Warn("Hub received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
			}
		}
	}
}

func (h *Hub) handleRegister(c registerCmd) {
	clients, exists := h.activeClients[c.recipientID]
	if !exists {
		clients = make(recipientClients)
		h.activeClients[c.recipientID] = clients
	}

	if len(clients) >= h.maxClientsPerRecipient {
		slog.Warn("Rejecting client: max clients reached", "recipient_id", c.recipientID.String(), "max_clients", h.maxClientsPerRecipient)
		c.connection.Close()
		c.errorChannel <- fmt.Errorf("max clients per recipient (%d) reached", h.maxClientsPerRecipient)
		return
	}

	// Run callback asynchronously to avoid blocking Register
	if !exists && h.onFirstClient != nil {
		go h.onFirstClient(c.recipientID)
	}

	cw := newClientWriter(c.connection, h.clock)
	clients[c.connection] = cw

	metrics.HubActiveRecipients.Set(float64(len(h.activeClients)))
	metrics.HubConnectedClients.Inc()

	slog.Debug("Client registered", "recipient_id", c.recipientID.String(), "total_clients", len(clients))
	c.errorChannel <- nil
}

func (h *Hub) handleUnregister(c unregisterCmd) {
	clients, exists := h.activeClients[c.recipientID]
	if !exists {
		return
	}

	cw, exists := clients[c.connection]
	if !exists {
		return
	}

	cw.stop()
	delete(clients, c.connection)

	metrics.HubConnectedClients.Dec()

	if len(clients) == 0 {
		delete(h.activeClients, c.recipientID)
		metrics.HubActiveRecipients.Set(float64(len(h.activeClients)))
		if h.onRecipientEmpty != nil {
			h.onRecipientEmpty(c.recipientID)
		}
		slog.Info("Last client disconnected", "recipient_id", c.recipientID.String())
	} else {
		slog.Debug("Client unregistered", "recipient_id", c.recipientID.String(), "remaining_clients", len(clients))
	}
}

func (h *Hub) handlePublish(c publishCmd) {
	clients, exists := h.activeClients[c.recipientID]
	if !exists {
		// No live clients on this instance; the row is already persisted,
		// the client catches up on next poll.
		return
	}

	var slow []*websocket.Conn
	for conn, writer := range clients {
		select {
		case writer.sendChannel <- c.payload:
		default:
			slow = append(slow, conn)
		}
	}

	for _, conn := range slow {
		slog.Warn("Disconnecting slow client", "recipient_id", c.recipientID.String())
		metrics.HubSlowClientDisconnects.Inc()
		h.handleUnregister(unregisterCmd{recipientID: c.recipientID, connection: conn})
	}
}

func (h *Hub) handleStop() {
	totalClients := 0
	for _, clients := range h.activeClients {
		totalClients += len(clients)
	}

	slog.Info("Hub shutting down", "recipients", len(h.activeClients), "total_clients", totalClients)

	h.closeAllClients("Server shutting down")

	slog.Info("Hub shutdown complete", "disconnected_clients", totalClients)
}

// closeAllClients closes all client connections with the given reason.
// Used during panic recovery and graceful shutdown.
func (h *Hub) closeAllClients(reason string) {
	for recipientID, clients := range h.activeClients {
		for _, cw := range clients {
			cw.stopGraceful(reason)
		}
		delete(h.activeClients, recipientID)
		if h.onRecipientEmpty != nil {
			h.onRecipientEmpty(recipientID)
		}
	}
	metrics.HubActiveRecipients.Set(0)
}
