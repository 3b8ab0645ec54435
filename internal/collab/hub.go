package collab

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/engmostafaayman001-hub/markode-ai/internal/logging"
	"github.com/engmostafaayman001-hub/markode-ai/internal/metrics"
)

// --- Command types ---

type hubCmd interface{ hubCmd() }

type cmdRegister struct {
	conn  *websocket.Conn
	errCh chan error
}

func (cmdRegister) hubCmd() {}

type cmdUnregister struct {
	conn *websocket.Conn
}

func (cmdUnregister) hubCmd() {}

type cmdMessage struct {
	conn *websocket.Conn
	raw  []byte
}

func (cmdMessage) hubCmd() {}

type cmdClientCount struct {
	replyCh chan int
}

func (cmdClientCount) hubCmd() {}

type cmdProjectClientCount struct {
	projectID string
	replyCh   chan int
}

func (cmdProjectClientCount) hubCmd() {}

type cmdStop struct{}

func (cmdStop) hubCmd() {}

// --- Hub ---

// client is the hub's view of one open channel: its serialized writer and
// the project it is currently viewing ("" until the first join_project).
type client struct {
	writer    *clientWriter
	projectID string
}

// Hub relays code changes between channels editing the same project. All
// state is owned by the single run goroutine; the public API communicates
// with it over cmdCh, so no locking is needed anywhere.
//
// Routing is project-scoped: a code_change reaches exactly the open
// channels whose current project matches the message's project, minus the
// sender. A channel that never joined a project receives nothing.
type Hub struct {
	cmdCh          chan hubCmd
	clock          clockwork.Clock
	maxConnections int
	clients        map[*websocket.Conn]*client
	projectCounts  map[string]int
}

// NewHub creates a hub and starts its run goroutine. maxConnections <= 0
// means unlimited.
func NewHub(clock clockwork.Clock, maxConnections int) *Hub {
	hub := &Hub{
		cmdCh:          make(chan hubCmd, 256),
		clock:          clock,
		maxConnections: maxConnections,
		clients:        make(map[*websocket.Conn]*client),
		projectCounts:  make(map[string]int),
	}
	go hub.run()
	return hub
}

func (h *Hub) run() {
	for cmd := range h.cmdCh {
		switch c := cmd.(type) {
		case cmdRegister:
			h.handleRegister(c)
		case cmdUnregister:
			h.handleUnregister(c.conn, "")
		case cmdMessage:
			h.handleMessage(c.conn, c.raw)
		case cmdClientCount:
			c.replyCh <- len(h.clients)
		case cmdProjectClientCount:
			c.replyCh <- h.projectCounts[c.projectID]
		case cmdStop:
			h.handleStop()
			return
		}
	}
}

func (h *Hub) handleRegister(c cmdRegister) {
	if h.maxConnections > 0 && len(h.clients) >= h.maxConnections {
		slog.Warn("rejecting connection: hub at capacity", "max_connections", h.maxConnections)
		metrics.WebSocketConnectionsRejected.WithLabelValues("global_limit").Inc()
		metrics.WebSocketConnectionsTotal.WithLabelValues("rejected").Inc()
		c.conn.Close()
		c.errCh <- fmt.Errorf("max connections (%d) reached", h.maxConnections)
		return
	}

	h.clients[c.conn] = &client{writer: newClientWriter(c.conn, h.clock)}
	metrics.WebSocketConnectionsCurrent.Inc()
	metrics.WebSocketConnectionsTotal.WithLabelValues("success").Inc()
	slog.Debug("channel registered", "total_clients", len(h.clients))
	c.errCh <- nil
}

func (h *Hub) handleUnregister(conn *websocket.Conn, closeReason string) {
	c, exists := h.clients[conn]
	if !exists {
		return
	}

	if closeReason != "" {
		c.writer.stopGraceful(closeReason)
	} else {
		c.writer.stop()
	}
	delete(h.clients, conn)
	h.dropProjectMembership(c)
	metrics.WebSocketConnectionsCurrent.Dec()
	slog.Debug("channel unregistered", "remaining_clients", len(h.clients))
}

func (h *Hub) handleMessage(conn *websocket.Conn, raw []byte) {
	c, exists := h.clients[conn]
	if !exists {
		return
	}
	c.writer.recordActivity()

	var msg Envelope
	if err := json.Unmarshal(raw, &msg); err != nil {
		// Malformed frames are dropped; the connection stays open.
		metrics.HubMessagesTotal.WithLabelValues("malformed").Inc()
		slog.Warn("dropping malformed frame", "error", err)
		return
	}

	switch msg.Type {
	case TypeJoinProject:
		metrics.HubMessagesTotal.WithLabelValues(TypeJoinProject).Inc()
		h.handleJoin(conn, c, msg.ProjectID)
	case TypeLeaveProject:
		metrics.HubMessagesTotal.WithLabelValues(TypeLeaveProject).Inc()
		h.dropProjectMembership(c)
	case TypeCodeChange:
		metrics.HubMessagesTotal.WithLabelValues(TypeCodeChange).Inc()
		h.handleCodeChange(conn, c, msg)
	default:
		// Unknown types are a silent no-op so newer clients keep working.
		metrics.HubMessagesTotal.WithLabelValues("unknown").Inc()
	}
}

// handleJoin switches the channel onto a project and confirms to the
// sender alone. Joining while in another project leaves the old one.
func (h *Hub) handleJoin(conn *websocket.Conn, c *client, projectID string) {
	if projectID == "" {
		slog.Warn("join_project without projectId ignored")
		return
	}

	if c.projectID != projectID {
		h.dropProjectMembership(c)
		c.projectID = projectID
		h.projectCounts[projectID]++
		metrics.HubActiveProjects.Set(float64(len(h.projectCounts)))
		logging.WithProject(projectID).Debug("channel joined project", "project_clients", h.projectCounts[projectID])
	}

	if !c.writer.trySend(joinedFrame(projectID)) {
		h.evictSlow(conn, "slow consumer")
	}
}

// handleCodeChange fans the change out to every other channel currently on
// the same project. Delivery is best effort: a closed or slow recipient is
// skipped (and evicted if slow) without affecting the rest.
func (h *Hub) handleCodeChange(sender *websocket.Conn, c *client, msg Envelope) {
	projectID := msg.ProjectID
	if projectID == "" {
		projectID = c.projectID
	}
	if projectID == "" {
		return
	}

	metrics.HubBroadcastsTotal.Inc()
	frame := codeChangeFrame(msg.Data)

	var slow []*websocket.Conn
	for conn, recipient := range h.clients {
		if conn == sender || recipient.projectID != projectID {
			continue
		}
		if !recipient.writer.trySend(frame) {
			slow = append(slow, conn)
		}
	}

	for _, conn := range slow {
		h.evictSlow(conn, "slow consumer")
	}
}

func (h *Hub) evictSlow(conn *websocket.Conn, reason string) {
	metrics.HubSlowClientsEvicted.Inc()
	slog.Warn("disconnecting slow client")
	h.handleUnregister(conn, reason)
}

func (h *Hub) dropProjectMembership(c *client) {
	if c.projectID == "" {
		return
	}
	h.projectCounts[c.projectID]--
	if h.projectCounts[c.projectID] <= 0 {
		delete(h.projectCounts, c.projectID)
	}
	c.projectID = ""
	metrics.HubActiveProjects.Set(float64(len(h.projectCounts)))
}

func (h *Hub) handleStop() {
	for conn, c := range h.clients {
		c.writer.stopGraceful("server shutting down")
		delete(h.clients, conn)
	}
	h.projectCounts = make(map[string]int)
	metrics.HubActiveProjects.Set(0)
}

// --- Public API ---

// Register adds a freshly upgraded connection to the hub.
func (h *Hub) Register(conn *websocket.Conn) error {
	errCh := make(chan error, 1)
	h.cmdCh <- cmdRegister{conn: conn, errCh: errCh}
	return <-errCh
}

// Unregister removes a connection; safe to call for connections the hub
// never saw or already removed.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.cmdCh <- cmdUnregister{conn: conn}
}

// HandleMessage hands one inbound frame to the hub for processing.
func (h *Hub) HandleMessage(conn *websocket.Conn, raw []byte) {
	h.cmdCh <- cmdMessage{conn: conn, raw: raw}
}

// ClientCount returns the number of open channels.
func (h *Hub) ClientCount() int {
	replyCh := make(chan int, 1)
	h.cmdCh <- cmdClientCount{replyCh: replyCh}
	return <-replyCh
}

// ProjectClientCount returns the number of channels currently on a project.
func (h *Hub) ProjectClientCount(projectID string) int {
	replyCh := make(chan int, 1)
	h.cmdCh <- cmdProjectClientCount{projectID: projectID, replyCh: replyCh}
	return <-replyCh
}

// Stop closes every channel and terminates the run goroutine.
func (h *Hub) Stop() {
	h.cmdCh <- cmdStop{}
}
