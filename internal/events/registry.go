package events

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lumen-labs/iris/internal/metrics"
)

// Role tags a connection as belonging to an admin session or a display
// client.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDisplay Role = "display"
)

// Each connection buffers this many undelivered events before the
// broadcaster starts dropping it.
const sendBuffer = 16

// Connection is one live event stream subscriber.
type Connection struct {
	ID        uuid.UUID
	Role      Role
	Display   string // display name, empty for admins
	CreatedAt time.Time

	mu     sync.Mutex
	ch     chan Event
	closed bool
}

// Events is the receive side of the connection's queue. The channel is
// closed when the connection is unregistered.
func (c *Connection) Events() <-chan Event {
	return c.ch
}

// send enqueues without blocking. It reports false when the queue is full
// or the connection is already closed.
func (c *Connection) send(evt Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.ch <- evt:
		return true
	default:
		return false
	}
}

func (c *Connection) close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.ch)
	}
	c.mu.Unlock()
}

// ConnectionInfo is the externally visible description of one connection.
type ConnectionInfo struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Display   string    `json:"display,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Stats is a point-in-time snapshot of the registry.
type Stats struct {
	Total       int              `json:"total_connections"`
	Admins      int              `json:"admin_connections"`
	Displays    int              `json:"display_connections"`
	Connections []ConnectionInfo `json:"connections"`
}

// Registry tracks every live connection. All methods are safe for
// concurrent use.
type Registry struct {
	mu    sync.RWMutex
	conns map[uuid.UUID]*Connection
}

func NewRegistry() *Registry {
	return &Registry{conns: map[uuid.UUID]*Connection{}}
}

// Register adds a connection for the given role. Display-role connections
// carry the display name they represent.
func (r *Registry) Register(role Role, display string) *Connection {
	conn := &Connection{
		ID:        uuid.New(),
		Role:      role,
		Display:   display,
		CreatedAt: time.Now(),
		ch:        make(chan Event, sendBuffer),
	}

	r.mu.Lock()
	r.conns[conn.ID] = conn
	r.mu.Unlock()

	metrics.EventConnections.WithLabelValues(string(role)).Inc()
	return conn
}

// Unregister removes the connection and closes its event channel. Unknown
// ids and repeated calls are no-ops.
func (r *Registry) Unregister(id uuid.UUID) {
	r.mu.Lock()
	conn, ok := r.conns[id]
	if ok {
		delete(r.conns, id)
	}
	r.mu.Unlock()

	if !ok {
		return
	}
	conn.close()
	metrics.EventConnections.WithLabelValues(string(conn.Role)).Dec()
}

// audience snapshots the connections matching aud.
func (r *Registry) audience(aud Audience) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Connection, 0, len(r.conns))
	for _, conn := range r.conns {
		if aud.matches(conn) {
			out = append(out, conn)
		}
	}
	return out
}

// Stats reports connection counts and a listing sorted by connect time.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Stats{Connections: make([]ConnectionInfo, 0, len(r.conns))}
	for _, conn := range r.conns {
		stats.Total++
		switch conn.Role {
		case RoleAdmin:
			stats.Admins++
		case RoleDisplay:
			stats.Displays++
		}
		stats.Connections = append(stats.Connections, ConnectionInfo{
			ID:        conn.ID.String(),
			Role:      conn.Role,
			Display:   conn.Display,
			CreatedAt: conn.CreatedAt,
		})
	}
	sort.Slice(stats.Connections, func(i, j int) bool {
		a, b := stats.Connections[i], stats.Connections[j]
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID < b.ID
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return stats
}

// Drain unregisters every connection. Used on shutdown so stream handlers
// see their channels close and return.
func (r *Registry) Drain() {
	r.mu.Lock()
	conns := make([]*Connection, 0, len(r.conns))
	for _, conn := range r.conns {
		conns = append(conns, conn)
	}
	r.conns = map[uuid.UUID]*Connection{}
	r.mu.Unlock()

	for _, conn := range conns {
		conn.close()
		metrics.EventConnections.WithLabelValues(string(conn.Role)).Dec()
	}
}
