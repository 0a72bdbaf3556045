package events

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/lumen-labs/iris/internal/metrics"
)

type audienceKind int

const (
	audienceAll audienceKind = iota
	audienceAdmins
	audienceDisplay
)

// Audience selects which registered connections receive a publish.
type Audience struct {
	kind    audienceKind
	display string
}

// ToAll targets every connection.
func ToAll() Audience { return Audience{kind: audienceAll} }

// ToAdmins targets admin connections only.
func ToAdmins() Audience { return Audience{kind: audienceAdmins} }

// ToDisplay targets every connection of the named display.
func ToDisplay(name string) Audience {
	return Audience{kind: audienceDisplay, display: name}
}

func (a Audience) matches(c *Connection) bool {
	switch a.kind {
	case audienceAdmins:
		return c.Role == RoleAdmin
	case audienceDisplay:
		return c.Role == RoleDisplay && c.Display == a.display
	default:
		return true
	}
}

// Sink mirrors published events to a side channel (e.g. an MQTT broker).
// Implementations must not block.
type Sink interface {
	Deliver(evt Event, aud Audience)
}

// Broadcaster fans events out to the matching connections. A connection
// whose queue is full is dropped from the registry rather than allowed to
// stall the publisher; events published to one connection arrive in
// publish order.
type Broadcaster struct {
	registry *Registry
	sinks    []Sink
}

func NewBroadcaster(registry *Registry, sinks ...Sink) *Broadcaster {
	return &Broadcaster{registry: registry, sinks: sinks}
}

// Publish enqueues evt on every connection matching aud and returns the
// number of connections reached. Connections that cannot keep up are
// evicted.
func (b *Broadcaster) Publish(evt Event, aud Audience) int {
	targets := b.registry.audience(aud)

	var dead []uuid.UUID
	delivered := 0
	for _, conn := range targets {
		if conn.send(evt) {
			delivered++
			continue
		}
		dead = append(dead, conn.ID)
	}

	for _, id := range dead {
		b.registry.Unregister(id)
	}
	if len(dead) > 0 {
		log.Warn().
			Str("event", evt.Name).
			Int("evicted", len(dead)).
			Msg("dropped connections with full event queues")
		metrics.EventsDropped.Add(float64(len(dead)))
	}
	metrics.EventsDelivered.WithLabelValues(evt.Name).Add(float64(delivered))

	for _, sink := range b.sinks {
		sink.Deliver(evt, aud)
	}
	return delivered
}
