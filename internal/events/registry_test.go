package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterTracksRolesInStats(t *testing.T) {
	registry := NewRegistry()

	registry.Register(RoleAdmin, "")
	registry.Register(RoleAdmin, "")
	lobby := registry.Register(RoleDisplay, "lobby")

	stats := registry.Stats()
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Admins)
	assert.Equal(t, 1, stats.Displays)
	require.Len(t, stats.Connections, 3)

	var displayNames []string
	for _, info := range stats.Connections {
		if info.Role == RoleDisplay {
			displayNames = append(displayNames, info.Display)
		}
	}
	assert.Equal(t, []string{"lobby"}, displayNames)
	assert.Equal(t, "lobby", lobby.Display)
}

func TestUnregisterClosesChannelOnce(t *testing.T) {
	registry := NewRegistry()
	conn := registry.Register(RoleAdmin, "")

	registry.Unregister(conn.ID)
	// repeated unregister of the same id must be a harmless no-op
	registry.Unregister(conn.ID)

	_, open := <-conn.Events()
	assert.False(t, open)
	assert.Equal(t, 0, registry.Stats().Total)
}

func TestUnregisterUnknownIDIsNoOp(t *testing.T) {
	registry := NewRegistry()
	conn := registry.Register(RoleDisplay, "atrium")

	other := NewRegistry().Register(RoleAdmin, "")
	registry.Unregister(other.ID)

	stats := registry.Stats()
	assert.Equal(t, 1, stats.Total)

	select {
	case <-conn.Events():
		t.Fatal("expected no event and an open channel")
	default:
	}
}

func TestDrainClosesEveryConnection(t *testing.T) {
	registry := NewRegistry()
	conns := []*Connection{
		registry.Register(RoleAdmin, ""),
		registry.Register(RoleDisplay, "lobby"),
		registry.Register(RoleDisplay, "cafe"),
	}

	registry.Drain()

	assert.Equal(t, 0, registry.Stats().Total)
	for _, conn := range conns {
		_, open := <-conn.Events()
		assert.False(t, open)
	}
}

func TestStatsSortedByConnectTime(t *testing.T) {
	registry := NewRegistry()
	first := registry.Register(RoleAdmin, "")
	time.Sleep(time.Millisecond)
	second := registry.Register(RoleDisplay, "lobby")

	stats := registry.Stats()
	require.Len(t, stats.Connections, 2)
	assert.Equal(t, first.ID.String(), stats.Connections[0].ID)
	assert.Equal(t, second.ID.String(), stats.Connections[1].ID)
}
