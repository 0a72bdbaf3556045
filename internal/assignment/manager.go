// Package assignment changes which slideshow a display is showing,
// recording every change in the audit history and notifying live
// connections once the change is durable.
package assignment

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lumen-labs/iris/internal/db"
	"github.com/lumen-labs/iris/internal/events"
	"github.com/lumen-labs/iris/internal/metrics"
	"github.com/lumen-labs/iris/internal/model"
)

var (
	ErrDisplayNotFound   = errors.New("display not found")
	ErrSlideshowNotFound = errors.New("slideshow not found")
)

// Publisher fans an event out to live connections.
type Publisher interface {
	Publish(evt events.Event, aud events.Audience) int
}

// AuditSink receives a copy of each committed assignment record.
type AuditSink interface {
	PublishAssignment(ctx context.Context, rec model.AssignmentHistoryEntry) error
}

// Result reports what an Assign call did.
type Result struct {
	Changed bool
	Display model.Display
	History *model.AssignmentHistoryEntry
}

// Manager owns assignment writes. All assignment changes go through
// Assign so the display row, the audit trail, and the event stream stay
// consistent with each other.
type Manager struct {
	store db.Store
	pub   Publisher
	audit AuditSink
}

func NewManager(store db.Store, pub Publisher, audit AuditSink) *Manager {
	return &Manager{store: store, pub: pub, audit: audit}
}

// Assign sets the display's current slideshow (nil clears it), appends the
// audit record, and broadcasts the change. Reassigning the already-current
// slideshow changes nothing: no history row, no event.
func (m *Manager) Assign(ctx context.Context, displayName string, newID *int, reason *string, actor *model.User) (*Result, error) {
	display, err := m.store.GetDisplayByName(displayName)
	if err != nil {
		return nil, ErrDisplayNotFound
	}

	var newName *string
	if newID != nil {
		show, err := m.store.GetSlideshowByID(*newID)
		if err != nil {
			return nil, ErrSlideshowNotFound
		}
		newName = &show.Name
	}

	previous := display.CurrentSlideshowID
	if sameTarget(previous, newID) {
		return &Result{Changed: false, Display: display}, nil
	}

	action := classify(previous, newID)
	rec, err := m.store.AssignSlideshow(display.ID, previous, newID, action, reason, actor.ID)
	if err != nil {
		return nil, err
	}

	updated, err := m.store.GetDisplayByID(display.ID)
	if err != nil {
		// the write committed; fall back to the pre-read row
		updated = display
		updated.CurrentSlideshowID = newID
	}

	entry := model.AssignmentHistoryEntry{
		AssignmentHistory: rec,
		DisplayName:       display.Name,
		NewSlideshowName:  newName,
	}

	evt := events.Event{
		Name: events.EventAssignmentChanged,
		Data: events.AssignmentChanged{Display: display.Name, SlideshowID: newID},
	}
	m.pub.Publish(evt, events.ToDisplay(display.Name))
	m.pub.Publish(evt, events.ToAdmins())

	metrics.Assignments.WithLabelValues(action).Inc()
	log.Info().
		Str("display", display.Name).
		Str("action", action).
		Int("actor_id", actor.ID).
		Msg("slideshow assignment changed")

	if m.audit != nil {
		go func() {
			feedCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()
			if err := m.audit.PublishAssignment(feedCtx, entry); err != nil {
				log.Warn().Err(err).Int("history_id", rec.ID).Msg("audit feed publish failed")
			}
		}()
	}

	return &Result{Changed: true, Display: updated, History: &entry}, nil
}

func sameTarget(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func classify(previous, next *int) string {
	switch {
	case previous == nil:
		return model.ActionAssign
	case next == nil:
		return model.ActionUnassign
	default:
		return model.ActionChange
	}
}
