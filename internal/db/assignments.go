package db

import (
	"fmt"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/lumen-labs/iris/internal/model"
)

// History listings are capped regardless of what the caller asks for.
const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// AssignSlideshow updates the display's current slideshow and appends the
// audit record in one transaction. Neither side is visible unless both
// commit.
func (s *pgStore) AssignSlideshow(
	displayID int,
	previousID, newID *int,
	action string,
	reason *string,
	actorID int,
) (model.AssignmentHistory, error) {
	var rec model.AssignmentHistory

	tx, err := s.db.Beginx()
	if err != nil {
		return rec, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		// surface commit failures: callers must not broadcast an
		// assignment that never landed
		err = tx.Commit()
	}()

	if _, err = tx.Exec(`
        UPDATE displays
           SET current_slideshow_id = $2,
               updated_at = now()
         WHERE id = $1;
    `, displayID, newID); err != nil {
		log.Error().Err(err).Int("display_id", displayID).Msg("failed to update display assignment")
		return rec, err
	}

	if err = tx.Get(&rec, `
        INSERT INTO assignment_history
        (display_id, previous_slideshow_id, new_slideshow_id, action, reason, created_by, created_at)
        VALUES
        ($1,         $2,                    $3,               $4,     $5,     $6,         now())
        RETURNING
        id, display_id, previous_slideshow_id, new_slideshow_id, action, reason, created_by, created_at;
    `, displayID, previousID, newID, action, reason, actorID); err != nil {
		log.Error().Err(err).Int("display_id", displayID).Msg("failed to insert assignment history")
		return rec, err
	}

	return rec, nil
}

// ListAssignmentHistory returns audit records newest first, joined with the
// display name and (when still present) the new slideshow's name.
func (s *pgStore) ListAssignmentHistory(filter HistoryFilter) ([]model.AssignmentHistoryEntry, error) {
	query := `
	SELECT
	  h.id, h.display_id, h.previous_slideshow_id, h.new_slideshow_id,
	  h.action, h.reason, h.created_by, h.created_at,
	  d.name AS display_name,
	  s.name AS new_slideshow_name
	FROM assignment_history h
	JOIN displays d ON d.id = h.display_id
	LEFT JOIN slideshows s ON s.id = h.new_slideshow_id`

	var args []interface{}
	argCount := 0

	if filter.DisplayID != nil {
		argCount++
		query += fmt.Sprintf(" WHERE h.display_id = $%d", argCount)
		args = append(args, *filter.DisplayID)
	}
	if filter.Action != nil {
		argCount++
		if argCount == 1 {
			query += fmt.Sprintf(" WHERE h.action = $%d", argCount)
		} else {
			query += fmt.Sprintf(" AND h.action = $%d", argCount)
		}
		args = append(args, *filter.Action)
	}
	if filter.ActorID != nil {
		argCount++
		if argCount == 1 {
			query += fmt.Sprintf(" WHERE h.created_by = $%d", argCount)
		} else {
			query += fmt.Sprintf(" AND h.created_by = $%d", argCount)
		}
		args = append(args, *filter.ActorID)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	argCount++
	query += fmt.Sprintf(" ORDER BY h.created_at DESC, h.id DESC LIMIT $%d", argCount)
	args = append(args, limit)

	var entries []model.AssignmentHistoryEntry
	if err := s.db.Select(&entries, query, args...); err != nil {
		log.Error().Err(err).Msg("failed to list assignment history")
		return nil, err
	}
	return entries, nil
}
