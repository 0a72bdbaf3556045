package db

import (
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/lumen-labs/iris/internal/model"
)

const displayColumns = `
	id, name, location, device_id, paired, current_slideshow_id,
	show_info_overlay, last_seen_at, created_by, created_at, updated_at`

func (s *pgStore) CreateDisplay(name string, location *string, showInfoOverlay bool, createdBy int) (model.Display, error) {
	var d model.Display
	q := `
	INSERT INTO displays (name, location, paired, show_info_overlay, created_by, created_at, updated_at)
	VALUES ($1, $2, false, $3, $4, now(), now())
	RETURNING ` + displayColumns + `;`
	if err := s.db.Get(&d, q, name, location, showInfoOverlay, createdBy); err != nil {
		log.Error().Err(err).Str("name", name).Msg("failed to create display")
		return model.Display{}, err
	}
	return d, nil
}

func (s *pgStore) GetDisplayByID(id int) (model.Display, error) {
	var d model.Display
	err := s.db.Get(&d, `
		SELECT `+displayColumns+`
		FROM displays
		WHERE id = $1
		`, id)
	return d, err
}

func (s *pgStore) GetDisplayByName(name string) (model.Display, error) {
	var d model.Display
	err := s.db.Get(&d, `
		SELECT `+displayColumns+`
		FROM displays
		WHERE name = $1
		`, name)
	return d, err
}

func (s *pgStore) GetDisplayByDeviceID(deviceID string) (model.Display, error) {
	var d model.Display
	err := s.db.Get(&d, `
		SELECT `+displayColumns+`
		FROM displays
		WHERE device_id = $1
		`, deviceID)
	return d, err
}

func (s *pgStore) ListDisplays() ([]model.Display, error) {
	var displays []model.Display
	err := s.db.Select(&displays, `
		SELECT `+displayColumns+`
		FROM displays
		ORDER BY id
		`)
	if err != nil {
		log.Error().Err(err).Msg("failed to list displays")
	}
	return displays, err
}

// GetDisplaysUsingSlideshow lists the displays currently assigned the
// slideshow, for cache invalidation after content edits.
func (s *pgStore) GetDisplaysUsingSlideshow(slideshowID int) ([]model.Display, error) {
	var displays []model.Display
	err := s.db.Select(&displays, `
		SELECT `+displayColumns+`
		FROM displays
		WHERE current_slideshow_id = $1
		ORDER BY id
		`, slideshowID)
	if err != nil {
		log.Error().Err(err).Int("slideshow_id", slideshowID).Msg("failed to list displays for slideshow")
	}
	return displays, err
}

func (s *pgStore) UpdateDisplay(id int, name, location *string, showInfoOverlay *bool) error {
	_, err := s.db.Exec(`
		UPDATE displays
		SET name = COALESCE($2, name),
		location = COALESCE($3, location),
		show_info_overlay = COALESCE($4, show_info_overlay),
		updated_at = now()
		WHERE id = $1
		`, id, name, location, showInfoOverlay)
	if err != nil {
		log.Error().Err(err).Int("display_id", id).Msg("failed to update display")
	}
	return err
}

func (s *pgStore) DeleteDisplay(id int) error {
	_, err := s.db.Exec(`DELETE FROM displays WHERE id = $1`, id)
	if err != nil {
		log.Error().Err(err).Int("display_id", id).Msg("failed to delete display")
	}
	return err
}

// PairDisplay marks the display paired and records the device that claimed it.
func (s *pgStore) PairDisplay(id int, deviceID string) error {
	_, err := s.db.Exec(`
		UPDATE displays
		SET paired = TRUE,
		device_id = $2,
		updated_at = now()
		WHERE id = $1
		`, id, deviceID)
	if err != nil {
		log.Error().Err(err).Int("display_id", id).Msg("failed to pair display")
	}
	return err
}

// TouchDisplay records a heartbeat from the display client.
func (s *pgStore) TouchDisplay(name string, seenAt time.Time) error {
	_, err := s.db.Exec(`
		UPDATE displays
		SET last_seen_at = $2
		WHERE name = $1
		`, name, seenAt)
	return err
}
