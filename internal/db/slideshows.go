package db

import (
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/lumen-labs/iris/internal/model"
)

// @ SLIDESHOW
func (s *pgStore) CreateSlideshow(name string, description *string, defaultItemDuration int, transition string, createdBy int) (model.Slideshow, error) {
	var sl model.Slideshow
	const q = `
    INSERT INTO slideshows (name, description, default_item_duration, transition, created_by, created_at, updated_at)
    VALUES ($1, $2, $3, $4, $5, now(), now())
    RETURNING id, name, description, default_item_duration, transition, active, is_default, created_by, created_at, updated_at;
    `
	if err := s.db.Get(&sl, q, name, description, defaultItemDuration, transition, createdBy); err != nil {
		log.Error().Err(err).Msg("[db] CreateSlideshow: failed to insert slideshow")
		return model.Slideshow{}, err
	}
	return sl, nil
}

func (s *pgStore) GetSlideshowByID(id int) (model.Slideshow, error) {
	var sl model.Slideshow
	q := `
	SELECT
	id,
	name,
	description,
	default_item_duration,
	transition,
	active,
	is_default,
	created_by,
	created_at,
	updated_at
	FROM slideshows
	WHERE id = $1;`
	if err := s.db.Get(&sl, q, id); err != nil {
		return model.Slideshow{}, err
	}

	items, err := s.ListSlideshowItems(id)
	if err != nil {
		return sl, err
	}
	sl.Items = items
	return sl, nil
}

func (s *pgStore) ListSlideshows() ([]model.Slideshow, error) {
	var out []model.Slideshow
	const q = `
	SELECT id, name, description, default_item_duration, transition, active, is_default, created_by, created_at, updated_at
	FROM slideshows ORDER BY id;`
	if err := s.db.Select(&out, q); err != nil {
		log.Error().Err(err).Msg("[db] ListSlideshows: failed to select slideshows")
		return nil, err
	}

	for i := range out {
		items, err := s.ListSlideshowItems(out[i].ID)
		if err != nil {
			log.Error().Err(err).Msgf("[db] ListSlideshows: failed to load items for slideshow %d", out[i].ID)
			return nil, err
		}
		out[i].Items = items
	}
	return out, nil
}

func (s *pgStore) UpdateSlideshow(
	id int,
	name, description *string,
	defaultItemDuration *int,
	transition *string,
	active, isDefault *bool,
) error {
	_, err := s.db.Exec(`
		UPDATE slideshows
		SET
		name                  = COALESCE($2, name),
		description           = COALESCE($3, description),
		default_item_duration = COALESCE($4, default_item_duration),
		transition            = COALESCE($5, transition),
		active                = COALESCE($6, active),
		is_default            = COALESCE($7, is_default),
		updated_at            = now()
		WHERE id = $1;`,
		id, name, description, defaultItemDuration, transition, active, isDefault,
	)
	if err != nil {
		log.Error().Err(err).Int("slideshow_id", id).Msg("failed to update slideshow")
	}
	return err
}

func (s *pgStore) DeleteSlideshow(id int) error {
	_, err := s.db.Exec(`DELETE FROM slideshows WHERE id = $1;`, id)
	if err != nil {
		log.Error().Err(err).Int("slideshow_id", id).Msg("failed to delete slideshow")
	}
	return err
}

// @ ITEMS
func (s *pgStore) AddSlideshowItem(
	slideshowID int,
	itemType string,
	title, contentURL, contentText *string,
	duration, scale *int,
) (model.SlideshowItem, error) {
	var it model.SlideshowItem
	query := `
	INSERT INTO slideshow_items
	(slideshow_id, type, title, content_url, content_text, duration, scale, position, created_at)
	SELECT $1, $2, $3, $4, $5, $6, $7, COALESCE(MAX(position), 0) + 1, now()
	FROM slideshow_items
	WHERE slideshow_id = $1
	RETURNING
	id, slideshow_id, type, title, content_url, content_text, duration, scale, position, created_at;`

	if err := s.db.Get(&it, query,
		slideshowID, itemType, title, contentURL, contentText, duration, scale,
	); err != nil {
		log.Error().Err(err).Int("slideshow_id", slideshowID).Msg("failed to add item to slideshow")
		return model.SlideshowItem{}, err
	}
	return it, nil
}

func (s *pgStore) GetSlideshowItemByID(itemID int) (model.SlideshowItem, error) {
	var it model.SlideshowItem
	const query = `
	SELECT id, slideshow_id, type, title, content_url, content_text, duration, scale, position, created_at
	FROM slideshow_items
	WHERE id = $1;`
	err := s.db.Get(&it, query, itemID)
	return it, err
}

func (s *pgStore) ListSlideshowItems(slideshowID int) ([]model.SlideshowItem, error) {
	var list []model.SlideshowItem
	const query = `
    SELECT
      id, slideshow_id, type, title, content_url, content_text, duration, scale, position, created_at
    FROM slideshow_items
    WHERE slideshow_id = $1
    ORDER BY position;`

	err := s.db.Select(&list, query, slideshowID)
	if err != nil {
		log.Error().Err(err).Int("slideshow_id", slideshowID).Msg("failed to list slideshow items")
	}
	return list, err
}

// UpdateSlideshowItem updates title/duration/scale of an item.
func (s *pgStore) UpdateSlideshowItem(
	itemID int,
	title *string,
	duration, scale *int,
) error {
	_, err := s.db.Exec(`
		UPDATE slideshow_items
		SET
		title    = COALESCE($2, title),
		duration = COALESCE($3, duration),
		scale    = COALESCE($4, scale)
		WHERE id = $1;`,
		itemID, title, duration, scale,
	)
	if err != nil {
		log.Error().Err(err).Int("item_id", itemID).Msg("failed to update slideshow item")
	}
	return err
}

func (s *pgStore) RemoveSlideshowItem(itemID int) error {
	_, err := s.db.Exec(`DELETE FROM slideshow_items WHERE id = $1;`, itemID)
	if err != nil {
		log.Error().Err(err).Int("item_id", itemID).Msg("failed to remove slideshow item")
	}
	return err
}

func (s *pgStore) ReorderSlideshowItems(slideshowID int, itemIDs []int) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	count := len(itemIDs)
	if _, err = tx.Exec(`
        UPDATE slideshow_items
           SET position = position + $1
         WHERE slideshow_id = $2;
    `, count, slideshowID); err != nil {
		return err
	}

	for idx, itemID := range itemIDs {
		newPos := idx + 1
		if _, err = tx.Exec(`
            UPDATE slideshow_items
               SET position = $1
             WHERE id = $2
               AND slideshow_id = $3;
        `, newPos, itemID, slideshowID); err != nil {
			return err
		}
	}

	return nil
}
