package model

import "time"

// Slideshow item types.
const (
	ItemTypeImage = "image"
	ItemTypeVideo = "video"
	ItemTypeURL   = "url"
	ItemTypeText  = "text"
)

type Slideshow struct {
	ID                  int       `db:"id" json:"id"`
	Name                string    `db:"name" json:"name"`
	Description         *string   `db:"description" json:"description"`
	DefaultItemDuration int       `db:"default_item_duration" json:"default_item_duration"`
	Transition          string    `db:"transition" json:"transition"`
	Active              bool      `db:"active" json:"active"`
	IsDefault           bool      `db:"is_default" json:"is_default"`
	CreatedBy           int       `db:"created_by" json:"created_by"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`

	Items []SlideshowItem `db:"-" json:"items,omitempty"`
}

type SlideshowItem struct {
	ID          int       `db:"id" json:"id"`
	SlideshowID int       `db:"slideshow_id" json:"slideshow_id"`
	Type        string    `db:"type" json:"type"`
	Title       *string   `db:"title" json:"title"`
	ContentURL  *string   `db:"content_url" json:"content_url"`
	ContentText *string   `db:"content_text" json:"content_text"`
	Duration    *int      `db:"duration" json:"duration"`
	Scale       *int      `db:"scale" json:"scale"`
	Position    int       `db:"position" json:"position"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
