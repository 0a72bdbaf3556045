package model

import "time"

// OnlineThreshold is how recently a display must have checked in to count
// as online.
const OnlineThreshold = 60 * time.Second

type Display struct {
	ID                 int        `db:"id" json:"id"`
	Name               string     `db:"name" json:"name"`
	Location           *string    `db:"location" json:"location"`
	DeviceID           *string    `db:"device_id" json:"device_id"`
	Paired             bool       `db:"paired" json:"paired"`
	CurrentSlideshowID *int       `db:"current_slideshow_id" json:"current_slideshow_id"`
	ShowInfoOverlay    bool       `db:"show_info_overlay" json:"show_info_overlay"`
	LastSeenAt         *time.Time `db:"last_seen_at" json:"last_seen_at"`
	CreatedBy          int        `db:"created_by" json:"created_by"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// OnlineAt reports whether the display has been seen within OnlineThreshold
// of now.
func (d Display) OnlineAt(now time.Time) bool {
	return d.LastSeenAt != nil && now.Sub(*d.LastSeenAt) <= OnlineThreshold
}
