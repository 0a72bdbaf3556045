package model

import "time"

// Assignment history actions.
const (
	ActionAssign   = "assign"
	ActionChange   = "change"
	ActionUnassign = "unassign"
)

// AssignmentHistory is one append-only audit record of a display's
// slideshow assignment changing. Rows follow their display (deleted with
// it) but outlive the slideshows they reference.
type AssignmentHistory struct {
	ID                  int       `db:"id" json:"id"`
	DisplayID           int       `db:"display_id" json:"display_id"`
	PreviousSlideshowID *int      `db:"previous_slideshow_id" json:"previous_slideshow_id"`
	NewSlideshowID      *int      `db:"new_slideshow_id" json:"new_slideshow_id"`
	Action              string    `db:"action" json:"action"`
	Reason              *string   `db:"reason" json:"reason"`
	CreatedBy           int       `db:"created_by" json:"created_by"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
}

// AssignmentHistoryEntry is a history row joined with the names admin
// listings want alongside the raw ids.
type AssignmentHistoryEntry struct {
	AssignmentHistory
	DisplayName      string  `db:"display_name" json:"display_name"`
	NewSlideshowName *string `db:"new_slideshow_name" json:"new_slideshow_name"`
}
