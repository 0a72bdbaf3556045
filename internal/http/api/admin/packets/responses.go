package packets

// DisplayResponse mirrors model.Display but flattens times to RFC3339 and
// carries the computed online flag.
type DisplayResponse struct {
	ID                 int     `json:"id"`
	Name               string  `json:"name"`
	Location           *string `json:"location"`
	DeviceID           *string `json:"device_id"`
	Paired             bool    `json:"paired"`
	CurrentSlideshowID *int    `json:"current_slideshow_id"`
	ShowInfoOverlay    bool    `json:"show_info_overlay"`
	Online             bool    `json:"online"`
	LastSeenAt         *string `json:"last_seen_at"`
	CreatedAt          string  `json:"created_at"`
	UpdatedAt          string  `json:"updated_at"`
}

type SlideshowItemResponse struct {
	ID          int     `json:"id"`
	SlideshowID int     `json:"slideshow_id"`
	Type        string  `json:"type"`
	Title       *string `json:"title"`
	ContentURL  *string `json:"content_url"`
	ContentText *string `json:"content_text"`
	Duration    *int    `json:"duration"`
	Scale       *int    `json:"scale"`
	Position    int     `json:"position"`
	CreatedAt   string  `json:"created_at"`
}

type SlideshowResponse struct {
	ID                  int                     `json:"id"`
	Name                string                  `json:"name"`
	Description         *string                 `json:"description"`
	DefaultItemDuration int                     `json:"default_item_duration"`
	Transition          string                  `json:"transition"`
	Active              bool                    `json:"active"`
	IsDefault           bool                    `json:"is_default"`
	CreatedAt           string                  `json:"created_at"`
	UpdatedAt           string                  `json:"updated_at"`
	Items               []SlideshowItemResponse `json:"items"`
}

// AssignmentHistoryResponse is one audit row joined with the display and
// slideshow names current at read time.
type AssignmentHistoryResponse struct {
	ID                  int     `json:"id"`
	DisplayID           int     `json:"display_id"`
	DisplayName         string  `json:"display_name"`
	PreviousSlideshowID *int    `json:"previous_slideshow_id"`
	NewSlideshowID      *int    `json:"new_slideshow_id"`
	NewSlideshowName    *string `json:"new_slideshow_name"`
	Action              string  `json:"action"`
	Reason              *string `json:"reason"`
	CreatedByID         int     `json:"created_by_id"`
	CreatedAt           string  `json:"created_at"`
}
