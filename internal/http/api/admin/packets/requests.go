package packets

type CreateDisplayRequest struct {
	Name            string  `json:"name" binding:"required"`
	Location        *string `json:"location"`
	ShowInfoOverlay *bool   `json:"show_info_overlay"`
}

type UpdateDisplayRequest struct {
	Name            *string `json:"name"`
	Location        *string `json:"location"`
	ShowInfoOverlay *bool   `json:"show_info_overlay"`
}

type PairDisplayRequest struct {
	PairingCode string `json:"code" binding:"required"`
	DisplayID   int    `json:"display_id" binding:"required"`
}

// AssignSlideshowRequest carries the new target; a null or absent
// slideshow_id clears the assignment.
type AssignSlideshowRequest struct {
	SlideshowID *int    `json:"slideshow_id"`
	Reason      *string `json:"reason"`
}

type CreateSlideshowRequest struct {
	Name                string  `json:"name" binding:"required"`
	Description         *string `json:"description"`
	DefaultItemDuration *int    `json:"default_item_duration" binding:"omitempty,min=1"`
	Transition          *string `json:"transition"`
}

type UpdateSlideshowRequest struct {
	Name                *string `json:"name"`
	Description         *string `json:"description"`
	DefaultItemDuration *int    `json:"default_item_duration" binding:"omitempty,min=1"`
	Transition          *string `json:"transition"`
	Active              *bool   `json:"active"`
	IsDefault           *bool   `json:"is_default"`
}

// AddSlideshowItemRequest covers url and text items; image and video items
// arrive as multipart uploads instead.
type AddSlideshowItemRequest struct {
	Type        string  `json:"type" binding:"required,oneof=url text"`
	Title       *string `json:"title"`
	ContentURL  *string `json:"content_url"`
	ContentText *string `json:"content_text"`
	Duration    *int    `json:"duration" binding:"omitempty,min=1"`
	Scale       *int    `json:"scale" binding:"omitempty,min=10,max=100"`
}

type UpdateSlideshowItemRequest struct {
	Title    *string `json:"title"`
	Duration *int    `json:"duration" binding:"omitempty,min=1"`
	Scale    *int    `json:"scale" binding:"omitempty,min=10,max=100"`
}

type ReorderSlideshowItemsRequest struct {
	ItemIDs []int `json:"item_ids" binding:"required"`
}
