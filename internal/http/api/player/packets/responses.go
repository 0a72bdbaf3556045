package packets

// FrameResponse is one resolved step of the rotation, duration in seconds.
type FrameResponse struct {
	ItemID   int    `json:"item_id"`
	Type     string `json:"type"`
	URL      string `json:"url,omitempty"`
	Text     string `json:"text,omitempty"`
	Scale    int    `json:"scale,omitempty"`
	Duration int    `json:"duration"`
	Position int    `json:"position"`
}

type CurrentSlideshowResponse struct {
	ID         int             `json:"id"`
	Name       string          `json:"name"`
	Transition string          `json:"transition"`
	Frames     []FrameResponse `json:"frames"`
}

// CurrentResponse is the full playback payload a display client renders.
// Slideshow is null when nothing (or an inactive slideshow) is assigned.
type CurrentResponse struct {
	Display         string                    `json:"display"`
	ShowInfoOverlay bool                      `json:"show_info_overlay"`
	Slideshow       *CurrentSlideshowResponse `json:"slideshow"`
}
