// Package playback turns a slideshow into the timed sequence of frames a
// display client renders, and drives the client-side rotation through it.
package playback

import (
	"strings"
	"time"

	"github.com/lumen-labs/iris/internal/model"
)

// FallbackDuration is used when neither the item nor its slideshow
// provides a positive duration. A frame is never skipped for lack of one.
const FallbackDuration = 5 * time.Second

// URL frame scale bounds, in percent.
const (
	minScale     = 10
	maxScale     = 100
	defaultScale = 100
)

// Frame is one renderable step of a slideshow.
type Frame struct {
	ItemID   int
	Type     string
	URL      string // image, video and url frames
	Text     string // text frames, line breaks intact
	Scale    int    // url frames only
	Duration time.Duration
	Position int
}

// EffectiveDuration resolves how long an item stays on screen. A positive
// per-item duration always wins; video items never inherit the slideshow
// default because their stored duration is the media's own length.
func EffectiveDuration(item model.SlideshowItem, defaultItemDuration int) time.Duration {
	if item.Duration != nil && *item.Duration > 0 {
		return time.Duration(*item.Duration) * time.Second
	}
	if item.Type != model.ItemTypeVideo && defaultItemDuration > 0 {
		return time.Duration(defaultItemDuration) * time.Second
	}
	return FallbackDuration
}

// BuildFrames flattens a slideshow's items, in position order, into frames
// with every duration resolved.
func BuildFrames(show model.Slideshow) []Frame {
	frames := make([]Frame, 0, len(show.Items))
	for _, item := range show.Items {
		frame := Frame{
			ItemID:   item.ID,
			Type:     item.Type,
			Position: item.Position,
			Duration: EffectiveDuration(item, show.DefaultItemDuration),
		}
		switch item.Type {
		case model.ItemTypeText:
			if item.ContentText != nil {
				frame.Text = *item.ContentText
			}
		case model.ItemTypeURL:
			if item.ContentURL != nil {
				frame.URL = *item.ContentURL
			}
			frame.Scale = clampScale(item.Scale)
		default:
			if item.ContentURL != nil {
				frame.URL = *item.ContentURL
			}
		}
		frames = append(frames, frame)
	}
	return frames
}

func clampScale(scale *int) int {
	if scale == nil {
		return defaultScale
	}
	switch {
	case *scale < minScale:
		return minScale
	case *scale > maxScale:
		return maxScale
	default:
		return *scale
	}
}

// TextLines splits a text frame's body for renderers that draw line by
// line. Trailing newlines do not produce empty tail lines.
func TextLines(text string) []string {
	return strings.Split(strings.TrimRight(text, "\n"), "\n")
}
