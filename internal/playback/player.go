package playback

import (
	"context"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/lumen-labs/iris/internal/model"
)

// State is where the player is in its lifecycle.
type State string

const (
	// StateLoading means a fetch is in flight; nothing is rendered yet.
	StateLoading State = "loading"
	// StateShowing means a frame is on screen and the rotation timer is
	// armed.
	StateShowing State = "showing"
	// StateIdle means no slideshow is assigned (or it has no frames).
	StateIdle State = "idle"
	// StateError means the last fetch failed; the client retries on the
	// next assignment event or reconnect.
	StateError State = "error"
)

// Source is the server's answer to "what should this display show".
type Source struct {
	ShowOverlay   bool
	SlideshowName string
	Slideshow     *model.Slideshow
}

// FetchFunc loads the display's current source. A nil Slideshow means
// nothing is assigned.
type FetchFunc func(ctx context.Context) (Source, error)

// Overlay is the info banner drawn over the content when the display has
// it enabled.
type Overlay struct {
	DisplayName   string
	SlideshowName string
	Position      int // 1-based
	Total         int
}

// View is a render-ready snapshot of the player.
type View struct {
	State   State
	Frame   *Frame
	Overlay *Overlay
}

// Player cycles a display through its assigned slideshow. One rotation
// timer exists at a time; reloads cancel it and discard any stale fetch
// before the next slideshow starts. Safe for concurrent use.
type Player struct {
	display  string
	fetch    FetchFunc
	clock    clockwork.Clock
	onChange func(View)

	mu      sync.Mutex
	gen     uint64
	state   State
	source  Source
	frames  []Frame
	idx     int
	timer   clockwork.Timer
	lastErr error
}

// Option configures a Player.
type Option func(*Player)

// WithClock substitutes the rotation clock.
func WithClock(clock clockwork.Clock) Option {
	return func(p *Player) { p.clock = clock }
}

// WithOnChange registers a callback invoked after every view change. The
// callback runs with player internals locked and must not call back in.
func WithOnChange(fn func(View)) Option {
	return func(p *Player) { p.onChange = fn }
}

func NewPlayer(display string, fetch FetchFunc, opts ...Option) *Player {
	p := &Player{
		display: display,
		fetch:   fetch,
		clock:   clockwork.NewRealClock(),
		state:   StateIdle,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Reload drops whatever is playing and fetches the current assignment.
// The pending rotation timer is cancelled and any in-flight fetch result
// is discarded before the new content starts.
func (p *Player) Reload(ctx context.Context) {
	p.mu.Lock()
	p.gen++
	gen := p.gen
	p.cancelTimerLocked()
	p.frames = nil
	p.idx = 0
	p.state = StateLoading
	p.notifyLocked()
	p.mu.Unlock()

	go p.load(ctx, gen)
}

// HandleAssignmentChanged reloads when the event targets this player's
// display.
func (p *Player) HandleAssignmentChanged(ctx context.Context, display string) {
	if display == p.display {
		p.Reload(ctx)
	}
}

// View returns the current render snapshot.
func (p *Player) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.viewLocked()
}

// Err returns the failure behind StateError, if any.
func (p *Player) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// Stop cancels the rotation timer and freezes the player.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gen++
	p.cancelTimerLocked()
	p.state = StateIdle
	p.frames = nil
	p.idx = 0
}

func (p *Player) load(ctx context.Context, gen uint64) {
	source, err := p.fetch(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		// a newer reload superseded this fetch
		return
	}

	if err != nil {
		p.state = StateError
		p.lastErr = err
		p.notifyLocked()
		return
	}

	p.lastErr = nil
	p.source = source
	if source.Slideshow == nil || !source.Slideshow.Active {
		p.state = StateIdle
		p.notifyLocked()
		return
	}

	frames := BuildFrames(*source.Slideshow)
	if len(frames) == 0 {
		p.state = StateIdle
		p.notifyLocked()
		return
	}

	p.frames = frames
	p.idx = 0
	p.state = StateShowing
	p.armLocked(gen)
	p.notifyLocked()
}

// advance is the rotation timer callback.
func (p *Player) advance(gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen || p.state != StateShowing || len(p.frames) == 0 {
		return
	}
	p.idx = (p.idx + 1) % len(p.frames)
	p.armLocked(gen)
	p.notifyLocked()
}

func (p *Player) armLocked(gen uint64) {
	d := p.frames[p.idx].Duration
	p.timer = p.clock.AfterFunc(d, func() { p.advance(gen) })
}

func (p *Player) cancelTimerLocked() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

func (p *Player) viewLocked() View {
	view := View{State: p.state}
	if p.state == StateShowing && len(p.frames) > 0 {
		frame := p.frames[p.idx]
		view.Frame = &frame
		if p.source.ShowOverlay {
			view.Overlay = &Overlay{
				DisplayName:   p.display,
				SlideshowName: p.source.SlideshowName,
				Position:      p.idx + 1,
				Total:         len(p.frames),
			}
		}
	}
	return view
}

func (p *Player) notifyLocked() {
	if p.onChange != nil {
		p.onChange(p.viewLocked())
	}
}
