package playback

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumen-labs/iris/internal/model"
)

type fetchStub struct {
	mu     sync.Mutex
	source Source
	err    error
}

func (f *fetchStub) set(source Source, err error) {
	f.mu.Lock()
	f.source = source
	f.err = err
	f.mu.Unlock()
}

func (f *fetchStub) fetch(context.Context) (Source, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.source, f.err
}

func threeItemShow() *model.Slideshow {
	return &model.Slideshow{
		ID:                  10,
		Name:                "welcome loop",
		Active:              true,
		DefaultItemDuration: 2,
		Items: []model.SlideshowItem{
			{ID: 1, Type: model.ItemTypeImage, ContentURL: strPtr("/uploads/a.png"), Position: 1},
			{ID: 2, Type: model.ItemTypeImage, ContentURL: strPtr("/uploads/b.png"), Duration: intPtr(1), Position: 2},
			{ID: 3, Type: model.ItemTypeImage, ContentURL: strPtr("/uploads/c.png"), Position: 3},
		},
	}
}

func newTestPlayer(t *testing.T, fetch FetchFunc) (*Player, *clockwork.FakeClock, chan View) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	views := make(chan View, 64)
	player := NewPlayer("lobby", fetch,
		WithClock(clock),
		WithOnChange(func(v View) { views <- v }),
	)
	t.Cleanup(player.Stop)
	return player, clock, views
}

func nextView(t *testing.T, views chan View) View {
	t.Helper()
	select {
	case v := <-views:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a view change")
		return View{}
	}
}

func expectNoView(t *testing.T, views chan View) {
	t.Helper()
	select {
	case v := <-views:
		t.Fatalf("unexpected view change: %+v", v)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPlayerCyclesThroughEveryFrame(t *testing.T) {
	stub := &fetchStub{}
	stub.set(Source{SlideshowName: "welcome loop", Slideshow: threeItemShow()}, nil)
	player, clock, views := newTestPlayer(t, stub.fetch)

	player.Reload(context.Background())
	assert.Equal(t, StateLoading, nextView(t, views).State)

	first := nextView(t, views)
	require.Equal(t, StateShowing, first.State)
	require.NotNil(t, first.Frame)
	assert.Equal(t, 1, first.Frame.ItemID)

	seen := []int{first.Frame.ItemID}
	for _, step := range []time.Duration{2 * time.Second, time.Second, 2 * time.Second} {
		clock.Advance(step)
		v := nextView(t, views)
		require.Equal(t, StateShowing, v.State)
		require.NotNil(t, v.Frame)
		seen = append(seen, v.Frame.ItemID)
	}

	// default, override, default, then wrap back to the first frame
	assert.Equal(t, []int{1, 2, 3, 1}, seen)
}

func TestPlayerIdleWhenNothingAssigned(t *testing.T) {
	stub := &fetchStub{}
	stub.set(Source{}, nil)
	player, _, views := newTestPlayer(t, stub.fetch)

	player.Reload(context.Background())
	assert.Equal(t, StateLoading, nextView(t, views).State)

	v := nextView(t, views)
	assert.Equal(t, StateIdle, v.State)
	assert.Nil(t, v.Frame)
}

func TestPlayerIdleWhenSlideshowInactive(t *testing.T) {
	show := threeItemShow()
	show.Active = false
	stub := &fetchStub{}
	stub.set(Source{SlideshowName: show.Name, Slideshow: show}, nil)
	player, _, views := newTestPlayer(t, stub.fetch)

	player.Reload(context.Background())
	nextView(t, views) // loading
	assert.Equal(t, StateIdle, nextView(t, views).State)
}

func TestPlayerIdleWhenSlideshowEmpty(t *testing.T) {
	show := threeItemShow()
	show.Items = nil
	stub := &fetchStub{}
	stub.set(Source{SlideshowName: show.Name, Slideshow: show}, nil)
	player, _, views := newTestPlayer(t, stub.fetch)

	player.Reload(context.Background())
	nextView(t, views) // loading
	assert.Equal(t, StateIdle, nextView(t, views).State)
}

func TestPlayerErrorStateOnFetchFailure(t *testing.T) {
	stub := &fetchStub{}
	stub.set(Source{}, errors.New("server unreachable"))
	player, _, views := newTestPlayer(t, stub.fetch)

	player.Reload(context.Background())
	nextView(t, views) // loading
	assert.Equal(t, StateError, nextView(t, views).State)
	assert.Error(t, player.Err())
}

func TestReloadCancelsPendingRotation(t *testing.T) {
	slow := &model.Slideshow{
		ID: 1, Name: "before", Active: true, DefaultItemDuration: 10,
		Items: []model.SlideshowItem{
			{ID: 1, Type: model.ItemTypeImage, ContentURL: strPtr("/uploads/a.png"), Position: 1},
			{ID: 2, Type: model.ItemTypeImage, ContentURL: strPtr("/uploads/b.png"), Position: 2},
		},
	}
	replacement := &model.Slideshow{
		ID: 2, Name: "after", Active: true, DefaultItemDuration: 30,
		Items: []model.SlideshowItem{
			{ID: 7, Type: model.ItemTypeImage, ContentURL: strPtr("/uploads/x.png"), Position: 1},
			{ID: 8, Type: model.ItemTypeImage, ContentURL: strPtr("/uploads/y.png"), Position: 2},
		},
	}

	stub := &fetchStub{}
	stub.set(Source{SlideshowName: slow.Name, Slideshow: slow}, nil)
	player, clock, views := newTestPlayer(t, stub.fetch)

	player.Reload(context.Background())
	nextView(t, views) // loading
	v := nextView(t, views)
	require.Equal(t, 1, v.Frame.ItemID)

	// reassign mid-frame: the old 10s timer must die with the old content
	stub.set(Source{SlideshowName: replacement.Name, Slideshow: replacement}, nil)
	player.HandleAssignmentChanged(context.Background(), "lobby")
	nextView(t, views) // loading
	v = nextView(t, views)
	require.Equal(t, 7, v.Frame.ItemID)

	// where the stale timer would have fired, nothing happens
	clock.Advance(10 * time.Second)
	expectNoView(t, views)

	// the replacement's own cadence still advances
	clock.Advance(20 * time.Second)
	v = nextView(t, views)
	require.Equal(t, StateShowing, v.State)
	assert.Equal(t, 8, v.Frame.ItemID)
}

func TestAssignmentEventForOtherDisplayIgnored(t *testing.T) {
	stub := &fetchStub{}
	stub.set(Source{SlideshowName: "welcome loop", Slideshow: threeItemShow()}, nil)
	player, _, views := newTestPlayer(t, stub.fetch)

	player.Reload(context.Background())
	nextView(t, views) // loading
	nextView(t, views) // showing

	player.HandleAssignmentChanged(context.Background(), "cafe")
	expectNoView(t, views)
}

func TestOverlayFollowsDisplayFlag(t *testing.T) {
	stub := &fetchStub{}
	stub.set(Source{ShowOverlay: true, SlideshowName: "welcome loop", Slideshow: threeItemShow()}, nil)
	player, clock, views := newTestPlayer(t, stub.fetch)

	player.Reload(context.Background())
	nextView(t, views) // loading
	v := nextView(t, views)
	require.NotNil(t, v.Overlay)
	assert.Equal(t, "lobby", v.Overlay.DisplayName)
	assert.Equal(t, "welcome loop", v.Overlay.SlideshowName)
	assert.Equal(t, 1, v.Overlay.Position)
	assert.Equal(t, 3, v.Overlay.Total)

	clock.Advance(2 * time.Second)
	v = nextView(t, views)
	require.NotNil(t, v.Overlay)
	assert.Equal(t, 2, v.Overlay.Position)

	// flag off hides the overlay entirely
	stub.set(Source{ShowOverlay: false, SlideshowName: "welcome loop", Slideshow: threeItemShow()}, nil)
	player.Reload(context.Background())
	nextView(t, views) // loading
	v = nextView(t, views)
	require.Equal(t, StateShowing, v.State)
	assert.Nil(t, v.Overlay)
}
