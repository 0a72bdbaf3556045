package endpoints

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	redisclient "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/lumen-labs/iris/internal/db"
	"github.com/lumen-labs/iris/internal/http/api"
	"github.com/lumen-labs/iris/internal/http/api/player/packets"
	"github.com/lumen-labs/iris/internal/metrics"
	"github.com/lumen-labs/iris/internal/model"
	"github.com/lumen-labs/iris/internal/playback"
	"github.com/lumen-labs/iris/internal/redis"
)

type PlayerController struct {
	store db.Store
}

func newPlayerController(store db.Store) *PlayerController {
	return &PlayerController{store: store}
}

// PlayerModule mounts the unauthenticated display-client endpoints:
// pairing registration, playback payload, heartbeat.
func PlayerModule(store db.Store) api.Module {
	ctl := newPlayerController(store)
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUBLIC_POST("/player/register", ctl.registerPairingCode)
		c.Group.GET("/player/current", ctl.current)
		c.PUBLIC_POST("/player/heartbeat", ctl.heartbeat)
	})
}

type PairingData struct {
	DeviceID string `json:"device_id"`
	IsPaired bool   `json:"is_paired"`
}

// POST /api/v1/player/register
//
// A display client shows the code on screen; an admin claims it via
// /displays/pair, which flips is_paired on the stored value.
func (t *PlayerController) registerPairingCode(ctx *gin.Context) (any, *api.APIError) {
	var request packets.RegisterPairingCodeRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	if !redis.Enabled() {
		return nil, &api.APIError{Code: http.StatusServiceUnavailable, Message: "pairing requires redis"}
	}

	if existing, err := t.store.GetDisplayByDeviceID(request.DeviceID); err == nil && existing.Paired {
		log.Warn().Str("device_id", request.DeviceID).Str("display", existing.Name).
			Msg("device attempted to register while already paired")
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "device is already paired"}
	}

	data, _ := json.Marshal(PairingData{DeviceID: request.DeviceID, IsPaired: false})
	redis.Set(ctx, request.PairingCode, data, 0)

	log.Info().Str("device_id", request.DeviceID).Msg("pairing code registered")
	return gin.H{"device_id": request.DeviceID}, nil
}

// GET /api/v1/player/current?display=<name>
//
// Streaming-friendly playback payload with every frame duration resolved.
// Serves 304 against the slideshow's redis-backed ETag so idle displays
// can poll cheaply.
func (t *PlayerController) current(ctx *gin.Context) {
	name := ctx.Query("display")
	if name == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "display query parameter is required"})
		return
	}

	display, err := t.store.GetDisplayByName(name)
	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "display not found"})
		return
	}

	resp := packets.CurrentResponse{
		Display:         display.Name,
		ShowInfoOverlay: display.ShowInfoOverlay,
	}

	if display.CurrentSlideshowID == nil {
		ctx.JSON(http.StatusOK, resp)
		return
	}

	if etag, ok := slideshowEtag(ctx, *display.CurrentSlideshowID); ok {
		if match := ctx.GetHeader("If-None-Match"); match != "" && match == etag {
			ctx.Status(http.StatusNotModified)
			return
		}
		ctx.Header("ETag", etag)
	}

	show, err := t.store.GetSlideshowByID(*display.CurrentSlideshowID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			ctx.JSON(http.StatusOK, resp)
			return
		}
		log.Error().Err(err).Int("slideshow_id", *display.CurrentSlideshowID).
			Msg("failed to load slideshow for playback")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load slideshow"})
		return
	}

	if show.Active {
		frames := playback.BuildFrames(show)
		out := make([]packets.FrameResponse, len(frames))
		for i, f := range frames {
			out[i] = packets.FrameResponse{
				ItemID:   f.ItemID,
				Type:     f.Type,
				URL:      f.URL,
				Text:     f.Text,
				Scale:    f.Scale,
				Duration: int(f.Duration / time.Second),
				Position: f.Position,
			}
		}
		resp.Slideshow = &packets.CurrentSlideshowResponse{
			ID:         show.ID,
			Name:       show.Name,
			Transition: show.Transition,
			Frames:     out,
		}
	}

	ctx.JSON(http.StatusOK, resp)
}

// slideshowEtag returns the slideshow's current ETag, minting one when the
// key is empty. ok is false when redis is unavailable.
func slideshowEtag(ctx *gin.Context, slideshowID int) (string, bool) {
	if !redis.Enabled() {
		return "", false
	}

	key := fmt.Sprintf("slideshow:%d:etag", slideshowID)
	etag, err := redis.Rdb.Get(ctx, key).Result()
	if err == nil {
		return etag, true
	}
	if !errors.Is(err, redisclient.Nil) {
		log.Warn().Err(err).Str("etag_key", key).Msg("failed to read slideshow ETag")
		return "", false
	}

	etag = uuid.NewString()
	redis.Set(ctx, key, etag, 0)
	return etag, true
}

// POST /api/v1/player/heartbeat
func (t *PlayerController) heartbeat(ctx *gin.Context) (any, *api.APIError) {
	var request packets.HeartbeatRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	display, err := t.store.GetDisplayByName(request.Display)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "display not found"}
	}

	if err := t.store.TouchDisplay(display.Name, time.Now()); err != nil {
		log.Error().Err(err).Str("display", display.Name).Msg("failed to record heartbeat")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not record heartbeat"}
	}

	redis.MarkDisplayOnline(ctx, display.Name, model.OnlineThreshold)
	metrics.Heartbeats.Inc()

	return gin.H{"success": true}, nil
}
