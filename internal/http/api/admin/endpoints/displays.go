package endpoints

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/lumen-labs/iris/internal/assignment"
	"github.com/lumen-labs/iris/internal/db"
	"github.com/lumen-labs/iris/internal/http/api"
	"github.com/lumen-labs/iris/internal/http/api/admin/packets"
	"github.com/lumen-labs/iris/internal/model"
	"github.com/lumen-labs/iris/internal/redis"
)

type DisplayController struct {
	store   db.Store
	manager *assignment.Manager
}

func newDisplayController(store db.Store, manager *assignment.Manager) *DisplayController {
	return &DisplayController{store: store, manager: manager}
}

// DisplayModule mounts all authenticated /displays endpoints. Displays are
// addressed by name, which is unique.
func DisplayModule(store db.Store, manager *assignment.Manager) api.Module {
	ctl := newDisplayController(store, manager)
	return api.ModuleFunc(func(c *api.Controller) {
		// CRUD
		c.GET("/displays", ctl.listDisplays)
		c.POST("/displays", ctl.createDisplay)
		c.GET("/displays/:name", ctl.getDisplay)
		c.PUT("/displays/:name", ctl.updateDisplay)
		c.DELETE("/displays/:name", ctl.deleteDisplay)

		// display <-> slideshow
		c.GET("/displays/:name/slideshow", ctl.getSlideshowForDisplay)
		c.POST("/displays/:name/assign-slideshow", ctl.assignSlideshow)

		// pairing
		c.POST("/displays/pair", ctl.pairDisplay)
	})
}

type PairingData struct {
	DeviceID string `json:"device_id"`
	IsPaired bool   `json:"is_paired"`
}

// mapDisplay flattens a display row into its response shape. The online
// flag comes from the redis liveness key when redis is reachable and from
// last_seen_at otherwise.
func mapDisplay(ctx context.Context, d model.Display) packets.DisplayResponse {
	online := d.OnlineAt(time.Now())
	if v, ok := redis.IsDisplayOnline(ctx, d.Name); ok {
		online = v
	}

	var lastSeen *string
	if d.LastSeenAt != nil {
		s := d.LastSeenAt.Format(time.RFC3339)
		lastSeen = &s
	}

	return packets.DisplayResponse{
		ID:                 d.ID,
		Name:               d.Name,
		Location:           d.Location,
		DeviceID:           d.DeviceID,
		Paired:             d.Paired,
		CurrentSlideshowID: d.CurrentSlideshowID,
		ShowInfoOverlay:    d.ShowInfoOverlay,
		Online:             online,
		LastSeenAt:         lastSeen,
		CreatedAt:          d.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          d.UpdatedAt.Format(time.RFC3339),
	}
}

// GET /api/v1/displays
func (t *DisplayController) listDisplays(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	all, err := t.store.ListDisplays()
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: err.Error()}
	}

	out := make([]packets.DisplayResponse, 0, len(all))
	for _, d := range all {
		out = append(out, mapDisplay(ctx, d))
	}

	return out, nil
}

// POST /api/v1/displays
func (t *DisplayController) createDisplay(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.CreateDisplayRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	showOverlay := false
	if request.ShowInfoOverlay != nil {
		showOverlay = *request.ShowInfoOverlay
	}

	display, err := t.store.CreateDisplay(request.Name, request.Location, showOverlay, user.ID)
	if err != nil {
		log.Error().Err(err).Str("name", request.Name).Msg("could not create display")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not create display"}
	}

	return mapDisplay(ctx, display), nil
}

// GET /api/v1/displays/:name
func (t *DisplayController) getDisplay(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	display, err := t.store.GetDisplayByName(ctx.Param("name"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "display not found"}
	}

	return mapDisplay(ctx, display), nil
}

// PUT /api/v1/displays/:name
func (t *DisplayController) updateDisplay(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	existing, err := t.store.GetDisplayByName(ctx.Param("name"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "display not found"}
	}

	var request packets.UpdateDisplayRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		log.Error().Err(err).Msg("invalid JSON in update display request")
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	if err := t.store.UpdateDisplay(existing.ID, request.Name, request.Location, request.ShowInfoOverlay); err != nil {
		log.Error().Err(err).Int("display_id", existing.ID).Msg("database update failed for display")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not update display"}
	}

	updated, err := t.store.GetDisplayByID(existing.ID)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not update display"}
	}

	return mapDisplay(ctx, updated), nil
}

// DELETE /api/v1/displays/:name
func (t *DisplayController) deleteDisplay(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	existing, err := t.store.GetDisplayByName(ctx.Param("name"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "display not found"}
	}

	if err := t.store.DeleteDisplay(existing.ID); err != nil {
		log.Error().Err(err).Int("display_id", existing.ID).Msg("could not delete display")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not delete display"}
	}

	return nil, nil
}

// GET /api/v1/displays/:name/slideshow
func (t *DisplayController) getSlideshowForDisplay(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	display, err := t.store.GetDisplayByName(ctx.Param("name"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "display not found"}
	}

	if display.CurrentSlideshowID == nil {
		return map[string]any{"slideshow": nil}, nil
	}

	show, err := t.store.GetSlideshowByID(*display.CurrentSlideshowID)
	if err != nil {
		log.Error().Err(err).Int("slideshow_id", *display.CurrentSlideshowID).
			Msg("failed to fetch slideshow for display")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "failed to fetch slideshow"}
	}

	return map[string]any{"slideshow": mapSlideshow(show)}, nil
}

// POST /api/v1/displays/:name/assign-slideshow
func (t *DisplayController) assignSlideshow(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.AssignSlideshowRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		log.Error().Err(err).Str("route", ctx.FullPath()).Msg("invalid JSON in slideshow assignment")
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	res, err := t.manager.Assign(ctx, ctx.Param("name"), request.SlideshowID, request.Reason, user)
	if err != nil {
		switch {
		case errors.Is(err, assignment.ErrDisplayNotFound):
			return nil, &api.APIError{Code: http.StatusNotFound, Message: "display not found"}
		case errors.Is(err, assignment.ErrSlideshowNotFound):
			return nil, &api.APIError{Code: http.StatusNotFound, Message: "slideshow not found"}
		default:
			log.Error().Err(err).Str("display", ctx.Param("name")).Msg("failed to assign slideshow")
			return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not assign slideshow"}
		}
	}

	return gin.H{
		"changed": res.Changed,
		"display": mapDisplay(ctx, res.Display),
	}, nil
}

// POST /api/v1/displays/pair
func (t *DisplayController) pairDisplay(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	var request packets.PairDisplayRequest
	var pairingData PairingData

	if err := ctx.ShouldBindJSON(&request); err != nil {
		log.Error().Err(err).Str("route", ctx.FullPath()).Msg("invalid JSON in display pairing request")
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	if !redis.Enabled() {
		return nil, &api.APIError{Code: http.StatusServiceUnavailable, Message: "pairing requires redis"}
	}

	key := request.PairingCode
	if err := redis.GetUnmarshalledJSON(ctx, key, &pairingData); err != nil {
		log.Error().Err(err).Str("code", key).Msg("unknown or expired pairing code")
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "pairing code not found"}
	}
	deviceID := pairingData.DeviceID

	pairingData.IsPaired = true
	updatedPairingData, _ := json.Marshal(pairingData)
	redis.Set(ctx, key, updatedPairingData, 7*24*time.Hour)

	if err := t.store.PairDisplay(request.DisplayID, deviceID); err != nil {
		log.Error().Err(err).Int("display_id", request.DisplayID).Str("device_id", deviceID).
			Str("route", ctx.FullPath()).Msg("failed to mark display as paired in database")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not update display"}
	}

	log.Info().Str("device_id", deviceID).Int("display_id", request.DisplayID).
		Msg("successfully paired display and stored device mapping in Redis")

	return gin.H{"success": "display paired successfully"}, nil
}
