package endpoints

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/lumen-labs/iris/internal/db"
	"github.com/lumen-labs/iris/internal/http/api"
	"github.com/lumen-labs/iris/internal/http/api/admin/packets"
	"github.com/lumen-labs/iris/internal/model"
)

type HistoryController struct {
	store db.Store
}

func newHistoryController(store db.Store) *HistoryController {
	return &HistoryController{store: store}
}

// HistoryModule mounts the authenticated assignment audit listing.
func HistoryModule(store db.Store) api.Module {
	ctl := newHistoryController(store)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/assignment-history", ctl.listHistory)
	})
}

func mapHistoryEntry(e model.AssignmentHistoryEntry) packets.AssignmentHistoryResponse {
	return packets.AssignmentHistoryResponse{
		ID:                  e.ID,
		DisplayID:           e.DisplayID,
		DisplayName:         e.DisplayName,
		PreviousSlideshowID: e.PreviousSlideshowID,
		NewSlideshowID:      e.NewSlideshowID,
		NewSlideshowName:    e.NewSlideshowName,
		Action:              e.Action,
		Reason:              e.Reason,
		CreatedByID:         e.CreatedBy,
		CreatedAt:           e.CreatedAt.Format(time.RFC3339),
	}
}

// GET /api/v1/assignment-history?display_id=&action=&user_id=&limit=
func (h *HistoryController) listHistory(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	var filter db.HistoryFilter

	if v := ctx.Query("display_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid display_id"}
		}
		filter.DisplayID = &id
	}
	if v := ctx.Query("action"); v != "" {
		filter.Action = &v
	}
	if v := ctx.Query("user_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid user_id"}
		}
		filter.ActorID = &id
	}
	if v := ctx.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid limit"}
		}
		filter.Limit = n
	}

	entries, err := h.store.ListAssignmentHistory(filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to list assignment history")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not list assignment history"}
	}

	out := make([]packets.AssignmentHistoryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, mapHistoryEntry(e))
	}

	return gin.H{
		"success": true,
		"message": "assignment history retrieved",
		"data":    out,
	}, nil
}
