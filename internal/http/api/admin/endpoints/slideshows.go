package endpoints

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/lumen-labs/iris/internal/db"
	"github.com/lumen-labs/iris/internal/http/api"
	"github.com/lumen-labs/iris/internal/http/api/admin/packets"
	"github.com/lumen-labs/iris/internal/model"
	"github.com/lumen-labs/iris/internal/redis"
	"github.com/lumen-labs/iris/internal/storage"
)

type SlideshowController struct {
	store   db.Store
	storage storage.Storage
}

func newSlideshowController(store db.Store, storage storage.Storage) *SlideshowController {
	return &SlideshowController{store: store, storage: storage}
}

// SlideshowModule mounts all authenticated /slideshows endpoints.
func SlideshowModule(store db.Store, storage storage.Storage) api.Module {
	ctl := newSlideshowController(store, storage)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/slideshows", ctl.listSlideshows)
		c.POST("/slideshows", ctl.createSlideshow)
		c.GET("/slideshows/:id", ctl.getSlideshow)
		c.PUT("/slideshows/:id", ctl.updateSlideshow)
		c.DELETE("/slideshows/:id", ctl.deleteSlideshow)

		c.GET("/slideshows/:id/items", ctl.listItems)
		c.POST("/slideshows/:id/items", ctl.addItem)
		c.POST("/slideshows/:id/items/reorder", ctl.reorderItems)
		c.PUT("/slideshows/:id/items/:item_id", ctl.updateItem)
		c.DELETE("/slideshows/:id/items/:item_id", ctl.removeItem)
	})
}

// notifyDisplaysSlideshowUpdated drops the slideshow's ETag key so displays
// showing it pick up the new content on their next poll.
func (p *SlideshowController) notifyDisplaysSlideshowUpdated(slideshowID int) {
	if !redis.Enabled() {
		return
	}

	etagKey := fmt.Sprintf("slideshow:%d:etag", slideshowID)
	if err := redis.Rdb.Del(context.Background(), etagKey).Err(); err != nil {
		log.Warn().Err(err).Int("slideshow_id", slideshowID).Str("etag_key", etagKey).
			Msg("failed to invalidate slideshow ETag cache")
		return
	}

	displays, err := p.store.GetDisplaysUsingSlideshow(slideshowID)
	if err != nil {
		log.Error().Err(err).Int("slideshow_id", slideshowID).
			Msg("failed to get displays for slideshow notification")
		return
	}

	log.Debug().Int("slideshow_id", slideshowID).Int("affected_displays", len(displays)).
		Msg("invalidated slideshow ETag cache")
}

func mapSlideshow(sh model.Slideshow) packets.SlideshowResponse {
	items := make([]packets.SlideshowItemResponse, len(sh.Items))
	for i, it := range sh.Items {
		items[i] = mapItem(it)
	}

	return packets.SlideshowResponse{
		ID:                  sh.ID,
		Name:                sh.Name,
		Description:         sh.Description,
		DefaultItemDuration: sh.DefaultItemDuration,
		Transition:          sh.Transition,
		Active:              sh.Active,
		IsDefault:           sh.IsDefault,
		CreatedAt:           sh.CreatedAt.Format(time.RFC3339),
		UpdatedAt:           sh.UpdatedAt.Format(time.RFC3339),
		Items:               items,
	}
}

func mapItem(it model.SlideshowItem) packets.SlideshowItemResponse {
	return packets.SlideshowItemResponse{
		ID:          it.ID,
		SlideshowID: it.SlideshowID,
		Type:        it.Type,
		Title:       it.Title,
		ContentURL:  it.ContentURL,
		ContentText: it.ContentText,
		Duration:    it.Duration,
		Scale:       it.Scale,
		Position:    it.Position,
		CreatedAt:   it.CreatedAt.Format(time.RFC3339),
	}
}

// GET /api/v1/slideshows
func (p *SlideshowController) listSlideshows(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	all, err := p.store.ListSlideshows()
	if err != nil {
		log.Error().Err(err).Msg("[slideshow] list: could not list slideshows")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not list slideshows"}
	}

	out := make([]packets.SlideshowResponse, 0, len(all))
	for _, sh := range all {
		out = append(out, mapSlideshow(sh))
	}
	return out, nil
}

// POST /api/v1/slideshows
func (p *SlideshowController) createSlideshow(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var req packets.CreateSlideshowRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Error().Err(err).Msg("[slideshow] create: bad request")
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	duration := 10
	if req.DefaultItemDuration != nil {
		duration = *req.DefaultItemDuration
	}
	transition := "none"
	if req.Transition != nil {
		transition = *req.Transition
	}

	sh, err := p.store.CreateSlideshow(req.Name, req.Description, duration, transition, user.ID)
	if err != nil {
		log.Error().Err(err).Str("name", req.Name).Msg("[slideshow] create failed")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not create slideshow"}
	}

	return mapSlideshow(sh), nil
}

// GET /api/v1/slideshows/:id
func (p *SlideshowController) getSlideshow(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid slideshow id"}
	}

	sh, err := p.store.GetSlideshowByID(id)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "slideshow not found"}
	}

	return mapSlideshow(sh), nil
}

// PUT /api/v1/slideshows/:id
func (p *SlideshowController) updateSlideshow(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid slideshow id"}
	}

	if _, err := p.store.GetSlideshowByID(id); err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "slideshow not found"}
	}

	var req packets.UpdateSlideshowRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	if err := p.store.UpdateSlideshow(id, req.Name, req.Description, req.DefaultItemDuration, req.Transition, req.Active, req.IsDefault); err != nil {
		log.Error().Err(err).Int("slideshow_id", id).Msg("[slideshow] update failed")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not update slideshow"}
	}

	updated, err := p.store.GetSlideshowByID(id)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not update slideshow"}
	}

	go p.notifyDisplaysSlideshowUpdated(id)
	return mapSlideshow(updated), nil
}

// DELETE /api/v1/slideshows/:id
func (p *SlideshowController) deleteSlideshow(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid slideshow id"}
	}

	if _, err := p.store.GetSlideshowByID(id); err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "slideshow not found"}
	}

	if err := p.store.DeleteSlideshow(id); err != nil {
		log.Error().Err(err).Int("slideshow_id", id).Msg("[slideshow] delete failed")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not delete slideshow"}
	}

	go p.notifyDisplaysSlideshowUpdated(id)
	return nil, nil
}

// GET /api/v1/slideshows/:id/items
func (p *SlideshowController) listItems(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid slideshow id"}
	}

	if _, err := p.store.GetSlideshowByID(id); err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "slideshow not found"}
	}

	items, err := p.store.ListSlideshowItems(id)
	if err != nil {
		log.Error().Err(err).Msg("[slideshow] list items failed")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not list slideshow items"}
	}

	out := make([]packets.SlideshowItemResponse, len(items))
	for i, it := range items {
		out[i] = mapItem(it)
	}
	return out, nil
}

// POST /api/v1/slideshows/:id/items
//
// url and text items are JSON bodies; image and video items are multipart
// uploads with the file under "source" and an optional client-probed
// "duration" form field (seconds, used for video length).
func (p *SlideshowController) addItem(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid slideshow id"}
	}

	if _, err := p.store.GetSlideshowByID(id); err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "slideshow not found"}
	}

	if strings.HasPrefix(ctx.ContentType(), "multipart/form-data") {
		return p.addUploadedItem(ctx, id)
	}

	var req packets.AddSlideshowItemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	if req.Type == model.ItemTypeURL && req.ContentURL == nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "content_url is required for url items"}
	}
	if req.Type == model.ItemTypeText && req.ContentText == nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "content_text is required for text items"}
	}

	item, err := p.store.AddSlideshowItem(id, req.Type, req.Title, req.ContentURL, req.ContentText, req.Duration, req.Scale)
	if err != nil {
		log.Error().Err(err).Int("slideshow_id", id).Msg("[slideshow] add item failed")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not add slideshow item"}
	}

	go p.notifyDisplaysSlideshowUpdated(id)
	return mapItem(item), nil
}

func (p *SlideshowController) addUploadedItem(ctx *gin.Context, id int) (any, *api.APIError) {
	itemType := ctx.PostForm("type")
	if itemType != model.ItemTypeImage && itemType != model.ItemTypeVideo {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "type must be image or video for uploads"}
	}

	var title *string
	if v := ctx.PostForm("title"); v != "" {
		title = &v
	}

	var duration *int
	if v := ctx.PostForm("duration"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil || d < 1 {
			return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid duration"}
		}
		duration = &d
	}

	fileHeader, err := ctx.FormFile("source")
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "source file is required"}
	}

	url, err := p.storage.SaveFile(fileHeader, fileHeader.Filename)
	if err != nil {
		log.Error().Err(err).Str("filename", fileHeader.Filename).Msg("[slideshow] upload failed")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not store uploaded file"}
	}

	item, err := p.store.AddSlideshowItem(id, itemType, title, &url, nil, duration, nil)
	if err != nil {
		log.Error().Err(err).Int("slideshow_id", id).Msg("[slideshow] add uploaded item failed")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not add slideshow item"}
	}

	go p.notifyDisplaysSlideshowUpdated(id)
	return mapItem(item), nil
}

// PUT /api/v1/slideshows/:id/items/:item_id
func (p *SlideshowController) updateItem(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid slideshow id"}
	}
	itemID, err := strconv.Atoi(ctx.Param("item_id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid item id"}
	}

	item, err := p.store.GetSlideshowItemByID(itemID)
	if err != nil || item.SlideshowID != id {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "slideshow item not found"}
	}

	var req packets.UpdateSlideshowItemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	if err := p.store.UpdateSlideshowItem(itemID, req.Title, req.Duration, req.Scale); err != nil {
		log.Error().Err(err).Int("item_id", itemID).Msg("[slideshow] update item failed")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not update slideshow item"}
	}

	updated, err := p.store.GetSlideshowItemByID(itemID)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not update slideshow item"}
	}

	go p.notifyDisplaysSlideshowUpdated(id)
	return mapItem(updated), nil
}

// DELETE /api/v1/slideshows/:id/items/:item_id
func (p *SlideshowController) removeItem(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid slideshow id"}
	}
	itemID, err := strconv.Atoi(ctx.Param("item_id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid item id"}
	}

	item, err := p.store.GetSlideshowItemByID(itemID)
	if err != nil || item.SlideshowID != id {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "slideshow item not found"}
	}

	if err := p.store.RemoveSlideshowItem(itemID); err != nil {
		log.Error().Err(err).Int("item_id", itemID).Msg("[slideshow] remove item failed")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not remove slideshow item"}
	}

	// uploads have no other references once their item row is gone
	if (item.Type == model.ItemTypeImage || item.Type == model.ItemTypeVideo) && item.ContentURL != nil {
		if err := p.storage.DeleteFile(*item.ContentURL); err != nil {
			log.Warn().Err(err).Str("content_url", *item.ContentURL).
				Msg("[slideshow] could not delete uploaded file")
		}
	}

	go p.notifyDisplaysSlideshowUpdated(id)
	return nil, nil
}

// POST /api/v1/slideshows/:id/items/reorder
func (p *SlideshowController) reorderItems(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid slideshow id"}
	}

	if _, err := p.store.GetSlideshowByID(id); err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "slideshow not found"}
	}

	var req packets.ReorderSlideshowItemsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	if err := p.store.ReorderSlideshowItems(id, req.ItemIDs); err != nil {
		log.Error().Err(err).Int("slideshow_id", id).Msg("[slideshow] reorder failed")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not reorder items"}
	}

	go p.notifyDisplaysSlideshowUpdated(id)
	return p.listItems(ctx, user)
}
