package endpoints

import (
	"net/http"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/lumen-labs/iris/internal/db"
	"github.com/lumen-labs/iris/internal/events"
	"github.com/lumen-labs/iris/internal/http/api"
	"github.com/lumen-labs/iris/internal/http/api/events/packets"
	"github.com/lumen-labs/iris/internal/http/middleware"
	"github.com/lumen-labs/iris/internal/model"
)

// keepaliveInterval is how often an otherwise idle stream writes an SSE
// comment so proxies do not reap the connection.
const keepaliveInterval = 30 * time.Second

type EventsController struct {
	store     db.Store
	registry  *events.Registry
	jwtSecret string
}

func newEventsController(store db.Store, registry *events.Registry, jwtSecret string) *EventsController {
	return &EventsController{store: store, registry: registry, jwtSecret: jwtSecret}
}

// EventsPublicModule mounts the SSE stream endpoint. The handler does its
// own auth: display connections identify via ?display=<name>, admin
// connections via JWT (header or access_token query, since EventSource
// cannot set headers).
func EventsPublicModule(store db.Store, registry *events.Registry, jwtSecret string) api.Module {
	ctl := newEventsController(store, registry, jwtSecret)
	return api.ModuleFunc(func(c *api.Controller) {
		c.Group.GET("/events/stream", ctl.stream)
	})
}

// GET /api/v1/events/stream
func (e *EventsController) stream(ctx *gin.Context) {
	var conn *events.Connection

	if name := ctx.Query("display"); name != "" {
		display, err := e.store.GetDisplayByName(name)
		if err != nil {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "display not found"})
			return
		}
		conn = e.registry.Register(events.RoleDisplay, display.Name)
		log.Debug().Str("connection_id", conn.ID.String()).Str("display", display.Name).
			Msg("display event stream opened")
	} else {
		user, err := middleware.UserFromRequest(ctx, e.jwtSecret, e.store)
		if err != nil {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		conn = e.registry.Register(events.RoleAdmin, "")
		log.Debug().Str("connection_id", conn.ID.String()).Int("user_id", user.ID).
			Msg("admin event stream opened")
	}
	defer func() {
		e.registry.Unregister(conn.ID)
		log.Debug().Str("connection_id", conn.ID.String()).Msg("event stream closed")
	}()

	ctx.Header("Content-Type", "text/event-stream")
	ctx.Header("Cache-Control", "no-cache")
	ctx.Header("Connection", "keep-alive")
	ctx.Header("X-Accel-Buffering", "no")
	ctx.Writer.Flush()

	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Request.Context().Done():
			return
		case evt, ok := <-conn.Events():
			if !ok {
				// dropped by the broadcaster
				return
			}
			if err := sse.Encode(ctx.Writer, sse.Event{Event: evt.Name, Data: evt.Data}); err != nil {
				return
			}
			ctx.Writer.Flush()
		case <-keepalive.C:
			if _, err := ctx.Writer.WriteString(": keepalive\n\n"); err != nil {
				return
			}
			ctx.Writer.Flush()
		}
	}
}

type EventsAdminController struct {
	registry    *events.Registry
	broadcaster *events.Broadcaster
}

func newEventsAdminController(registry *events.Registry, broadcaster *events.Broadcaster) *EventsAdminController {
	return &EventsAdminController{registry: registry, broadcaster: broadcaster}
}

// EventsAdminModule mounts the authenticated stream introspection and test
// broadcast endpoints.
func EventsAdminModule(registry *events.Registry, broadcaster *events.Broadcaster) api.Module {
	ctl := newEventsAdminController(registry, broadcaster)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/events/stats", ctl.stats)
		c.POST("/events/test", ctl.testBroadcast)
	})
}

// GET /api/v1/events/stats
func (e *EventsAdminController) stats(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	return gin.H{"success": true, "data": e.registry.Stats()}, nil
}

// POST /api/v1/events/test
func (e *EventsAdminController) testBroadcast(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var req packets.TestBroadcastRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	evt := events.Event{
		Name: events.EventTest,
		Data: events.TestEvent{Message: req.Message, Data: req.Data},
	}
	delivered := e.broadcaster.Publish(evt, events.ToAll())

	log.Info().Int("user_id", user.ID).Int("delivered", delivered).Msg("test event broadcast")
	return gin.H{"success": true, "delivered": delivered}, nil
}
