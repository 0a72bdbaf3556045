package main

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lumen-labs/iris/internal/assignment"
	"github.com/lumen-labs/iris/internal/db"
	"github.com/lumen-labs/iris/internal/events"
	"github.com/lumen-labs/iris/internal/http/api"
	adminapi "github.com/lumen-labs/iris/internal/http/api/admin/endpoints"
	authapi "github.com/lumen-labs/iris/internal/http/api/admin/auth/endpoints"
	eventsapi "github.com/lumen-labs/iris/internal/http/api/events/endpoints"
	playerapi "github.com/lumen-labs/iris/internal/http/api/player/endpoints"
	"github.com/lumen-labs/iris/internal/storage"
)

// RegisterRoutes sets up all application routes
func RegisterRoutes(
	r *gin.Engine,
	env Environment,
	store db.Store,
	storageSystem storage.Storage,
	registry *events.Registry,
	broadcaster *events.Broadcaster,
	manager *assignment.Manager,
) {
	// CORS
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods: []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
			"HEAD",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Authorization",
			"Accept",
			"If-None-Match",
		},
		ExposeHeaders: []string{
			"Content-Length",
			"ETag",
		},
		AllowCredentials: false,
	}))

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api/v1",
		Auth:   false,
	},
		authapi.AuthPublicModule(env.SecretKey, store),
		eventsapi.EventsPublicModule(store, registry, env.SecretKey),
		playerapi.PlayerModule(store),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api/v1",
		Auth:      true,
		SecretKey: env.SecretKey,
		Store:     store,
	},
		adminapi.DisplayModule(store, manager),
		adminapi.SlideshowModule(store, storageSystem),
		adminapi.HistoryModule(store),
		eventsapi.EventsAdminModule(registry, broadcaster),
		// session endpoints that require auth
		authapi.AuthSessionModule(env.SecretKey, store),
	)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Static content
	if !env.UseSpaces {
		r.Static("/uploads", "./uploads")
	}
}
