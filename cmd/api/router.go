package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"labreserve/internal/middleware"
	"labreserve/internal/modules/auth"
	"labreserve/internal/modules/catalog"
	"labreserve/internal/modules/reservation"
	"labreserve/internal/notification"
	jwtsvc "labreserve/internal/pkg/jwt"
)

type handlers struct {
	hub          *notification.Hub
	auth         *auth.Handler
	catalog      *catalog.Handler
	reservation  *reservation.Handler
	notification *notification.HTTPHandler
}

func newRouter(log *zap.Logger, cors middleware.CORSOptions, jwt *jwtsvc.Service, users middleware.UserLoader, h handlers) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.CORS(cors))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "online_users": h.hub.OnlineCount()})
	})
	h.notification.RegisterSocket(r)

	v1 := r.Group("/api/v1")
	{
		h.auth.RegisterPublicRoutes(v1)

		protected := v1.Group("")
		protected.Use(middleware.JWTAuth(jwt), middleware.LoadUser(users))
		{
			h.auth.RegisterProtectedRoutes(protected)
			h.catalog.RegisterRoutes(protected)
			h.reservation.RegisterRoutes(protected)
			h.notification.RegisterRoutes(protected)
		}
	}
	return r
}
