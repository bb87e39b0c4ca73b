package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shardchat/shardchat/internal/common"
	"github.com/shardchat/shardchat/internal/config"
	"github.com/shardchat/shardchat/internal/httpapi/handlers"
	"github.com/shardchat/shardchat/internal/httpapi/middleware"
	"github.com/shardchat/shardchat/internal/room"
)

func NewRouter(cfg config.Config, svc *room.Service, resolver room.Resolver) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())

	r.NoRoute(func(c *gin.Context) {
		common.Error(c, http.StatusNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Error(c, http.StatusMethodNotAllowed, "method not allowed")
	})

	h := handlers.NewHandler(cfg, svc, resolver)

	r.GET("/", h.Landing)
	r.GET("/:room", h.RoomPage)
	r.GET("/:room/messages", h.Messages)
	r.POST("/:room/send", h.Send)
	r.GET("/:room/users", h.Users)

	r.Any("/:room/api/db/*path",
		middleware.AdminAuth(cfg.AdminSecret, cfg.AdminSecretHash),
		h.AdminDB)

	return r
}
