package routes

import (
	"response-service/internal/api/middleware"
	"response-service/internal/ws"

	"github.com/gin-gonic/gin"
)

type Router struct {
	engine    *gin.Engine
	hub       *ws.Hub
	wsHandler *ws.Handler
}

func NewRouter(hub *ws.Hub, wsHandler *ws.Handler) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	// Add middlewares
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS())
	engine.Use(middleware.LogApi())

	return &Router{
		engine:    engine,
		hub:       hub,
		wsHandler: wsHandler,
	}
}

func (r *Router) SetupRoutes() {
	r.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.engine.Group("/api/v1")
	api.GET("/ws", ws.ServeWs(r.hub, r.wsHandler))
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
