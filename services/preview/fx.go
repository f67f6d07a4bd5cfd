package preview

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("preview.service",
	fx.Provide(
		NewHub,
		NewHistory,
		NewService,
	),
	fx.Invoke(registerRoutes),
)

func registerRoutes(engine *gin.Engine, svc *Service) {
	engine.GET("/v1/marketing-preview/stream", svc.HandleStream)
	engine.POST("/v1/marketing-preview/stream", svc.HandlePublish)
}
