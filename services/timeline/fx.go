package timeline

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("timeline.service",
	fx.Provide(
		NewUpstream,
		NewService,
	),
	fx.Invoke(registerRoutes),
)

func registerRoutes(engine *gin.Engine, svc *Service) {
	engine.GET("/v1/members/:member_id/loyalty/timeline", svc.HandleGetTimeline)
}
