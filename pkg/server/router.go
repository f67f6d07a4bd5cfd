package server

import (
	"smplat-platform/pkg/config"
	"smplat-platform/pkg/health"
	"smplat-platform/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var ProvideRouter = fx.Module("http.router",
	fx.Provide(NewRouter),
	fx.Invoke(registerHealthRoutes),
)

func NewRouter(cfg *config.Config) *gin.Engine {
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.Channel(),
		middleware.Error(),
	)

	return engine
}

func registerHealthRoutes(engine *gin.Engine, svc health.HealthService) {
	engine.GET("/healthz", svc.Liveness)
	engine.GET("/readyz", svc.Readiness)
}
