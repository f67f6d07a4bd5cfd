package main

import (
	"log"

	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"smplat-platform/pkg/config"
	"smplat-platform/pkg/db"
	"smplat-platform/pkg/featureflags"
	"smplat-platform/pkg/health"
	"smplat-platform/pkg/logger"
	"smplat-platform/pkg/redis"
	"smplat-platform/pkg/server"
	"smplat-platform/pkg/task"
	"smplat-platform/services/preview"
	"smplat-platform/services/telemetry"
	"smplat-platform/services/timeline"
)

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		redis.Module,
		task.Client,
		task.Server,
		health.Module,
		featureflags.Module,
		fx.Provide(
			provideSnowflakeNode,
		),
		server.ProvideRouter,
		timeline.Module,
		telemetry.Module,
		telemetry.TaskModule,
		preview.Module,
		fx.Invoke(registerTaskHandlers),
		server.ProvideHTTPServer,
		fxLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	app := fx.New(opts...)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})

func provideSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}

func registerTaskHandlers(mux *asynq.ServeMux, t *telemetry.Task) {
	telemetry.RegisterTaskHandlers(mux, t)
}
