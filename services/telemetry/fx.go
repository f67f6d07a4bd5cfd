package telemetry

import (
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/fx"
)

var Module = fx.Module("telemetry.service",
	fx.Provide(
		NewOrdersClient,
		NewReportingClient,
		NewService,
	),
	fx.Invoke(registerRoutes),
)

func registerRoutes(engine *gin.Engine, svc *Service) {
	engine.GET("/v1/provider-automation/telemetry", svc.HandleGetTelemetry)
	engine.POST("/v1/provider-automation/followups", svc.HandleLogFollowUp)
}

// RegisterTaskHandlers mounts the background task handlers on the asynq mux.
func RegisterTaskHandlers(mux *asynq.ServeMux, t *Task) {
	mux.HandleFunc(ReportingForwardFollowUp, t.HandleForwardFollowUp)
}
