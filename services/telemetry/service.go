package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"smplat-platform/pkg/client"
	"smplat-platform/pkg/config"
	"smplat-platform/pkg/errutil"
	"smplat-platform/pkg/repository"
	"smplat-platform/pkg/task"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/go-resty/resty/v2"
	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Orders fetches provider orders from the commerce backend.
type Orders interface {
	ProviderOrders(ctx context.Context) ([]ProviderOrder, error)
}

type ordersClient struct {
	http *resty.Client
}

func NewOrdersClient(cfg *config.Config) Orders {
	return &ordersClient{
		http: client.New(cfg.Loyalty.BaseURL, cfg.Loyalty.APIKey, cfg.Loyalty.Timeout),
	}
}

func (c *ordersClient) ProviderOrders(ctx context.Context) ([]ProviderOrder, error) {
	var out struct {
		Orders []ProviderOrder `json:"orders"`
	}

	resp, err := c.http.R().SetContext(ctx).SetResult(&out).Get("/provider-automation/orders")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, errutil.BadGateway(fmt.Sprintf("commerce api returned %d", resp.StatusCode()), nil)
	}

	return out.Orders, nil
}

type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type FollowUpRequest struct {
	ProviderID       string       `json:"providerId" binding:"required"`
	ProviderName     string       `json:"providerName"`
	Action           string       `json:"action" binding:"required"`
	Notes            string       `json:"notes"`
	PlatformContext  string       `json:"platformContext"`
	Attachments      []Attachment `json:"attachments"`
	ConversionCursor string       `json:"conversionCursor"`
	ConversionHref   string       `json:"conversionHref"`
}

type Service struct {
	db     *gorm.DB
	node   *snowflake.Node
	asynq  task.Enqueuer
	orders Orders

	followups repository.Repository[FollowUpRecord]
}

type ServiceParams struct {
	fx.In
	DB     *gorm.DB
	Node   *snowflake.Node
	Asynq  task.Enqueuer
	Orders Orders
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:        p.DB,
		node:      p.Node,
		asynq:     p.Asynq,
		orders:    p.Orders,
		followups: repository.ProvideStore[FollowUpRecord](p.DB),
	}
}

// HandleGetTelemetry serves GET /v1/provider-automation/telemetry.
func (s *Service) HandleGetTelemetry(c *gin.Context) {
	ctx := c.Request.Context()
	span := trace.SpanFromContext(ctx)
	defer span.End()

	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	orders, err := s.orders.ProviderOrders(ctx)
	if err != nil {
		zapLog.Error("failed to fetch provider orders", zap.Error(err))
		_ = c.Error(errutil.BadGateway("failed to fetch provider orders", err))
		return
	}

	c.JSON(http.StatusOK, Summarize(orders))
}

// HandleLogFollowUp serves POST /v1/provider-automation/followups. The record
// is persisted locally and forwarded to the reporting service by a queued
// task, so the HTTP response does not wait on the external call.
func (s *Service) HandleLogFollowUp(c *gin.Context) {
	ctx := c.Request.Context()
	span := trace.SpanFromContext(ctx)
	defer span.End()

	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	var req FollowUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errutil.BadRequest("invalid follow-up payload", err))
		return
	}

	attachments, err := json.Marshal(req.Attachments)
	if err != nil {
		_ = c.Error(errutil.BadRequest("invalid attachments", err))
		return
	}

	record := &FollowUpRecord{
		ID:               s.node.Generate().String(),
		ProviderID:       req.ProviderID,
		ProviderName:     req.ProviderName,
		Action:           req.Action,
		Notes:            req.Notes,
		PlatformContext:  req.PlatformContext,
		Attachments:      datatypes.JSON(attachments),
		ConversionCursor: req.ConversionCursor,
		ConversionHref:   req.ConversionHref,
		CreatedAt:        time.Now().UTC(),
	}

	if err := s.followups.Create(ctx, record); err != nil {
		zapLog.Error("failed to persist follow-up record", zap.Error(err))
		_ = c.Error(errutil.Internal("failed to persist follow-up", err))
		return
	}

	payload, _ := json.Marshal(ForwardFollowUpPayload{FollowUpID: record.ID})
	if _, err := s.asynq.Enqueue(asynq.NewTask(ReportingForwardFollowUp, payload), asynq.Queue("reporting")); err != nil {
		zapLog.Error("failed to enqueue follow-up forwarding", zap.Error(err), zap.String("followup_id", record.ID))
		_ = c.Error(errutil.Internal("failed to queue follow-up forwarding", err))
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"id":     record.ID,
		"status": "queued",
	})
}
