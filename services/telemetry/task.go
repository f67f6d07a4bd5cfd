package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"smplat-platform/pkg/client"
	"smplat-platform/pkg/config"
	"smplat-platform/pkg/errutil"
	"smplat-platform/pkg/repository"

	"github.com/go-resty/resty/v2"
	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const ReportingForwardFollowUp = "reporting:forward_followup"

type ForwardFollowUpPayload struct {
	FollowUpID string `json:"followup_id"`
}

// Reporter forwards follow-up records to the external reporting service.
type Reporter interface {
	ForwardFollowUp(ctx context.Context, record *FollowUpRecord) error
}

type reportingClient struct {
	http *resty.Client
}

func NewReportingClient(cfg *config.Config) Reporter {
	return &reportingClient{
		http: client.New(cfg.Reporting.BaseURL, cfg.Reporting.APIKey, cfg.Reporting.Timeout),
	}
}

func (c *reportingClient) ForwardFollowUp(ctx context.Context, record *FollowUpRecord) error {
	var attachments []Attachment
	if len(record.Attachments) > 0 {
		_ = json.Unmarshal(record.Attachments, &attachments)
	}

	body := map[string]any{
		"providerId":       record.ProviderID,
		"providerName":     record.ProviderName,
		"action":           record.Action,
		"notes":            record.Notes,
		"platformContext":  record.PlatformContext,
		"attachments":      attachments,
		"conversionCursor": record.ConversionCursor,
		"conversionHref":   record.ConversionHref,
	}

	resp, err := c.http.R().SetContext(ctx).SetBody(body).Post("/provider-followups")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return errutil.BadGateway(fmt.Sprintf("reporting api returned %d", resp.StatusCode()), nil)
	}

	return nil
}

var TaskModule = fx.Module("task.telemetry",
	fx.Provide(NewTask),
)

type Task struct {
	reporter  Reporter
	followups repository.Repository[FollowUpRecord]
}

type TaskParams struct {
	fx.In
	DB       *gorm.DB
	Reporter Reporter
}

func NewTask(p TaskParams) *Task {
	return &Task{
		reporter:  p.Reporter,
		followups: repository.ProvideStore[FollowUpRecord](p.DB),
	}
}

// HandleForwardFollowUp delivers a persisted follow-up to the reporting
// service. Errors are returned so asynq retries the delivery.
func (t *Task) HandleForwardFollowUp(ctx context.Context, at *asynq.Task) error {
	var payload ForwardFollowUpPayload
	if err := json.Unmarshal(at.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}

	zapLog := zap.L().With(
		zap.String("task_type", at.Type()),
		zap.String("followup_id", payload.FollowUpID),
	)

	record, err := t.followups.FindOne(ctx, &FollowUpRecord{ID: payload.FollowUpID})
	if err != nil {
		zapLog.Error("failed to load follow-up record", zap.Error(err))
		return err
	}
	if record == nil {
		zapLog.Warn("follow-up record missing, skipping forward")
		return nil
	}
	if record.ForwardedAt != nil {
		return nil
	}

	if err := t.reporter.ForwardFollowUp(ctx, record); err != nil {
		zapLog.Error("failed to forward follow-up", zap.Error(err))
		return err
	}

	now := time.Now().UTC()
	if err := t.followups.Update(ctx, record.ID, map[string]any{"forwarded_at": now}); err != nil {
		zapLog.Error("failed to stamp forwarded_at", zap.Error(err))
		return err
	}

	zapLog.Info("follow-up forwarded")
	return nil
}
