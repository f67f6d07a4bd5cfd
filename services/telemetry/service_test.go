package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"smplat-platform/pkg/middleware"
	"smplat-platform/services/testutil"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
	zap.ReplaceGlobals(zap.NewNop())
}

type ordersMock struct {
	fn func(ctx context.Context) ([]ProviderOrder, error)
}

func (m *ordersMock) ProviderOrders(ctx context.Context) ([]ProviderOrder, error) {
	return m.fn(ctx)
}

type enqueuerMock struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
	err   error
}

func (m *enqueuerMock) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.tasks = append(m.tasks, task)
	m.opts = append(m.opts, opts)
	return &asynq.TaskInfo{ID: "test-task", Type: task.Type()}, nil
}

type reporterMock struct {
	records []*FollowUpRecord
	err     error
}

func (m *reporterMock) ForwardFollowUp(ctx context.Context, record *FollowUpRecord) error {
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, record)
	return nil
}

func newTestService(t *testing.T, orders Orders, enq *enqueuerMock) (*Service, *gorm.DB) {
	t.Helper()

	db := testutil.NewTestDB(t, &FollowUpRecord{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(ServiceParams{
		DB:     db,
		Node:   node,
		Asynq:  enq,
		Orders: orders,
	})
	return svc, db
}

func newTestRouter(svc *Service) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.Error())
	engine.GET("/v1/provider-automation/telemetry", svc.HandleGetTelemetry)
	engine.POST("/v1/provider-automation/followups", svc.HandleLogFollowUp)
	return engine
}

func TestHandleGetTelemetry(t *testing.T) {
	orders := &ordersMock{fn: func(ctx context.Context) ([]ProviderOrder, error) {
		price, cost, floor := 100.0, 90.0, 25.0
		return []ProviderOrder{
			{
				ID:      "ord-1",
				Replays: []Replay{{ID: "r1", Status: ReplayExecuted}},
				Payload: OrderPayload{
					ServiceID:           "svc-a",
					CustomerPriceAmount: &price,
					ProviderCostAmount:  &cost,
					Guardrails:          &GuardrailThresholds{MinimumMarginPercent: &floor},
				},
			},
		}, nil
	}}

	svc, _ := newTestService(t, orders, &enqueuerMock{})
	router := newTestRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/provider-automation/telemetry", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var summary Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	require.Equal(t, 1, summary.TotalOrders)
	require.Equal(t, 1, summary.Replays.Executed)
	require.Equal(t, 1, summary.Guardrails.Fail)
}

func TestHandleGetTelemetryUpstreamFailure(t *testing.T) {
	orders := &ordersMock{fn: func(ctx context.Context) ([]ProviderOrder, error) {
		return nil, errors.New("connection refused")
	}}

	svc, _ := newTestService(t, orders, &enqueuerMock{})
	router := newTestRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/provider-automation/telemetry", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadGateway, w.Code)
}

func TestHandleLogFollowUpPersistsAndQueues(t *testing.T) {
	enq := &enqueuerMock{}
	svc, db := newTestService(t, &ordersMock{fn: func(ctx context.Context) ([]ProviderOrder, error) {
		return nil, nil
	}}, enq)
	router := newTestRouter(svc)

	body, _ := json.Marshal(FollowUpRequest{
		ProviderID:   "prov-1",
		ProviderName: "Acme Panels",
		Action:       "pause",
		Notes:        "ticket opened with provider",
		Attachments:  []Attachment{{Name: "screenshot.png", URL: "https://files.example/1"}},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/provider-automation/followups", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)

	var resp struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ID)
	require.Equal(t, "queued", resp.Status)

	var record FollowUpRecord
	require.NoError(t, db.First(&record, "id = ?", resp.ID).Error)
	require.Equal(t, "prov-1", record.ProviderID)
	require.Equal(t, "pause", record.Action)
	require.Nil(t, record.ForwardedAt)

	require.Len(t, enq.tasks, 1)
	require.Equal(t, ReportingForwardFollowUp, enq.tasks[0].Type())

	var payload ForwardFollowUpPayload
	require.NoError(t, json.Unmarshal(enq.tasks[0].Payload(), &payload))
	require.Equal(t, resp.ID, payload.FollowUpID)
}

func TestHandleLogFollowUpValidation(t *testing.T) {
	enq := &enqueuerMock{}
	svc, _ := newTestService(t, &ordersMock{fn: func(ctx context.Context) ([]ProviderOrder, error) {
		return nil, nil
	}}, enq)
	router := newTestRouter(svc)

	// Missing the required action field.
	body := []byte(`{"providerId":"prov-1"}`)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/provider-automation/followups", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Empty(t, enq.tasks)
}

func TestHandleForwardFollowUp(t *testing.T) {
	db := testutil.NewTestDB(t, &FollowUpRecord{})
	reporter := &reporterMock{}
	task := NewTask(TaskParams{DB: db, Reporter: reporter})

	record := &FollowUpRecord{ID: "fu-1", ProviderID: "prov-1", Action: "pause"}
	require.NoError(t, db.Create(record).Error)

	payload, _ := json.Marshal(ForwardFollowUpPayload{FollowUpID: "fu-1"})
	err := task.HandleForwardFollowUp(context.Background(), asynq.NewTask(ReportingForwardFollowUp, payload))
	require.NoError(t, err)
	require.Len(t, reporter.records, 1)

	var stored FollowUpRecord
	require.NoError(t, db.First(&stored, "id = ?", "fu-1").Error)
	require.NotNil(t, stored.ForwardedAt)

	// A second delivery is a no-op once forwarded_at is set.
	err = task.HandleForwardFollowUp(context.Background(), asynq.NewTask(ReportingForwardFollowUp, payload))
	require.NoError(t, err)
	require.Len(t, reporter.records, 1)
}

func TestHandleForwardFollowUpMissingRecord(t *testing.T) {
	db := testutil.NewTestDB(t, &FollowUpRecord{})
	reporter := &reporterMock{}
	task := NewTask(TaskParams{DB: db, Reporter: reporter})

	payload, _ := json.Marshal(ForwardFollowUpPayload{FollowUpID: "missing"})
	err := task.HandleForwardFollowUp(context.Background(), asynq.NewTask(ReportingForwardFollowUp, payload))
	require.NoError(t, err)
	require.Empty(t, reporter.records)
}

func TestHandleForwardFollowUpReporterFailure(t *testing.T) {
	db := testutil.NewTestDB(t, &FollowUpRecord{})
	reporter := &reporterMock{err: errors.New("reporting api down")}
	task := NewTask(TaskParams{DB: db, Reporter: reporter})

	require.NoError(t, db.Create(&FollowUpRecord{ID: "fu-2", ProviderID: "prov-1", Action: "pause"}).Error)

	payload, _ := json.Marshal(ForwardFollowUpPayload{FollowUpID: "fu-2"})
	err := task.HandleForwardFollowUp(context.Background(), asynq.NewTask(ReportingForwardFollowUp, payload))
	require.Error(t, err)

	var stored FollowUpRecord
	require.NoError(t, db.First(&stored, "id = ?", "fu-2").Error)
	require.Nil(t, stored.ForwardedAt)
}
