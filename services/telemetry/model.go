package telemetry

import (
	"time"

	"gorm.io/datatypes"
)

// Replay statuses reported by the fulfillment backend.
const (
	ReplayExecuted = "executed"
	ReplayFailed   = "failed"
)

// MarginStatus classifies one order's economics against its guardrails.
type MarginStatus string

const (
	MarginPass MarginStatus = "pass"
	MarginWarn MarginStatus = "warn"
	MarginFail MarginStatus = "fail"
	// MarginIdle means the order could not be evaluated because price or
	// cost is missing. Idle orders are excluded from evaluated counts.
	MarginIdle MarginStatus = "idle"
)

type Replay struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type ScheduledReplay struct {
	ID    string `json:"id"`
	RunAt string `json:"runAt,omitempty"`
}

// GuardrailThresholds are the margin limits attached to an order or its service.
type GuardrailThresholds struct {
	MinimumMarginPercent  *float64 `json:"minimumMarginPercent,omitempty"`
	WarningMarginPercent  *float64 `json:"warningMarginPercent,omitempty"`
	MinimumMarginAbsolute *float64 `json:"minimumMarginAbsolute,omitempty"`
}

// ServiceRule is one rule override noted on an order payload.
type ServiceRule struct {
	ServiceID string `json:"serviceId"`
	RuleID    string `json:"ruleId"`
	Label     string `json:"label,omitempty"`
}

// CostModel prices provider fulfillment either per unit or in cumulative tiers.
type CostModel struct {
	Type         string     `json:"type"` // per_unit|tiered
	UnitAmount   float64    `json:"unitAmount,omitempty"`
	MinimumUnits int64      `json:"minimumUnits,omitempty"`
	Tiers        []CostTier `json:"tiers,omitempty"`
}

// CostTier is one pricing band. A nil UpTo marks the open-ended final tier.
type CostTier struct {
	UpTo       *int64  `json:"upTo,omitempty"`
	UnitAmount float64 `json:"unitAmount"`
}

type ServiceMeta struct {
	ID         string               `json:"id"`
	Name       string               `json:"name,omitempty"`
	Guardrails *GuardrailThresholds `json:"guardrails,omitempty"`
	CostModel  *CostModel           `json:"costModel,omitempty"`
}

// OrderPayload is the free-form metadata the backend embeds on each order.
type OrderPayload struct {
	ServiceID           string               `json:"serviceId,omitempty"`
	Quantity            int64                `json:"quantity,omitempty"`
	CustomerPriceAmount *float64             `json:"customerPriceAmount,omitempty"`
	ProviderCostAmount  *float64             `json:"providerCostAmount,omitempty"`
	Guardrails          *GuardrailThresholds `json:"guardrails,omitempty"`
	ServiceRules        []ServiceRule        `json:"serviceRules,omitempty"`
	Service             *ServiceMeta         `json:"service,omitempty"`
}

type ProviderOrder struct {
	ID               string            `json:"id"`
	Status           string            `json:"status,omitempty"`
	Replays          []Replay          `json:"replays,omitempty"`
	ScheduledReplays []ScheduledReplay `json:"scheduledReplays,omitempty"`
	Payload          OrderPayload      `json:"payload"`
}

type ReplaySummary struct {
	Total     int `json:"total"`
	Executed  int `json:"executed"`
	Failed    int `json:"failed"`
	Scheduled int `json:"scheduled"`
}

type GuardrailSummary struct {
	Evaluated int `json:"evaluated"`
	Pass      int `json:"pass"`
	Warn      int `json:"warn"`
	Fail      int `json:"fail"`
}

type ServiceGuardrailHits struct {
	Pass int `json:"pass"`
	Warn int `json:"warn"`
	Fail int `json:"fail"`
}

type RuleOverrideTally struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type ServiceRuleOverrides struct {
	TotalOverrides int                           `json:"totalOverrides"`
	Rules          map[string]*RuleOverrideTally `json:"rules"`
}

// Summary is the dashboard aggregate over a batch of provider orders.
type Summary struct {
	TotalOrders            int                              `json:"totalOrders"`
	Replays                ReplaySummary                    `json:"replays"`
	Guardrails             GuardrailSummary                 `json:"guardrails"`
	GuardrailHitsByService map[string]*ServiceGuardrailHits `json:"guardrailHitsByService"`
	RuleOverridesByService map[string]*ServiceRuleOverrides `json:"ruleOverridesByService"`
}

// FollowUpRecord is a locally persisted operator follow-up, forwarded to the
// external reporting service by a background task.
type FollowUpRecord struct {
	ID               string         `gorm:"column:id;primaryKey"`
	ProviderID       string         `gorm:"column:provider_id"`
	ProviderName     string         `gorm:"column:provider_name"`
	Action           string         `gorm:"column:action"`
	Notes            string         `gorm:"column:notes"`
	PlatformContext  string         `gorm:"column:platform_context"`
	Attachments      datatypes.JSON `gorm:"column:attachments"`
	ConversionCursor string         `gorm:"column:conversion_cursor"`
	ConversionHref   string         `gorm:"column:conversion_href"`
	CreatedAt        time.Time      `gorm:"column:created_at"`
	ForwardedAt      *time.Time     `gorm:"column:forwarded_at"`
}

func (FollowUpRecord) TableName() string {
	return "provider_followups"
}
