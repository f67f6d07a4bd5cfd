package timeline

import (
	"context"
	"time"
)

// Entry kinds merged into the member timeline.
const (
	KindLedger            = "ledger"
	KindRedemption        = "redemption"
	KindReferral          = "referral"
	KindNudge             = "nudge"
	KindGuardrailOverride = "guardrail_override"
)

// LedgerRecord is an immutable loyalty-points transaction from the ledger service.
type LedgerRecord struct {
	ID           string         `json:"id"`
	OccurredAt   string         `json:"occurredAt"`
	EntryType    string         `json:"entryType"` // earn|spend|adjust
	Amount       int64          `json:"amount"`
	Description  string         `json:"description"`
	BalanceAfter int64          `json:"balanceAfter"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// RedemptionRecord is a member's request to exchange points for a reward.
type RedemptionRecord struct {
	ID            string `json:"id"`
	RewardID      string `json:"rewardId"`
	Status        string `json:"status"` // pending|fulfilled|cancelled|failed
	PointsCost    int64  `json:"pointsCost"`
	Quantity      int    `json:"quantity"`
	RequestedAt   string `json:"requestedAt"`
	FulfilledAt   string `json:"fulfilledAt,omitempty"`
	CancelledAt   string `json:"cancelledAt,omitempty"`
	FailureReason string `json:"failureReason,omitempty"`
}

// ReferralRecord is a converted referral invite.
type ReferralRecord struct {
	ID          string `json:"id"`
	InviteeName string `json:"inviteeName,omitempty"`
	Status      string `json:"status"`
	ConvertedAt string `json:"convertedAt"`
	RewardedPts int64  `json:"rewardedPoints,omitempty"`
}

// NudgeRecord is a dispatched lifecycle-nudge message.
type NudgeRecord struct {
	ID             string `json:"id"`
	NudgeType      string `json:"nudgeType"`
	Status         string `json:"status"` // SENT|ACKNOWLEDGED|DISMISSED
	SentAt         string `json:"sentAt"`
	AcknowledgedAt string `json:"acknowledgedAt,omitempty"`
	DismissedAt    string `json:"dismissedAt,omitempty"`
}

// GuardrailOverrideRecord is a time-bounded exception to a quota or cooldown guardrail.
type GuardrailOverrideRecord struct {
	ID           string `json:"id"`
	GuardrailKey string `json:"guardrailKey"`
	Reason       string `json:"reason,omitempty"`
	CreatedAt    string `json:"createdAt"`
	ExpiresAt    string `json:"expiresAt,omitempty"`
	RevokedAt    string `json:"revokedAt,omitempty"`
}

// Active derives whether the override currently applies.
func (r GuardrailOverrideRecord) Active(now time.Time) bool {
	if r.RevokedAt != "" {
		if revoked, ok := parseInstant(r.RevokedAt); ok && !revoked.After(now) {
			return false
		}
	}
	if r.ExpiresAt != "" {
		if expires, ok := parseInstant(r.ExpiresAt); ok && !expires.After(now) {
			return false
		}
	}
	return true
}

// Entry is the tagged union every source record is normalised into. Only the
// shared envelope plus the fields of the entry's own kind are populated.
type Entry struct {
	Kind       string    `json:"kind"`
	ID         string    `json:"id"`
	OccurredAt time.Time `json:"occurredAt"`

	// ledger
	EntryType    string `json:"entryType,omitempty"`
	Amount       int64  `json:"amount,omitempty"`
	BalanceAfter *int64 `json:"balanceAfter,omitempty"`
	Description  string `json:"description,omitempty"`

	// redemption / referral / nudge lifecycle
	Status        string `json:"status,omitempty"`
	RewardID      string `json:"rewardId,omitempty"`
	PointsCost    int64  `json:"pointsCost,omitempty"`
	Quantity      int    `json:"quantity,omitempty"`
	FailureReason string `json:"failureReason,omitempty"`
	InviteeName   string `json:"inviteeName,omitempty"`
	NudgeType     string `json:"nudgeType,omitempty"`

	// guardrail override
	GuardrailKey string `json:"guardrailKey,omitempty"`
	Active       *bool  `json:"active,omitempty"`
}

// LedgerBatch is one page of ledger entries plus the resume cursor.
type LedgerBatch struct {
	Records    []LedgerRecord `json:"records"`
	NextCursor string         `json:"nextCursor,omitempty"`
}

type RedemptionBatch struct {
	Records    []RedemptionRecord `json:"records"`
	NextCursor string             `json:"nextCursor,omitempty"`
}

type ReferralBatch struct {
	Records    []ReferralRecord `json:"records"`
	NextCursor string           `json:"nextCursor,omitempty"`
}

// Sources abstracts the five upstream feeds. Ledger, redemptions and
// referrals are cursor paginated; nudge history and the guardrail override
// snapshot are refetched whole on every page, so repeats across pages are
// possible.
type Sources interface {
	LedgerEntries(ctx context.Context, memberID, cursor string, limit int) (*LedgerBatch, error)
	Redemptions(ctx context.Context, memberID, cursor string, limit int) (*RedemptionBatch, error)
	ReferralConversions(ctx context.Context, memberID, cursor string, limit int) (*ReferralBatch, error)
	NudgeHistory(ctx context.Context, memberID string) ([]NudgeRecord, error)
	GuardrailOverrides(ctx context.Context, memberID string) ([]GuardrailOverrideRecord, error)
}
