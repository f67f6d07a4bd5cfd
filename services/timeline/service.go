package timeline

import (
	"context"
	"net/http"
	"sort"
	"time"

	"smplat-platform/pkg/db/pagination"
	"smplat-platform/pkg/errutil"
	"smplat-platform/pkg/featureflags"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// GuardrailStreamFlag toggles the guardrail override source. Enabled when no
// flag backend is configured.
const GuardrailStreamFlag = "timeline_guardrail_stream"

type Query struct {
	Limit  int
	Cursor string
}

// Page is one merged reverse-chronological slice of the member timeline.
type Page struct {
	Entries     []Entry `json:"entries"`
	Cursor      Cursor  `json:"cursor"`
	CursorToken string  `json:"cursorToken"`
	HasMore     bool    `json:"hasMore"`
}

type Service struct {
	sources Sources
	flags   featureflags.FeatureFlag
}

type ServiceParams struct {
	fx.In
	Sources Sources
	Flags   featureflags.FeatureFlag `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	return &Service{
		sources: p.Sources,
		flags:   p.Flags,
	}
}

// Fetch gathers the five upstream feeds concurrently, merges every returned
// record into one sequence sorted by occurredAt descending and truncates it
// to the requested limit. The gather is atomic: the first source failure
// aborts the whole page.
func (s *Service) Fetch(ctx context.Context, memberID string, q Query) (*Page, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
		zap.String("member_id", memberID),
	)

	limit := q.Limit
	if limit <= 0 {
		limit = 25
	}

	var cursor Cursor
	if decoded := DecodeCursor(q.Cursor); decoded != nil {
		cursor = *decoded
	}

	guardrailsEnabled := true
	if s.flags != nil {
		guardrailsEnabled = s.flags.IsEnabled(ctx, GuardrailStreamFlag, true)
	}

	var (
		ledger      *LedgerBatch
		redemptions *RedemptionBatch
		referrals   *ReferralBatch
		nudges      []NudgeRecord
		overrides   []GuardrailOverrideRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		ledger, err = s.sources.LedgerEntries(gctx, memberID, cursor.Ledger, limit)
		return err
	})
	g.Go(func() (err error) {
		redemptions, err = s.sources.Redemptions(gctx, memberID, cursor.Redemptions, limit)
		return err
	})
	g.Go(func() (err error) {
		referrals, err = s.sources.ReferralConversions(gctx, memberID, cursor.Referrals, limit)
		return err
	})
	g.Go(func() (err error) {
		nudges, err = s.sources.NudgeHistory(gctx, memberID)
		return err
	})
	if guardrailsEnabled {
		g.Go(func() (err error) {
			overrides, err = s.sources.GuardrailOverrides(gctx, memberID)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		zapLog.Error("failed to gather timeline sources", zap.Error(err))
		return nil, err
	}

	// Merge in fixed source order so equal timestamps keep fetch order.
	entries := make([]Entry, 0, len(ledger.Records)+len(redemptions.Records)+len(referrals.Records)+len(nudges)+len(overrides))
	dropped := 0
	now := time.Now().UTC()

	for _, r := range ledger.Records {
		occurredAt, ok := parseInstant(r.OccurredAt)
		if !ok {
			dropped++
			continue
		}
		balance := r.BalanceAfter
		entries = append(entries, Entry{
			Kind:         KindLedger,
			ID:           r.ID,
			OccurredAt:   occurredAt,
			EntryType:    r.EntryType,
			Amount:       r.Amount,
			BalanceAfter: &balance,
			Description:  r.Description,
		})
	}

	for _, r := range redemptions.Records {
		occurredAt, ok := parseInstant(r.RequestedAt)
		if !ok {
			dropped++
			continue
		}
		entries = append(entries, Entry{
			Kind:          KindRedemption,
			ID:            r.ID,
			OccurredAt:    occurredAt,
			Status:        r.Status,
			RewardID:      r.RewardID,
			PointsCost:    r.PointsCost,
			Quantity:      r.Quantity,
			FailureReason: r.FailureReason,
		})
	}

	for _, r := range referrals.Records {
		occurredAt, ok := parseInstant(r.ConvertedAt)
		if !ok {
			dropped++
			continue
		}
		entries = append(entries, Entry{
			Kind:        KindReferral,
			ID:          r.ID,
			OccurredAt:  occurredAt,
			Status:      r.Status,
			InviteeName: r.InviteeName,
			Amount:      r.RewardedPts,
		})
	}

	for _, r := range nudges {
		occurredAt, ok := parseInstant(r.SentAt)
		if !ok {
			dropped++
			continue
		}
		entries = append(entries, Entry{
			Kind:       KindNudge,
			ID:         r.ID,
			OccurredAt: occurredAt,
			Status:     r.Status,
			NudgeType:  r.NudgeType,
		})
	}

	for _, r := range overrides {
		occurredAt, ok := parseInstant(r.CreatedAt)
		if !ok {
			dropped++
			continue
		}
		active := r.Active(now)
		entries = append(entries, Entry{
			Kind:         KindGuardrailOverride,
			ID:           r.ID,
			OccurredAt:   occurredAt,
			GuardrailKey: r.GuardrailKey,
			Description:  r.Reason,
			Active:       &active,
		})
	}

	if dropped > 0 {
		zapLog.Warn("dropped timeline records with unparsable timestamps", zap.Int("dropped", dropped))
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].OccurredAt.After(entries[j].OccurredAt)
	})

	merged := len(entries)
	if merged > limit {
		entries = entries[:limit]
	}

	next := Cursor{
		Ledger:      ledger.NextCursor,
		Redemptions: redemptions.NextCursor,
		Referrals:   referrals.NextCursor,
	}

	hasMore := next.Ledger != "" || next.Redemptions != "" || next.Referrals != "" || merged > limit

	return &Page{
		Entries:     entries,
		Cursor:      next,
		CursorToken: EncodeCursor(next),
		HasMore:     hasMore,
	}, nil
}

// HandleGetTimeline serves GET /v1/members/:member_id/loyalty/timeline.
func (s *Service) HandleGetTimeline(c *gin.Context) {
	memberID := c.Param("member_id")
	if memberID == "" {
		_ = c.Error(errutil.BadRequest("member_id is required", nil))
		return
	}

	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		_ = c.Error(errutil.BadRequest("invalid pagination parameters", err))
		return
	}
	page.Clamp()

	result, err := s.Fetch(c.Request.Context(), memberID, Query{
		Limit:  page.Limit,
		Cursor: page.Cursor,
	})
	if err != nil {
		_ = c.Error(errutil.BadGateway("failed to assemble loyalty timeline", err))
		return
	}

	c.JSON(http.StatusOK, result)
}

// parseInstant parses an RFC3339 timestamp; records with unparsable
// timestamps are dropped, not merged.
func parseInstant(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
