package timeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type mockSources struct {
	ledgerFn      func(ctx context.Context, memberID, cursor string, limit int) (*LedgerBatch, error)
	redemptionsFn func(ctx context.Context, memberID, cursor string, limit int) (*RedemptionBatch, error)
	referralsFn   func(ctx context.Context, memberID, cursor string, limit int) (*ReferralBatch, error)
	nudgesFn      func(ctx context.Context, memberID string) ([]NudgeRecord, error)
	guardrailsFn  func(ctx context.Context, memberID string) ([]GuardrailOverrideRecord, error)
}

func (m *mockSources) LedgerEntries(ctx context.Context, memberID, cursor string, limit int) (*LedgerBatch, error) {
	if m.ledgerFn != nil {
		return m.ledgerFn(ctx, memberID, cursor, limit)
	}
	return &LedgerBatch{}, nil
}

func (m *mockSources) Redemptions(ctx context.Context, memberID, cursor string, limit int) (*RedemptionBatch, error) {
	if m.redemptionsFn != nil {
		return m.redemptionsFn(ctx, memberID, cursor, limit)
	}
	return &RedemptionBatch{}, nil
}

func (m *mockSources) ReferralConversions(ctx context.Context, memberID, cursor string, limit int) (*ReferralBatch, error) {
	if m.referralsFn != nil {
		return m.referralsFn(ctx, memberID, cursor, limit)
	}
	return &ReferralBatch{}, nil
}

func (m *mockSources) NudgeHistory(ctx context.Context, memberID string) ([]NudgeRecord, error) {
	if m.nudgesFn != nil {
		return m.nudgesFn(ctx, memberID)
	}
	return nil, nil
}

func (m *mockSources) GuardrailOverrides(ctx context.Context, memberID string) ([]GuardrailOverrideRecord, error) {
	if m.guardrailsFn != nil {
		return m.guardrailsFn(ctx, memberID)
	}
	return nil, nil
}

func TestFetchMergesDescending(t *testing.T) {
	sources := &mockSources{}
	sources.ledgerFn = func(_ context.Context, _, _ string, _ int) (*LedgerBatch, error) {
		return &LedgerBatch{Records: []LedgerRecord{
			{ID: "A", OccurredAt: "2026-03-03T10:00:00Z", EntryType: "earn", Amount: 120, BalanceAfter: 320},
			{ID: "B", OccurredAt: "2026-03-01T10:00:00Z", EntryType: "spend", Amount: -40, BalanceAfter: 200},
		}}, nil
	}
	sources.redemptionsFn = func(_ context.Context, _, _ string, _ int) (*RedemptionBatch, error) {
		return &RedemptionBatch{Records: []RedemptionRecord{
			{ID: "C", RewardID: "rw-1", Status: "pending", PointsCost: 500, Quantity: 1, RequestedAt: "2026-03-02T10:00:00Z"},
		}}, nil
	}

	svc := &Service{sources: sources}
	page, err := svc.Fetch(context.Background(), "member-1", Query{Limit: 5})
	require.NoError(t, err)
	require.Len(t, page.Entries, 3)
	require.Equal(t, "A", page.Entries[0].ID)
	require.Equal(t, "C", page.Entries[1].ID)
	require.Equal(t, "B", page.Entries[2].ID)
	require.False(t, page.HasMore)

	for i := 1; i < len(page.Entries); i++ {
		require.False(t, page.Entries[i].OccurredAt.After(page.Entries[i-1].OccurredAt))
	}
}

func TestFetchTiesKeepSourceOrder(t *testing.T) {
	at := "2026-03-02T10:00:00Z"
	sources := &mockSources{}
	sources.ledgerFn = func(_ context.Context, _, _ string, _ int) (*LedgerBatch, error) {
		return &LedgerBatch{Records: []LedgerRecord{{ID: "ledger-tie", OccurredAt: at}}}, nil
	}
	sources.nudgesFn = func(_ context.Context, _ string) ([]NudgeRecord, error) {
		return []NudgeRecord{{ID: "nudge-tie", Status: "SENT", SentAt: at}}, nil
	}

	svc := &Service{sources: sources}
	page, err := svc.Fetch(context.Background(), "member-1", Query{Limit: 5})
	require.NoError(t, err)
	require.Len(t, page.Entries, 2)
	require.Equal(t, "ledger-tie", page.Entries[0].ID)
	require.Equal(t, "nudge-tie", page.Entries[1].ID)
}

func TestFetchDropsUnparsableTimestamps(t *testing.T) {
	sources := &mockSources{}
	sources.ledgerFn = func(_ context.Context, _, _ string, _ int) (*LedgerBatch, error) {
		return &LedgerBatch{Records: []LedgerRecord{
			{ID: "good", OccurredAt: "2026-03-03T10:00:00Z"},
			{ID: "bad", OccurredAt: "yesterday-ish"},
			{ID: "empty"},
		}}, nil
	}

	svc := &Service{sources: sources}
	page, err := svc.Fetch(context.Background(), "member-1", Query{Limit: 5})
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)
	require.Equal(t, "good", page.Entries[0].ID)
}

func TestFetchTruncatesAndReportsHasMore(t *testing.T) {
	sources := &mockSources{}
	sources.ledgerFn = func(_ context.Context, _, _ string, _ int) (*LedgerBatch, error) {
		return &LedgerBatch{Records: []LedgerRecord{
			{ID: "l1", OccurredAt: "2026-03-05T10:00:00Z"},
			{ID: "l2", OccurredAt: "2026-03-04T10:00:00Z"},
			{ID: "l3", OccurredAt: "2026-03-03T10:00:00Z"},
		}}, nil
	}

	svc := &Service{sources: sources}
	page, err := svc.Fetch(context.Background(), "member-1", Query{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Entries, 2)
	// l3 was fetched but not consumed into the page.
	require.True(t, page.HasMore)
}

func TestFetchHasMoreFromSourceCursor(t *testing.T) {
	sources := &mockSources{}
	sources.ledgerFn = func(_ context.Context, _, _ string, _ int) (*LedgerBatch, error) {
		return &LedgerBatch{
			Records:    []LedgerRecord{{ID: "l1", OccurredAt: "2026-03-05T10:00:00Z"}},
			NextCursor: "lg-next",
		}, nil
	}

	svc := &Service{sources: sources}
	page, err := svc.Fetch(context.Background(), "member-1", Query{Limit: 10})
	require.NoError(t, err)
	require.True(t, page.HasMore)
	require.Equal(t, "lg-next", page.Cursor.Ledger)

	decoded := DecodeCursor(page.CursorToken)
	require.NotNil(t, decoded)
	require.Equal(t, page.Cursor, *decoded)
}

func TestFetchResumesFromCursor(t *testing.T) {
	var gotLedgerCursor, gotRedemptionCursor string
	sources := &mockSources{}
	sources.ledgerFn = func(_ context.Context, _, cursor string, _ int) (*LedgerBatch, error) {
		gotLedgerCursor = cursor
		return &LedgerBatch{}, nil
	}
	sources.redemptionsFn = func(_ context.Context, _, cursor string, _ int) (*RedemptionBatch, error) {
		gotRedemptionCursor = cursor
		return &RedemptionBatch{}, nil
	}

	token := EncodeCursor(Cursor{Ledger: "lg-7", Redemptions: "rd-3"})
	svc := &Service{sources: sources}
	_, err := svc.Fetch(context.Background(), "member-1", Query{Limit: 5, Cursor: token})
	require.NoError(t, err)
	require.Equal(t, "lg-7", gotLedgerCursor)
	require.Equal(t, "rd-3", gotRedemptionCursor)
}

func TestFetchMalformedCursorRestarts(t *testing.T) {
	var gotCursor string
	sources := &mockSources{}
	sources.ledgerFn = func(_ context.Context, _, cursor string, _ int) (*LedgerBatch, error) {
		gotCursor = cursor
		return &LedgerBatch{}, nil
	}

	svc := &Service{sources: sources}
	_, err := svc.Fetch(context.Background(), "member-1", Query{Limit: 5, Cursor: "%%%garbage%%%"})
	require.NoError(t, err)
	require.Equal(t, "", gotCursor)
}

func TestFetchSourceFailureAbortsPage(t *testing.T) {
	sources := &mockSources{}
	sources.referralsFn = func(_ context.Context, _, _ string, _ int) (*ReferralBatch, error) {
		return nil, errors.New("upstream 502")
	}

	svc := &Service{sources: sources}
	_, err := svc.Fetch(context.Background(), "member-1", Query{Limit: 5})
	require.Error(t, err)
}

type staticFlags struct {
	enabled map[string]bool
}

func (f *staticFlags) IsEnabled(_ context.Context, name string, fallback bool) bool {
	if v, ok := f.enabled[name]; ok {
		return v
	}
	return fallback
}

func TestFetchGuardrailStreamDisabled(t *testing.T) {
	guardrailCalled := false
	sources := &mockSources{}
	sources.guardrailsFn = func(_ context.Context, _ string) ([]GuardrailOverrideRecord, error) {
		guardrailCalled = true
		return []GuardrailOverrideRecord{{ID: "go-1", CreatedAt: "2026-03-01T10:00:00Z"}}, nil
	}

	svc := &Service{
		sources: sources,
		flags:   &staticFlags{enabled: map[string]bool{GuardrailStreamFlag: false}},
	}
	page, err := svc.Fetch(context.Background(), "member-1", Query{Limit: 5})
	require.NoError(t, err)
	require.False(t, guardrailCalled)
	require.Empty(t, page.Entries)
}

func TestGuardrailOverrideActive(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	require.True(t, GuardrailOverrideRecord{CreatedAt: "2026-03-01T00:00:00Z"}.Active(now))
	require.False(t, GuardrailOverrideRecord{CreatedAt: "2026-03-01T00:00:00Z", RevokedAt: "2026-03-05T00:00:00Z"}.Active(now))
	require.False(t, GuardrailOverrideRecord{CreatedAt: "2026-03-01T00:00:00Z", ExpiresAt: "2026-03-09T00:00:00Z"}.Active(now))
	require.True(t, GuardrailOverrideRecord{CreatedAt: "2026-03-01T00:00:00Z", ExpiresAt: "2026-03-11T00:00:00Z"}.Active(now))
}
