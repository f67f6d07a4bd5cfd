package timeline

import (
	"context"
	"fmt"
	"strconv"

	"smplat-platform/pkg/client"
	"smplat-platform/pkg/config"
	"smplat-platform/pkg/errutil"

	"github.com/go-resty/resty/v2"
)

// upstream implements Sources against the loyalty backend API.
type upstream struct {
	http *resty.Client
}

func NewUpstream(cfg *config.Config) Sources {
	return &upstream{
		http: client.New(cfg.Loyalty.BaseURL, cfg.Loyalty.APIKey, cfg.Loyalty.Timeout),
	}
}

func (u *upstream) get(ctx context.Context, path string, query map[string]string, out any) error {
	req := u.http.R().SetContext(ctx).SetResult(out)
	for k, v := range query {
		if v != "" {
			req.SetQueryParam(k, v)
		}
	}

	resp, err := req.Get(path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return errutil.BadGateway(fmt.Sprintf("loyalty api returned %d for %s", resp.StatusCode(), path), nil)
	}

	return nil
}

func (u *upstream) LedgerEntries(ctx context.Context, memberID, cursor string, limit int) (*LedgerBatch, error) {
	var batch LedgerBatch
	err := u.get(ctx, fmt.Sprintf("/loyalty/members/%s/ledger", memberID), map[string]string{
		"cursor": cursor,
		"limit":  strconv.Itoa(limit),
	}, &batch)
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

func (u *upstream) Redemptions(ctx context.Context, memberID, cursor string, limit int) (*RedemptionBatch, error) {
	var batch RedemptionBatch
	err := u.get(ctx, fmt.Sprintf("/loyalty/members/%s/redemptions", memberID), map[string]string{
		"cursor": cursor,
		"limit":  strconv.Itoa(limit),
	}, &batch)
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

func (u *upstream) ReferralConversions(ctx context.Context, memberID, cursor string, limit int) (*ReferralBatch, error) {
	var batch ReferralBatch
	err := u.get(ctx, fmt.Sprintf("/loyalty/members/%s/referrals/conversions", memberID), map[string]string{
		"cursor": cursor,
		"limit":  strconv.Itoa(limit),
	}, &batch)
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

func (u *upstream) NudgeHistory(ctx context.Context, memberID string) ([]NudgeRecord, error) {
	var snapshot struct {
		Records []NudgeRecord `json:"records"`
	}
	err := u.get(ctx, fmt.Sprintf("/loyalty/members/%s/nudges/history", memberID), nil, &snapshot)
	if err != nil {
		return nil, err
	}
	return snapshot.Records, nil
}

func (u *upstream) GuardrailOverrides(ctx context.Context, memberID string) ([]GuardrailOverrideRecord, error) {
	var snapshot struct {
		Records []GuardrailOverrideRecord `json:"records"`
	}
	err := u.get(ctx, fmt.Sprintf("/loyalty/members/%s/guardrails/overrides", memberID), nil, &snapshot)
	if err != nil {
		return nil, err
	}
	return snapshot.Records, nil
}
