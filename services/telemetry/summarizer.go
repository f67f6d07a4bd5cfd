package telemetry

// MarginEvaluation is the outcome of comparing one order's economics against
// its guardrail thresholds.
type MarginEvaluation struct {
	Status        MarginStatus `json:"status"`
	MarginValue   float64      `json:"marginValue"`
	MarginPercent float64      `json:"marginPercent"`
}

// EvaluateMargin classifies customer price vs provider cost. Orders missing
// either number are idle, which is distinct from an evaluated failure.
func EvaluateMargin(price, cost *float64, thresholds GuardrailThresholds) MarginEvaluation {
	if price == nil || cost == nil {
		return MarginEvaluation{Status: MarginIdle}
	}

	margin := *price - *cost
	var percent float64
	if *price != 0 {
		percent = margin / *price * 100
	}

	eval := MarginEvaluation{Status: MarginPass, MarginValue: margin, MarginPercent: percent}

	switch {
	case thresholds.MinimumMarginAbsolute != nil && margin < *thresholds.MinimumMarginAbsolute:
		eval.Status = MarginFail
	case thresholds.MinimumMarginPercent != nil && percent < *thresholds.MinimumMarginPercent:
		eval.Status = MarginFail
	case thresholds.WarningMarginPercent != nil && percent < *thresholds.WarningMarginPercent:
		eval.Status = MarginWarn
	}

	return eval
}

// Summarize aggregates provider orders for dashboard display. Empty input
// yields zero counts with non-nil maps so callers always have a safe default
// to render.
func Summarize(orders []ProviderOrder) Summary {
	summary := Summary{
		TotalOrders:            len(orders),
		GuardrailHitsByService: make(map[string]*ServiceGuardrailHits),
		RuleOverridesByService: make(map[string]*ServiceRuleOverrides),
	}

	for _, order := range orders {
		summary.Replays.Total += len(order.Replays)
		for _, replay := range order.Replays {
			switch replay.Status {
			case ReplayExecuted:
				summary.Replays.Executed++
			case ReplayFailed:
				summary.Replays.Failed++
			}
		}
		summary.Replays.Scheduled += len(order.ScheduledReplays)

		eval := EvaluateMargin(order.Payload.CustomerPriceAmount, resolveProviderCost(order.Payload), resolveThresholds(order.Payload))
		if eval.Status != MarginIdle {
			summary.Guardrails.Evaluated++

			serviceID := resolveServiceID(order.Payload)
			hits := summary.GuardrailHitsByService[serviceID]
			if hits == nil {
				hits = &ServiceGuardrailHits{}
				summary.GuardrailHitsByService[serviceID] = hits
			}

			switch eval.Status {
			case MarginPass:
				summary.Guardrails.Pass++
				hits.Pass++
			case MarginWarn:
				summary.Guardrails.Warn++
				hits.Warn++
			case MarginFail:
				summary.Guardrails.Fail++
				hits.Fail++
			}
		}

		// Duplicate rule ids within one payload count once per occurrence.
		for _, rule := range order.Payload.ServiceRules {
			serviceID := rule.ServiceID
			if serviceID == "" {
				serviceID = resolveServiceID(order.Payload)
			}

			overrides := summary.RuleOverridesByService[serviceID]
			if overrides == nil {
				overrides = &ServiceRuleOverrides{Rules: make(map[string]*RuleOverrideTally)}
				summary.RuleOverridesByService[serviceID] = overrides
			}

			overrides.TotalOverrides++
			tally := overrides.Rules[rule.RuleID]
			if tally == nil {
				tally = &RuleOverrideTally{Label: rule.Label}
				overrides.Rules[rule.RuleID] = tally
			}
			tally.Count++
		}
	}

	return summary
}

// resolveProviderCost prefers the explicit amount; otherwise estimates from
// the service cost model when one is attached.
func resolveProviderCost(payload OrderPayload) *float64 {
	if payload.ProviderCostAmount != nil {
		return payload.ProviderCostAmount
	}
	if payload.Service != nil && payload.Service.CostModel != nil && payload.Quantity > 0 {
		cost := EstimateCost(*payload.Service.CostModel, payload.Quantity)
		return &cost
	}
	return nil
}

// resolveThresholds prefers order-level guardrails over service metadata.
func resolveThresholds(payload OrderPayload) GuardrailThresholds {
	if payload.Guardrails != nil {
		return *payload.Guardrails
	}
	if payload.Service != nil && payload.Service.Guardrails != nil {
		return *payload.Service.Guardrails
	}
	return GuardrailThresholds{}
}

func resolveServiceID(payload OrderPayload) string {
	if payload.ServiceID != "" {
		return payload.ServiceID
	}
	if payload.Service != nil && payload.Service.ID != "" {
		return payload.Service.ID
	}
	return "unknown"
}
