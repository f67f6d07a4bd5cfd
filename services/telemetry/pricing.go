package telemetry

// EstimateCost computes the provider cost for a quantity under a cost model.
// Per-unit models enforce a minimum billable quantity; tiered models price
// cumulatively across ascending bands, with the open-ended final tier
// applying to whatever quantity remains.
func EstimateCost(model CostModel, quantity int64) float64 {
	if quantity < 0 {
		quantity = 0
	}

	switch model.Type {
	case "tiered":
		return estimateTiered(model.Tiers, quantity)
	default:
		billable := quantity
		if model.MinimumUnits > billable {
			billable = model.MinimumUnits
		}
		return model.UnitAmount * float64(billable)
	}
}

func estimateTiered(tiers []CostTier, quantity int64) float64 {
	var cost float64
	var covered int64

	for _, tier := range tiers {
		if covered >= quantity {
			break
		}

		if tier.UpTo == nil {
			cost += float64(quantity-covered) * tier.UnitAmount
			covered = quantity
			continue
		}

		upper := *tier.UpTo
		if upper <= covered {
			continue
		}
		if upper > quantity {
			upper = quantity
		}

		cost += float64(upper-covered) * tier.UnitAmount
		covered = upper
	}

	return cost
}
