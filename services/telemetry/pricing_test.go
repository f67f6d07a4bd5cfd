package telemetry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 { return &v }

func TestEstimateCostPerUnitMinimumEnforced(t *testing.T) {
	model := CostModel{Type: "per_unit", UnitAmount: 0.5, MinimumUnits: 100}

	require.InDelta(t, 50, EstimateCost(model, 40), 1e-9)
	require.InDelta(t, 125, EstimateCost(model, 250), 1e-9)
}

func TestEstimateCostTieredBands(t *testing.T) {
	model := CostModel{
		Type: "tiered",
		Tiers: []CostTier{
			{UpTo: int64Ptr(100), UnitAmount: 1.0},
			{UpTo: int64Ptr(200), UnitAmount: 0.75},
			{UnitAmount: 0.5},
		},
	}

	// 100×1 + 100×0.75 + 60×0.5
	require.InDelta(t, 205, EstimateCost(model, 260), 1e-9)
	// Quantity inside the first band.
	require.InDelta(t, 60, EstimateCost(model, 60), 1e-9)
	// Quantity exactly on a band boundary.
	require.InDelta(t, 175, EstimateCost(model, 200), 1e-9)
}

func TestEstimateCostTieredWithoutOpenTier(t *testing.T) {
	model := CostModel{
		Type: "tiered",
		Tiers: []CostTier{
			{UpTo: int64Ptr(50), UnitAmount: 2.0},
		},
	}

	// Quantity beyond the last closed band is not billed further.
	require.InDelta(t, 100, EstimateCost(model, 80), 1e-9)
}

func TestEstimateCostNegativeQuantity(t *testing.T) {
	require.InDelta(t, 0, EstimateCost(CostModel{Type: "tiered"}, -5), 1e-9)
	require.InDelta(t, 0, EstimateCost(CostModel{Type: "per_unit", UnitAmount: 1}, -5), 1e-9)
}
