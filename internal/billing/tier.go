package billing

import (
	"math"

	"github.com/jgoulah/solarbill/internal/schedule"
)

// ApplyTier prices usageWh on the staircase in table. baselineKWh is the allowance for the
// whole billing period; each boundary is a multiple of it. Usage at or below zero costs nothing.
func ApplyTier(usageWh, baselineKWh float64, table schedule.TierTable) float64 {
	usage := usageWh / 1000.0
	if usage <= 0 {
		return 0
	}

	var cost, prev float64
	for i, price := range table.Prices {
		if i == len(table.Boundaries) {
			// top tier is unbounded
			cost += usage * price
			break
		}
		upper := baselineKWh * table.Boundaries[i]
		width := upper - prev
		prev = upper

		cost += math.Min(width, usage) * price
		usage -= width
		if usage <= 0 {
			break
		}
	}
	return cost
}

// marginalCost is the cost of adding addWh on top of priorWh within the same period
func marginalCost(priorWh, addWh, baselineKWh float64, table schedule.TierTable) float64 {
	return ApplyTier(priorWh+addWh, baselineKWh, table) - ApplyTier(priorWh, baselineKWh, table)
}
