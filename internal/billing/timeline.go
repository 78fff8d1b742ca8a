package billing

import (
	"slices"
	"time"

	"github.com/jgoulah/solarbill/pkg/models"
	"github.com/samber/lo"
)

// Merge builds one HourlyRecord per usage reading, ordered by timestamp. Production is looked up
// by the local month, day and hour of each reading; hours the model doesn't cover produce 0.
// Production hours without a usage reading are dropped.
func Merge(usage models.UsageMap, south, west models.ProductionMap, loc *time.Location) []models.HourlyRecord {
	keys := lo.Keys(usage)
	slices.Sort(keys)

	records := make([]models.HourlyRecord, 0, len(keys))
	for _, ts := range keys {
		reading := usage[ts]
		local := time.Unix(ts, 0).In(loc)
		key := models.HourKeyOf(local)
		records = append(records, models.HourlyRecord{
			Timestamp:    local,
			UsageWh:      reading.UsageWh,
			ActualCost:   reading.Cost,
			SolarSouthWh: south[key],
			SolarWestWh:  west[key],
			SolarUsageWh: reading.UsageWh,
		})
	}
	return records
}

// ApplySolar returns a copy of records with SolarUsageWh set to usage net of both arrays
func ApplySolar(records []models.HourlyRecord) []models.HourlyRecord {
	out := make([]models.HourlyRecord, len(records))
	for i, r := range records {
		r.SolarUsageWh = r.UsageWh - r.SolarSouthWh - r.SolarWestWh
		out[i] = r
	}
	return out
}

// FilterRange keeps records with since <= timestamp < until. A zero bound is open.
func FilterRange(records []models.HourlyRecord, since, until time.Time) []models.HourlyRecord {
	return lo.Filter(records, func(r models.HourlyRecord, _ int) bool {
		if !since.IsZero() && r.Timestamp.Before(since) {
			return false
		}
		if !until.IsZero() && !r.Timestamp.Before(until) {
			return false
		}
		return true
	})
}
