package billing

import (
	"slices"
	"time"

	"github.com/jgoulah/solarbill/pkg/models"
)

// MonthlyBucket is the set of hourly records that fall in one calendar month
type MonthlyBucket struct {
	Month        time.Time // First of the month in the records' location
	DaysObserved int       // Distinct calendar days with at least one record
	Records      []models.HourlyRecord
}

// MonthStart returns midnight on the first of t's month in t's location
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// GroupByMonth splits records into calendar months, ordered chronologically with the records
// of each month in timestamp order.
func GroupByMonth(records []models.HourlyRecord) []MonthlyBucket {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b models.HourlyRecord) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	var buckets []MonthlyBucket
	var days map[int]struct{}
	for _, r := range sorted {
		month := MonthStart(r.Timestamp)
		if len(buckets) == 0 || !buckets[len(buckets)-1].Month.Equal(month) {
			buckets = append(buckets, MonthlyBucket{Month: month})
			days = make(map[int]struct{})
		}
		b := &buckets[len(buckets)-1]
		b.Records = append(b.Records, r)
		if _, ok := days[r.Timestamp.Day()]; !ok {
			days[r.Timestamp.Day()] = struct{}{}
			b.DaysObserved++
		}
	}
	return buckets
}

// Summarize sums usage, production and actual cost for the bucket
func (b MonthlyBucket) Summarize() models.MonthlySummary {
	s := models.MonthlySummary{
		Month:        b.Month,
		DaysObserved: b.DaysObserved,
		Costs:        make(map[string]models.Cost),
	}
	for _, r := range b.Records {
		s.UsageWh += r.UsageWh
		s.SolarSouthWh += r.SolarSouthWh
		s.SolarWestWh += r.SolarWestWh
		s.SolarUsageWh += r.SolarUsageWh
		s.ActualCost += r.ActualCost
	}
	return s
}
