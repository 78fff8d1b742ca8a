package report

import (
	"github.com/jgoulah/solarbill/pkg/models"
)

// Modes
const (
	ModeMonthly = "monthly"
	ModeHourly  = "hourly"
)

const (
	monthLayout = "2006-01-02"
	hourLayout  = "2006-01-02 15:04"
)

// MonthlyTable has one row per month, with a no-solar and a solar cost column for each
// schedule in order. A month without a cost for some schedule is left out.
func MonthlyTable(months []models.MonthlySummary, schedules []string) *Table {
	t := &Table{Header: []string{
		"Date",
		"Home Usage (watthours)",
		"Solar West (watthours)",
		"Solar South (watthours)",
		"Actual Cost",
	}}
	for _, name := range schedules {
		t.Header = append(t.Header, name+" (no solar) Cost", name+" (solar) Cost")
	}

	for _, m := range months {
		row := Row{
			Label:  m.Month.Format(monthLayout),
			Values: []*float64{ptr(m.UsageWh), ptr(m.SolarWestWh), ptr(m.SolarSouthWh), ptr(m.ActualCost)},
		}
		for _, name := range schedules {
			cost, ok := m.Costs[name]
			if !ok {
				row.Values = append(row.Values, nil, nil)
				continue
			}
			row.Values = append(row.Values, ptr(cost.NoSolar), ptr(cost.Solar))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// HourlyTable has one row per merged hour
func HourlyTable(records []models.HourlyRecord) *Table {
	t := &Table{Header: []string{
		"Date",
		"Home Usage (watthours)",
		"Solar West (watthours)",
		"Solar South (watthours)",
		"Net Usage (watthours)",
		"Actual Cost",
	}}
	for _, r := range records {
		t.Rows = append(t.Rows, Row{
			Label:  r.Timestamp.Format(hourLayout),
			Values: []*float64{ptr(r.UsageWh), ptr(r.SolarWestWh), ptr(r.SolarSouthWh), ptr(r.SolarUsageWh), ptr(r.ActualCost)},
		})
	}
	return t
}

func ptr(v float64) *float64 {
	return &v
}
