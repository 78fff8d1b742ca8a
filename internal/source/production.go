package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"

	"github.com/jgoulah/solarbill/internal/log"
	"github.com/jgoulah/solarbill/pkg/models"
)

// OutputColumn marks the header row of a PVWatts hourly export
const OutputColumn = "AC System Output (W)"

// productionRow is one hour of a PVWatts export. Fields stay strings because the export
// ends with a summary row that isn't an hour.
type productionRow struct {
	Month   string `csv:"Month"`
	Day     string `csv:"Day"`
	Hour    string `csv:"Hour"`
	OutputW string `csv:"AC System Output (W)"`
}

// LoadProduction reads a production model from a PVWatts CSV or an .xlsx workbook and
// scales every hour by derate.
func LoadProduction(ctx context.Context, path string, derate float64) (models.ProductionMap, error) {
	if derate < 0 {
		return nil, fmt.Errorf("derate for %s must not be negative: %v", path, derate)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open production model: %w", err)
	}
	defer f.Close()

	var production models.ProductionMap
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		production, err = ReadProductionXLSX(f, derate)
	} else {
		production, err = ReadProductionCSV(f, derate)
	}
	if err != nil {
		var fe *FormatError
		if errors.As(err, &fe) {
			fe.Path = path
		}
		return nil, err
	}

	log.Ctx(ctx).Info("loaded production model", "path", path, "hours", humanize.Comma(int64(len(production))), "derate", derate)
	return production, nil
}

// ReadProductionCSV skips the export's preamble up to the header line, then parses the body
func ReadProductionCSV(r io.Reader, derate float64) (models.ProductionMap, error) {
	br := bufio.NewReader(r)
	var header string
	for {
		line, err := br.ReadString('\n')
		if strings.Contains(line, OutputColumn) {
			header = line
			break
		}
		if err == io.EOF {
			return nil, &FormatError{Element: "header", Message: fmt.Sprintf("no line with %q", OutputColumn)}
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read production preamble: %w", err)
		}
	}

	var rows []*productionRow
	if err := gocsv.Unmarshal(io.MultiReader(strings.NewReader(header), br), &rows); err != nil {
		return nil, fmt.Errorf("failed to parse production rows: %w", err)
	}

	production := make(models.ProductionMap, len(rows))
	for i, row := range rows {
		if err := row.addTo(production, derate); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	return production, nil
}

// ReadProductionXLSX reads the same columns from the first sheet of a workbook
func ReadProductionXLSX(r io.Reader, derate float64) (models.ProductionMap, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &FormatError{Element: "workbook", Message: "no sheets"}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}

	headerAt := -1
	columns := make(map[string]int)
	for i, row := range rows {
		for j, cell := range row {
			if strings.TrimSpace(cell) == OutputColumn {
				headerAt = i
			}
			columns[strings.TrimSpace(cell)] = j
		}
		if headerAt >= 0 {
			break
		}
		clear(columns)
	}
	if headerAt < 0 {
		return nil, &FormatError{Element: "header", Message: fmt.Sprintf("no row with %q in sheet %s", OutputColumn, sheets[0])}
	}
	for _, name := range []string{"Month", "Day", "Hour"} {
		if _, ok := columns[name]; !ok {
			return nil, &FormatError{Element: "header", Message: fmt.Sprintf("missing column %q", name)}
		}
	}

	cell := func(row []string, name string) string {
		if j := columns[name]; j < len(row) {
			return row[j]
		}
		return ""
	}

	production := make(models.ProductionMap, len(rows)-headerAt-1)
	for i, cells := range rows[headerAt+1:] {
		row := productionRow{
			Month:   cell(cells, "Month"),
			Day:     cell(cells, "Day"),
			Hour:    cell(cells, "Hour"),
			OutputW: cell(cells, OutputColumn),
		}
		if err := row.addTo(production, derate); err != nil {
			return nil, fmt.Errorf("row %d: %w", headerAt+i+2, err)
		}
	}
	return production, nil
}

// addTo stores the derated output of one hour. Summary and blank rows are skipped.
func (row productionRow) addTo(production models.ProductionMap, derate float64) error {
	month := strings.TrimSpace(row.Month)
	if month == "" || strings.EqualFold(month, "totals") {
		return nil
	}

	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return &FormatError{Element: "Month", Message: fmt.Sprintf("invalid month %q", row.Month)}
	}
	day, err := strconv.Atoi(strings.TrimSpace(row.Day))
	if err != nil || day < 1 || day > 31 {
		return &FormatError{Element: "Day", Message: fmt.Sprintf("invalid day %q", row.Day)}
	}
	hour, err := strconv.Atoi(strings.TrimSpace(row.Hour))
	if err != nil || hour < 0 || hour > 23 {
		return &FormatError{Element: "Hour", Message: fmt.Sprintf("invalid hour %q", row.Hour)}
	}
	// one hour at W is Wh
	watts, err := strconv.ParseFloat(strings.TrimSpace(row.OutputW), 64)
	if err != nil {
		return &FormatError{Element: OutputColumn, Message: fmt.Sprintf("invalid output %q", row.OutputW)}
	}

	production[models.HourKey{Month: time.Month(m), Day: day, Hour: hour}] = watts * derate
	return nil
}
