package source

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/jgoulah/solarbill/internal/log"
	"github.com/jgoulah/solarbill/pkg/models"
)

const (
	espiNamespace = "http://naesb.org/espi"

	// HourSeconds is the only interval length the billing math supports
	HourSeconds = 3600

	// costExponent scales the utility's integer cost to dollars (1/100000 of a dollar)
	costExponent = -5
)

type intervalReading struct {
	Cost       *string `xml:"http://naesb.org/espi cost"`
	TimePeriod struct {
		Duration *string `xml:"http://naesb.org/espi duration"`
		Start    *string `xml:"http://naesb.org/espi start"`
	} `xml:"http://naesb.org/espi timePeriod"`
	Value *string `xml:"http://naesb.org/espi value"`
}

// LoadIntervals reads an ESPI interval data file
func LoadIntervals(ctx context.Context, path string) (models.UsageMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open interval data: %w", err)
	}
	defer f.Close()

	usage, err := ReadIntervals(ctx, f)
	if err != nil {
		var fe *FormatError
		if errors.As(err, &fe) {
			fe.Path = path
		}
		return nil, err
	}
	log.Ctx(ctx).Info("loaded interval data", "path", path, "hours", humanize.Comma(int64(len(usage))))
	return usage, nil
}

// ReadIntervals streams IntervalReading elements found inside IntervalBlock elements.
// Readings with the same start overwrite earlier ones.
func ReadIntervals(ctx context.Context, r io.Reader) (models.UsageMap, error) {
	dec := xml.NewDecoder(r)
	usage := make(models.UsageMap)
	blockDepth := 0
	duplicates := 0

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse interval data: %w", err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Space != espiNamespace {
				continue
			}
			switch {
			case el.Name.Local == "IntervalBlock":
				blockDepth++
			case el.Name.Local == "IntervalReading" && blockDepth > 0:
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				var ir intervalReading
				if err := dec.DecodeElement(&ir, &el); err != nil {
					return nil, fmt.Errorf("failed to decode IntervalReading: %w", err)
				}
				reading, err := ir.toReading()
				if err != nil {
					return nil, err
				}
				if _, ok := usage[reading.Start.Unix()]; ok {
					duplicates++
				}
				usage[reading.Start.Unix()] = reading
			}
		case xml.EndElement:
			if el.Name.Space == espiNamespace && el.Name.Local == "IntervalBlock" {
				blockDepth--
			}
		}
	}

	if duplicates > 0 {
		log.Ctx(ctx).Warn("interval data repeats hours, keeping the last reading", "duplicates", duplicates)
	}
	return usage, nil
}

func (ir intervalReading) toReading() (models.UsageReading, error) {
	duration, err := requireInt(ir.TimePeriod.Duration, "timePeriod/duration")
	if err != nil {
		return models.UsageReading{}, err
	}
	if duration != HourSeconds {
		return models.UsageReading{}, &FormatError{
			Element: "timePeriod/duration",
			Message: fmt.Sprintf("interval is %d seconds, only %d is supported", duration, HourSeconds),
		}
	}

	start, err := requireInt(ir.TimePeriod.Start, "timePeriod/start")
	if err != nil {
		return models.UsageReading{}, err
	}

	if ir.Value == nil {
		return models.UsageReading{}, &FormatError{Element: "value", Message: "missing"}
	}
	value, err := decimal.NewFromString(strings.TrimSpace(*ir.Value))
	if err != nil {
		return models.UsageReading{}, &FormatError{Element: "value", Message: err.Error()}
	}

	var cost float64
	if ir.Cost != nil {
		raw, err := decimal.NewFromString(strings.TrimSpace(*ir.Cost))
		if err != nil {
			return models.UsageReading{}, &FormatError{Element: "cost", Message: err.Error()}
		}
		cost = raw.Shift(costExponent).InexactFloat64()
	}

	return models.UsageReading{
		Start:   time.Unix(start, 0).UTC(),
		UsageWh: value.InexactFloat64(),
		Cost:    cost,
	}, nil
}

func requireInt(s *string, element string) (int64, error) {
	if s == nil {
		return 0, &FormatError{Element: element, Message: "missing"}
	}
	n, err := strconv.ParseInt(strings.TrimSpace(*s), 10, 64)
	if err != nil {
		return 0, &FormatError{Element: element, Message: fmt.Sprintf("not an integer: %q", *s)}
	}
	return n, nil
}
