package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const espiFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:espi="http://naesb.org/espi">
  <entry>
    <content>
      <espi:ReadingType>
        <espi:intervalLength>3600</espi:intervalLength>
      </espi:ReadingType>
    </content>
  </entry>
  <entry>
    <content>
      <IntervalBlock xmlns="http://naesb.org/espi">
        <interval>
          <duration>86400</duration>
          <start>1377327600</start>
        </interval>
        <IntervalReading>
          <cost>2725</cost>
          <timePeriod>
            <duration>3600</duration>
            <start>1377327600</start>
          </timePeriod>
          <value>200</value>
        </IntervalReading>
        <IntervalReading>
          <timePeriod>
            <duration>3600</duration>
            <start>1377331200</start>
          </timePeriod>
          <value>1450</value>
        </IntervalReading>
      </IntervalBlock>
    </content>
  </entry>
</feed>
`

func TestReadIntervals(t *testing.T) {
	usage, err := ReadIntervals(context.Background(), strings.NewReader(espiFeed))
	require.NoError(t, err)
	require.Len(t, usage, 2)

	first := usage[1377327600]
	assert.Equal(t, int64(1377327600), first.Start.Unix())
	assert.Equal(t, 200.0, first.UsageWh)
	assert.InDelta(t, 0.02725, first.Cost, 1e-12)

	t.Run("missing cost is zero", func(t *testing.T) {
		second := usage[1377331200]
		assert.Equal(t, 1450.0, second.UsageWh)
		assert.Equal(t, 0.0, second.Cost)
	})
}

func TestReadIntervalsIgnoresReadingsOutsideBlocks(t *testing.T) {
	feed := `<feed xmlns:espi="http://naesb.org/espi">
  <espi:IntervalReading>
    <espi:timePeriod><espi:duration>900</espi:duration><espi:start>1</espi:start></espi:timePeriod>
    <espi:value>5</espi:value>
  </espi:IntervalReading>
  <espi:IntervalBlock>
    <espi:IntervalReading>
      <espi:timePeriod><espi:duration>3600</espi:duration><espi:start>3600</espi:start></espi:timePeriod>
      <espi:value>7</espi:value>
    </espi:IntervalReading>
  </espi:IntervalBlock>
</feed>`

	usage, err := ReadIntervals(context.Background(), strings.NewReader(feed))
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, 7.0, usage[3600].UsageWh)
}

func TestReadIntervalsDuplicateHourKeepsLast(t *testing.T) {
	feed := `<IntervalBlock xmlns="http://naesb.org/espi">
  <IntervalReading><timePeriod><duration>3600</duration><start>7200</start></timePeriod><value>1</value></IntervalReading>
  <IntervalReading><timePeriod><duration>3600</duration><start>7200</start></timePeriod><value>2</value></IntervalReading>
</IntervalBlock>`

	usage, err := ReadIntervals(context.Background(), strings.NewReader(feed))
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, 2.0, usage[7200].UsageWh)
}

func TestReadIntervalsFormatErrors(t *testing.T) {
	tests := []struct {
		name    string
		reading string
		element string
	}{
		{
			name:    "fifteen minute interval",
			reading: `<timePeriod><duration>900</duration><start>0</start></timePeriod><value>10</value>`,
			element: "timePeriod/duration",
		},
		{
			name:    "missing duration",
			reading: `<timePeriod><start>0</start></timePeriod><value>10</value>`,
			element: "timePeriod/duration",
		},
		{
			name:    "missing start",
			reading: `<timePeriod><duration>3600</duration></timePeriod><value>10</value>`,
			element: "timePeriod/start",
		},
		{
			name:    "missing value",
			reading: `<timePeriod><duration>3600</duration><start>0</start></timePeriod>`,
			element: "value",
		},
		{
			name:    "bad cost",
			reading: `<cost>abc</cost><timePeriod><duration>3600</duration><start>0</start></timePeriod><value>1</value>`,
			element: "cost",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feed := `<IntervalBlock xmlns="http://naesb.org/espi"><IntervalReading>` + tt.reading + `</IntervalReading></IntervalBlock>`
			_, err := ReadIntervals(context.Background(), strings.NewReader(feed))
			require.Error(t, err)

			var fe *FormatError
			require.True(t, errors.As(err, &fe), "expected a FormatError, got %v", err)
			assert.Equal(t, tt.element, fe.Element)
		})
	}
}

func TestReadIntervalsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ReadIntervals(ctx, strings.NewReader(espiFeed))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadIntervals(t *testing.T) {
	dir := t.TempDir()

	t.Run("reads file", func(t *testing.T) {
		path := filepath.Join(dir, "usage.xml")
		require.NoError(t, os.WriteFile(path, []byte(espiFeed), 0644))

		usage, err := LoadIntervals(context.Background(), path)
		require.NoError(t, err)
		assert.Len(t, usage, 2)
	})

	t.Run("format error carries path", func(t *testing.T) {
		path := filepath.Join(dir, "quarter.xml")
		feed := strings.ReplaceAll(espiFeed, "<duration>3600</duration>", "<duration>900</duration>")
		require.NoError(t, os.WriteFile(path, []byte(feed), 0644))

		_, err := LoadIntervals(context.Background(), path)
		var fe *FormatError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, path, fe.Path)
		assert.Contains(t, err.Error(), "900")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadIntervals(context.Background(), filepath.Join(dir, "nope.xml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}
