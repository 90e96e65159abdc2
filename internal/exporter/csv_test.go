package exporter

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealpulse/internal/dataprocessing"
	"dealpulse/pkg/contracts/domain"
)

func TestWrite(t *testing.T) {
	c := NewCSVWriter(nil, t.TempDir())

	var buf bytes.Buffer
	err := c.Write(&buf, WriteOptions{
		Headers: []string{"Company", "Deal Value"},
		Records: [][]string{
			{"Acme Surgical", "$500M"},
			{"CardioSense", "$2.1B"},
		},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Company,Deal Value", lines[0])
	assert.Equal(t, "Acme Surgical,$500M", lines[1])
}

func TestWrite_BOM(t *testing.T) {
	c := NewCSVWriter(nil, t.TempDir())

	var buf bytes.Buffer
	require.NoError(t, c.Write(&buf, WriteOptions{
		Headers:   []string{"Company"},
		BOMPrefix: true,
	}))

	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte{0xEF, 0xBB, 0xBF}))
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	c := NewCSVWriter(nil, dir)

	path, err := c.WriteFile("ma_deals.csv", WriteOptions{
		Headers: []string{"Company"},
		Records: [][]string{{"Acme Surgical"}},
	})
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Acme Surgical")
}

func TestWriteJSONFile(t *testing.T) {
	c := NewCSVWriter(nil, t.TempDir())

	path, err := c.WriteJSONFile("ma_summary.json", map[string]int{"deal_count": 7})
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"deal_count": 7}`, string(content))
}

func TestDealTable(t *testing.T) {
	layout := domain.SheetLayout{
		Sheet:   "YTD M&A Activity",
		Columns: []string{"Acquirer", "Company", "Deal Value", "Quarter", "Sector", "Deal Type"},
	}
	records := []domain.DealRecord{{
		Kind:        domain.DealKindMA,
		Company:     "Acme Surgical",
		Counterpart: "Medtronic",
		RawAmount:   "$500M",
		Quarter:     "Q1 2025",
		Sector:      "Surgical Robotics",
		Extra:       map[string]string{"Deal Type": "Acquisition"},
	}}

	table := DealTable(domain.DealKindMA, layout, records)
	assert.Equal(t, layout.Columns, table.Headers)
	require.Len(t, table.Records, 1)
	assert.Equal(t, []string{"Medtronic", "Acme Surgical", "$500M", "Q1 2025", "Surgical Robotics", "Acquisition"}, table.Records[0])
}

func TestDealTable_FallbackLayout(t *testing.T) {
	table := DealTable(domain.DealKindIPO, domain.SheetLayout{}, []domain.DealRecord{{
		Kind:      domain.DealKindIPO,
		Company:   "MedDevice Corp",
		RawAmount: "$300M",
		Quarter:   "Q2 2025",
	}})

	assert.Equal(t, []string{"Company", "Amount", "Quarter", "Sector"}, table.Headers)
	assert.Equal(t, "MedDevice Corp", table.Records[0][0])
}

func TestSeriesTable(t *testing.T) {
	series := []dataprocessing.AggregationResult{
		{Key: "Q1 2025", TotalAmount: 2.6e9, Count: 3, DisclosedCount: 2},
	}

	table := SeriesTable("Quarter", series)
	assert.Equal(t, []string{"Quarter", "Total Value", "Deal Count", "Disclosed Count"}, table.Headers)
	assert.Equal(t, []string{"Q1 2025", "2600000000", "3", "2"}, table.Records[0])
}
