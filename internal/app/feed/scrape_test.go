package feed

import (
	"strings"
	"testing"

	"github.com/antchfx/htmlquery"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ymakhloufi/ratewatch/internal/pkg/model"
	"go.uber.org/zap"
)

const samplePage = `<html><body>
<table>
  <tr><th>Date</th><th>Rate</th></tr>
  <tr><td>2024-01-01</td><td>2,475 %*</td></tr>
  <tr><td>2024-01-08</td><td> 2.500% </td></tr>
</table>
</body></html>`

func TestParseRateTable(t *testing.T) {
	doc, err := htmlquery.Parse(strings.NewReader(samplePage))
	require.NoError(t, err)
	table, err := htmlquery.Query(doc, "//table")
	require.NoError(t, err)

	feed := NewScrapeFeed("http://example.invalid", "Johoku", zap.NewNop())
	obs, err := feed.parseRateTable(table)
	require.NoError(t, err)
	require.Len(t, obs, 2)

	assert.Equal(t, model.Entity("Johoku"), obs[0].Entity)
	assert.Equal(t, "2024-01-01", obs[0].Date.String())
	assert.True(t, obs[0].Rate.Equal(decimal.RequireFromString("2.475")))
	assert.True(t, obs[1].Rate.Equal(decimal.RequireFromString("2.500")))
}

func TestParseRateTableRejectsChangedStructure(t *testing.T) {
	page := `<table><tr><th>Loan</th><th>Term</th></tr><tr><td>x</td><td>y</td></tr></table>`
	doc, err := htmlquery.Parse(strings.NewReader(page))
	require.NoError(t, err)
	table, err := htmlquery.Query(doc, "//table")
	require.NoError(t, err)

	feed := NewScrapeFeed("http://example.invalid", "Johoku", zap.NewNop())
	_, err = feed.parseRateTable(table)
	assert.Error(t, err)
}

func TestParseScrapedRate(t *testing.T) {
	tests := []struct {
		cell string
		want string
	}{
		{"2,475 %", "2.475"},
		{"2.500%*", "2.500"},
		{"  0,250  ", "0.250"},
	}
	for _, tt := range tests {
		got, err := parseScrapedRate(tt.cell)
		require.NoError(t, err, "cell %q", tt.cell)
		assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "cell %q: got %s", tt.cell, got)
	}
}

func TestParseScrapedRateInvalid(t *testing.T) {
	for _, cell := range []string{"", "n/a", "-1,0"} {
		_, err := parseScrapedRate(cell)
		assert.Error(t, err, "cell %q", cell)
	}
}
