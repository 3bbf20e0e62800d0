package feed

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/shopspring/decimal"
	"github.com/ymakhloufi/ratewatch/internal/pkg/model"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

var _ Feed = &ScrapeFeed{}

// ScrapeFeed extracts a bank's published rate history from an HTML page
// carrying a two-column (date, rate) table.
type ScrapeFeed struct {
	url    string
	entity model.Entity
	logger *zap.Logger
}

func NewScrapeFeed(url string, entity model.Entity, logger *zap.Logger) *ScrapeFeed {
	return &ScrapeFeed{url: url, entity: entity, logger: logger}
}

func (f *ScrapeFeed) Fetch(ctx context.Context, out chan<- model.Observation) {
	doc, err := htmlquery.LoadURL(f.url)
	if err != nil {
		f.logger.Error("failed reading rate page", zap.String("url", f.url), zap.Error(err))
		return
	}
	f.logger.Debug("parsed root nodes")

	// this is the shaky part. If the bank changes its page structure, this is
	// most likely gonna fail here
	tables, err := htmlquery.QueryAll(doc, "//table")
	if err != nil || len(tables) == 0 {
		f.logger.Error("failed to xpath rate table", zap.Error(err))
		return
	}

	obs, err := f.parseRateTable(tables[0])
	if err != nil {
		f.logger.Error("failed to parse rate table", zap.Error(err))
		return
	}
	f.logger.Info("parsed rate page", zap.Int("observations", len(obs)))

	for _, o := range obs {
		select {
		case <-ctx.Done():
			f.logger.Warn("scrape feed cancelled", zap.Error(ctx.Err()))
			return
		case out <- o:
		}
	}
}

func (f *ScrapeFeed) parseRateTable(table *html.Node) ([]model.Observation, error) {
	rowNodes, err := htmlquery.QueryAll(table, "//tr")
	if err != nil {
		return nil, fmt.Errorf("failed to xpath rows: %w", err)
	}
	if len(rowNodes) < 2 {
		return nil, fmt.Errorf("rate table has no data rows")
	}

	header := rowText(rowNodes[0])
	if !strings.Contains(strings.ToLower(strings.Join(header, " ")), "date") {
		return nil, fmt.Errorf("source table structure seems to have changed... fix parser?")
	}

	obs := make([]model.Observation, 0, len(rowNodes)-1)
	for _, rowNode := range rowNodes[1:] {
		cells := rowText(rowNode)
		if len(cells) < 2 {
			return nil, fmt.Errorf("unexpected row shape %v", cells)
		}
		day, err := parseSheetDate(cells[0])
		if err != nil {
			return nil, fmt.Errorf("failed to parse date in row %v: %w", cells, err)
		}
		rate, err := parseScrapedRate(cells[1])
		if err != nil {
			return nil, fmt.Errorf("failed to parse rate in row %v: %w", cells, err)
		}
		obs = append(obs, model.Observation{Date: day, Entity: f.entity, Rate: rate})
	}

	return obs, nil
}

// parseScrapedRate extracts a decimal percentage from a table cell, tolerating
// decimal commas, percent signs and footnote markers.
func parseScrapedRate(cell string) (decimal.Decimal, error) {
	sanitized := regexp.MustCompile(`\s+`).ReplaceAllString(cell, " ")
	sanitized = strings.ReplaceAll(sanitized, "%", "")
	sanitized = strings.ReplaceAll(sanitized, "*", "")
	sanitized = strings.ReplaceAll(sanitized, ",", ".")
	sanitized = strings.TrimSpace(sanitized)

	rate, err := decimal.NewFromString(sanitized)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to parse rate from cell '%s' (sanitized: '%s'): %w", cell, sanitized, err)
	}
	if rate.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("negative rate in cell '%s'", cell)
	}
	return rate, nil
}

func rowText(rowNode *html.Node) []string {
	cellNodes, err := htmlquery.QueryAll(rowNode, "//td|//th")
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(cellNodes))
	for _, cell := range cellNodes {
		out = append(out, nodeText(cell))
	}
	return out
}

func nodeText(node *html.Node) string {
	out := ""
	if node != nil {
		if node.Type == html.TextNode {
			out += " " + node.Data
		}

		nextNode := node.FirstChild
		for nextNode != nil {
			out += " " + nodeText(nextNode)
			nextNode = nextNode.NextSibling
		}
	}

	out = strings.ReplaceAll(out, " ", " ")                    // weird invisible space that's not a space
	out = regexp.MustCompile(`\s+`).ReplaceAllString(out, " ") // merge multi-spaces
	return strings.Trim(out, " ")
}
