package feed

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/ymakhloufi/ratewatch/internal/pkg/model"
	"go.uber.org/zap"
)

var _ Feed = &SheetFeed{}

// SheetFeed reads a published spreadsheet as CSV. The sheet is wide: a Date
// header column followed by one column per entity, one row per date.
type SheetFeed struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

func NewSheetFeed(url string, logger *zap.Logger) *SheetFeed {
	return &SheetFeed{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

func (f *SheetFeed) Fetch(ctx context.Context, out chan<- model.Observation) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		f.logger.Error("failed to build sheet request", zap.Error(err))
		return
	}

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Error("failed to fetch sheet", zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		f.logger.Error("sheet fetch returned non-OK status", zap.Int("status", resp.StatusCode))
		return
	}

	obs, err := parseSheet(resp.Body)
	if err != nil {
		f.logger.Error("failed to parse sheet", zap.Error(err))
		return
	}
	f.logger.Info("parsed sheet", zap.Int("observations", len(obs)))

	for _, o := range obs {
		select {
		case <-ctx.Done():
			f.logger.Warn("sheet feed cancelled", zap.Error(ctx.Err()))
			return
		case out <- o:
		}
	}
}

// parseSheet converts the wide CSV into observations. Rows with an unparseable
// date and cells with an unparseable rate are skipped; a missing or dateless
// header is a hard failure.
func parseSheet(r io.Reader) ([]model.Observation, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // ragged rows handled per cell

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("sheet is empty")
	}

	header := records[0]
	if len(header) < 2 || !strings.EqualFold(strings.TrimSpace(header[0]), "date") {
		return nil, fmt.Errorf("unexpected sheet header %v", header)
	}

	entities := make([]model.Entity, len(header))
	for i := 1; i < len(header); i++ {
		entities[i] = model.Entity(strings.TrimSpace(header[i]))
	}

	var out []model.Observation
	for _, record := range records[1:] {
		if len(record) == 0 {
			continue
		}
		day, err := parseSheetDate(record[0])
		if err != nil {
			continue // skip rows without a usable date
		}
		for i := 1; i < len(record) && i < len(entities); i++ {
			cell := strings.TrimSpace(record[i])
			if cell == "" {
				continue
			}
			rate, err := decimal.NewFromString(cell)
			if err != nil || rate.IsNegative() {
				continue
			}
			out = append(out, model.Observation{Date: day, Entity: entities[i], Rate: rate})
		}
	}
	return out, nil
}

func parseSheetDate(s string) (civil.Date, error) {
	s = strings.TrimSpace(s)
	if d, err := civil.ParseDate(s); err == nil {
		return d, nil
	}
	t, err := time.Parse("2006/01/02", s)
	if err != nil {
		return civil.Date{}, fmt.Errorf("failed to parse date '%s': %w", s, err)
	}
	return civil.DateOf(t), nil
}
