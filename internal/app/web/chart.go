package web

import (
	"bytes"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/ymakhloufi/ratewatch/internal/app/series"
	"github.com/ymakhloufi/ratewatch/internal/pkg/model"
)

// basePalette colors the published-rate series. The derived personal rate is
// always the thick red line; the base series stay thin and dashed so it reads
// first.
var basePalette = []drawing.Color{
	drawing.ColorFromHex("2563eb"), // blue-600
	drawing.ColorFromHex("16a34a"), // green-600
	drawing.ColorFromHex("9333ea"), // purple-600
	drawing.ColorFromHex("9ca3af"), // gray-400
	drawing.ColorFromHex("ca8a04"), // yellow-600
}

var derivedColor = drawing.ColorFromHex("dc2626") // red-600

// RenderChart renders the rate history as a PNG line chart, one series per
// entity with the derived series highlighted. Returns raw PNG bytes.
func RenderChart(rows []series.Row, derivedLabel model.Entity) ([]byte, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("need at least 2 data points, got %d", len(rows))
	}

	grouped := make(map[model.Entity]*chart.TimeSeries)
	var order []model.Entity
	for _, row := range rows {
		ts, ok := grouped[row.Entity]
		if !ok {
			ts = &chart.TimeSeries{Name: string(row.Entity)}
			grouped[row.Entity] = ts
			order = append(order, row.Entity)
		}
		rate, _ := row.Rate.Float64()
		ts.XValues = append(ts.XValues, row.Date.In(time.UTC))
		ts.YValues = append(ts.YValues, rate)
	}

	chartSeries := make([]chart.Series, 0, len(order))
	paletteIdx := 0
	for _, entity := range order {
		ts := grouped[entity]
		if entity == derivedLabel {
			ts.Style = chart.Style{
				StrokeColor: derivedColor,
				StrokeWidth: 4.0,
			}
		} else {
			ts.Style = chart.Style{
				StrokeColor:     basePalette[paletteIdx%len(basePalette)],
				StrokeWidth:     1.5,
				StrokeDashArray: []float64{4.0, 2.0},
			}
			paletteIdx++
		}
		chartSeries = append(chartSeries, ts)
	}

	graph := chart.Chart{
		Title:  "Rate History",
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("Jan 06")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.2f%%", f)
				}
				return ""
			},
		},
		Series: chartSeries,
	}

	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}
