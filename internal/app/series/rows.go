package series

import (
	"fmt"
	"sort"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/ymakhloufi/ratewatch/internal/pkg/model"
)

// Row is the flat shape chart and table renderers consume.
type Row struct {
	Date   civil.Date      `json:"date"`
	Entity model.Entity    `json:"entity"`
	Rate   decimal.Decimal `json:"rate"`
}

// ToRows flattens one or more series into ordered rows. Pure reshaping; empty
// input yields an empty sequence.
func ToRows(series ...[]model.Observation) []Row {
	var out []Row
	for _, s := range series {
		for _, obs := range s {
			out = append(out, Row{Date: obs.Date, Entity: obs.Entity, Rate: obs.Rate})
		}
	}
	return out
}

// EntityLatest is the most recent observation of one entity.
type EntityLatest struct {
	Entity model.Entity    `json:"entity"`
	Date   civil.Date      `json:"date"`
	Rate   decimal.Decimal `json:"rate"`
}

// Summary is the dashboard header: the user's effective rate next to the
// latest published rates.
type Summary struct {
	AsOf         civil.Date      `json:"as_of"`
	Base         model.Entity    `json:"base"`
	BaseRate     decimal.Decimal `json:"base_rate"`
	Discount     decimal.Decimal `json:"discount"`
	PersonalRate decimal.Decimal `json:"personal_rate"`
	PeerAverage  decimal.Decimal `json:"peer_average"`
	Latest       []EntityLatest  `json:"latest"`
}

// Latest builds the summary from the full observation table. The as-of date
// is the most recent date across all entities.
func Latest(observations []model.Observation, cfg model.DiscountConfig, label model.Entity) (Summary, error) {
	if len(observations) == 0 {
		return Summary{}, model.ErrEmptyResult
	}

	latest := make(map[model.Entity]model.Observation)
	asOf := observations[0].Date
	for _, obs := range observations {
		if prev, ok := latest[obs.Entity]; !ok || prev.Date.Before(obs.Date) {
			latest[obs.Entity] = obs
		}
		if asOf.Before(obs.Date) {
			asOf = obs.Date
		}
	}

	base, ok := latest[cfg.BaseEntity]
	if !ok {
		return Summary{}, fmt.Errorf("%w: no observations for entity '%s'", model.ErrEmptyResult, cfg.BaseEntity)
	}

	personal := base.Rate.Sub(cfg.Discount)
	if personal.IsNegative() {
		personal = decimal.Zero
	}

	entities := make([]model.Entity, 0, len(latest))
	for entity := range latest {
		entities = append(entities, entity)
	}
	sort.Slice(entities, func(i, j int) bool { return entities[i] < entities[j] })

	summary := Summary{
		AsOf:         asOf,
		Base:         cfg.BaseEntity,
		BaseRate:     base.Rate,
		Discount:     cfg.Discount,
		PersonalRate: personal,
		PeerAverage:  decimal.Zero,
		Latest:       make([]EntityLatest, 0, len(entities)),
	}

	peerSum, peers := decimal.Zero, 0
	for _, entity := range entities {
		obs := latest[entity]
		summary.Latest = append(summary.Latest, EntityLatest{Entity: entity, Date: obs.Date, Rate: obs.Rate})
		if entity != cfg.BaseEntity && entity != label {
			peerSum = peerSum.Add(obs.Rate)
			peers++
		}
	}
	if peers > 0 {
		summary.PeerAverage = peerSum.Div(decimal.NewFromInt(int64(peers)))
	}

	return summary, nil
}
