package series

import (
	"github.com/shopspring/decimal"
	"github.com/ymakhloufi/ratewatch/internal/pkg/model"
)

// Derive computes the personal rate series: for every observation of the base
// entity, published rate minus the discount, floored at zero. The result is
// labeled with the derived entity and is meant to be displayed alongside the
// base series, never instead of it.
func Derive(series []model.Observation, cfg model.DiscountConfig, label model.Entity) []model.Observation {
	var out []model.Observation
	for _, obs := range series {
		if obs.Entity != cfg.BaseEntity {
			continue
		}
		rate := obs.Rate.Sub(cfg.Discount)
		if rate.IsNegative() {
			rate = decimal.Zero
		}
		out = append(out, model.Observation{Date: obs.Date, Entity: label, Rate: rate})
	}
	return out
}
