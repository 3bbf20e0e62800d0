package series

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/ymakhloufi/ratewatch/internal/pkg/model"
)

func obs(day string, entity model.Entity, rate string) model.Observation {
	d, err := civil.ParseDate(day)
	if err != nil {
		panic(err)
	}
	return model.Observation{Date: d, Entity: entity, Rate: decimal.RequireFromString(rate)}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
