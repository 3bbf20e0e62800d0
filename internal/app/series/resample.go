package series

import (
	"sort"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/ymakhloufi/ratewatch/internal/pkg/model"
)

// Resample reduces a single-entity, date-ascending series to one observation
// per calendar bucket. PeriodRaw is the identity. Buckets with no
// observations are omitted, never interpolated. The reduced observation keeps
// the date of the last observation in its bucket.
func Resample(series []model.Observation, period model.Period, reducer model.Reducer) []model.Observation {
	if period == model.PeriodRaw || len(series) == 0 {
		return series
	}

	out := make([]model.Observation, 0, len(series))
	bucket := make([]model.Observation, 0, 8)
	currentKey := bucketKey(series[0].Date, period)

	flush := func() {
		if len(bucket) == 0 {
			return
		}
		out = append(out, reduce(bucket, reducer))
		bucket = bucket[:0]
	}

	for _, obs := range series {
		key := bucketKey(obs.Date, period)
		if key != currentKey {
			flush()
			currentKey = key
		}
		bucket = append(bucket, obs)
	}
	flush()

	return out
}

// ResampleAll resamples every entity's series independently and returns them
// keyed by entity, plus the entities in deterministic (sorted) order.
func ResampleAll(observations []model.Observation, period model.Period, reducer model.Reducer) (map[model.Entity][]model.Observation, []model.Entity) {
	grouped := make(map[model.Entity][]model.Observation)
	for _, obs := range observations {
		grouped[obs.Entity] = append(grouped[obs.Entity], obs)
	}

	entities := make([]model.Entity, 0, len(grouped))
	for entity, series := range grouped {
		grouped[entity] = Resample(series, period, reducer)
		entities = append(entities, entity)
	}
	sort.Slice(entities, func(i, j int) bool { return entities[i] < entities[j] })

	return grouped, entities
}

func reduce(bucket []model.Observation, reducer model.Reducer) model.Observation {
	last := bucket[len(bucket)-1]
	if reducer == model.ReducerMean {
		sum := decimal.Zero
		for _, obs := range bucket {
			sum = sum.Add(obs.Rate)
		}
		last.Rate = sum.Div(decimal.NewFromInt(int64(len(bucket))))
	}
	return last
}

// bucketKey maps a date to its calendar bucket: the day itself, the Monday of
// its ISO week, the first of its month, or January 1st of its year.
func bucketKey(d civil.Date, period model.Period) civil.Date {
	switch period {
	case model.PeriodDay:
		return d
	case model.PeriodWeek:
		t := d.In(time.UTC)
		weekday := int(t.Weekday())
		if weekday == 0 {
			weekday = 7 // ISO weeks start on Monday
		}
		return d.AddDays(1 - weekday)
	case model.PeriodMonth:
		return civil.Date{Year: d.Year, Month: d.Month, Day: 1}
	case model.PeriodYear:
		return civil.Date{Year: d.Year, Month: time.January, Day: 1}
	default:
		return d
	}
}
