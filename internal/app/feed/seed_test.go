package feed

import (
	"context"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ymakhloufi/ratewatch/internal/pkg/model"
	"go.uber.org/zap"
)

func collectSeed(t *testing.T, f *SeedFeed) []model.Observation {
	t.Helper()
	out := make(chan model.Observation, 1024)
	f.Fetch(context.Background(), out)
	close(out)

	var got []model.Observation
	for obs := range out {
		got = append(got, obs)
	}
	return got
}

func TestSeedFeedEmitsFullHistory(t *testing.T) {
	end := civil.Date{Year: 2024, Month: 3, Day: 31}
	f := NewSeedFeed([]model.Entity{"MUFG", "BOJ"}, 10, end, zap.NewNop())

	got := collectSeed(t, f)
	require.Len(t, got, 20)

	assert.Equal(t, "2024-03-22", got[0].Date.String())
	assert.Equal(t, "2024-03-31", got[len(got)-1].Date.String())
}

func TestSeedFeedIsDeterministic(t *testing.T) {
	end := civil.Date{Year: 2024, Month: 3, Day: 31}
	first := collectSeed(t, NewSeedFeed([]model.Entity{"MUFG"}, 30, end, zap.NewNop()))
	second := collectSeed(t, NewSeedFeed([]model.Entity{"MUFG"}, 30, end, zap.NewNop()))

	assert.Equal(t, first, second)
}

func TestSeedFeedNoDuplicateKeys(t *testing.T) {
	end := civil.Date{Year: 2024, Month: 3, Day: 31}
	got := collectSeed(t, NewSeedFeed([]model.Entity{"MUFG", "BOJ"}, 60, end, zap.NewNop()))

	seen := make(map[string]bool)
	for _, obs := range got {
		key := obs.Date.String() + "/" + string(obs.Entity)
		assert.False(t, seen[key], "duplicate key %s", key)
		seen[key] = true
	}
}

func TestSeedRatesNeverNegative(t *testing.T) {
	end := civil.Date{Year: 2024, Month: 3, Day: 31}
	got := collectSeed(t, NewSeedFeed([]model.Entity{"MUFG", "BOJ", "Unknown"}, 120, end, zap.NewNop()))

	for _, obs := range got {
		assert.False(t, obs.Rate.IsNegative(), "negative rate for %s on %s", obs.Entity, obs.Date)
	}
}
