package series

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ymakhloufi/ratewatch/internal/pkg/model"
)

func TestToRowsFlattensInOrder(t *testing.T) {
	base := []model.Observation{
		obs("2024-01-01", "MUFG", "2.475"),
		obs("2024-01-02", "MUFG", "2.500"),
	}
	derived := []model.Observation{
		obs("2024-01-01", "My Rate", "0.625"),
	}

	rows := ToRows(base, derived)
	require.Len(t, rows, 3)
	assert.Equal(t, model.Entity("MUFG"), rows[0].Entity)
	assert.Equal(t, model.Entity("My Rate"), rows[2].Entity)
	assert.Equal(t, "2024-01-01", rows[2].Date.String())
}

func TestToRowsEmpty(t *testing.T) {
	assert.Empty(t, ToRows())
	assert.Empty(t, ToRows(nil, nil))
}

func TestLatestSummary(t *testing.T) {
	observations := []model.Observation{
		obs("2024-01-01", "MUFG", "2.400"),
		obs("2024-01-02", "MUFG", "2.475"),
		obs("2024-01-02", "Yokohama", "2.680"),
		obs("2024-01-01", "BOJ", "0.250"),
	}
	cfg := model.DiscountConfig{BaseEntity: "MUFG", Discount: dec("1.85")}

	summary, err := Latest(observations, cfg, "My Rate")
	require.NoError(t, err)

	assert.Equal(t, "2024-01-02", summary.AsOf.String())
	assert.True(t, summary.BaseRate.Equal(dec("2.475")))
	assert.True(t, summary.PersonalRate.Equal(dec("0.625")))
	// peers are Yokohama and BOJ: (2.680 + 0.250) / 2
	assert.True(t, summary.PeerAverage.Equal(dec("1.465")), "got %s", summary.PeerAverage)
	require.Len(t, summary.Latest, 3)
	assert.Equal(t, model.Entity("BOJ"), summary.Latest[0].Entity)
}

func TestLatestSummaryFloorsPersonalRate(t *testing.T) {
	observations := []model.Observation{obs("2024-01-01", "MUFG", "1.000")}
	cfg := model.DiscountConfig{BaseEntity: "MUFG", Discount: dec("1.500")}

	summary, err := Latest(observations, cfg, "My Rate")
	require.NoError(t, err)
	assert.True(t, summary.PersonalRate.Equal(dec("0")))
}

func TestLatestSummaryEmpty(t *testing.T) {
	cfg := model.DiscountConfig{BaseEntity: "MUFG"}
	_, err := Latest(nil, cfg, "My Rate")
	assert.True(t, errors.Is(err, model.ErrEmptyResult))
}

func TestLatestSummaryUnknownBase(t *testing.T) {
	observations := []model.Observation{obs("2024-01-01", "MUFG", "2.475")}
	cfg := model.DiscountConfig{BaseEntity: "NoSuchBank"}

	_, err := Latest(observations, cfg, "My Rate")
	assert.True(t, errors.Is(err, model.ErrEmptyResult))
}
