package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ymakhloufi/ratewatch/internal/app/series"
	"github.com/ymakhloufi/ratewatch/internal/pkg/model"
	"github.com/ymakhloufi/ratewatch/internal/pkg/store"
	"go.uber.org/zap"
)

type fakeIngester struct {
	runs int
}

func (f *fakeIngester) Run(context.Context) { f.runs++ }

func seededServer(t *testing.T) (*Server, *store.Memory, *fakeIngester) {
	t.Helper()
	mem := store.NewMemory()
	ctx := context.Background()
	rows := []model.Observation{
		{Date: civil.Date{Year: 2024, Month: 1, Day: 1}, Entity: "MUFG", Rate: decimal.RequireFromString("2.475")},
		{Date: civil.Date{Year: 2024, Month: 1, Day: 8}, Entity: "MUFG", Rate: decimal.RequireFromString("2.500")},
		{Date: civil.Date{Year: 2024, Month: 1, Day: 1}, Entity: "BOJ", Rate: decimal.RequireFromString("0.250")},
	}
	for _, obs := range rows {
		require.NoError(t, mem.UpsertObservation(ctx, obs))
	}

	loader := series.NewLoader(mem, time.Hour, zap.NewNop())
	svc := series.NewService(loader, model.ReducerLast, "My Rate", zap.NewNop())
	ingester := &fakeIngester{}
	srv := NewServer("127.0.0.1", 0, svc, ingester, "MUFG", decimal.RequireFromString("3.00"), zap.NewNop())
	return srv, mem, ingester
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv, _, _ := seededServer(t)
	rec := get(t, srv, "/api/health")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRatesReturnsBaseAndDerivedRows(t *testing.T) {
	srv, _, _ := seededServer(t)
	rec := get(t, srv, "/api/rates?period=week&bank=MUFG&discount=1.85")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ratesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	entities := map[model.Entity]int{}
	for _, row := range resp.Rows {
		entities[row.Entity]++
	}
	assert.Equal(t, 2, entities["MUFG"])
	assert.Equal(t, 1, entities["BOJ"])
	assert.Equal(t, 2, entities["My Rate"])
}

func TestRatesRejectsInvalidDiscount(t *testing.T) {
	srv, _, _ := seededServer(t)

	for _, q := range []string{
		"discount=abc",
		"discount=-1",
		"discount=3.01",
		"discount=1.855", // finer than the two-decimal step
	} {
		rec := get(t, srv, "/api/rates?"+q)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "query %s", q)
	}
}

func TestRatesRejectsUnknownPeriod(t *testing.T) {
	srv, _, _ := seededServer(t)
	rec := get(t, srv, "/api/rates?period=hourly")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRatesEmptyStore(t *testing.T) {
	mem := store.NewMemory()
	loader := series.NewLoader(mem, time.Hour, zap.NewNop())
	svc := series.NewService(loader, model.ReducerLast, "My Rate", zap.NewNop())
	srv := NewServer("127.0.0.1", 0, svc, &fakeIngester{}, "MUFG", decimal.RequireFromString("3.00"), zap.NewNop())

	rec := get(t, srv, "/api/rates")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ratesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Rows)
	assert.Equal(t, noDataMessage, resp.Message)
}

func TestLatestSummaryEndpoint(t *testing.T) {
	srv, _, _ := seededServer(t)
	rec := get(t, srv, "/api/rates/latest?bank=MUFG&discount=1.85")
	require.Equal(t, http.StatusOK, rec.Code)

	var summary series.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, model.Entity("MUFG"), summary.Base)
	assert.True(t, summary.PersonalRate.Equal(decimal.RequireFromString("0.65")), "got %s", summary.PersonalRate)
}

func TestChartReturnsPNG(t *testing.T) {
	srv, _, _ := seededServer(t)
	rec := get(t, srv, "/api/rates/chart.png?period=day&bank=MUFG&discount=1.85")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	body := rec.Body.Bytes()
	require.True(t, len(body) > 8)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, body[:4])
}

func TestRefreshRequiresPost(t *testing.T) {
	srv, _, _ := seededServer(t)

	rec := get(t, srv, "/api/refresh")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/refresh", nil)
	recorder := httptest.NewRecorder()
	srv.Handler().ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestIngestRunsFeedsAndRefreshes(t *testing.T) {
	srv, _, ingester := seededServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/ingest", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, ingester.runs)
}
