package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/ymakhloufi/ratewatch/internal/app/series"
	"github.com/ymakhloufi/ratewatch/internal/pkg/model"
	"go.uber.org/zap"
)

const noDataMessage = "no data in range"

// ratesResponse carries the resampled and derived rows. Message is set only
// for the explicit empty state.
type ratesResponse struct {
	Rows    []series.Row `json:"rows"`
	Message string       `json:"message,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	period, cfg, ok := s.viewParams(w, r)
	if !ok {
		return
	}

	rows, err := s.svc.View(r.Context(), period, cfg)
	if err != nil {
		s.writeViewError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ratesResponse{Rows: rows})
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	_, cfg, ok := s.viewParams(w, r)
	if !ok {
		return
	}

	summary, err := s.svc.Summary(r.Context(), cfg)
	if err != nil {
		s.writeViewError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	period, cfg, ok := s.viewParams(w, r)
	if !ok {
		return
	}

	rows, err := s.svc.View(r.Context(), period, cfg)
	if err != nil {
		s.writeViewError(w, err)
		return
	}

	png, err := RenderChart(rows, s.svc.DerivedLabel())
	if err != nil {
		s.logger.Error("failed to render chart", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "chart render failed")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	s.svc.Refresh()
	writeJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	s.ingester.Run(r.Context())
	s.svc.Refresh()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ingested"})
}

// viewParams parses and validates the period/bank/discount query parameters.
// Invalid input is rejected here with a 400; it never reaches the pipeline.
func (s *Server) viewParams(w http.ResponseWriter, r *http.Request) (model.Period, model.DiscountConfig, bool) {
	q := r.URL.Query()

	period, err := model.ParsePeriod(q.Get("period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", model.DiscountConfig{}, false
	}

	base := model.Entity(q.Get("bank"))
	if base == "" {
		base = s.defaultBase
	}

	discount := decimal.Zero
	if raw := q.Get("discount"); raw != "" {
		discount, err = decimal.NewFromString(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid discount '%s'", raw))
			return "", model.DiscountConfig{}, false
		}
		if !discount.Equal(discount.Round(2)) {
			writeError(w, http.StatusBadRequest, "discount must have at most two decimal places")
			return "", model.DiscountConfig{}, false
		}
	}

	cfg := model.DiscountConfig{BaseEntity: base, Discount: discount}
	if err := cfg.Validate(s.maxDiscount); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", model.DiscountConfig{}, false
	}

	return period, cfg, true
}

// writeViewError maps the pipeline error taxonomy to HTTP responses. Nothing
// else escapes: an unknown error is a plain 500.
func (s *Server) writeViewError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrEmptyResult):
		writeJSON(w, http.StatusOK, ratesResponse{Rows: []series.Row{}, Message: noDataMessage})
	case errors.Is(err, model.ErrSourceUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, model.ErrInvalidConfig):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("unexpected pipeline failure", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
