package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"cryptometrics/internal/market"
	"cryptometrics/internal/query"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// LatestResponse is the body of GET /api/v1/latest.
type LatestResponse struct {
	UpdatedAt    string               `json:"updated_at,omitempty"` // market.TimeLayout, empty when no data
	Observations []market.Observation `json:"observations"`
}

type StatsResponse struct {
	CoinID string `json:"coin_id"`
	query.SummaryStats
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	resp, err := s.latest(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) latest(r *http.Request) (LatestResponse, error) {
	snapshot, err := s.engine.LatestSnapshot(r.Context())
	if err != nil {
		return LatestResponse{}, err
	}

	resp := LatestResponse{Observations: query.SortByMarketCap(snapshot)}
	if at, ok := query.UpdatedAt(snapshot); ok {
		resp.UpdatedAt = market.FormatTime(at)
	}
	return resp, nil
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	series, err := s.engine.SeriesFor(r.Context(), chi.URLParam(r, "coinID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	coinID := chi.URLParam(r, "coinID")
	st, err := s.engine.SummaryStats(r.Context(), coinID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, StatsResponse{CoinID: coinID, SummaryStats: st})
}

func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	rows, err := s.engine.Log(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if r.URL.Query().Get("format") == "xlsx" {
		s.writeWorkbook(w, rows)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// fail maps query errors to responses. No data is an expected state, not a server error.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, query.ErrNoData) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: query.ErrNoData.Error()})
		return
	}
	s.logger.Warn("query failed", zap.String("path", r.URL.Path), zap.Error(err))
	writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "store unavailable"})
}

// writeJSON encodes before sending headers, so an unencodable value becomes a 500
// instead of an empty 200.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"encode response"}` + "\n"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
