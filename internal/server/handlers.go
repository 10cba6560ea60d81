package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"ValueSentinel/internal/collector"
	"ValueSentinel/internal/model"
	"ValueSentinel/internal/recorder"
	"ValueSentinel/internal/valuation"
	"ValueSentinel/internal/watchlist"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
	maxBodyBytes        = 1 << 20
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"fetcher": s.collector.Fetcher.Name(),
	})
}

// handleValuation runs the engine on caller-supplied inputs without fetching.
func (s *Server) handleValuation(w http.ResponseWriter, r *http.Request) {
	var in model.ValuationInputs
	if !s.decode(w, r, &in, false) {
		return
	}
	result, err := valuation.Evaluate(in)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleStock(w http.ResponseWriter, r *http.Request) {
	stock, err := s.collector.Stock(r.Context(), chi.URLParam(r, "ticker"))
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stock)
}

// handleStockValuation fetches the ticker and values it. Fields missing from
// the body fall back to the watchlist entry, then to the configured defaults.
// Only a run under the watched assumptions updates the watchlist.
func (s *Server) handleStockValuation(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(chi.URLParam(r, "ticker"))
	a := s.defaults
	watched, isWatched := s.watchlist.Get(ticker)
	if isWatched {
		a = watched.Assumptions
	}
	if !s.decode(w, r, &a, true) {
		return
	}

	v, err := s.collector.Value(r.Context(), ticker, a)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	if isWatched && s.tracker != nil && a.Equal(watched.Assumptions) {
		s.tracker.Track(v)
	} else if err := s.recorder.RecordValuation(v); err != nil {
		s.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to record valuation")
	}
	s.writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer", "")
			return
		}
		limit = min(n, maxHistoryLimit)
	}
	entries, err := s.recorder.History(chi.URLParam(r, "ticker"), limit)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	if entries == nil {
		entries = []recorder.HistoryEntry{}
	}
	s.writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.watchlist.List())
}

func (s *Server) handleWatchPut(w http.ResponseWriter, r *http.Request) {
	a := s.defaults
	if !s.decode(w, r, &a, true) {
		return
	}
	if err := valuation.CheckAssumptions(a); err != nil {
		s.writeFailure(w, err)
		return
	}
	it, err := s.watchlist.Put(chi.URLParam(r, "ticker"), a)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, it)
}

func (s *Server) handleWatchDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.watchlist.Remove(chi.URLParam(r, "ticker")); err != nil {
		s.writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decode reads a JSON body into out. An empty body is accepted when optional,
// leaving out untouched.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, out interface{}, optional bool) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return true
		}
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error(), "")
		return false
	}
	return true
}

// writeFailure maps domain errors onto HTTP status codes.
func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	kind := valuation.Kind(err)
	status := http.StatusInternalServerError
	switch {
	case kind != "":
		status = http.StatusUnprocessableEntity
	case errors.Is(err, collector.ErrTickerNotFound), errors.Is(err, collector.ErrNoData),
		errors.Is(err, watchlist.ErrNotWatched):
		status = http.StatusNotFound
	case errors.Is(err, collector.ErrEmptyTicker):
		status = http.StatusBadRequest
	case errors.Is(err, collector.ErrUnauthorized), errors.Is(err, collector.ErrMissingAPIKey),
		errors.Is(err, collector.ErrMalformedQuote):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		s.log.Error().Err(err).Msg("Request failed")
	}
	s.writeError(w, status, err.Error(), kind)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message, kind string) {
	body := map[string]string{"error": message}
	if kind != "" {
		body["kind"] = kind
	}
	s.writeJSON(w, status, body)
}
