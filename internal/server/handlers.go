// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/pdiddy/signal-engine/internal/engine"
	"github.com/pdiddy/signal-engine/internal/history"
	"github.com/pdiddy/signal-engine/internal/store"
	"github.com/pdiddy/signal-engine/pkg/types"
)

// maxBodyBytes bounds POST bodies.
const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("writing response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("invalid request body: trailing data")
	}
	return nil
}

// storeErrorStatus maps store validation errors to 400 and anything else
// to 500.
func storeErrorStatus(err error) int {
	if errors.Is(err, store.ErrUnknownCategory) || errors.Is(err, store.ErrInvalidSignal) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) getState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.State(s.engine.Now()))
}

func (s *Server) getAggregates(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		AggregatedSignals []types.AggregatedSignal `json:"aggregatedSignals"`
	}{s.engine.Aggregates(s.engine.Now())})
}

func (s *Server) getWindows(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		TimeWindowedSignals []types.TimeWindowedSignal `json:"timeWindowedSignals"`
	}{s.engine.Windows(s.engine.Now())})
}

func (s *Server) getPressure(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Pressure(s.engine.Now()))
}

func (s *Server) getTaxonomy(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"categories": s.engine.Taxonomy().Entries()})
}

func (s *Server) getCategory(w http.ResponseWriter, r *http.Request) {
	category := types.Category(mux.Vars(r)["category"])
	entry, ok := s.engine.Taxonomy().Lookup(category)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown category %q", category))
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) getNode(w http.ResponseWriter, r *http.Request) {
	node := mux.Vars(r)["node"]
	signals := s.engine.NodeSignals(node)
	if signals == nil {
		signals = []types.AggregatedSignal{}
	}
	writeJSON(w, http.StatusOK, struct {
		Node      string                   `json:"node"`
		Intensity float64                  `json:"intensity"`
		Signals   []types.AggregatedSignal `json:"signals"`
	}{node, s.engine.NodeIntensity(node), signals})
}

func (s *Server) getSignals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	category := types.Category(q.Get("category"))
	if category != "" && !s.engine.Taxonomy().Contains(category) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown category %q", category))
		return
	}

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	filtered := []types.Signal{}
	for _, sig := range s.engine.Signals() {
		if category != "" && sig.Category != category {
			continue
		}
		filtered = append(filtered, sig)
		if limit > 0 && len(filtered) == limit {
			break
		}
	}

	writeJSON(w, http.StatusOK, struct {
		Signals []types.Signal `json:"signals"`
		Count   int            `json:"count"`
	}{filtered, len(filtered)})
}

func (s *Server) postSignal(w http.ResponseWriter, r *http.Request) {
	var p types.PartialSignal
	if err := decodeBody(w, r, &p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sig, err := s.engine.AddSignal(p)
	if err != nil {
		writeError(w, storeErrorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, sig)
}

func (s *Server) postBatch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Signals []types.Signal `json:"signals"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	added, err := s.engine.AddLiveSignals(body.Signals)
	if err != nil {
		writeError(w, storeErrorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"added": added})
}

func (s *Server) postFetch(w http.ResponseWriter, r *http.Request) {
	res := s.engine.Refresh(r.Context())
	status := http.StatusOK
	if !res.Fetch.Success {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, res.Fetch)
}

func (s *Server) getHistory(w http.ResponseWriter, r *http.Request) {
	since, err := history.ParseSince(r.URL.Query().Get("since"), s.engine.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	points := []types.PressurePoint{}
	if s.history != nil {
		points, err = s.history.Recent(r.Context(), since)
		if err != nil {
			slog.Error("reading pressure history", "error", err)
			writeError(w, http.StatusInternalServerError, "reading pressure history failed")
			return
		}
	}
	writeJSON(w, http.StatusOK, struct {
		Enabled bool                  `json:"enabled"`
		Points  []types.PressurePoint `json:"points"`
	}{s.history != nil, points})
}

func (s *Server) getHealth(w http.ResponseWriter, _ *http.Request) {
	st := s.engine.State(s.engine.Now())
	writeJSON(w, http.StatusOK, struct {
		Status    string              `json:"status"`
		Version   string              `json:"version"`
		Timestamp time.Time           `json:"timestamp"`
		Signals   int                 `json:"signals"`
		LastFetch *engine.FetchStatus `json:"lastFetch,omitempty"`
	}{"ok", s.version, s.engine.Now(), len(st.Signals), st.LastFetch})
}
