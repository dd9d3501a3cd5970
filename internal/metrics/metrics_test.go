// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/signal-engine/pkg/types"
)

func TestObserveFetchSuccess(t *testing.T) {
	r := New()
	r.ObserveFetch(FetchOutcome{
		Success:     true,
		FeedsFailed: 2,
		Signals: []types.Signal{
			{Category: "fertility_decline"},
			{Category: "fertility_decline"},
			{Category: "wage_compression"},
		},
		Unclassified: 7,
		CategoryCap:  1,
		Duplicates:   3,
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(r.FetchRuns.WithLabelValues("success")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.FetchRuns.WithLabelValues("failure")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.FeedsFailed))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.SignalsClassified.WithLabelValues("fertility_decline")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.SignalsClassified.WithLabelValues("wage_compression")))
	assert.Equal(t, 7.0, testutil.ToFloat64(r.SignalsDropped.WithLabelValues(ReasonUnclassified)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.SignalsDropped.WithLabelValues(ReasonCategoryCap)))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.SignalsDropped.WithLabelValues(ReasonDuplicate)))
}

func TestObserveFetchFailure(t *testing.T) {
	r := New()
	r.ObserveFetch(FetchOutcome{Success: false, FeedsFailed: 5})
	assert.Equal(t, 1.0, testutil.ToFloat64(r.FetchRuns.WithLabelValues("failure")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.FeedsFailed))
}

func TestObserveState(t *testing.T) {
	r := New()
	r.ObserveState(0.73, 42)
	assert.Equal(t, 0.73, testutil.ToFloat64(r.LoopPressure))
	assert.Equal(t, 42.0, testutil.ToFloat64(r.SignalsStored))
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.ObserveFetch(FetchOutcome{Success: true})
		r.ObserveState(0.5, 1)
	})

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerExposesMetrics(t *testing.T) {
	r := New()
	r.ObserveState(0.5, 3)

	ts := httptest.NewServer(r.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "signal_engine_loop_pressure 0.5")
	assert.Contains(t, string(body), "signal_engine_signals_stored 3")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestRecordersAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.ObserveState(1, 1)
	assert.Equal(t, 0.0, testutil.ToFloat64(b.LoopPressure))
}
