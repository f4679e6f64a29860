package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_LabelsByRouteTemplate(t *testing.T) {
	m := New()
	r := mux.NewRouter()
	r.Use(m.Middleware)
	r.HandleFunc("/api/projects/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"1", "2", "3"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/projects/"+id, nil))
		require.Equal(t, http.StatusTeapot, rec.Code)
	}

	got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/projects/{id}", "418"))
	assert.Equal(t, float64(3), got)
}

func TestObserve(t *testing.T) {
	m := New()
	m.ObserveLogin("success")
	m.ObserveLogin("success")
	m.ObserveSweep(4, nil)
	m.ObserveSweep(0, errors.New("db down"))

	assert.Equal(t, float64(2), testutil.ToFloat64(m.LoginAttemptsTotal.WithLabelValues("success")))
	assert.Equal(t, float64(4), testutil.ToFloat64(m.SessionsSweptTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SweepErrorsTotal))

	var nilMetrics *Metrics
	assert.NotPanics(t, func() {
		nilMetrics.ObserveLogin("x")
		nilMetrics.ObserveSweep(1, nil)
	})
}

func TestHandler_Exposition(t *testing.T) {
	m := New()
	m.ObserveLogin("invalid")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `goproj_login_attempts_total{result="invalid"} 1`))
}
