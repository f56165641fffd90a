package service

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fitness-score-api/internal/scoring"
)

func TestMetricsServiceCounters(t *testing.T) {
	m := NewMetricsService()

	m.ObserveHTTPRequest(http.MethodPost, "/api/v1/records", http.StatusCreated, 20*time.Millisecond)
	m.ObserveScoring(scoring.GradeGood, time.Millisecond)
	m.ObserveScoring(scoring.GradeGood, time.Millisecond)
	m.RecordBMIFailure()
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)
	m.ObserveRecalculation(nil, time.Second)
	m.ObserveRecalculation(errors.New("db down"), time.Second)
	m.ObserveCatalog(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestTotal.WithLabelValues(http.MethodPost, "/api/v1/records", "201")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.recordsScored.WithLabelValues("good")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bmiFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.recalcJobs.WithLabelValues("failure")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.catalogIssues))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.catalogReloads))
}

func TestMetricsServiceHandler(t *testing.T) {
	m := NewMetricsService()
	m.ObserveScoring(scoring.GradePass, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `fitness_records_scored_total{grade="pass"} 1`))
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	assert.NotPanics(t, func() {
		m.ObserveHTTPRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
		m.ObserveScoring(scoring.GradeFail, time.Millisecond)
		m.RecordBMIFailure()
		m.RecordCacheOperation(true, time.Millisecond)
		m.ObserveRecalculation(nil, time.Millisecond)
		m.ObserveCatalog(0)
	})
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
