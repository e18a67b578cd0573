package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskpulse/deskpulse/internal/domain"
	"github.com/deskpulse/deskpulse/internal/logger"
	"github.com/deskpulse/deskpulse/internal/usecase"
)

type stubSource struct {
	records []domain.IncidentRecord
}

func (s *stubSource) Load(ctx context.Context) ([]domain.IncidentRecord, error) {
	return s.records, nil
}

type nopLogger struct{}

func (nopLogger) Info(context.Context, string, map[string]interface{}) {}
func (nopLogger) Error(context.Context, string, error, map[string]interface{}) {}
func (nopLogger) Warn(context.Context, string, map[string]interface{}) {}
func (nopLogger) Debug(context.Context, string, map[string]interface{}) {}
func (nopLogger) WithFields(map[string]interface{}) logger.Logger { return nopLogger{} }

func testRecords() []domain.IncidentRecord {
	created := time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)
	quick := created.Add(90 * time.Minute)
	slow := created.Add(24 * time.Hour)
	reopen := 0
	return []domain.IncidentRecord{
		{
			Number: "INC001", AssignmentGroup: "Service Desk", Region: "EMEA", Location: "London", ResolvedBy: "alice",
			CreatedAt: &created, ResolvedAt: &quick, ReopenCount: &reopen,
		},
		{
			Number: "INC002", AssignmentGroup: "Network", Region: "APAC", Location: "Sydney", ResolvedBy: "bob",
			CreatedAt: &created, ResolvedAt: &slow, ReopenCount: &reopen,
		},
	}
}

func newTestRouter(t *testing.T, records []domain.IncidentRecord, preload bool) *mux.Router {
	t.Helper()
	uc := usecase.NewReportUseCase(&stubSource{records: records}, usecase.NewSnapshotStore(), nil, 0, domain.DefaultThresholds(), nopLogger{})
	if preload {
		_, err := uc.Reload(context.Background())
		require.NoError(t, err)
	}
	router := mux.NewRouter()
	NewReportHandler(uc, nopLogger{}).RegisterRoutes(router)
	return router
}

func doRequest(router *mux.Router, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestOverviewEndpoint(t *testing.T) {
	router := newTestRouter(t, testRecords(), true)

	rec := doRequest(router, http.MethodGet, "/api/overview")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		SnapshotID string `json:"snapshot_id"`
		Metrics    struct {
			TotalCount  int `json:"total_count"`
			BreachCount int `json:"breach_count"`
		} `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.SnapshotID)
	assert.Equal(t, 2, body.Metrics.TotalCount)
	assert.Equal(t, 1, body.Metrics.BreachCount)
}

func TestOverviewEndpointWithFilter(t *testing.T) {
	router := newTestRouter(t, testRecords(), true)

	rec := doRequest(router, http.MethodGet, "/api/overview?region=EMEA&month=2025-03")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Metrics struct {
			TotalCount int `json:"total_count"`
		} `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Metrics.TotalCount)
}

func TestOverviewEndpointWithoutSnapshot(t *testing.T) {
	router := newTestRouter(t, nil, false)

	rec := doRequest(router, http.MethodGet, "/api/overview")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestBreachIncidentsEndpointRejectsUnknownSeverity(t *testing.T) {
	router := newTestRouter(t, testRecords(), true)

	rec := doRequest(router, http.MethodGet, "/api/sla_breach_incidents?severity=bogus")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "BAD_REQUEST", body.Error.Code)

	// The non-breached tier is not listable either.
	met := doRequest(router, http.MethodGet, "/api/sla_breach_incidents?severity=met")
	assert.Equal(t, http.StatusBadRequest, met.Code)
}

func TestBreachIncidentsEndpoint(t *testing.T) {
	router := newTestRouter(t, testRecords(), true)

	rec := doRequest(router, http.MethodGet, "/api/sla_breach_incidents?severity=critical")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Total     int `json:"total"`
		Incidents []struct {
			Number string `json:"number"`
		} `json:"incidents"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 1, body.Total)
	assert.Equal(t, "INC002", body.Incidents[0].Number)
}

func TestIncidentDetailsEndpoint(t *testing.T) {
	router := newTestRouter(t, testRecords(), true)

	rec := doRequest(router, http.MethodGet, "/api/incidents/INC001")
	require.Equal(t, http.StatusOK, rec.Code)

	missing := doRequest(router, http.MethodGet, "/api/incidents/INC999")
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestThresholdsEndpoint(t *testing.T) {
	router := newTestRouter(t, testRecords(), true)

	rec := doRequest(router, http.MethodGet, "/api/thresholds")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		BaselineMinutes float64 `json:"baseline_minutes"`
		GoalMinutes     float64 `json:"goal_minutes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.InDelta(t, 240.0, body.BaselineMinutes, 0.001)
	assert.InDelta(t, 192.0, body.GoalMinutes, 0.001)
}

func TestDimensionListEndpoints(t *testing.T) {
	router := newTestRouter(t, testRecords(), true)

	rec := doRequest(router, http.MethodGet, "/api/regions")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"APAC", "EMEA"}, body["regions"])
}

func TestReloadEndpoint(t *testing.T) {
	router := newTestRouter(t, testRecords(), false)

	rec := doRequest(router, http.MethodPost, "/api/reload")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		RecordCount int `json:"record_count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.RecordCount)

	after := doRequest(router, http.MethodGet, "/api/overview")
	assert.Equal(t, http.StatusOK, after.Code)
}
