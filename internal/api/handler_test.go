package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/utakatalp/match-predictor/internal/features"
	"github.com/utakatalp/match-predictor/internal/league"
	"github.com/utakatalp/match-predictor/internal/model"
	"github.com/utakatalp/match-predictor/internal/predict"
)

type stubModel struct {
	calls int
}

func (m *stubModel) Transform(v features.Vector) []float64 { return v.Slice() }

func (m *stubModel) PredictProba(scaled []float64) []float64 {
	m.calls++
	return []float64{0.55, 0.25, 0.20}
}

func (m *stubModel) Classes() []string      { return features.Classes }
func (m *stubModel) FeatureNames() []string { return features.NameList() }

func (m *stubModel) Metadata() model.Metadata {
	return model.Metadata{
		ModelType:     "Stub",
		SchemaVersion: features.SchemaVersion,
		Accuracy:      0.512,
		FeatureNames:  features.NameList(),
		Classes:       features.Classes,
	}
}

func newTestServer(t *testing.T, reload func() error) (http.Handler, *stubModel) {
	t.Helper()
	stats, err := league.Aggregate([]league.MatchRecord{
		{HomeTeam: "Arsenal", AwayTeam: "Chelsea", HomeGoals: 2, AwayGoals: 0, Result: league.HomeWin},
		{HomeTeam: "Chelsea", AwayTeam: "Everton", HomeGoals: 1, AwayGoals: 1, Result: league.Draw},
	})
	require.NoError(t, err)

	m := &stubModel{}
	svc, err := predict.New(stats, m, zap.NewNop())
	require.NoError(t, err)
	return NewRouter(NewHandler(svc, reload, zap.NewNop())), m
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestTeams(t *testing.T) {
	h, _ := newTestServer(t, nil)

	rec := do(t, h, http.MethodGet, "/api/teams", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, []any{"Arsenal", "Chelsea", "Everton"}, decode(t, rec)["teams"])
}

func TestTeam(t *testing.T) {
	h, _ := newTestServer(t, nil)

	rec := do(t, h, http.MethodGet, "/api/teams/Chelsea", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Chelsea", body["team"])
	assert.EqualValues(t, 2, body["total_games"])

	rec = do(t, h, http.MethodGet, "/api/teams/Leeds", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPredict(t *testing.T) {
	h, m := newTestServer(t, nil)

	rec := do(t, h, http.MethodPost, "/api/predict", `{"home_team":"Arsenal","away_team":"Everton"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, m.calls)

	body := decode(t, rec)
	assert.Equal(t, "Home Win", body["prediction"])
	assert.Equal(t, "Arsenal", body["home_team"])
	probs := body["probabilities"].(map[string]any)
	assert.Equal(t, 55.0, probs["home_win"])
	assert.Equal(t, 25.0, probs["draw"])
	assert.Equal(t, 20.0, probs["away_win"])
	info := body["model_info"].(map[string]any)
	assert.Equal(t, "Stub", info["type"])
	assert.Equal(t, 51.2, info["accuracy"])
	cmp := body["team_comparison"].(map[string]any)
	assert.Equal(t, 3.0, cmp["home_ppg"])
	assert.Equal(t, 100.0, cmp["home_win_rate"])
}

func TestPredict_ValidationErrors(t *testing.T) {
	h, m := newTestServer(t, nil)

	cases := []struct {
		body string
		msg  string
	}{
		{`{"home_team":"Arsenal","away_team":"Arsenal"}`, "Home and away teams must be different"},
		{`{"home_team":"Arsenal"}`, "Please select both teams"},
		{`{"home_team":"Arsenal","away_team":"Leeds"}`, "Unknown team selected: Leeds"},
		{`not json`, "Invalid JSON body"},
	}
	for _, c := range cases {
		rec := do(t, h, http.MethodPost, "/api/predict", c.body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, c.body)
		assert.Equal(t, c.msg, decode(t, rec)["error"], c.body)
	}
	assert.Zero(t, m.calls)
}

func TestPredict_WrongMethod(t *testing.T) {
	h, _ := newTestServer(t, nil)
	rec := do(t, h, http.MethodGet, "/api/predict", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestModelInfo(t *testing.T) {
	h, _ := newTestServer(t, nil)

	rec := do(t, h, http.MethodGet, "/api/model-info", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Stub", body["model_type"])
	assert.Equal(t, features.SchemaVersion, body["schema_version"])
	assert.Len(t, body["feature_names"], features.Len)
}

func TestTable(t *testing.T) {
	h, _ := newTestServer(t, nil)

	rec := do(t, h, http.MethodGet, "/api/table", "")
	require.Equal(t, http.StatusOK, rec.Code)
	table := decode(t, rec)["table"].([]any)
	require.Len(t, table, 3)
	assert.Equal(t, "Arsenal", table[0].(map[string]any)["team"])
}

func TestReload(t *testing.T) {
	calls := 0
	h, _ := newTestServer(t, func() error { calls++; return nil })

	rec := do(t, h, http.MethodPost, "/api/reload", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "reloaded", decode(t, rec)["status"])

	h, _ = newTestServer(t, func() error { return errors.New("model.json: feature contract mismatch") })
	rec = do(t, h, http.MethodPost, "/api/reload", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	h, _ = newTestServer(t, nil)
	rec = do(t, h, http.MethodPost, "/api/reload", "")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestRequestID(t *testing.T) {
	h, _ := newTestServer(t, nil)

	rec := do(t, h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestPredict_RateLimited(t *testing.T) {
	stats, err := league.Aggregate([]league.MatchRecord{
		{HomeTeam: "Arsenal", AwayTeam: "Chelsea", HomeGoals: 2, AwayGoals: 0, Result: league.HomeWin},
	})
	require.NoError(t, err)
	svc, err := predict.New(stats, &stubModel{}, nil)
	require.NoError(t, err)
	h := NewRouter(NewHandler(svc, nil, nil).WithRateLimit(0.001, 2))

	body := `{"home_team":"Arsenal","away_team":"Chelsea"}`
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/predict", body).Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/predict", body).Code)
	rec := do(t, h, http.MethodPost, "/api/predict", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Too many requests", decode(t, rec)["error"])

	// other routes are not limited
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/teams", "").Code)
}
