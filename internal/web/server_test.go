package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/slate/internal/config"
	"github.com/JonMunkholm/slate/internal/core"
	_ "github.com/JonMunkholm/slate/internal/core/profiles"
	"github.com/JonMunkholm/slate/internal/store/memory"
)

const rosterHeader = "Position,Name + ID,Name,ID,Roster Position,Salary,Game Info,TeamAbbrev,AvgPointsPerGame\n"

const nflRoster = rosterHeader +
	"QB,Josh Allen (1001),Josh Allen,1001,QB,8000,NYJ@BUF 09/08/2024 01:00PM ET,BUF,24.5\n" +
	"WR,Garrett Wilson (1002),Garrett Wilson,1002,WR/FLEX,6500,NYJ@BUF 09/08/2024 01:00PM ET,NYJ,16.1\n"

type stubOptimizer struct {
	lineups []core.GeneratedLineup
	err     error
}

func (o stubOptimizer) Generate(ctx context.Context, settingsID string) ([]core.GeneratedLineup, error) {
	return o.lineups, o.err
}

func testConfig() *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{Port: 8080, RequestTimeout: 10 * time.Second, ShutdownTimeout: time.Second},
		Store:     config.StoreConfig{Driver: config.DriverMemory},
		Upload:    config.UploadConfig{MaxFileSize: 1 << 20, MaxConcurrent: 2, MaxWaitTime: time.Second, Timeout: time.Minute},
		Optimizer: config.OptimizerConfig{Timeout: 5 * time.Second},
		Metrics:   config.MetricsConfig{Enabled: true, Path: "/metrics"},
		Logging:   config.LoggingConfig{Level: "info", Format: "text"},
	}
}

type harness struct {
	store  *memory.Store
	server *Server
}

func newHarness(t *testing.T, cfg *config.Config, opt core.Optimizer) *harness {
	t.Helper()
	store := memory.New()
	svc := core.NewService(store, core.ServiceOptions{
		Optimizer: opt,
		Limiter:   core.NewUploadLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
		Metrics:   core.NewMetrics(),
	})
	srv := NewServer(svc, cfg)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &harness{store: store, server: srv}
}

func (h *harness) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(rec, req)
	return rec
}

func uploadRequest(t *testing.T, fields map[string]string, files map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for name, content := range files {
		fw, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/uploads", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestUploadRosterThenListPlayers(t *testing.T) {
	h := newHarness(t, testConfig(), nil)

	rec := h.do(uploadRequest(t, map[string]string{"type": "roster", "sport": "nfl"}, map[string]string{"DKSalaries.csv": nflRoster}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	res := decode[core.IngestResult](t, rec)
	assert.Equal(t, core.FileRoster, res.FileType)
	assert.EqualValues(t, 2, res.Merged)
	assert.NotEmpty(t, res.UploadID)

	rec = h.do(httptest.NewRequest(http.MethodGet, "/api/players?sport=nfl&status=available", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Players []core.Player `json:"players"`
		Count   int           `json:"count"`
	}](t, rec)
	require.Equal(t, 2, body.Count)
	assert.Equal(t, "Josh Allen", body.Players[0].Name)
	assert.Equal(t, "NYJ", body.Players[0].Opponent)

	rec = h.do(httptest.NewRequest(http.MethodGet, "/api/uploads", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	uploads := decode[struct {
		Uploads []core.FileUpload `json:"uploads"`
	}](t, rec)
	require.Len(t, uploads.Uploads, 1)
	assert.True(t, uploads.Uploads[0].Processed)
	assert.Equal(t, 2, uploads.Uploads[0].RowCount)
}

func TestUploadRejectsMissingAndMultipleFiles(t *testing.T) {
	h := newHarness(t, testConfig(), nil)

	rec := h.do(uploadRequest(t, map[string]string{"type": "roster"}, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "FILE004", decode[ErrorResponse](t, rec).Code)

	rec = h.do(uploadRequest(t, nil, map[string]string{"a.csv": nflRoster, "b.csv": nflRoster}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "UPL001", decode[ErrorResponse](t, rec).Code)
}

func TestUploadInvalidTypeSelector(t *testing.T) {
	h := newHarness(t, testConfig(), nil)

	rec := h.do(uploadRequest(t, map[string]string{"type": "lineups"}, map[string]string{"x.csv": nflRoster}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VAL004", decode[ErrorResponse](t, rec).Code)
}

func TestUploadErrorRendersFragmentForHTMX(t *testing.T) {
	h := newHarness(t, testConfig(), nil)

	req := uploadRequest(t, nil, nil)
	req.Header.Set("HX-Request", "true")
	rec := h.do(req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `class="alert alert-error"`)
	assert.Contains(t, rec.Body.String(), "FILE004")
}

func TestValidateSettings(t *testing.T) {
	h := newHarness(t, testConfig(), nil)

	rec := h.do(httptest.NewRequest(http.MethodPost, "/api/settings/validate",
		strings.NewReader(`{"entryType":"3-max","sport":"nfl","maxSalary":48000,"lineupCount":5}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "VAL001", resp.Code)
	assert.Len(t, resp.Problems, 2)

	rec = h.do(httptest.NewRequest(http.MethodPost, "/api/settings/validate",
		strings.NewReader(`{"entryType":"single","sport":"nba"}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	settings := decode[core.OptimizationSettings](t, rec)
	assert.Equal(t, 50000, settings.MaxSalary)
	assert.Equal(t, 1, settings.LineupCount)

	rec = h.do(httptest.NewRequest(http.MethodPost, "/api/settings/validate", strings.NewReader(`{"bogus":1}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VAL005", decode[ErrorResponse](t, rec).Code)
}

func pgaRoster(n int) string {
	var b strings.Builder
	b.WriteString(rosterHeader)
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "G,Golfer %d (%d),Golfer %d,%d,G,%d,,,%d\n", i, 5000+i, i, 5000+i, 6000+i*100, 50+i)
	}
	return b.String()
}

func TestGenerate(t *testing.T) {
	lineups := []core.GeneratedLineup{{LineupID: "l1", TotalSalary: 49900, ProjectedPoints: 301.2, TotalOwnership: 80}}

	t.Run("pool insufficient", func(t *testing.T) {
		h := newHarness(t, testConfig(), stubOptimizer{lineups: lineups})
		rec := h.do(httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(`{"entryType":"single","sport":"pga"}`)))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "POOL001", decode[ErrorResponse](t, rec).Code)
	})

	t.Run("success", func(t *testing.T) {
		h := newHarness(t, testConfig(), stubOptimizer{lineups: lineups})
		rec := h.do(uploadRequest(t, map[string]string{"type": "roster", "sport": "pga"}, map[string]string{"golf.csv": pgaRoster(12)}))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		rec = h.do(httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(`{"entryType":"single","sport":"pga"}`)))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		res := decode[core.GenerateResult](t, rec)
		assert.NotEmpty(t, res.Settings.ID)
		assert.Equal(t, lineups, res.Lineups)
	})

	t.Run("optimizer empty", func(t *testing.T) {
		h := newHarness(t, testConfig(), stubOptimizer{})
		h.do(uploadRequest(t, map[string]string{"type": "roster", "sport": "pga"}, map[string]string{"golf.csv": pgaRoster(12)}))

		rec := h.do(httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(`{"entryType":"single","sport":"pga"}`)))
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, "OPT001", decode[ErrorResponse](t, rec).Code)
	})

	t.Run("optimizer not configured", func(t *testing.T) {
		h := newHarness(t, testConfig(), nil)
		h.do(uploadRequest(t, map[string]string{"type": "roster", "sport": "pga"}, map[string]string{"golf.csv": pgaRoster(12)}))

		rec := h.do(httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(`{"entryType":"single","sport":"pga"}`)))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "OPT002", decode[ErrorResponse](t, rec).Code)
	})
}

func TestExportLineups(t *testing.T) {
	h := newHarness(t, testConfig(), nil)
	require.NoError(t, h.store.SaveLineup(context.Background(), core.Lineup{
		ID:    "l1",
		Sport: "pga",
		Players: []core.LineupPlayer{
			{Name: "Golfer 1", PartnerID: "5001"},
			{Name: "Golfer 2", PartnerID: "5002"},
		},
	}))

	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/export/pga?lineup=l1", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, core.ExportContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "lineups-pga-")
	assert.Equal(t, "G,G,G,G,G,G\nGolfer 1 (5001),Golfer 2 (5002),,,,\n", rec.Body.String())

	rec = h.do(httptest.NewRequest(http.MethodGet, "/api/export/pga?lineup=missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NF003", decode[ErrorResponse](t, rec).Code)

	rec = h.do(httptest.NewRequest(http.MethodGet, "/api/export/cricket?lineup=l1", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(httptest.NewRequest(http.MethodGet, "/api/export/pga", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteUploadNotFound(t *testing.T) {
	h := newHarness(t, testConfig(), nil)
	rec := h.do(httptest.NewRequest(http.MethodDelete, "/api/uploads/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "UPL003", decode[ErrorResponse](t, rec).Code)
}

func TestClearPlayers(t *testing.T) {
	h := newHarness(t, testConfig(), nil)
	h.do(uploadRequest(t, map[string]string{"type": "roster", "sport": "nfl"}, map[string]string{"DKSalaries.csv": nflRoster}))

	rec := h.do(httptest.NewRequest(http.MethodDelete, "/api/players", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]int64{"deleted": 2}, decode[map[string]int64](t, rec))

	rec = h.do(httptest.NewRequest(http.MethodGet, "/api/players/1001", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListPlayersRejectsUnknownStatus(t *testing.T) {
	h := newHarness(t, testConfig(), nil)
	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/players?status=benched", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t, testConfig(), nil)

	rec := h.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	health := decode[HealthResponse](t, rec)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 2, health.Uploads.MaxConcurrent)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = h.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestAPIKeyRequired(t *testing.T) {
	cfg := testConfig()
	cfg.Security = config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1"}}
	h := newHarness(t, cfg, nil)

	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/players", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/players", nil)
	req.Header.Set("X-API-Key", "k1")
	assert.Equal(t, http.StatusOK, h.do(req).Code)

	assert.Equal(t, http.StatusOK, h.do(httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)
}

func TestRateLimiter(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2}
	h := newHarness(t, cfg, nil)

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, h.do(httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)
	}
	rec := h.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&core.ValidationError{Problems: []string{"x"}}, http.StatusBadRequest},
		{&core.PoolInsufficientError{Sport: "nfl"}, http.StatusUnprocessableEntity},
		{&core.OptimizerError{Err: fmt.Errorf("boom")}, http.StatusBadGateway},
		{&core.OptimizerError{Err: core.ErrOptimizerUnavailable}, http.StatusServiceUnavailable},
		{core.ErrTooManyUploads, http.StatusTooManyRequests},
		{fmt.Errorf("wrap: %w", core.ErrFileTooLarge), http.StatusRequestEntityTooLarge},
		{core.ErrSettingsNotFound, http.StatusNotFound},
		{core.ErrNoMergeableRows, http.StatusUnprocessableEntity},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{fmt.Errorf("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
