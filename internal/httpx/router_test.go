package httpx

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/PPC_GO/internal/analysis"
	"github.com/AngelCh415/PPC_GO/internal/config"
	"github.com/AngelCh415/PPC_GO/internal/ingest"
	"github.com/AngelCh415/PPC_GO/internal/metrics"
	"github.com/AngelCh415/PPC_GO/internal/models"
	"github.com/AngelCh415/PPC_GO/internal/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := store.NewMemoryStore()
	reg := prometheus.NewRegistry()
	prom := metrics.NewCollectors(reg)
	cfg := config.Config{Settings: models.DefaultSettings()}

	srv := httptest.NewServer(NewRouter(Deps{
		Log:         log,
		Store:       st,
		Loader:      ingest.NewLoader(ingest.NewHTTPClient(0), st, log, cfg),
		Analysis:    analysis.NewService(st, log, prom, cfg.Settings),
		Metrics:     metrics.NewService(st),
		Gatherer:    reg,
		CORSOrigins: []string{"http://localhost:3000"},
	}))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, r)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp := do(t, http.MethodGet, srv.URL+"/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestAnalyzeFlow(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/sets", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[struct {
		ID string `json:"id"`
	}](t, resp)
	base := srv.URL + "/sets/" + created.ID

	resp = do(t, http.MethodPost, base+"/ppc", map[string]any{
		"source": "report-1",
		"rows": []models.KeywordRow{
			{CampaignName: "A", Keyword: "garlic press", MatchType: models.MatchExact, Bid: 1, Clicks: 40, Spend: 80, Sales: 100, Orders: 2},
			{CampaignName: "A", Keyword: "garlic peeler", MatchType: models.MatchExact, Bid: 1, Clicks: 20, Spend: 10, Orders: 0},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodPost, base+"/sqp", map[string]any{
		"rows": []models.SearchQueryRow{
			{SearchQuery: "lemon squeezer", Asin: "B01", ReportingWeek: "2024-01-01", ClickToPurchaseAsin: 9, ClickToPurchaseTotal: 3, SearchQueryVolume: 700},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodGet, base+"/recommendations", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "nothing analysed yet")

	resp = do(t, http.MethodPost, base+"/analyze", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decodeBody[models.AnalysisResult](t, resp)
	require.Len(t, res.Recommendations, 3)
	assert.Equal(t, models.ActionLowerBid, res.Recommendations[0].Action)
	assert.Equal(t, models.ActionNegate, res.Recommendations[1].Action)
	assert.Equal(t, models.ActionStartAds, res.Recommendations[2].Action)

	resp = do(t, http.MethodGet, base+"/recommendations?action=negate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decodeBody[metrics.Page](t, resp)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, "garlic peeler", page.Recommendations[0].Keyword)

	resp = do(t, http.MethodGet, base+"/wasp", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	report := decodeBody[models.WASPReport](t, resp)
	// zero-conversion 10 plus 80 - 100*25% = 55 of high-acos waste
	assert.InDelta(t, 65.0, report.TotalWastedSpend, 1e-9)
	assert.InDelta(t, 90.0, report.TotalAdSpend, 1e-9)

	resp = do(t, http.MethodGet, base+"/summary", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	b, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(b), "ppc_analyses_total 1")

	resp = do(t, http.MethodDelete, base+"/", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = do(t, http.MethodGet, base+"/summary", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAnalyzeRejectsInvertedSettings(t *testing.T) {
	srv := newTestServer(t)
	resp := do(t, http.MethodPost, srv.URL+"/sets", nil)
	created := decodeBody[struct {
		ID string `json:"id"`
	}](t, resp)

	resp = do(t, http.MethodPost, srv.URL+"/sets/"+created.ID+"/analyze", models.Settings{ACOSTarget: 50, ACOSThreshold: 20, ClickThreshold: 10})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUnknownSetAndBadBody(t *testing.T) {
	srv := newTestServer(t)
	resp := do(t, http.MethodPost, srv.URL+"/sets/missing/ppc", map[string]any{"rows": []any{}})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/sets/missing/sqp", strings.NewReader("{not json"))
	r, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer r.Body.Close()
	assert.Equal(t, http.StatusBadRequest, r.StatusCode)
}

func TestExportWithoutSink(t *testing.T) {
	srv := newTestServer(t)
	resp := do(t, http.MethodPost, srv.URL+"/sets", nil)
	created := decodeBody[struct {
		ID string `json:"id"`
	}](t, resp)
	resp = do(t, http.MethodPost, srv.URL+"/sets/"+created.ID+"/export", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestWriteJSONLogsEncodeFailure(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	rec := httptest.NewRecorder()
	writeJSON(rec, map[string]any{"bad": make(chan int)})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, buf.String(), "encode response")
	assert.Contains(t, buf.String(), "unsupported type")
}
