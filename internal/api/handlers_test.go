package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/rival-intel/internal/analysis"
	"github.com/sells-group/rival-intel/internal/generate"
	"github.com/sells-group/rival-intel/internal/model"
	"github.com/sells-group/rival-intel/internal/registry"
	"github.com/sells-group/rival-intel/internal/scrape"
	"github.com/sells-group/rival-intel/internal/store"
)

type stubAnalyzer struct {
	calls []analysis.Request
	fn    func(req analysis.Request) (*model.AnalysisResult, error)
}

func (s *stubAnalyzer) Analyze(_ context.Context, req analysis.Request) (*model.AnalysisResult, error) {
	s.calls = append(s.calls, req)
	if s.fn != nil {
		return s.fn(req)
	}
	return &model.AnalysisResult{
		CompetitorName: req.CompetitorName,
		TargetURL:      req.TargetURL,
		Weaknesses:     []model.Weakness{},
		AnalyzedAt:     time.Now().UTC(),
	}, nil
}

type stubStore struct {
	summaries  []model.CompetitorSummary
	competitor *model.Competitor
	insights   []model.Insight
	listErr    error
	getErr     error
	deleteErr  error
	pingErr    error

	deletedIDs []string
}

func (s *stubStore) SaveAnalysis(context.Context, string, string, []model.Weakness) (string, error) {
	return "comp-1", nil
}

func (s *stubStore) ListCompetitors(context.Context) ([]model.CompetitorSummary, error) {
	return s.summaries, s.listErr
}

func (s *stubStore) GetCompetitor(context.Context, string) (*model.Competitor, error) {
	return s.competitor, s.getErr
}

func (s *stubStore) ListInsights(context.Context, string) ([]model.Insight, error) {
	return s.insights, nil
}

func (s *stubStore) DeleteCompetitor(_ context.Context, id string) error {
	s.deletedIDs = append(s.deletedIDs, id)
	return s.deleteErr
}

func (s *stubStore) Ping(context.Context) error    { return s.pingErr }
func (s *stubStore) Migrate(context.Context) error { return nil }
func (s *stubStore) Close() error                  { return nil }

func newTestRouter(t *testing.T, an Analyzer, st store.Store) http.Handler {
	t.Helper()
	reg, err := registry.New(registry.DefaultCatalog())
	require.NoError(t, err)
	return NewServer(an, st, reg).Router()
}

func doJSON(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeDetail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Detail
}

func TestAnalyzeSuccess(t *testing.T) {
	an := &stubAnalyzer{fn: func(req analysis.Request) (*model.AnalysisResult, error) {
		return &model.AnalysisResult{
			CompetitorName: req.CompetitorName,
			TargetURL:      req.TargetURL,
			Weaknesses: []model.Weakness{
				{Title: "Hidden pricing", Description: "No public tiers.", Severity: model.SeverityHigh, Category: "Pricing"},
				{Title: "No SSO", Description: "Enterprise blocker.", Severity: model.SeverityMedium, Category: "Security"},
			},
			AnalyzedAt:       time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			RawContentLength: 9000,
			ModelUsed:        "gemini-2.5-flash-lite",
		}, nil
	}}
	handler := newTestRouter(t, an, &stubStore{})

	rec := doJSON(t, handler, http.MethodPost, "/analyze",
		`{"competitor_name": "  Acme Corp  ", "target_url": "https://acme.example.com"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var result model.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "Acme Corp", result.CompetitorName)
	assert.Len(t, result.Weaknesses, 2)
	assert.Equal(t, "gemini-2.5-flash-lite", result.ModelUsed)
	assert.Equal(t, 9000, result.RawContentLength)

	require.Len(t, an.calls, 1)
	assert.Equal(t, "Acme Corp", an.calls[0].CompetitorName, "name should reach the analyzer trimmed")
}

func TestAnalyzeValidation(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		detail string
	}{
		{"missing name", `{"target_url": "https://acme.example.com"}`, "competitor_name is required"},
		{"blank name", `{"competitor_name": "   ", "target_url": "https://acme.example.com"}`, "competitor_name is required"},
		{"missing url", `{"competitor_name": "Acme"}`, "target_url is required"},
		{"relative url", `{"competitor_name": "Acme", "target_url": "/pricing"}`, "absolute URL"},
		{"bad scheme", `{"competitor_name": "Acme", "target_url": "ftp://acme.example.com"}`, "not supported"},
		{"malformed json", `{"competitor_name": `, "invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			an := &stubAnalyzer{}
			handler := newTestRouter(t, an, &stubStore{})

			rec := doJSON(t, handler, http.MethodPost, "/analyze", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decodeDetail(t, rec), tt.detail)
			assert.Empty(t, an.calls, "validation failures must not reach the analyzer")
		})
	}
}

func TestAnalyzeErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			"invalid model",
			&registry.InvalidModelError{Requested: "gpt-4o", Allowed: []string{"gemini-2.5-flash-lite"}},
			http.StatusBadRequest,
		},
		{
			"empty content",
			&scrape.FetchError{Kind: scrape.FetchEmptyContent, URL: "https://acme.example.com"},
			http.StatusUnprocessableEntity,
		},
		{
			"unreachable",
			&scrape.FetchError{Kind: scrape.FetchUnreachable, URL: "https://acme.example.com"},
			http.StatusBadGateway,
		},
		{
			"fetch timeout",
			&scrape.FetchError{Kind: scrape.FetchTimeout, URL: "https://acme.example.com"},
			http.StatusGatewayTimeout,
		},
		{
			"unparseable response",
			&analysis.UnparseableResponseError{RawLength: 512, Preview: "I cannot help with that."},
			http.StatusBadGateway,
		},
		{
			"generation unavailable",
			&generate.UnavailableError{Attempted: []string{"gemini-2.5-pro", "gemini-2.5-flash-lite"}, Last: eris.New("503")},
			http.StatusServiceUnavailable,
		},
		{
			"unknown failure",
			eris.New("pipeline exploded"),
			http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			an := &stubAnalyzer{fn: func(analysis.Request) (*model.AnalysisResult, error) {
				// Handlers see wrapped errors, never bare typed values.
				return nil, eris.Wrap(tt.err, "analysis: run")
			}}
			handler := newTestRouter(t, an, &stubStore{})

			rec := doJSON(t, handler, http.MethodPost, "/analyze",
				`{"competitor_name": "Acme", "target_url": "https://acme.example.com"}`)

			assert.Equal(t, tt.wantStatus, rec.Code)
			detail := decodeDetail(t, rec)
			if tt.wantStatus == http.StatusInternalServerError {
				assert.Equal(t, "internal server error", detail, "500s must not leak internals")
			} else {
				assert.NotEmpty(t, detail)
				assert.NotContains(t, detail, "analysis: run", "typed errors keep their own message")
			}
		})
	}
}

func TestListModels(t *testing.T) {
	handler := newTestRouter(t, &stubAnalyzer{}, &stubStore{})

	rec := doJSON(t, handler, http.MethodGet, "/models", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp modelsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "gemini-2.5-flash-lite", resp.Default)
	require.NotEmpty(t, resp.Models)

	ids := make([]string, 0, len(resp.Models))
	for _, opt := range resp.Models {
		ids = append(ids, opt.ID)
	}
	assert.Contains(t, ids, resp.Default)
}

func TestListCompetitors(t *testing.T) {
	now := time.Now().UTC()
	st := &stubStore{summaries: []model.CompetitorSummary{
		{ID: "comp-1", Name: "Acme Corp", TargetURL: "https://acme.example.com", InsightCount: 12, CreatedAt: now, UpdatedAt: now},
		{ID: "comp-2", Name: "Globex", TargetURL: "https://globex.example.com", CreatedAt: now, UpdatedAt: now},
	}}
	handler := newTestRouter(t, &stubAnalyzer{}, st)

	rec := doJSON(t, handler, http.MethodGet, "/competitors", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp competitorsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.TotalCompetitors)
	require.Len(t, resp.Competitors, 2)
	assert.Equal(t, 12, resp.Competitors[0].InsightCount)
}

func TestListCompetitorsEmpty(t *testing.T) {
	handler := newTestRouter(t, &stubAnalyzer{}, &stubStore{})

	rec := doJSON(t, handler, http.MethodGet, "/competitors", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"competitors":[]`, "empty list must serialize as [], not null")
}

func TestGetCompetitor(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	st := &stubStore{
		competitor: &model.Competitor{ID: "comp-1", Name: "Acme Corp", TargetURL: "https://acme.example.com", CreatedAt: now, UpdatedAt: now},
		insights: []model.Insight{
			{ID: "ins-1", CompetitorID: "comp-1", Title: "Hidden pricing", Description: "No public tiers.", Severity: model.SeverityHigh, Category: "Pricing", CreatedAt: now},
		},
	}
	handler := newTestRouter(t, &stubAnalyzer{}, st)

	rec := doJSON(t, handler, http.MethodGet, "/competitors/comp-1", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp competitorDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Acme Corp", resp.Name)
	assert.Equal(t, 1, resp.TotalInsights)
	require.Len(t, resp.Insights, 1)
	assert.Equal(t, "Hidden pricing", resp.Insights[0].Title)
}

func TestGetCompetitorNotFound(t *testing.T) {
	handler := newTestRouter(t, &stubAnalyzer{}, &stubStore{})

	rec := doJSON(t, handler, http.MethodGet, "/competitors/missing", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "competitor not found", decodeDetail(t, rec))
}

func TestDeleteCompetitor(t *testing.T) {
	st := &stubStore{}
	handler := newTestRouter(t, &stubAnalyzer{}, st)

	rec := doJSON(t, handler, http.MethodDelete, "/competitors/comp-1", "")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, []string{"comp-1"}, st.deletedIDs)
}

func TestDeleteCompetitorNotFound(t *testing.T) {
	st := &stubStore{deleteErr: eris.Wrapf(store.ErrNotFound, "store: delete competitor missing")}
	handler := newTestRouter(t, &stubAnalyzer{}, st)

	rec := doJSON(t, handler, http.MethodDelete, "/competitors/missing", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "competitor not found", decodeDetail(t, rec))
}

func TestDeleteCompetitorFailure(t *testing.T) {
	st := &stubStore{deleteErr: eris.New("store: connection reset")}
	handler := newTestRouter(t, &stubAnalyzer{}, st)

	rec := doJSON(t, handler, http.MethodDelete, "/competitors/comp-1", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", decodeDetail(t, rec))
}

func TestHealthz(t *testing.T) {
	handler := newTestRouter(t, &stubAnalyzer{}, &stubStore{})

	rec := doJSON(t, handler, http.MethodGet, "/healthz", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestHealthzDegraded(t *testing.T) {
	st := &stubStore{pingErr: eris.New("dial tcp: connection refused")}
	handler := newTestRouter(t, &stubAnalyzer{}, st)

	rec := doJSON(t, handler, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"degraded"`)
}

func TestCORSPreflightAllowed(t *testing.T) {
	handler := newTestRouter(t, &stubAnalyzer{}, &stubStore{})

	req := httptest.NewRequest(http.MethodOptions, "/analyze", nil)
	req.Header.Set("Origin", "https://dashboard.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
