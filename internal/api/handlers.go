package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/rival-intel/internal/analysis"
	"github.com/sells-group/rival-intel/internal/generate"
	"github.com/sells-group/rival-intel/internal/model"
	"github.com/sells-group/rival-intel/internal/registry"
	"github.com/sells-group/rival-intel/internal/scrape"
	"github.com/sells-group/rival-intel/internal/store"
)

type analyzeRequest struct {
	CompetitorName string `json:"competitor_name"`
	TargetURL      string `json:"target_url"`
	Model          string `json:"model"`
}

type modelsResponse struct {
	Models  []model.ModelOption `json:"models"`
	Default string              `json:"default"`
}

type competitorsResponse struct {
	TotalCompetitors int                       `json:"total_competitors"`
	Competitors      []model.CompetitorSummary `json:"competitors"`
}

type competitorDetail struct {
	model.Competitor
	Insights      []model.Insight `json:"insights"`
	TotalInsights int             `json:"total_insights"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.CompetitorName = strings.TrimSpace(req.CompetitorName)
	req.TargetURL = strings.TrimSpace(req.TargetURL)
	if req.CompetitorName == "" {
		writeError(w, http.StatusBadRequest, "competitor_name is required")
		return
	}
	if err := validateTargetURL(req.TargetURL); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.analyzer.Analyze(r.Context(), analysis.Request{
		CompetitorName: req.CompetitorName,
		TargetURL:      req.TargetURL,
		Model:          strings.TrimSpace(req.Model),
	})
	if err != nil {
		status, detail := mapAnalysisError(err)
		if status == http.StatusInternalServerError {
			zap.L().Error("api: analyze failed", zap.Error(err))
		}
		writeError(w, status, detail)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListModels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, modelsResponse{
		Models:  s.registry.List(),
		Default: s.registry.Default().ID,
	})
}

func (s *Server) handleListCompetitors(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.store.ListCompetitors(r.Context())
	if err != nil {
		zap.L().Error("api: list competitors", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if summaries == nil {
		summaries = []model.CompetitorSummary{}
	}
	writeJSON(w, http.StatusOK, competitorsResponse{
		TotalCompetitors: len(summaries),
		Competitors:      summaries,
	})
}

func (s *Server) handleGetCompetitor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	competitor, err := s.store.GetCompetitor(r.Context(), id)
	if err != nil {
		zap.L().Error("api: get competitor", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if competitor == nil {
		writeError(w, http.StatusNotFound, "competitor not found")
		return
	}
	insights, err := s.store.ListInsights(r.Context(), id)
	if err != nil {
		zap.L().Error("api: list insights", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if insights == nil {
		insights = []model.Insight{}
	}
	writeJSON(w, http.StatusOK, competitorDetail{
		Competitor:    *competitor,
		Insights:      insights,
		TotalInsights: len(insights),
	})
}

func (s *Server) handleDeleteCompetitor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.DeleteCompetitor(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "competitor not found")
			return
		}
		zap.L().Error("api: delete competitor", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		zap.L().Warn("api: health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"detail": "store unreachable",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func validateTargetURL(raw string) error {
	if raw == "" {
		return eris.New("target_url is required")
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return eris.New("target_url must be an absolute URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return eris.Errorf("target_url scheme %q is not supported", u.Scheme)
	}
	return nil
}

// mapAnalysisError translates pipeline failures into HTTP statuses. Typed
// errors keep their own messages; anything unrecognized stays a 500 with a
// generic body so wrap chains never leak to clients.
func mapAnalysisError(err error) (int, string) {
	var invalidModel *registry.InvalidModelError
	if errors.As(err, &invalidModel) {
		return http.StatusBadRequest, invalidModel.Error()
	}
	var fetchErr *scrape.FetchError
	if errors.As(err, &fetchErr) {
		switch fetchErr.Kind {
		case scrape.FetchEmptyContent:
			return http.StatusUnprocessableEntity, fetchErr.Error()
		case scrape.FetchTimeout:
			return http.StatusGatewayTimeout, fetchErr.Error()
		default:
			return http.StatusBadGateway, fetchErr.Error()
		}
	}
	var unparseable *analysis.UnparseableResponseError
	if errors.As(err, &unparseable) {
		return http.StatusBadGateway, unparseable.Error()
	}
	var unavailable *generate.UnavailableError
	if errors.As(err, &unavailable) {
		return http.StatusServiceUnavailable, unavailable.Error()
	}
	return http.StatusInternalServerError, "internal server error"
}
