// Package httpapi exposes the analysis pipeline over HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/bambumate/bambumate/internal/application"
	"github.com/bambumate/bambumate/internal/domain"
	"github.com/bambumate/bambumate/internal/domain/inherit"
	"github.com/bambumate/bambumate/internal/logging"
	"github.com/go-chi/chi/v5"
)

const maxRequestBodySize = 4 << 20 // 4MB

// Deps are the services behind the API. Token, when set, is required as a
// bearer token on every route except /healthz.
type Deps struct {
	Analyzer *application.AnalyzeService
	Resolver *application.ResolveService
	Token    string
	Logger   *slog.Logger
}

// NewHandler builds the API router.
func NewHandler(deps Deps) http.Handler {
	logger := logging.OrDiscard(deps.Logger)

	r := chi.NewRouter()
	r.Use(requestLogger(logger))
	r.Get("/healthz", handleHealth)

	r.Group(func(r chi.Router) {
		if deps.Token != "" {
			r.Use(BearerAuth(deps.Token, logger))
		}
		r.Get("/defects", handleListDefects(deps))
		r.Get("/defects/{type}", handleGetDefect(deps))
		r.Post("/evaluate", handleEvaluate(deps))
		r.Get("/profiles/{name}/resolved", handleResolvedProfile(deps))
		r.Get("/profiles/{name}/chain", handleProfileChain(deps))
		r.Get("/history", handleListHistory(deps))
		r.Get("/history/{id}", handleGetHistory(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleListDefects(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, deps.Analyzer.Catalogue())
	}
}

func handleGetDefect(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defectType := chi.URLParam(r, "type")
		info, rules, ok := deps.Analyzer.DefectDetail(defectType)
		if !ok {
			httpError(w, http.StatusNotFound, "not_found", "unknown defect type %q", defectType)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"defect_type": defectType,
			"name":        info.Name,
			"description": info.Description,
			"rules":       rules,
		})
	}
}

type evaluateResponse struct {
	*application.AnalysisReport
	TunedProfile json.RawMessage `json:"tuned_profile"`
}

func handleEvaluate(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req application.AnalyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if err := domain.ValidateDefects(req.Defects); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}

		report, err := deps.Analyzer.Analyze(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		tuned, err := report.TunedJSON()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
			return
		}
		writeJSON(w, http.StatusOK, evaluateResponse{AnalysisReport: report, TunedProfile: tuned})
	}
}

func handleResolvedProfile(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		p, err := deps.Resolver.Resolve(name)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		data, err := p.Encode()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "encoding profile: %v", err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	}
}

func handleProfileChain(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		chain, err := deps.Resolver.Chain(name)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"name": name, "chain": chain})
	}
}

func handleListHistory(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 20, 200)
		entries, err := deps.Analyzer.History(r.Context(), limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
			return
		}
		if entries == nil {
			entries = []domain.AnalysisEntry{}
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func handleGetHistory(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		entry, err := deps.Analyzer.HistoryEntry(r.Context(), id)
		if errors.Is(err, domain.ErrAnalysisNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "analysis not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
			return
		}
		writeJSON(w, http.StatusOK, entry)
	}
}

// writeServiceError maps profile lookup and resolution failures to 4xx.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrProfileNotFound):
		httpError(w, http.StatusNotFound, "not_found", "%v", err)
	case errors.Is(err, inherit.ErrParentNotFound),
		errors.Is(err, inherit.ErrCircularInheritance),
		errors.Is(err, inherit.ErrDepthExceeded):
		httpError(w, http.StatusUnprocessableEntity, "resolution_error", "%v", err)
	default:
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
	}
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start),
			)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}
