// Package api exposes the design analysis over a small HTTP surface.
// The analyzer itself stays I/O-free; this is a caller-side collaborator.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/guhjy/BFDA/adapters/tablefile"
	"github.com/guhjy/BFDA/domain/trajectory"
	"github.com/guhjy/BFDA/internal"
	"github.com/guhjy/BFDA/internal/design"
	"github.com/guhjy/BFDA/internal/errors"
	"github.com/guhjy/BFDA/internal/report"
)

// maxUploadBytes caps uploaded trajectory tables at 64 MiB.
const maxUploadBytes = 64 << 20

// Server wires the analyzer behind a chi router.
type Server struct {
	router   *chi.Mux
	analyzer *design.Analyzer
	log      *internal.Logger
}

// NewServer creates the API server with routes registered.
func NewServer() *Server {
	s := &Server{
		router:   chi.NewRouter(),
		analyzer: design.NewAnalyzer(),
		log:      internal.DefaultLogger.Named("api"),
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Post("/api/analyze", s.handleAnalyze)

	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleAnalyze accepts a multipart CSV upload under the "table" field
// plus analysis parameters as query values, and returns the full result.
// With ?render=text the rendered report is returned instead of JSON.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, _, err := r.FormFile("table")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, errors.InvalidInput("missing multipart file field 'table'"))
		return
	}
	defer file.Close()

	table, err := tablefile.ParseCSV(file)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	params, err := paramsFromQuery(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := s.analyzer.Analyze(table, params)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	if r.URL.Query().Get("render") == "text" {
		digits := queryInt(r, "digits", report.DefaultDigits)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(report.Render(result, digits)))
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// paramsFromQuery builds analysis parameters from query values. A single
// "boundary" value expands to the symmetric pair; "lower" and "upper"
// select an explicit pair.
func paramsFromQuery(r *http.Request) (design.Params, error) {
	q := r.URL.Query()
	p := design.Params{
		NMin:  queryInt(r, "n_min", 0),
		NMax:  queryInt(r, "n_max", 0),
		Alpha: queryFloat(r, "alpha", 0),
	}

	switch {
	case q.Get("lower") != "" || q.Get("upper") != "":
		lower := queryFloat(r, "lower", 0)
		upper := queryFloat(r, "upper", 0)
		b, err := trajectory.NewBoundary(lower, upper)
		if err != nil {
			return p, errors.InvalidInput(err.Error())
		}
		p.Boundary = &b
	case q.Get("boundary") != "":
		b, err := trajectory.NewSymmetricBoundary(queryFloat(r, "boundary", 0))
		if err != nil {
			return p, errors.InvalidInput(err.Error())
		}
		p.Boundary = &b
	}

	return p, nil
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func queryFloat(r *http.Request, key string, fallback float64) float64 {
	if v := r.URL.Query().Get(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.log.Warn("request failed: %v", err)
	writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"code":  errors.GetCode(err),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
