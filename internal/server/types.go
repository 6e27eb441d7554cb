package server

import (
	"net/http"

	"github.com/MeKo-Tech/omrscore/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server holds the HTTP server state and dependencies. Pipelines are built
// per request from the base config plus request overrides.
type Server struct {
	base        pipeline.Config
	corsOrigin  string
	maxUploadMB int64
	timeoutSec  int
}

// Config holds server configuration.
type Config struct {
	Host           string
	Port           int
	CORSOrigin     string
	MaxUploadMB    int64
	TimeoutSec     int
	PipelineConfig pipeline.Config
}

// RequestConfig carries the per-request pipeline overrides extracted from
// form values, query parameters, or WebSocket options.
type RequestConfig struct {
	Subjects          []string
	Phase             string
	ExpectedQuestions int
	Respondents       int
	FormsPerPage      int
}

// Response types for API endpoints.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

type PhaseInfo struct {
	Code     string   `json:"code"`
	Subjects []string `json:"subjects"`
}

type PhasesResponse struct {
	Phases []PhaseInfo `json:"phases"`
	Count  int         `json:"count"`
}

type DecodeResponse struct {
	Success bool             `json:"success"`
	Result  *pipeline.Result `json:"result,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// NewServer creates a new decode server instance.
func NewServer(config Config) (*Server, error) {
	base := config.PipelineConfig
	if len(base.Layout.Ratings) == 0 {
		base = pipeline.DefaultConfig()
	}

	return &Server{
		base:        base,
		corsOrigin:  config.CORSOrigin,
		maxUploadMB: config.MaxUploadMB,
		timeoutSec:  config.TimeoutSec,
	}, nil
}

// getPipelineForRequest builds a pipeline from the base config with the
// request's overrides applied.
func (s *Server) getPipelineForRequest(rc *RequestConfig) (*pipeline.Pipeline, error) {
	b := pipeline.FromConfig(s.base)
	if len(rc.Subjects) > 0 {
		b = b.WithSubjects(rc.Subjects)
	}
	if rc.Phase != "" {
		b = b.WithPhase(rc.Phase)
	}
	b = b.WithExpectedQuestions(rc.ExpectedQuestions)
	b = b.WithFormSplitting(rc.FormsPerPage)
	if rc.Respondents > 0 {
		b = b.WithRespondents(rc.Respondents)
	}
	return b.Build()
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/layouts", s.corsMiddleware(s.layoutsHandler))
	mux.HandleFunc("/decode", s.corsMiddleware(s.decodeHandler))
	mux.HandleFunc("/ws/decode", s.decodeWebSocketHandler)
	mux.Handle("/metrics", promhttp.Handler())
}
