// Package server exposes the inspection engine over HTTP for the dashboard
// frontend. Every request runs one full engine pass over the posted
// document; the server itself keeps no state between requests.
package server

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/telemetryfleet/collector-inspector/internal/config"
	"github.com/telemetryfleet/collector-inspector/internal/config/validation"
	"github.com/telemetryfleet/collector-inspector/internal/metrics"
	"github.com/telemetryfleet/collector-inspector/internal/topology"
)

const maxDocumentSize = 1 << 20

// MetricsFetcher supplies live component metrics for topology enrichment.
// A nil fetcher disables enrichment entirely.
type MetricsFetcher interface {
	FetchAll(ctx context.Context, pipelineTypes []string) ([]metrics.ComponentMetrics, error)
}

type Server struct {
	runner  *validation.Runner
	fetcher MetricsFetcher
	logger  *zap.Logger
}

type Option func(*Server)

func WithMetricsFetcher(fetcher MetricsFetcher) Option {
	return func(s *Server) {
		s.fetcher = fetcher
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

func New(opts ...Option) *Server {
	server := &Server{
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(server)
	}

	server.runner = validation.NewRunner(validation.WithLogger(server.logger))

	return server
}

func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", s.handleHealthz)
	router.POST("/v1/validate", s.handleValidate)
	router.POST("/v1/topology", s.handleTopology)

	return router
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleValidate validates the posted document. A document that fails to
// parse is reported as a single error-severity finding at the document
// start, keeping the response shape uniform for the editor.
func (s *Server) handleValidate(c *gin.Context) {
	raw, ok := s.readDocument(c)
	if !ok {
		return
	}

	cfg, err := config.Parse(raw)
	if err != nil {
		c.JSON(http.StatusOK, validation.Result{
			Valid: false,
			Errors: []validation.ValidationError{{
				Message:  err.Error(),
				Severity: validation.SeverityError,
				Line:     1,
				Column:   1,
			}},
		})

		return
	}

	c.JSON(http.StatusOK, s.runner.Run(raw, cfg))
}

// handleTopology builds the pipeline graph, enriched with live metrics
// when a fetcher is configured. Metrics failures degrade to an unenriched
// graph rather than failing the request.
func (s *Server) handleTopology(c *gin.Context) {
	raw, ok := s.readDocument(c)
	if !ok {
		return
	}

	var records []metrics.ComponentMetrics

	if s.fetcher != nil {
		pipelineTypes := pipelineTypesOf(raw)

		fetched, err := s.fetcher.FetchAll(c.Request.Context(), pipelineTypes)
		if err != nil {
			s.logger.Warn("failed to fetch component metrics, rendering topology without them", zap.Error(err))
		} else {
			records = fetched
		}
	}

	c.JSON(http.StatusOK, topology.Build(raw, records))
}

func (s *Server) readDocument(c *gin.Context) (string, bool) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxDocumentSize))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return "", false
	}

	return string(raw), true
}

// pipelineTypesOf extracts the distinct signal types declared by the
// document, so the fetcher only queries series that can match.
func pipelineTypesOf(raw string) []string {
	cfg, err := config.Parse(raw)
	if err != nil {
		return nil
	}

	return cfg.PipelineTypes()
}
