package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/telemetryfleet/collector-inspector/internal/config/validation"
	"github.com/telemetryfleet/collector-inspector/internal/metrics"
	"github.com/telemetryfleet/collector-inspector/internal/topology"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeFetcher struct {
	records       []metrics.ComponentMetrics
	err           error
	pipelineTypes []string
}

func (f *fakeFetcher) FetchAll(_ context.Context, pipelineTypes []string) ([]metrics.ComponentMetrics, error) {
	f.pipelineTypes = pipelineTypes
	return f.records, f.err
}

const validConfig = `receivers:
  otlp:
    protocols:
      grpc:
exporters:
  debug:
    verbosity: basic
service:
  pipelines:
    traces:
      receivers: [otlp]
      exporters: [debug]
`

func post(t *testing.T, router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	return rec
}

func TestHealthz(t *testing.T) {
	router := New().Router()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestValidateEndpointValidDocument(t *testing.T) {
	rec := post(t, New().Router(), "/v1/validate", validConfig)
	require.Equal(t, http.StatusOK, rec.Code)

	var result validation.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.True(t, result.Valid)
	require.Empty(t, result.Errors)
}

func TestValidateEndpointBrokenReference(t *testing.T) {
	raw := strings.Replace(validConfig, "[otlp]", "[otlp, ghost]", 1)

	rec := post(t, New().Router(), "/v1/validate", raw)
	require.Equal(t, http.StatusOK, rec.Code)

	var result validation.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.False(t, result.Valid)
	require.NotEmpty(t, result.Errors)
}

func TestValidateEndpointUnparsableDocument(t *testing.T) {
	rec := post(t, New().Router(), "/v1/validate", "receivers: [unclosed")
	require.Equal(t, http.StatusOK, rec.Code)

	var result validation.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	require.Equal(t, 1, result.Errors[0].Line)
	require.Equal(t, 1, result.Errors[0].Column)
}

func TestTopologyEndpoint(t *testing.T) {
	rec := post(t, New().Router(), "/v1/topology", validConfig)
	require.Equal(t, http.StatusOK, rec.Code)

	var graph topology.Graph
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &graph))
	require.Len(t, graph.Edges, 1)
	require.Len(t, graph.Nodes, 3)
}

func TestTopologyEndpointEmptyBody(t *testing.T) {
	rec := post(t, New().Router(), "/v1/topology", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var graph topology.Graph
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &graph))
	require.Len(t, graph.Nodes, 1)
	require.Equal(t, "no-config", graph.Nodes[0].ID)
}

func TestTopologyEndpointWithMetrics(t *testing.T) {
	received := 42.0
	fetcher := &fakeFetcher{records: []metrics.ComponentMetrics{{
		ComponentType: "receiver",
		ComponentName: "otlp",
		PipelineType:  "traces",
		Received:      &received,
	}}}

	router := New(WithMetricsFetcher(fetcher)).Router()
	rec := post(t, router, "/v1/topology", validConfig)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Equal(t, []string{"traces"}, fetcher.pipelineTypes)

	var graph topology.Graph
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &graph))

	for _, node := range graph.Nodes {
		if node.ID == "traces-receiver-otlp" {
			require.Equal(t, 42.0, node.Data.Value)
			return
		}
	}

	require.Fail(t, "receiver node not found")
}

func TestTopologyEndpointMetricsFailureDegrades(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("prometheus down")}

	router := New(WithMetricsFetcher(fetcher)).Router()
	rec := post(t, router, "/v1/topology", validConfig)
	require.Equal(t, http.StatusOK, rec.Code)

	var graph topology.Graph
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &graph))
	require.Len(t, graph.Nodes, 3)
}
