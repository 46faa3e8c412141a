package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleConfig = `receivers:
  otlp:
    protocols:
      grpc:
  jaeger:
processors:
  batch:
  memory_limiter:
exporters:
  otlphttp:
    endpoint: https://backend:4318
connectors:
  forward:
extensions:
  health_check:
service:
  extensions: [health_check]
  pipelines:
    traces:
      receivers: [otlp, jaeger]
      processors: [memory_limiter, batch]
      exporters: [forward]
    traces/sampled:
      receivers: [forward]
      exporters: [otlphttp]
`

func TestParse(t *testing.T) {
	cfg, err := Parse(sampleConfig)
	require.NoError(t, err)

	require.Contains(t, cfg.Receivers, "otlp")
	require.Contains(t, cfg.Receivers, "jaeger")
	require.Nil(t, cfg.Receivers["jaeger"])
	require.Contains(t, cfg.Connectors, "forward")
	require.Equal(t, []string{"health_check"}, cfg.Service.Extensions)

	require.True(t, cfg.Service.Pipelines.Defined())
	require.Equal(t, 2, cfg.Service.Pipelines.Len())

	pipeline, ok := cfg.Service.Pipelines.Get("traces")
	require.True(t, ok)
	require.Equal(t, []string{"otlp", "jaeger"}, pipeline.Receivers)
	require.Equal(t, []string{"memory_limiter", "batch"}, pipeline.Processors)
	require.Equal(t, []string{"forward"}, pipeline.Exporters)
}

func TestParsePreservesPipelineOrder(t *testing.T) {
	cfg, err := Parse(sampleConfig)
	require.NoError(t, err)

	require.Equal(t, []string{"traces", "traces/sampled"}, cfg.Service.Pipelines.Names())
}

func TestParseEmptyDocument(t *testing.T) {
	_, err := Parse("   \n\t\n")
	require.ErrorIs(t, err, ErrEmptyDocument)
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse("receivers:\n\totlp: [unclosed")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrEmptyDocument)
}

func TestParseMissingService(t *testing.T) {
	cfg, err := Parse("receivers:\n  otlp:\n")
	require.NoError(t, err)
	require.False(t, cfg.Service.Pipelines.Defined())
}

func TestParseEmptyPipelines(t *testing.T) {
	cfg, err := Parse("service:\n  pipelines: {}\n")
	require.NoError(t, err)
	require.True(t, cfg.Service.Pipelines.Defined())
	require.Equal(t, 0, cfg.Service.Pipelines.Len())
}

func TestParseNullPipelines(t *testing.T) {
	cfg, err := Parse("service:\n  pipelines:\n")
	require.NoError(t, err)
	require.False(t, cfg.Service.Pipelines.Defined())
}

func TestParseDuplicatePipelineName(t *testing.T) {
	raw := `service:
  pipelines:
    traces:
      receivers: [otlp]
      exporters: [debug]
    traces:
      receivers: [jaeger]
      exporters: [debug]
`
	_, err := Parse(raw)
	require.Error(t, err)
	require.ErrorContains(t, err, `pipeline "traces" is already defined`)
}

func TestDefinedSetsIncludeConnectors(t *testing.T) {
	cfg, err := Parse(sampleConfig)
	require.NoError(t, err)

	receivers := cfg.DefinedReceivers()
	require.Contains(t, receivers, "otlp")
	require.Contains(t, receivers, "forward")

	exporters := cfg.DefinedExporters()
	require.Contains(t, exporters, "otlphttp")
	require.Contains(t, exporters, "forward")

	processors := cfg.DefinedProcessors()
	require.Contains(t, processors, "batch")
	require.NotContains(t, processors, "forward")
}

func TestPipelineType(t *testing.T) {
	require.Equal(t, "traces", PipelineType("traces"))
	require.Equal(t, "traces", PipelineType("traces/sampled"))
	require.Equal(t, "metrics", PipelineType("metrics/prod/eu"))
}
