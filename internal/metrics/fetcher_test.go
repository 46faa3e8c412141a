package metrics

import (
	"context"
	"testing"
	"time"

	promv1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeQueryAPI struct {
	vectors map[string]model.Vector
	queries []string
}

func (f *fakeQueryAPI) Query(_ context.Context, query string, _ time.Time, _ ...promv1.Option) (model.Value, promv1.Warnings, error) {
	f.queries = append(f.queries, query)
	return f.vectors[query], nil, nil
}

func sample(label model.LabelName, name string, value float64) *model.Sample {
	return &model.Sample{
		Metric: model.Metric{label: model.LabelValue(name)},
		Value:  model.SampleValue(value),
	}
}

func TestFetchPipeline(t *testing.T) {
	fake := &fakeQueryAPI{vectors: map[string]model.Vector{
		"sum by (receiver) (rate(otelcol_receiver_accepted_spans[5m]))": {
			sample("receiver", "otlp", 120),
		},
		"sum by (receiver) (rate(otelcol_receiver_refused_spans[5m]))": {
			sample("receiver", "otlp", 30),
		},
		"sum by (processor) (rate(otelcol_processor_accepted_spans[5m]))": {
			sample("processor", "batch", 118),
		},
		"sum by (exporter) (rate(otelcol_exporter_sent_spans[5m]))": {
			sample("exporter", "otlphttp", 110),
			sample("exporter", "debug", 8),
		},
		"sum by (exporter) (rate(otelcol_exporter_send_failed_spans[5m]))": {
			sample("exporter", "otlphttp", 10),
		},
	}}

	fetcher := &Fetcher{api: fake, logger: zap.NewNop()}

	records, err := fetcher.FetchPipeline(context.Background(), "traces")
	require.NoError(t, err)
	require.Len(t, records, 4)

	// Sorted by role, then name.
	require.Equal(t, "debug", records[0].ComponentName)
	require.Equal(t, "otlphttp", records[1].ComponentName)
	require.Equal(t, "batch", records[2].ComponentName)
	require.Equal(t, "otlp", records[3].ComponentName)

	receiver := records[3]
	require.Equal(t, "receiver", receiver.ComponentType)
	require.Equal(t, "traces", receiver.PipelineType)
	require.Equal(t, 120.0, ValueOr(receiver.Received))
	require.Equal(t, 120.0, receiver.Throughput)
	require.Equal(t, 30.0, receiver.Errors)
	require.InDelta(t, 0.2, receiver.ErrorRate, 1e-9)

	exporter := records[1]
	require.Equal(t, 110.0, ValueOr(exporter.Sent))
	require.Equal(t, 10.0, exporter.Errors)

	processor := records[2]
	require.Equal(t, 118.0, processor.Throughput)
	require.Equal(t, 0.0, processor.Errors)
	require.Nil(t, processor.Sent)
}

func TestFetchPipelineUnsupportedType(t *testing.T) {
	fetcher := &Fetcher{api: &fakeQueryAPI{}, logger: zap.NewNop()}

	_, err := fetcher.FetchPipeline(context.Background(), "profiles")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported pipeline type")
}

func TestFetchAll(t *testing.T) {
	fake := &fakeQueryAPI{vectors: map[string]model.Vector{
		"sum by (receiver) (rate(otelcol_receiver_accepted_spans[5m]))": {
			sample("receiver", "otlp", 10),
		},
		"sum by (receiver) (rate(otelcol_receiver_accepted_metric_points[5m]))": {
			sample("receiver", "prometheus", 20),
		},
	}}

	fetcher := &Fetcher{api: fake, logger: zap.NewNop()}

	records, err := fetcher.FetchAll(context.Background(), []string{"traces", "metrics"})
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "traces", records[0].PipelineType)
	require.Equal(t, "metrics", records[1].PipelineType)
}
