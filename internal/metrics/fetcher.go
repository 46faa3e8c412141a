package metrics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/prometheus/client_golang/api"
	promv1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
	"go.uber.org/zap"
)

const (
	clientTimeout = 10 * time.Second
	rateInterval  = "5m"
)

// signalUnits maps a pipeline type to the unit suffix used by the collector
// self-telemetry series, e.g. otelcol_receiver_accepted_spans.
var signalUnits = map[string]string{
	"traces":  "spans",
	"metrics": "metric_points",
	"logs":    "log_records",
}

// queryAPI is the slice of the Prometheus client the fetcher needs; tests
// substitute a fake.
type queryAPI interface {
	Query(ctx context.Context, query string, ts time.Time, opts ...promv1.Option) (model.Value, promv1.Warnings, error)
}

// Fetcher queries a Prometheus instance that scrapes the collector fleet
// and folds the per-component series into ComponentMetrics records.
type Fetcher struct {
	api    queryAPI
	logger *zap.Logger
}

type FetcherOption func(*Fetcher)

func WithFetcherLogger(logger *zap.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

func NewFetcher(address string, opts ...FetcherOption) (*Fetcher, error) {
	client, err := api.NewClient(api.Config{Address: address})
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus client: %w", err)
	}

	fetcher := &Fetcher{
		api:    promv1.NewAPI(client),
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(fetcher)
	}

	return fetcher, nil
}

// roleSeries describes which series feed which counter for one component
// role.
type roleSeries struct {
	role     string
	label    model.LabelName
	counters []counterSeries
}

type counterSeries struct {
	metric string
	assign func(*ComponentMetrics, float64)
}

func collectorSeries(unit string) []roleSeries {
	return []roleSeries{
		{
			role:  "receiver",
			label: "receiver",
			counters: []counterSeries{
				{metric: "otelcol_receiver_accepted_" + unit, assign: func(m *ComponentMetrics, v float64) {
					m.Accepted = ptr(v)
					m.Received = ptr(v)
				}},
				{metric: "otelcol_receiver_refused_" + unit, assign: func(m *ComponentMetrics, v float64) {
					m.Refused = ptr(v)
				}},
			},
		},
		{
			role:  "processor",
			label: "processor",
			counters: []counterSeries{
				{metric: "otelcol_processor_accepted_" + unit, assign: func(m *ComponentMetrics, v float64) {
					m.Accepted = ptr(v)
				}},
				{metric: "otelcol_processor_refused_" + unit, assign: func(m *ComponentMetrics, v float64) {
					m.Refused = ptr(v)
				}},
				{metric: "otelcol_processor_dropped_" + unit, assign: func(m *ComponentMetrics, v float64) {
					m.Dropped = ptr(v)
				}},
			},
		},
		{
			role:  "exporter",
			label: "exporter",
			counters: []counterSeries{
				{metric: "otelcol_exporter_sent_" + unit, assign: func(m *ComponentMetrics, v float64) {
					m.Sent = ptr(v)
				}},
				{metric: "otelcol_exporter_send_failed_" + unit, assign: func(m *ComponentMetrics, v float64) {
					m.SendFailed = ptr(v)
				}},
			},
		},
	}
}

// FetchPipeline returns one record per component instance observed for the
// given pipeline type, sorted by role and name.
func (f *Fetcher) FetchPipeline(ctx context.Context, pipelineType string) ([]ComponentMetrics, error) {
	unit, ok := signalUnits[pipelineType]
	if !ok {
		return nil, fmt.Errorf("unsupported pipeline type %q", pipelineType)
	}

	childCtx, cancel := context.WithTimeout(ctx, clientTimeout)
	defer cancel()

	byKey := make(map[Key]*ComponentMetrics)

	for _, series := range collectorSeries(unit) {
		for _, counter := range series.counters {
			query := fmt.Sprintf("sum by (%s) (rate(%s[%s]))", series.label, counter.metric, rateInterval)

			samples, err := f.query(childCtx, query)
			if err != nil {
				return nil, err
			}

			for _, sample := range samples {
				name := string(sample.Metric[series.label])
				if name == "" {
					continue
				}

				key := Key{ComponentType: series.role, ComponentName: name, PipelineType: pipelineType}

				record, ok := byKey[key]
				if !ok {
					record = &ComponentMetrics{
						ComponentType: series.role,
						ComponentName: name,
						PipelineType:  pipelineType,
					}
					byKey[key] = record
				}

				counter.assign(record, float64(sample.Value))
			}
		}
	}

	records := make([]ComponentMetrics, 0, len(byKey))
	for _, record := range byKey {
		derive(record)
		records = append(records, *record)
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].ComponentType != records[j].ComponentType {
			return records[i].ComponentType < records[j].ComponentType
		}

		return records[i].ComponentName < records[j].ComponentName
	})

	return records, nil
}

// FetchAll fetches records for several pipeline types in one pass.
func (f *Fetcher) FetchAll(ctx context.Context, pipelineTypes []string) ([]ComponentMetrics, error) {
	var all []ComponentMetrics

	for _, pipelineType := range pipelineTypes {
		records, err := f.FetchPipeline(ctx, pipelineType)
		if err != nil {
			return nil, err
		}

		all = append(all, records...)
	}

	return all, nil
}

func (f *Fetcher) query(ctx context.Context, query string) (model.Vector, error) {
	value, warnings, err := f.api.Query(ctx, query, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query Prometheus: %w", err)
	}

	if len(warnings) > 0 {
		f.logger.Warn("Prometheus query returned warnings",
			zap.String("query", query),
			zap.Strings("warnings", warnings))
	}

	if value == nil {
		return nil, nil
	}

	vector, ok := value.(model.Vector)
	if !ok {
		return nil, fmt.Errorf("unexpected Prometheus result type %q", value.Type())
	}

	return vector, nil
}

// derive fills the summary fields from whatever counters were observed.
func derive(record *ComponentMetrics) {
	record.Errors = ValueOr(record.Refused) + ValueOr(record.Dropped) + ValueOr(record.SendFailed)

	switch record.ComponentType {
	case "receiver":
		record.Throughput = ValueOr(record.Received)
	case "processor":
		record.Throughput = ValueOr(record.Accepted)
	case "exporter":
		record.Throughput = ValueOr(record.Sent)
	}

	if total := record.Throughput + record.Errors; total > 0 {
		record.ErrorRate = record.Errors / total
	}
}
