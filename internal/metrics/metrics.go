// Package metrics carries the per-component throughput records that the
// topology builder attaches to graph nodes, and a Prometheus-backed fetcher
// that produces them from the standard collector self-telemetry series.
package metrics

// ComponentMetrics is one observation for a component instance within one
// telemetry signal. Counter fields are pointers so that "not observed" is
// distinguishable from an observed zero.
type ComponentMetrics struct {
	ComponentType string `json:"component_type"`
	ComponentName string `json:"component_name"`
	PipelineType  string `json:"pipeline_type"`

	Received   *float64 `json:"received,omitempty"`
	Accepted   *float64 `json:"accepted,omitempty"`
	Refused    *float64 `json:"refused,omitempty"`
	Dropped    *float64 `json:"dropped,omitempty"`
	Sent       *float64 `json:"sent,omitempty"`
	SendFailed *float64 `json:"send_failed,omitempty"`

	Errors     float64 `json:"errors"`
	Throughput float64 `json:"throughput"`
	ErrorRate  float64 `json:"error_rate"`
}

// Key identifies a record: there is at most one per component instance,
// role and signal.
type Key struct {
	ComponentType string
	ComponentName string
	PipelineType  string
}

func (m ComponentMetrics) Key() Key {
	return Key{
		ComponentType: m.ComponentType,
		ComponentName: m.ComponentName,
		PipelineType:  m.PipelineType,
	}
}

// Dedupe collapses duplicate records into a slice with one entry per key. A
// later duplicate replaces the earlier one in place, so the result keeps the
// input's order and summing over it is deterministic.
func Dedupe(records []ComponentMetrics) []ComponentMetrics {
	position := make(map[Key]int, len(records))
	deduped := make([]ComponentMetrics, 0, len(records))

	for _, record := range records {
		if i, ok := position[record.Key()]; ok {
			deduped[i] = record
			continue
		}

		position[record.Key()] = len(deduped)
		deduped = append(deduped, record)
	}

	return deduped
}

// Index builds a lookup table over records. A later duplicate wins, matching
// a refreshed scrape replacing a stale one.
func Index(records []ComponentMetrics) map[Key]ComponentMetrics {
	indexed := make(map[Key]ComponentMetrics, len(records))
	for _, record := range records {
		indexed[record.Key()] = record
	}

	return indexed
}

// ValueOr dereferences an optional counter, treating absence as zero.
func ValueOr(value *float64) float64 {
	if value == nil {
		return 0
	}

	return *value
}

func ptr(value float64) *float64 {
	return &value
}
