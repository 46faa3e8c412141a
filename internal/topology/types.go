// Package topology derives a renderable directed graph from a collector
// configuration: one section per pipeline, component nodes laid out in
// receiver/processor/exporter columns, and edges following the data flow.
// Building is pure: identical inputs always produce an identical graph.
package topology

type Kind string

const (
	KindSection   Kind = "section"
	KindReceiver  Kind = "receiver"
	KindProcessor Kind = "processor"
	KindExporter  Kind = "exporter"

	// KindPlaceholder marks the single informational node returned when
	// there is no pipeline topology to draw.
	KindPlaceholder Kind = "placeholder"
)

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeData is the renderer-facing payload of a node. Numeric fields are
// always present in JSON, so consumers never special-case "no data yet";
// sizing fields are set on section nodes only.
type NodeData struct {
	Label   string `json:"label"`
	Message string `json:"message,omitempty"`

	Pipeline      string `json:"pipeline,omitempty"`
	PipelineType  string `json:"pipeline_type,omitempty"`
	ComponentType string `json:"component_type,omitempty"`
	ComponentName string `json:"component_name,omitempty"`

	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`

	Value     float64 `json:"value"`
	Errors    float64 `json:"errors"`
	ErrorRate float64 `json:"error_rate"`
}

type Node struct {
	ID       string   `json:"id"`
	Kind     Kind     `json:"kind"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
}

type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}
