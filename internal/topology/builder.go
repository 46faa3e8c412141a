package topology

import (
	"errors"
	"fmt"

	"github.com/telemetryfleet/collector-inspector/internal/config"
	"github.com/telemetryfleet/collector-inspector/internal/metrics"
)

// Build derives the pipeline topology graph for a raw configuration. It
// never fails: a document with no drawable topology yields a single
// placeholder node describing why, and no edges.
func Build(raw string, records []metrics.ComponentMetrics) Graph {
	cfg, err := config.Parse(raw)

	switch {
	case errors.Is(err, config.ErrEmptyDocument):
		return placeholderGraph("no-config", "no configuration")
	case err != nil:
		return placeholderGraph("parse-error", fmt.Sprintf("parse error: %s", err))
	case !cfg.Service.Pipelines.Defined():
		return placeholderGraph("no-service", "no service configuration")
	case cfg.Service.Pipelines.Len() == 0:
		return placeholderGraph("no-pipelines", "no pipelines configured")
	}

	deduped := metrics.Dedupe(records)
	indexed := metrics.Index(deduped)

	graph := Graph{Nodes: []Node{}, Edges: []Edge{}}

	for i, pipelineName := range cfg.Service.Pipelines.Names() {
		pipeline, _ := cfg.Service.Pipelines.Get(pipelineName)
		addPipeline(&graph, pipelineName, pipeline, sectionTop(i), deduped, indexed)
	}

	return graph
}

func placeholderGraph(id, message string) Graph {
	return Graph{
		Nodes: []Node{{
			ID:   id,
			Kind: KindPlaceholder,
			Data: NodeData{Label: message, Message: message},
		}},
		Edges: []Edge{},
	}
}

// addPipeline appends the section node, the component nodes and the edges
// of one pipeline. The component lists come strictly from the pipeline's
// own declaration: a component defined globally but not named here is not
// part of this pipeline's flow.
func addPipeline(graph *Graph, pipelineName string, pipeline config.Pipeline, top float64, records []metrics.ComponentMetrics, indexed map[metrics.Key]metrics.ComponentMetrics) {
	pipelineType := config.PipelineType(pipelineName)

	received, errorSum := aggregateSection(records, pipelineType)

	graph.Nodes = append(graph.Nodes, Node{
		ID:       "section-" + pipelineName,
		Kind:     KindSection,
		Position: Position{X: 0, Y: top},
		Data: NodeData{
			Label:        pipelineName,
			Pipeline:     pipelineName,
			PipelineType: pipelineType,
			Width:        sectionWidth,
			Height:       sectionHeight,
			Value:        received,
			Errors:       errorSum,
		},
	})

	receiverIDs := addColumn(graph, pipelineName, pipelineType, KindReceiver, receiverColumnX, top, pipeline.Receivers, indexed)
	processorIDs := addColumn(graph, pipelineName, pipelineType, KindProcessor, processorColumnX, top, pipeline.Processors, indexed)
	exporterIDs := addColumn(graph, pipelineName, pipelineType, KindExporter, exporterColumnX, top, pipeline.Exporters, indexed)

	connect(graph, receiverIDs, processorIDs, exporterIDs)
}

func addColumn(graph *Graph, pipelineName, pipelineType string, kind Kind, x, top float64, names []string, indexed map[metrics.Key]metrics.ComponentMetrics) []string {
	ys := columnYs(top, len(names))
	ids := make([]string, 0, len(names))

	for i, name := range names {
		id := nodeID(pipelineName, kind, name)
		ids = append(ids, id)

		record := indexed[metrics.Key{
			ComponentType: string(kind),
			ComponentName: name,
			PipelineType:  pipelineType,
		}]

		graph.Nodes = append(graph.Nodes, Node{
			ID:       id,
			Kind:     kind,
			Position: Position{X: x, Y: ys[i]},
			Data: NodeData{
				Label:         name,
				Pipeline:      pipelineName,
				PipelineType:  pipelineType,
				ComponentType: string(kind),
				ComponentName: name,
				Value:         displayValue(kind, record),
				Errors:        record.Errors,
				ErrorRate:     record.ErrorRate,
			},
		})
	}

	return ids
}

// connect wires fan-in into the first processor, the processor chain, and
// fan-out from the last processor. Without processors every receiver
// connects directly to every exporter.
func connect(graph *Graph, receiverIDs, processorIDs, exporterIDs []string) {
	if len(processorIDs) == 0 {
		for _, receiver := range receiverIDs {
			for _, exporter := range exporterIDs {
				addEdge(graph, receiver, exporter)
			}
		}

		return
	}

	for _, receiver := range receiverIDs {
		addEdge(graph, receiver, processorIDs[0])
	}

	for i := 0; i+1 < len(processorIDs); i++ {
		addEdge(graph, processorIDs[i], processorIDs[i+1])
	}

	for _, exporter := range exporterIDs {
		addEdge(graph, processorIDs[len(processorIDs)-1], exporter)
	}
}

func addEdge(graph *Graph, source, target string) {
	graph.Edges = append(graph.Edges, Edge{
		ID:     source + "--" + target,
		Source: source,
		Target: target,
	})
}

func nodeID(pipelineName string, kind Kind, componentName string) string {
	return fmt.Sprintf("%s-%s-%s", pipelineName, kind, componentName)
}

// aggregateSection sums received and errors over all records of the
// pipeline's signal. It walks the deduplicated slice in input order so the
// floating-point sum is the same on every call.
func aggregateSection(records []metrics.ComponentMetrics, pipelineType string) (received, errorSum float64) {
	for _, record := range records {
		if record.PipelineType != pipelineType {
			continue
		}

		received += metrics.ValueOr(record.Received)
		errorSum += record.Errors
	}

	return received, errorSum
}

// displayValue picks the headline figure per role: receivers show what
// came in, processors what they passed on, exporters what went out.
func displayValue(kind Kind, record metrics.ComponentMetrics) float64 {
	switch kind {
	case KindReceiver:
		if record.Received != nil {
			return *record.Received
		}

		return metrics.ValueOr(record.Accepted)
	case KindProcessor:
		if record.Accepted != nil {
			return *record.Accepted
		}

		return metrics.ValueOr(record.Received)
	case KindExporter:
		return metrics.ValueOr(record.Sent)
	}

	return 0
}
