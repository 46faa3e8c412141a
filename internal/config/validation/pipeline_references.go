package validation

import (
	"fmt"

	"github.com/telemetryfleet/collector-inspector/internal/config"
	"github.com/telemetryfleet/collector-inspector/internal/config/position"
)

// PipelineReferencesValidator checks that every component name wired into a
// pipeline is defined in the corresponding top-level section. Connector
// names count as both receivers and exporters, since a connector bridges
// the pipeline it drains into the pipeline it feeds.
type PipelineReferencesValidator struct{}

func (v *PipelineReferencesValidator) Name() string {
	return "pipeline-references"
}

func (v *PipelineReferencesValidator) Validate(raw string, cfg *config.Config) []ValidationError {
	var errs []ValidationError

	receivers := cfg.DefinedReceivers()
	processors := cfg.DefinedProcessors()
	exporters := cfg.DefinedExporters()

	for _, pipelineName := range cfg.Service.Pipelines.Names() {
		pipeline, _ := cfg.Service.Pipelines.Get(pipelineName)

		errs = append(errs, v.checkRole(raw, pipelineName, "receiver", "receivers", pipeline.Receivers, receivers)...)
		errs = append(errs, v.checkRole(raw, pipelineName, "processor", "processors", pipeline.Processors, processors)...)
		errs = append(errs, v.checkRole(raw, pipelineName, "exporter", "exporters", pipeline.Exporters, exporters)...)
	}

	return errs
}

func (v *PipelineReferencesValidator) checkRole(raw, pipelineName, role, roleKey string, referenced []string, defined map[string]struct{}) []ValidationError {
	var errs []ValidationError

	for _, name := range referenced {
		if _, ok := defined[name]; ok {
			continue
		}

		path := []string{"service", "pipelines", pipelineName, roleKey}
		span := spanOrFallback(position.FindValue(raw, path, name))

		errs = append(errs, ValidationError{
			Message:   fmt.Sprintf("pipeline %q references undefined %s %q", pipelineName, role, name),
			Severity:  SeverityError,
			Line:      span.Line,
			Column:    span.Column,
			EndLine:   span.EndLine,
			EndColumn: span.EndColumn,
			Path:      append(path, name),
		})
	}

	return errs
}
