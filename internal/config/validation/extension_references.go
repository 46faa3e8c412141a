package validation

import (
	"fmt"

	"github.com/telemetryfleet/collector-inspector/internal/config"
	"github.com/telemetryfleet/collector-inspector/internal/config/position"
)

// ExtensionReferencesValidator checks that every name listed under
// service.extensions is defined in the top-level extensions section.
type ExtensionReferencesValidator struct{}

func (v *ExtensionReferencesValidator) Name() string {
	return "extension-references"
}

func (v *ExtensionReferencesValidator) Validate(raw string, cfg *config.Config) []ValidationError {
	var errs []ValidationError

	defined := cfg.DefinedExtensions()
	path := []string{"service", "extensions"}

	for _, name := range cfg.Service.Extensions {
		if _, ok := defined[name]; ok {
			continue
		}

		span := spanOrFallback(position.FindValue(raw, path, name))

		errs = append(errs, ValidationError{
			Message:   fmt.Sprintf("service references undefined extension %q", name),
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
