package validation

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/telemetryfleet/collector-inspector/internal/config"
	"github.com/telemetryfleet/collector-inspector/internal/config/position"
)

var componentNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// ComponentStructureValidator flags component instances whose name or
// configuration value has the wrong shape. A null, sequence or scalar value
// is an error since the component cannot be constructed from it; a bad name
// or an explicitly empty mapping is merely suspicious and reported as a
// warning.
type ComponentStructureValidator struct{}

func (v *ComponentStructureValidator) Name() string {
	return "component-structure"
}

func (v *ComponentStructureValidator) Validate(raw string, cfg *config.Config) []ValidationError {
	sections := []struct {
		key        string
		components config.ComponentMap
	}{
		{key: "receivers", components: cfg.Receivers},
		{key: "processors", components: cfg.Processors},
		{key: "exporters", components: cfg.Exporters},
		{key: "connectors", components: cfg.Connectors},
		{key: "extensions", components: cfg.Extensions},
	}

	var errs []ValidationError

	for _, section := range sections {
		names := make([]string, 0, len(section.components))
		for name := range section.components {
			names = append(names, name)
		}

		sort.Strings(names)

		for _, name := range names {
			errs = append(errs, v.checkComponent(raw, section.key, name, section.components[name])...)
		}
	}

	return errs
}

func (v *ComponentStructureValidator) checkComponent(raw, section, name string, value any) []ValidationError {
	var errs []ValidationError

	report := func(severity Severity, message string) {
		span := spanOrFallback(position.FindKey(raw, []string{section, name}))

		errs = append(errs, ValidationError{
			Message:  message,
			Severity: severity,
			Line:     span.Line,
			Column:   span.Column,
			Path:     []string{section, name},
		})
	}

	if !componentNamePattern.MatchString(name) {
		report(SeverityWarning, fmt.Sprintf("component name %q in %s should start with a letter or underscore, followed by letters, digits, underscores or hyphens", name, section))
	}

	switch val := value.(type) {
	case nil:
		report(SeverityError, fmt.Sprintf("component %q in %s has a null configuration", name, section))
	case map[string]any:
		if len(val) == 0 {
			report(SeverityWarning, fmt.Sprintf("component %q in %s has an empty configuration block", name, section))
		}
	case config.ComponentMap:
		if len(val) == 0 {
			report(SeverityWarning, fmt.Sprintf("component %q in %s has an empty configuration block", name, section))
		}
	case []any:
		report(SeverityError, fmt.Sprintf("component %q in %s has a sequence configuration, expected a mapping", name, section))
	default:
		report(SeverityError, fmt.Sprintf("component %q in %s has a scalar configuration, expected a mapping", name, section))
	}

	return errs
}
