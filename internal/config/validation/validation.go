// Package validation runs structural validators over a raw collector
// configuration and its parsed form. Validators are independent: each one
// reports its own findings against the original text, and a misbehaving
// validator never suppresses the findings of the others.
package validation

import (
	"go.uber.org/zap"

	"github.com/telemetryfleet/collector-inspector/internal/config"
	"github.com/telemetryfleet/collector-inspector/internal/config/position"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ValidationError is a single finding, positioned against the raw text so
// an editor-style consumer can underline the offending span directly.
type ValidationError struct {
	Message   string   `json:"message"`
	Severity  Severity `json:"severity"`
	Line      int      `json:"line"`
	Column    int      `json:"column"`
	EndLine   int      `json:"endLine,omitempty"`
	EndColumn int      `json:"endColumn,omitempty"`
	Path      []string `json:"path,omitempty"`
}

type Result struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors"`
}

type Validator interface {
	Validate(raw string, cfg *config.Config) []ValidationError
}

// Defaults returns the standard validator set: pipeline component
// references, service extension references, and per-component structure.
func Defaults() []Validator {
	return []Validator{
		&PipelineReferencesValidator{},
		&ExtensionReferencesValidator{},
		&ComponentStructureValidator{},
	}
}

type Runner struct {
	validators []Validator
	logger     *zap.Logger
}

type RunnerOption func(*Runner)

func WithValidators(validators ...Validator) RunnerOption {
	return func(r *Runner) {
		r.validators = validators
	}
}

func WithLogger(logger *zap.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

func NewRunner(opts ...RunnerOption) *Runner {
	runner := &Runner{
		validators: Defaults(),
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(runner)
	}

	return runner
}

// Run invokes every validator, merges the findings, drops duplicates by
// (message, line, column) identity keeping the first occurrence, and
// declares the document valid iff no error-severity finding survives.
func (r *Runner) Run(raw string, cfg *config.Config) Result {
	var all []ValidationError

	for _, validator := range r.validators {
		all = append(all, r.runOne(validator, raw, cfg)...)
	}

	all = dedupe(all)

	return Result{
		Valid:  !hasErrorSeverity(all),
		Errors: all,
	}
}

// Validate runs the default validator set without logging.
func Validate(raw string, cfg *config.Config) Result {
	return NewRunner().Run(raw, cfg)
}

// runOne isolates a single validator: a panic is logged and swallowed so
// the remaining validators still run.
func (r *Runner) runOne(validator Validator, raw string, cfg *config.Config) (errs []ValidationError) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("validator panicked, skipping its findings",
				zap.String("validator", validatorName(validator)),
				zap.Any("panic", rec))

			errs = nil
		}
	}()

	return validator.Validate(raw, cfg)
}

func dedupe(errs []ValidationError) []ValidationError {
	type identity struct {
		message string
		line    int
		column  int
	}

	seen := make(map[identity]struct{}, len(errs))
	deduped := make([]ValidationError, 0, len(errs))

	for _, err := range errs {
		id := identity{message: err.Message, line: err.Line, column: err.Column}
		if _, ok := seen[id]; ok {
			continue
		}

		seen[id] = struct{}{}
		deduped = append(deduped, err)
	}

	return deduped
}

func hasErrorSeverity(errs []ValidationError) bool {
	for _, err := range errs {
		if err.Severity == SeverityError {
			return true
		}
	}

	return false
}

func validatorName(v Validator) string {
	if named, ok := v.(interface{ Name() string }); ok {
		return named.Name()
	}

	return "unknown"
}

// spanOrFallback degrades an unresolved position to line 1, column 1 so
// every finding stays navigable.
func spanOrFallback(span *position.Span) position.Span {
	if span == nil {
		return position.Span{Line: 1, Column: 1}
	}

	return *span
}
