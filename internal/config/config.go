package config

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the parsed form of a collector configuration document. Component
// sections map instance names to arbitrary configuration values; a name with
// no value parses to a nil entry.
type Config struct {
	Receivers  ComponentMap `yaml:"receivers"`
	Processors ComponentMap `yaml:"processors"`
	Exporters  ComponentMap `yaml:"exporters"`
	Connectors ComponentMap `yaml:"connectors"`
	Extensions ComponentMap `yaml:"extensions"`
	Service    Service      `yaml:"service"`
}

type ComponentMap map[string]any

type Service struct {
	Pipelines  Pipelines `yaml:"pipelines"`
	Extensions []string  `yaml:"extensions"`
}

type Pipeline struct {
	Receivers  []string `yaml:"receivers"`
	Processors []string `yaml:"processors"`
	Exporters  []string `yaml:"exporters"`
}

// Pipelines is a name-to-pipeline mapping that preserves document order,
// which a plain map would lose.
type Pipelines struct {
	names   []string
	byName  map[string]Pipeline
	defined bool
}

func (p *Pipelines) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil
	}

	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("service.pipelines: expected a mapping, got %s", nodeKind(node))
	}

	p.defined = true
	p.byName = make(map[string]Pipeline, len(node.Content)/2)

	for i := 0; i+1 < len(node.Content); i += 2 {
		var name string
		if err := node.Content[i].Decode(&name); err != nil {
			return fmt.Errorf("service.pipelines: %w", err)
		}

		if _, exists := p.byName[name]; exists {
			return fmt.Errorf("service.pipelines: pipeline %q is already defined", name)
		}

		var pipeline Pipeline
		if err := node.Content[i+1].Decode(&pipeline); err != nil {
			return fmt.Errorf("pipeline %q: %w", name, err)
		}

		p.names = append(p.names, name)
		p.byName[name] = pipeline
	}

	return nil
}

// Defined reports whether the service.pipelines key was present at all,
// distinguishing a missing key from an empty mapping.
func (p Pipelines) Defined() bool {
	return p.defined
}

func (p Pipelines) Len() int {
	return len(p.names)
}

// Names returns the pipeline names in document order.
func (p Pipelines) Names() []string {
	names := make([]string, len(p.names))
	copy(names, p.names)
	return names
}

func (p Pipelines) Get(name string) (Pipeline, bool) {
	pipeline, ok := p.byName[name]
	return pipeline, ok
}

var ErrEmptyDocument = errors.New("configuration document is empty")

// Parse decodes the raw configuration text. An all-whitespace document is
// reported as ErrEmptyDocument rather than a parse failure.
func Parse(raw string) (*Config, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyDocument
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(raw), &cfg); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}

	return &cfg, nil
}

// DefinedReceivers returns the set of names usable as a pipeline receiver.
// Connector names are included since a connector acts as the source of the
// pipeline it feeds.
func (c *Config) DefinedReceivers() map[string]struct{} {
	return union(c.Receivers, c.Connectors)
}

// DefinedExporters returns the set of names usable as a pipeline exporter,
// with connector names included as valid sinks.
func (c *Config) DefinedExporters() map[string]struct{} {
	return union(c.Exporters, c.Connectors)
}

func (c *Config) DefinedProcessors() map[string]struct{} {
	return union(c.Processors)
}

func (c *Config) DefinedExtensions() map[string]struct{} {
	return union(c.Extensions)
}

func union(maps ...ComponentMap) map[string]struct{} {
	set := make(map[string]struct{})
	for _, m := range maps {
		for name := range m {
			set[name] = struct{}{}
		}
	}

	return set
}

// PipelineTypes returns the distinct signal types declared by the
// document, in document order.
func (c *Config) PipelineTypes() []string {
	seen := make(map[string]struct{})

	var types []string

	for _, name := range c.Service.Pipelines.Names() {
		pipelineType := PipelineType(name)
		if _, ok := seen[pipelineType]; ok {
			continue
		}

		seen[pipelineType] = struct{}{}
		types = append(types, pipelineType)
	}

	return types
}

// PipelineType extracts the telemetry signal from a pipeline name: a
// pipeline named "traces/backend" carries traces.
func PipelineType(pipelineName string) string {
	if idx := strings.Index(pipelineName, "/"); idx >= 0 {
		return pipelineName[:idx]
	}

	return pipelineName
}

func nodeKind(node *yaml.Node) string {
	switch node.Kind {
	case yaml.ScalarNode:
		return "a scalar"
	case yaml.SequenceNode:
		return "a sequence"
	case yaml.MappingNode:
		return "a mapping"
	case yaml.AliasNode:
		return "an alias"
	case yaml.DocumentNode:
		return "a document"
	}

	return "an unknown node"
}
