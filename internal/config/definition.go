// Package config loads form definitions: the fields of a form, their rules and
// the validator that interprets them, from YAML or JSON files.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/formwork"
	"github.com/aretw0/formwork/pkg/adapters/playground"
	"github.com/aretw0/formwork/pkg/adapters/process"
	"github.com/aretw0/formwork/pkg/domain"
	"github.com/aretw0/formwork/pkg/ports"
	"github.com/aretw0/formwork/pkg/schema"
)

// Validator kinds.
const (
	ValidatorSchema     = "schema"
	ValidatorPlayground = "playground"
	ValidatorProcess    = "process"
)

// Definition describes a form.
type Definition struct {
	Name string `json:"name" mapstructure:"name"`

	// Validator is ValidatorSchema (default), ValidatorPlayground or ValidatorProcess.
	Validator string `json:"validator" mapstructure:"validator"`

	// Process is the command run by ValidatorProcess, from BaseDir.
	Process *process.Command `json:"process,omitempty" mapstructure:"process"`
	BaseDir string           `json:"-" mapstructure:"-"`

	// Concurrency bounds the fields a schema validator evaluates at once.
	Concurrency int `json:"concurrency" mapstructure:"concurrency"`

	Fields map[string]domain.FieldOptions `json:"fields" mapstructure:"-"`

	// Rules are the named rules a schema definition may refer to.
	Rules *schema.Registry `json:"-" mapstructure:"-"`
}

// Option configures how a definition is parsed.
type Option func(*Definition)

// WithRules makes the rules of r available to schema definitions by name.
func WithRules(r *schema.Registry) Option {
	return func(d *Definition) {
		d.Rules = r
	}
}

// header is the part of a definition decoded in one go.
type header struct {
	Name        string                    `mapstructure:"name"`
	Validator   string                    `mapstructure:"validator"`
	Concurrency int                       `mapstructure:"concurrency"`
	Process     *process.Command          `mapstructure:"process"`
	Fields      map[string]map[string]any `mapstructure:"fields"`
}

// Load reads a definition file. Files ending in .json are parsed as JSON,
// anything else as YAML.
func Load(path string, opts ...Option) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition: %w", err)
	}
	format := "yaml"
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		format = "json"
	}
	def, err := Parse(data, format, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	def.BaseDir = filepath.Dir(path)
	return def, nil
}

// Parse decodes a definition in format ("yaml" or "json") and checks it.
func Parse(data []byte, format string, opts ...Option) (*Definition, error) {
	var raw map[string]any
	switch format {
	case "json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse definition: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse definition: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported definition format %q", format)
	}

	var h header
	if err := decode(raw, &h); err != nil {
		return nil, fmt.Errorf("invalid definition: %w", err)
	}

	def := &Definition{
		Name:        h.Name,
		Validator:   h.Validator,
		Concurrency: h.Concurrency,
		Process:     h.Process,
		Fields:      make(map[string]domain.FieldOptions, len(h.Fields)),
	}
	if def.Validator == "" {
		def.Validator = ValidatorSchema
	}
	for _, opt := range opts {
		opt(def)
	}
	for name, rawField := range h.Fields {
		var opts domain.FieldOptions
		if err := decode(rawField, &opts); err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		_, opts.HasInitialValue = rawField["initial_value"]
		def.Fields[name] = opts
	}

	if err := def.Check(); err != nil {
		return nil, err
	}
	return def, nil
}

func decode(input, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      out,
		ErrorUnused: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

// Check verifies the validator kind and, for the schema validator, that every
// rule can be interpreted.
func (d *Definition) Check() error {
	switch d.Validator {
	case ValidatorSchema:
		for _, name := range d.Names() {
			for _, rule := range rulesOf(d.Fields[name]) {
				if _, err := d.Rules.Resolve(name, rule); err != nil {
					return err
				}
			}
		}
	case ValidatorPlayground:
		for _, name := range d.Names() {
			for _, rule := range rulesOf(d.Fields[name]) {
				if _, ok := rule.(string); !ok {
					return &playground.InvalidRuleError{Field: name, Rule: rule, Cause: "not a tag string"}
				}
			}
		}
	case ValidatorProcess:
		if d.Process == nil || d.Process.Command == "" {
			return fmt.Errorf("validator %q needs a process command", d.Validator)
		}
	default:
		return fmt.Errorf("unknown validator %q", d.Validator)
	}
	return nil
}

func rulesOf(opts domain.FieldOptions) []domain.Rule {
	rules := slices.Clone(opts.Rules)
	for _, v := range opts.Validate {
		rules = append(rules, v.Rules...)
	}
	return rules
}

// Names returns the field names in registration order.
func (d *Definition) Names() []string {
	names := make([]string, 0, len(d.Fields))
	for name := range d.Fields {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// NewValidator builds the validator the definition asks for.
func (d *Definition) NewValidator() (ports.Validator, error) {
	switch d.Validator {
	case ValidatorPlayground:
		return playground.New()
	case ValidatorProcess:
		if d.Process == nil {
			return nil, fmt.Errorf("validator %q needs a process command", d.Validator)
		}
		return process.New(*d.Process, process.WithBaseDir(d.BaseDir))
	case ValidatorSchema, "":
		return schema.New(schema.WithConcurrency(d.Concurrency), schema.WithRegistry(d.Rules)), nil
	}
	return nil, fmt.Errorf("unknown validator %q", d.Validator)
}

// NewForm builds a form with every field of the definition registered.
// opts are applied after the definition's own options.
func (d *Definition) NewForm(ctx context.Context, opts ...formwork.Option) (*formwork.Form, error) {
	v, err := d.NewValidator()
	if err != nil {
		return nil, err
	}

	all := []formwork.Option{formwork.WithValidator(v)}
	if d.Name != "" {
		all = append(all, formwork.WithName(d.Name))
	}
	form, err := formwork.New(append(all, opts...)...)
	if err != nil {
		return nil, err
	}

	for _, name := range d.Names() {
		if _, err := form.RegisterField(ctx, name, d.Fields[name]); err != nil {
			return nil, fmt.Errorf("failed to register %q: %w", name, err)
		}
	}
	return form, nil
}
