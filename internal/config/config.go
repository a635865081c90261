// Package config loads and validates deployment configuration.
//
// Configuration is a YAML file checked against an embedded CUE schema.
// The schema carries the cross-field rules the engine does not repeat,
// most importantly that the emission schedule sums to exactly 100% of
// max supply. Validation failures are reported as a list rather than
// fail-fast, so a bad file surfaces every problem at once.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// Config is a validated deployment configuration.
type Config struct {
	Name              string `yaml:"name" json:"name"`
	Symbol            string `yaml:"symbol" json:"symbol"`
	MaxSupply         uint64 `yaml:"max_supply" json:"max_supply"`
	InitialPercentBps uint64 `yaml:"initial_percent_bps" json:"initial_percent_bps"`
	FoundationAccount string `yaml:"foundation_account" json:"foundation_account"`
	Deployer          string `yaml:"deployer" json:"deployer"`
	Authority         string `yaml:"authority,omitempty" json:"authority,omitempty"`
	DBPath            string `yaml:"db_path" json:"db_path"`
}

// ValidationError is a single schema violation.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Load reads, parses, and validates a YAML configuration file.
// Returns the parsed config plus all schema violations; the config is
// usable only when the violation list is empty.
func Load(path string) (Config, []ValidationError, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates raw YAML configuration bytes.
func Parse(data []byte) (Config, []ValidationError, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, nil, fmt.Errorf("parse config: %w", err)
	}

	errs := Validate(cfg)
	if len(errs) == 0 && cfg.Authority == "" {
		cfg.Authority = cfg.Deployer
	}
	return cfg, errs, nil
}

// Validate checks a config against the embedded schema.
func Validate(cfg Config) []ValidationError {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		// Embedded schema is compile-time fixed; failing to compile it
		// is a bug, not a user error.
		panic(fmt.Sprintf("config: embedded schema invalid: %v", err))
	}

	val := schema.FillPath(cue.ParsePath("config"), ctx.Encode(cfg))
	if err := val.Err(); err != nil {
		return cueErrors(err)
	}

	checked := val.LookupPath(cue.ParsePath("config"))
	if err := checked.Validate(cue.Concrete(true)); err != nil {
		return cueErrors(err)
	}
	return nil
}

// cueErrors flattens a CUE error into field-tagged validation errors.
func cueErrors(err error) []ValidationError {
	var out []ValidationError
	for _, e := range cueerrors.Errors(err) {
		field := ""
		if path := e.Path(); len(path) > 0 {
			// Drop the leading "config" selector; users see YAML keys.
			if path[0] == "config" {
				path = path[1:]
			}
			for i, sel := range path {
				if i > 0 {
					field += "."
				}
				field += sel
			}
		}
		out = append(out, ValidationError{
			Field:   field,
			Message: e.Error(),
		})
	}
	if len(out) == 0 {
		out = append(out, ValidationError{Message: err.Error()})
	}
	return out
}
