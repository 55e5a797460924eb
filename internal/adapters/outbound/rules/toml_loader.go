// Package rules loads defect rule tables from TOML.
package rules

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bambumate/bambumate/internal/domain"
	"github.com/pelletier/go-toml/v2"
)

//go:embed default_rules.toml
var defaultRules []byte

// TOMLLoader implements domain.RulesLoader.
type TOMLLoader struct{}

// New creates a TOMLLoader.
func New() *TOMLLoader { return &TOMLLoader{} }

// Load reads the rule table at path. An empty path returns the built-in
// table. A user file replaces the built-in table entirely.
func (l *TOMLLoader) Load(path string) (domain.RulesConfig, error) {
	if path == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.RulesConfig{}, fmt.Errorf("rules file %s not found", path)
		}
		return domain.RulesConfig{}, fmt.Errorf("opening rules file: %w", err)
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return domain.RulesConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the built-in rule table.
func Default() (domain.RulesConfig, error) {
	cfg, err := Decode(bytes.NewReader(defaultRules))
	if err != nil {
		return domain.RulesConfig{}, fmt.Errorf("built-in rules: %w", err)
	}
	return cfg, nil
}

// DefaultSource returns the TOML text of the built-in rule table.
func DefaultSource() []byte {
	out := make([]byte, len(defaultRules))
	copy(out, defaultRules)
	return out
}

// Decode parses and validates a rule table. Unknown keys are rejected so
// typos in parameter tables surface instead of silently dropping a rule.
func Decode(r io.Reader) (domain.RulesConfig, error) {
	var cfg domain.RulesConfig
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return domain.RulesConfig{}, fmt.Errorf("parsing rules: %s", strict.String())
		}
		return domain.RulesConfig{}, fmt.Errorf("parsing rules: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return domain.RulesConfig{}, fmt.Errorf("invalid rules: %w", err)
	}
	return cfg, nil
}
