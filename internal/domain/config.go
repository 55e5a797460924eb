package domain

import (
	"fmt"
	"strings"
)

// ValidLogLevels enumerates accepted log_level values.
var ValidLogLevels = []string{"", "debug", "info", "warn", "error"}

// ValidLogFormats enumerates accepted log_format values.
var ValidLogFormats = []string{"", "text", "json"}

// ProjectConfig holds workspace configuration loaded from .bambumate.yaml.
type ProjectConfig struct {
	ProfileDirs []string `yaml:"profile_dirs" json:"profile_dirs,omitempty"`
	RulesFile   string   `yaml:"rules_file"   json:"rules_file,omitempty"`
	Material    string   `yaml:"material"     json:"material,omitempty"`
	HistoryDB   string   `yaml:"history_db"   json:"history_db,omitempty"`
	LogLevel    string   `yaml:"log_level"    json:"log_level,omitempty"`
	LogFormat   string   `yaml:"log_format"   json:"log_format,omitempty"`
	MaxWorkers  int      `yaml:"max_workers"  json:"max_workers,omitempty"`
	HTTPAddr    string   `yaml:"http_addr"    json:"http_addr,omitempty"`
}

// Defaults applied by EffectiveWorkers and EffectiveHTTPAddr.
const (
	DefaultMaxWorkers = 4
	DefaultHTTPAddr   = "127.0.0.1:7420"
)

// DefaultConfig returns a zero-value config that changes nothing.
func DefaultConfig() ProjectConfig {
	return ProjectConfig{}
}

// Validate checks the config for invalid values and returns a descriptive error.
func (c ProjectConfig) Validate() error {
	if !contains(ValidLogLevels, strings.ToLower(c.LogLevel)) {
		return fmt.Errorf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel)
	}
	if !contains(ValidLogFormats, strings.ToLower(c.LogFormat)) {
		return fmt.Errorf("unknown log_format %q (valid: text, json)", c.LogFormat)
	}
	if c.MaxWorkers < 0 {
		return fmt.Errorf("max_workers must be >= 0 (got %d)", c.MaxWorkers)
	}
	for i, d := range c.ProfileDirs {
		if strings.TrimSpace(d) == "" {
			return fmt.Errorf("profile_dirs[%d] must not be empty", i)
		}
	}
	return nil
}

// EffectiveWorkers returns MaxWorkers or the default when unset.
func (c ProjectConfig) EffectiveWorkers() int {
	if c.MaxWorkers > 0 {
		return c.MaxWorkers
	}
	return DefaultMaxWorkers
}

// EffectiveHTTPAddr returns HTTPAddr or the default when unset.
func (c ProjectConfig) EffectiveHTTPAddr() string {
	if c.HTTPAddr != "" {
		return c.HTTPAddr
	}
	return DefaultHTTPAddr
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
