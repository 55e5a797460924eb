package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bambumate/bambumate/internal/domain"
	"gopkg.in/yaml.v3"
)

// FileName is the project config file looked up in the project directory.
const FileName = ".bambumate.yaml"

// YAMLLoader implements domain.ConfigLoader by reading .bambumate.yaml.
type YAMLLoader struct{}

// New creates a YAMLLoader.
func New() *YAMLLoader { return &YAMLLoader{} }

// Load reads .bambumate.yaml from projectPath.
// Returns DefaultConfig if the file does not exist.
func (l *YAMLLoader) Load(projectPath string) (domain.ProjectConfig, error) {
	data, err := os.ReadFile(filepath.Join(projectPath, FileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.DefaultConfig(), nil
		}
		return domain.ProjectConfig{}, err
	}

	var cfg domain.ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.ProjectConfig{}, fmt.Errorf("parsing %s: %w", FileName, err)
	}

	if err := cfg.Validate(); err != nil {
		return domain.ProjectConfig{}, fmt.Errorf("invalid %s: %w", FileName, err)
	}

	return resolvePaths(projectPath, cfg), nil
}

// resolvePaths makes relative paths in cfg relative to the project
// directory rather than the process working directory.
func resolvePaths(projectPath string, cfg domain.ProjectConfig) domain.ProjectConfig {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(projectPath, p)
	}

	dirs := make([]string, len(cfg.ProfileDirs))
	for i, d := range cfg.ProfileDirs {
		dirs[i] = abs(d)
	}
	if len(dirs) > 0 {
		cfg.ProfileDirs = dirs
	}
	cfg.RulesFile = abs(cfg.RulesFile)
	if cfg.HistoryDB != ":memory:" {
		cfg.HistoryDB = abs(cfg.HistoryDB)
	}
	return cfg
}
