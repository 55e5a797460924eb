package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/bambumate/bambumate/internal/adapters/outbound/config"
	"github.com/bambumate/bambumate/internal/adapters/outbound/history"
	"github.com/bambumate/bambumate/internal/adapters/outbound/registry"
	"github.com/bambumate/bambumate/internal/adapters/outbound/rules"
	"github.com/bambumate/bambumate/internal/application"
	"github.com/bambumate/bambumate/internal/domain"
	"github.com/bambumate/bambumate/internal/domain/recommend"
	"github.com/bambumate/bambumate/internal/logging"
	"github.com/spf13/cobra"
)

// workspace is the project configuration plus the logger every command
// shares.
type workspace struct {
	root   string
	cfg    domain.ProjectConfig
	logger *slog.Logger
}

func loadWorkspace(cmd *cobra.Command) (*workspace, error) {
	project := "."
	if f := cmd.Flag("project"); f != nil && f.Value.String() != "" {
		project = f.Value.String()
	}
	root, err := filepath.Abs(project)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	cfg, err := config.New().Load(root)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	level := cfg.LogLevel
	if f := cmd.Flag("log-level"); f != nil && f.Value.String() != "" {
		level = f.Value.String()
	}
	logger, err := logging.New(logging.Options{
		Level:  level,
		Format: cfg.LogFormat,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, err
	}

	return &workspace{root: root, cfg: cfg, logger: logger}, nil
}

// registry loads the configured profile directories followed by extra.
func (w *workspace) registry(extra []string) (domain.MapRegistry, error) {
	dirs := slices.Clone(w.cfg.ProfileDirs)
	dirs = append(dirs, extra...)
	if len(dirs) == 0 {
		w.logger.Debug("no profile directories configured")
		return domain.NewMapRegistry(), nil
	}
	reg, err := registry.New().Load(dirs...)
	if err != nil {
		return nil, fmt.Errorf("loading profiles: %w", err)
	}
	w.logger.Debug("loaded profiles", "dirs", dirs, "count", len(reg))
	return reg, nil
}

// rules loads path, falling back to the configured rules file and then the
// built-in table.
func (w *workspace) rules(path string) (domain.RulesConfig, error) {
	if path == "" {
		path = w.cfg.RulesFile
	}
	cfg, err := rules.New().Load(path)
	if err != nil {
		return domain.RulesConfig{}, fmt.Errorf("loading rules: %w", err)
	}
	return cfg, nil
}

func (w *workspace) historyPath() string {
	if w.cfg.HistoryDB != "" {
		return w.cfg.HistoryDB
	}
	return filepath.Join(w.root, history.DefaultPath)
}

func (w *workspace) openHistory() (*history.Store, error) {
	store, err := history.Open(w.historyPath())
	if err != nil {
		return nil, fmt.Errorf("opening history: %w", err)
	}
	return store, nil
}

// serviceOptions select what the services are built from.
type serviceOptions struct {
	dirs      []string
	rulesPath string
	history   domain.HistoryStore
}

func (w *workspace) services(opts serviceOptions) (*application.ResolveService, *application.AnalyzeService, error) {
	reg, err := w.registry(opts.dirs)
	if err != nil {
		return nil, nil, err
	}
	rc, err := w.rules(opts.rulesPath)
	if err != nil {
		return nil, nil, err
	}
	resolver := application.NewResolveService(reg, w.cfg.EffectiveWorkers(), w.logger)
	analyzer := application.NewAnalyzeService(recommend.NewEngine(rc), resolver, opts.history, w.logger)
	return resolver, analyzer, nil
}
