package domain

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrAnalysisNotFound is returned by HistoryStore.Get for unknown IDs.
	ErrAnalysisNotFound = errors.New("analysis not found")
	// ErrProfileNotFound is returned when a requested leaf profile is not
	// registered. Missing parents are reported by the resolver instead.
	ErrProfileNotFound = errors.New("profile not found")
)

// ConfigLoader loads workspace configuration.
type ConfigLoader interface {
	Load(projectPath string) (ProjectConfig, error)
}

// RulesLoader loads a rule table. An empty path selects the built-in table.
type RulesLoader interface {
	Load(path string) (RulesConfig, error)
}

// ProfileSource builds a registry from profile directories.
type ProfileSource interface {
	Load(dirs ...string) (MapRegistry, error)
}

// AnalysisEntry is one recorded analysis.
type AnalysisEntry struct {
	ID          string           `json:"id"`
	CreatedAt   time.Time        `json:"created_at"`
	ProfileName string           `json:"profile_name"`
	Material    string           `json:"material"`
	Defects     []DetectedDefect `json:"defects"`
	Result      EvaluationResult `json:"result"`
}

// HistoryStore persists analyses.
type HistoryStore interface {
	Save(ctx context.Context, entry AnalysisEntry) error
	List(ctx context.Context, limit int) ([]AnalysisEntry, error)
	Get(ctx context.Context, id string) (AnalysisEntry, error)
}
