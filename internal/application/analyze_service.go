package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bambumate/bambumate/internal/domain"
	"github.com/bambumate/bambumate/internal/domain/recommend"
	"github.com/bambumate/bambumate/internal/logging"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// AnalyzeRequest describes one analysis. Exactly one of ProfileName and
// Profile must be set. Material overrides the material read from the
// profile when non-empty.
type AnalyzeRequest struct {
	ProfileName string                  `json:"profile_name,omitempty"`
	Profile     *domain.Profile         `json:"profile,omitempty"`
	Defects     []domain.DetectedDefect `json:"defects"`
	Material    string                  `json:"material,omitempty"`
	Record      bool                    `json:"record,omitempty"`
}

// AnalysisReport is the outcome of Analyze.
type AnalysisReport struct {
	ID          string                    `json:"id,omitempty"`
	ProfileName string                    `json:"profile_name"`
	Material    domain.MaterialType       `json:"material"`
	Result      domain.EvaluationResult   `json:"result"`
	Changes     []recommend.AppliedChange `json:"changes"`
	Tuned       *domain.Profile           `json:"-"`
}

// TunedJSON encodes the tuned profile.
func (r *AnalysisReport) TunedJSON() (json.RawMessage, error) {
	if r.Tuned == nil {
		return json.RawMessage("null"), nil
	}
	data, err := r.Tuned.Encode()
	if err != nil {
		return nil, fmt.Errorf("encoding tuned profile: %w", err)
	}
	return data, nil
}

// AnalyzeService resolves a profile, evaluates defects against it and
// produces a tuned copy.
type AnalyzeService struct {
	engine   *recommend.Engine
	resolver *ResolveService
	history  domain.HistoryStore
	workers  int
	logger   *slog.Logger
	now      func() time.Time
}

// NewAnalyzeService wires the analysis pipeline. history may be nil, in
// which case nothing is recorded.
func NewAnalyzeService(
	engine *recommend.Engine,
	resolver *ResolveService,
	history domain.HistoryStore,
	logger *slog.Logger,
) *AnalyzeService {
	return &AnalyzeService{
		engine:   engine,
		resolver: resolver,
		history:  history,
		workers:  resolver.workers,
		logger:   logging.OrDiscard(logger),
		now:      time.Now,
	}
}

// Engine exposes the rule engine for read-only queries.
func (s *AnalyzeService) Engine() *recommend.Engine { return s.engine }

// Analyze runs the pipeline: resolve → read current values → classify
// material → evaluate → apply → record.
func (s *AnalyzeService) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalysisReport, error) {
	resolved, err := s.resolve(req)
	if err != nil {
		return nil, err
	}

	material := domain.MaterialFromProfile(resolved)
	if req.Material != "" {
		material = domain.ClassifyMaterial(req.Material)
	}

	for _, d := range req.Defects {
		if len(s.engine.RulesFor(d.Type)) == 0 {
			s.logger.Warn("no rules for defect type", "defect", d.Type)
		}
	}

	current := recommend.CurrentValues(resolved, s.engine.Parameters())
	result := s.engine.Evaluate(req.Defects, current, material)
	for _, w := range result.Warnings {
		s.logger.Warn("parameter missing from profile, evaluated from 0",
			"parameter", w.Parameter,
			"defect", w.Defect,
			"profile", resolved.Name(),
		)
	}

	tuned, changes := recommend.Apply(resolved, result.Recommendations, material)
	report := &AnalysisReport{
		ProfileName: resolved.Name(),
		Material:    material,
		Result:      result,
		Changes:     changes,
		Tuned:       tuned,
	}
	if report.Changes == nil {
		report.Changes = []recommend.AppliedChange{}
	}

	s.logger.Info("analysis complete",
		"profile", report.ProfileName,
		"material", material.String(),
		"defects", len(req.Defects),
		"recommendations", len(result.Recommendations),
		"conflicts", len(result.Conflicts),
	)

	if req.Record && s.history != nil {
		report.ID = uuid.New().String()
		entry := domain.AnalysisEntry{
			ID:          report.ID,
			CreatedAt:   s.now(),
			ProfileName: report.ProfileName,
			Material:    material.String(),
			Defects:     req.Defects,
			Result:      result,
		}
		if err := s.history.Save(ctx, entry); err != nil {
			return nil, fmt.Errorf("recording analysis: %w", err)
		}
	}
	return report, nil
}

// AnalyzeAll runs several analyses concurrently. Reports are in input order.
func (s *AnalyzeService) AnalyzeAll(ctx context.Context, reqs []AnalyzeRequest) ([]*AnalysisReport, error) {
	reports := make([]*AnalysisReport, len(reqs))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, req := range reqs {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			r, err := s.Analyze(gCtx, req)
			if err != nil {
				return fmt.Errorf("analysis %d: %w", i, err)
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// History lists recorded analyses, newest first.
func (s *AnalyzeService) History(ctx context.Context, limit int) ([]domain.AnalysisEntry, error) {
	if s.history == nil {
		return nil, errors.New("analysis history is not configured")
	}
	entries, err := s.history.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	return entries, nil
}

// HistoryEntry returns one recorded analysis.
func (s *AnalyzeService) HistoryEntry(ctx context.Context, id string) (domain.AnalysisEntry, error) {
	if s.history == nil {
		return domain.AnalysisEntry{}, errors.New("analysis history is not configured")
	}
	e, err := s.history.Get(ctx, id)
	if err != nil {
		return domain.AnalysisEntry{}, fmt.Errorf("loading analysis %s: %w", id, err)
	}
	return e, nil
}

func (s *AnalyzeService) resolve(req AnalyzeRequest) (*domain.Profile, error) {
	switch {
	case req.Profile != nil && req.ProfileName != "":
		return nil, errors.New("set either a profile name or an inline profile, not both")
	case req.Profile != nil:
		return s.resolver.ResolveProfile(req.Profile)
	case req.ProfileName != "":
		return s.resolver.Resolve(req.ProfileName)
	default:
		return nil, errors.New("no profile given")
	}
}
