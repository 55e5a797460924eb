package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bambumate/bambumate/internal/domain"
	"github.com/bambumate/bambumate/internal/domain/inherit"
	"github.com/bambumate/bambumate/internal/logging"
	"golang.org/x/sync/errgroup"
)

// ResolveService flattens profiles against a registry.
type ResolveService struct {
	registry domain.ProfileRegistry
	workers  int
	logger   *slog.Logger
}

func NewResolveService(registry domain.ProfileRegistry, workers int, logger *slog.Logger) *ResolveService {
	if workers <= 0 {
		workers = domain.DefaultMaxWorkers
	}
	return &ResolveService{
		registry: registry,
		workers:  workers,
		logger:   logging.OrDiscard(logger),
	}
}

// Resolve looks up name and flattens its inheritance chain.
func (s *ResolveService) Resolve(name string) (*domain.Profile, error) {
	p, ok := s.registry.GetByName(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrProfileNotFound, name)
	}
	return s.ResolveProfile(p)
}

// ResolveProfile flattens p, which need not be registered itself.
func (s *ResolveService) ResolveProfile(p *domain.Profile) (*domain.Profile, error) {
	resolved, err := inherit.Resolve(p, s.registry)
	if err != nil {
		return nil, fmt.Errorf("resolving %q: %w", p.Name(), err)
	}
	s.logger.Debug("resolved profile",
		"name", p.Name(),
		"inherits", p.Inherits(),
		"fields", resolved.Len(),
	)
	return resolved, nil
}

// Chain returns the profile names from name up to its root.
func (s *ResolveService) Chain(name string) ([]string, error) {
	p, ok := s.registry.GetByName(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrProfileNotFound, name)
	}
	chain, err := inherit.Chain(p, s.registry)
	if err != nil {
		return nil, fmt.Errorf("resolving %q: %w", name, err)
	}
	names := make([]string, len(chain))
	for i, c := range chain {
		names[i] = c.Name()
	}
	return names, nil
}

// ResolveAll resolves names concurrently. Results are in input order; the
// first failure cancels the remaining work.
func (s *ResolveService) ResolveAll(ctx context.Context, names []string) ([]*domain.Profile, error) {
	results := make([]*domain.Profile, len(names))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, name := range names {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			p, err := s.Resolve(name)
			if err != nil {
				return err
			}
			results[i] = p
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
