package application_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/bambumate/bambumate/internal/adapters/outbound/history"
	"github.com/bambumate/bambumate/internal/application"
	"github.com/bambumate/bambumate/internal/domain"
	"github.com/bambumate/bambumate/internal/domain/inherit"
	"github.com/bambumate/bambumate/internal/domain/recommend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustProfile(t *testing.T, src string) *domain.Profile {
	t.Helper()
	p, err := domain.ParseProfile([]byte(src))
	require.NoError(t, err)
	return p
}

func fixtureRegistry(t *testing.T) domain.MapRegistry {
	t.Helper()
	return domain.NewMapRegistry(
		mustProfile(t, `{
    "name": "fdm_filament_pla",
    "filament_type": ["PLA"],
    "nozzle_temperature": ["220", "220"],
    "filament_retraction_length": ["0.8", "0.8"],
    "fan_min_speed": ["100", "100"]
}`),
		mustProfile(t, `{
    "name": "Bambu PLA Basic",
    "inherits": "fdm_filament_pla",
    "nozzle_temperature": ["215", "215"]
}`),
		mustProfile(t, `{"name": "loop_a", "inherits": "loop_b"}`),
		mustProfile(t, `{"name": "loop_b", "inherits": "loop_a"}`),
	)
}

func ptr(f float64) *float64 { return &f }

func fixtureRules() domain.RulesConfig {
	return domain.RulesConfig{
		Defects: map[string]domain.DefectInfo{
			"stringing":       {Name: "Stringing"},
			"under_extrusion": {Name: "Under-extrusion"},
		},
		Rules: []domain.Rule{
			{Defect: "stringing", Adjustments: []domain.Adjustment{
				{Parameter: "filament_retraction_length", Operation: domain.OpIncrease, Amount: 2, Priority: 1},
				{Parameter: "nozzle_temperature", Operation: domain.OpDecrease, Amount: 10, Priority: 2},
			}},
			{Defect: "stringing", SeverityMin: ptr(0.9), Adjustments: []domain.Adjustment{
				{Parameter: "fan_min_speed", Operation: domain.OpIncrease, Amount: 20, Priority: 3},
			}},
			{Defect: "under_extrusion", Adjustments: []domain.Adjustment{
				{Parameter: "filament_flow_ratio", Operation: domain.OpIncrease, Amount: 0.05, Priority: 1},
				{Parameter: "nozzle_temperature", Operation: domain.OpIncrease, Amount: 10, Priority: 2},
			}},
		},
	}
}

func newServices(t *testing.T, store domain.HistoryStore) (*application.ResolveService, *application.AnalyzeService) {
	t.Helper()
	resolver := application.NewResolveService(fixtureRegistry(t), 2, nil)
	analyzer := application.NewAnalyzeService(recommend.NewEngine(fixtureRules()), resolver, store, nil)
	return resolver, analyzer
}

func TestAnalyze_ResolvesAndRecommends(t *testing.T) {
	_, svc := newServices(t, nil)

	report, err := svc.Analyze(context.Background(), application.AnalyzeRequest{
		ProfileName: "Bambu PLA Basic",
		Defects:     []domain.DetectedDefect{{Type: "stringing", Severity: 0.5, Confidence: 0.9}},
	})
	require.NoError(t, err)

	assert.Equal(t, "Bambu PLA Basic", report.ProfileName)
	assert.Equal(t, domain.PLA, report.Material)
	require.Len(t, report.Result.Recommendations, 2)

	first := report.Result.Recommendations[0]
	assert.Equal(t, "filament_retraction_length", first.Parameter)
	assert.InDelta(t, 0.8, first.CurrentValue, 1e-9)
	assert.InDelta(t, 1.8, first.RecommendedValue, 1e-9)

	second := report.Result.Recommendations[1]
	assert.Equal(t, "nozzle_temperature", second.Parameter)
	assert.InDelta(t, 215.0, second.CurrentValue, 1e-9, "leaf override wins over ancestor")
	assert.InDelta(t, 210.0, second.RecommendedValue, 1e-9)

	assert.Empty(t, report.Result.Warnings)
	assert.Len(t, report.Changes, 2)

	v, ok := report.Tuned.Float("nozzle_temperature")
	require.True(t, ok)
	assert.Equal(t, 210.0, v)
	assert.Empty(t, report.ID, "nothing recorded without a history store")
}

func TestAnalyze_MaterialFlagOverridesProfile(t *testing.T) {
	_, svc := newServices(t, nil)

	report, err := svc.Analyze(context.Background(), application.AnalyzeRequest{
		ProfileName: "Bambu PLA Basic",
		Material:    "petg",
		Defects:     []domain.DetectedDefect{{Type: "under_extrusion", Severity: 1.0}},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PETG, report.Material)

	for _, r := range report.Result.Recommendations {
		if r.Parameter == "nozzle_temperature" {
			assert.InDelta(t, 225.0, r.RecommendedValue, 1e-9)
		}
	}
}

func TestAnalyze_MissingParameterWarning(t *testing.T) {
	_, svc := newServices(t, nil)

	report, err := svc.Analyze(context.Background(), application.AnalyzeRequest{
		ProfileName: "Bambu PLA Basic",
		Defects:     []domain.DetectedDefect{{Type: "under_extrusion", Severity: 0.5}},
	})
	require.NoError(t, err)
	assert.Equal(t, []domain.MissingParameter{{Parameter: "filament_flow_ratio", Defect: "under_extrusion"}}, report.Result.Warnings)
}

func TestAnalyze_InlineProfile(t *testing.T) {
	_, svc := newServices(t, nil)

	inline := mustProfile(t, `{"name": "My PLA", "inherits": "fdm_filament_pla", "nozzle_temperature": ["230", "230"]}`)
	report, err := svc.Analyze(context.Background(), application.AnalyzeRequest{
		Profile: inline,
		Defects: []domain.DetectedDefect{{Type: "stringing", Severity: 1.0}},
	})
	require.NoError(t, err)
	assert.Equal(t, "My PLA", report.ProfileName)
	require.NotEmpty(t, report.Result.Recommendations)
}

func TestAnalyze_ProfileErrors(t *testing.T) {
	_, svc := newServices(t, nil)
	ctx := context.Background()

	_, err := svc.Analyze(ctx, application.AnalyzeRequest{ProfileName: "nope"})
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)

	_, err = svc.Analyze(ctx, application.AnalyzeRequest{ProfileName: "loop_a"})
	assert.ErrorIs(t, err, inherit.ErrCircularInheritance)

	_, err = svc.Analyze(ctx, application.AnalyzeRequest{})
	assert.Error(t, err)

	_, err = svc.Analyze(ctx, application.AnalyzeRequest{
		ProfileName: "Bambu PLA Basic",
		Profile:     mustProfile(t, `{"name": "x"}`),
	})
	assert.Error(t, err)
}

func TestAnalyze_RecordsHistory(t *testing.T) {
	store, err := history.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	_, svc := newServices(t, store)
	ctx := context.Background()

	report, err := svc.Analyze(ctx, application.AnalyzeRequest{
		ProfileName: "Bambu PLA Basic",
		Defects:     []domain.DetectedDefect{{Type: "stringing", Severity: 0.5}},
		Record:      true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, report.ID)

	entries, err := svc.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, report.ID, entries[0].ID)
	assert.Equal(t, "PLA", entries[0].Material)

	got, err := svc.HistoryEntry(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, report.Result.Recommendations, got.Result.Recommendations)

	_, err = svc.HistoryEntry(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrAnalysisNotFound)
}

type failingStore struct{}

func (failingStore) Save(context.Context, domain.AnalysisEntry) error { return errors.New("disk full") }
func (failingStore) List(context.Context, int) ([]domain.AnalysisEntry, error) {
	return nil, errors.New("disk full")
}
func (failingStore) Get(context.Context, string) (domain.AnalysisEntry, error) {
	return domain.AnalysisEntry{}, errors.New("disk full")
}

func TestAnalyze_HistoryFailureSurfaces(t *testing.T) {
	_, svc := newServices(t, failingStore{})

	_, err := svc.Analyze(context.Background(), application.AnalyzeRequest{
		ProfileName: "Bambu PLA Basic",
		Record:      true,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recording analysis")
}

func TestAnalyze_HistoryNotConfigured(t *testing.T) {
	_, svc := newServices(t, nil)
	_, err := svc.History(context.Background(), 5)
	assert.Error(t, err)
}

func TestAnalyzeAll_PreservesOrder(t *testing.T) {
	_, svc := newServices(t, nil)

	var reqs []application.AnalyzeRequest
	for i := 0; i < 6; i++ {
		name := "Bambu PLA Basic"
		if i%2 == 1 {
			name = "fdm_filament_pla"
		}
		reqs = append(reqs, application.AnalyzeRequest{
			ProfileName: name,
			Defects:     []domain.DetectedDefect{{Type: "stringing", Severity: 0.5}},
		})
	}

	reports, err := svc.AnalyzeAll(context.Background(), reqs)
	require.NoError(t, err)
	require.Len(t, reports, len(reqs))
	for i, r := range reports {
		assert.Equal(t, reqs[i].ProfileName, r.ProfileName, fmt.Sprintf("report %d", i))
	}
}

func TestAnalyzeAll_StopsOnError(t *testing.T) {
	_, svc := newServices(t, nil)

	_, err := svc.AnalyzeAll(context.Background(), []application.AnalyzeRequest{
		{ProfileName: "Bambu PLA Basic"},
		{ProfileName: "missing"},
	})
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
}
