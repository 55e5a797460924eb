package application_test

import (
	"context"
	"testing"

	"github.com/bambumate/bambumate/internal/application"
	"github.com/bambumate/bambumate/internal/domain"
	"github.com/bambumate/bambumate/internal/domain/inherit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_MergesChain(t *testing.T) {
	resolver, _ := newServices(t, nil)

	p, err := resolver.Resolve("Bambu PLA Basic")
	require.NoError(t, err)
	assert.Equal(t, "Bambu PLA Basic", p.Name())

	nozzle, ok := p.Float("nozzle_temperature")
	require.True(t, ok)
	assert.Equal(t, 215.0, nozzle)

	retract, ok := p.Float("filament_retraction_length")
	require.True(t, ok)
	assert.Equal(t, 0.8, retract)
}

func TestResolve_UnknownProfile(t *testing.T) {
	resolver, _ := newServices(t, nil)
	_, err := resolver.Resolve("missing")
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
}

func TestResolve_Circular(t *testing.T) {
	resolver, _ := newServices(t, nil)
	_, err := resolver.Resolve("loop_a")
	assert.ErrorIs(t, err, inherit.ErrCircularInheritance)
}

func TestChain(t *testing.T) {
	resolver, _ := newServices(t, nil)
	names, err := resolver.Chain("Bambu PLA Basic")
	require.NoError(t, err)
	assert.Equal(t, []string{"Bambu PLA Basic", "fdm_filament_pla"}, names)
}

func TestResolveAll(t *testing.T) {
	resolver, _ := newServices(t, nil)

	out, err := resolver.ResolveAll(context.Background(), []string{"fdm_filament_pla", "Bambu PLA Basic", "fdm_filament_pla"})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "fdm_filament_pla", out[0].Name())
	assert.Equal(t, "Bambu PLA Basic", out[1].Name())
	assert.Equal(t, "fdm_filament_pla", out[2].Name())
}

func TestResolveAll_Error(t *testing.T) {
	resolver, _ := newServices(t, nil)
	_, err := resolver.ResolveAll(context.Background(), []string{"Bambu PLA Basic", "loop_b"})
	assert.ErrorIs(t, err, inherit.ErrCircularInheritance)
}

func TestResolveAll_CancelledContext(t *testing.T) {
	resolver, _ := newServices(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := resolver.ResolveAll(ctx, []string{"Bambu PLA Basic"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolveProfile_Unregistered(t *testing.T) {
	resolver := application.NewResolveService(fixtureRegistry(t), 0, nil)

	p, err := resolver.ResolveProfile(mustProfile(t, `{"name": "My PLA", "inherits": "fdm_filament_pla", "fan_min_speed": ["80", "80"]}`))
	require.NoError(t, err)
	assert.Equal(t, "My PLA", p.Name())
	fan, ok := p.Float("fan_min_speed")
	require.True(t, ok)
	assert.Equal(t, 80.0, fan)
	retract, ok := p.Float("filament_retraction_length")
	require.True(t, ok)
	assert.Equal(t, 0.8, retract)

	_, err = resolver.ResolveProfile(mustProfile(t, `{"name": "Orphan", "inherits": "ghost"}`))
	assert.ErrorIs(t, err, inherit.ErrParentNotFound)
}
