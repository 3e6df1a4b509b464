package kinetic

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func thermostatEnv(n int) *Environment {
	env := NewEnvironment()
	side := 10
	for i := 0; i < n; i++ {
		x := float64(i%side) + 0.5
		y := float64(i/side) + 0.5
		env.AddBody(mgl64.Vec3{x, y, 0}, mgl64.Vec3{}, 1)
	}
	env.AddForce(NoForce{}, ToType(0))
	env.SetOrigin(mgl64.Vec3{0, 0, 0}).SetExtent(mgl64.Vec3{10, 10, 0})
	return env
}

func TestThermostatInitSetsTemperature(t *testing.T) {
	env := thermostatEnv(100)
	thermo := NewVelocityScalingThermostat(20, TemperatureNotSet, 0.5, Never()).Seed(42)
	env.AddController(thermo)

	sys, err := BuildSystem(env, DirectSum{})
	require.NoError(t, err)

	// sampled temperature fluctuates around the requested one
	measured := temperature(sys, averageVelocity(sys))
	assert.InDelta(t, 20.0, measured, 6.0)

	// 2D box: no thermal motion along z
	sys.ForEachParticle(FieldVelocity, StateMovable, TraverseSequential, func(p ParticleRef) {
		assert.Zero(t, p.Velocity.Get().Z())
	})
}

func TestThermostatScalesTowardTarget(t *testing.T) {
	env := thermostatEnv(100)
	thermo := NewVelocityScalingThermostat(40, 10, 1000, Never()).Seed(7)
	env.AddController(thermo)

	sys, err := BuildSystem(env, DirectSum{})
	require.NoError(t, err)

	// unlimited step: one application lands exactly on the target
	thermo.Apply(sys)
	measured := temperature(sys, averageVelocity(sys))
	assert.InDelta(t, 10.0, measured, 1e-9)
}

func TestThermostatClampsStep(t *testing.T) {
	env := thermostatEnv(100)
	thermo := NewVelocityScalingThermostat(40, 10, 0.5, Never()).Seed(7)
	env.AddController(thermo)

	sys, err := BuildSystem(env, DirectSum{})
	require.NoError(t, err)

	before := temperature(sys, averageVelocity(sys))
	thermo.Apply(sys)
	after := temperature(sys, averageVelocity(sys))

	// one application moves at most 0.5 toward the target
	assert.InDelta(t, before-0.5, after, 1e-9)
}

func TestThermostatIgnitesFromZero(t *testing.T) {
	env := thermostatEnv(100)
	thermo := NewVelocityScalingThermostat(TemperatureNotSet, 5, 1000, Never()).Seed(3)
	env.AddController(thermo)

	sys, err := BuildSystem(env, DirectSum{})
	require.NoError(t, err)

	// all particles at rest: T = 0, scaling is impossible, so the
	// thermostat re-seeds thermal motion
	thermo.Apply(sys)
	measured := temperature(sys, averageVelocity(sys))
	assert.Greater(t, measured, 1.0)
}

func TestThermostatNeedsTwoParticles(t *testing.T) {
	env := NewEnvironment()
	env.AddBody(mgl64.Vec3{1, 1, 1}, mgl64.Vec3{}, 1)
	env.AddForce(NoForce{}, ToType(0))
	env.SetOrigin(mgl64.Vec3{0, 0, 0}).SetExtent(mgl64.Vec3{10, 10, 10})
	env.AddController(NewVelocityScalingThermostat(20, 20, 0.5, Always()))

	_, err := BuildSystem(env, DirectSum{})
	assert.Error(t, err)
}

// S5: the thermostat holds 100 free particles at their initial
// temperature.
func TestThermostatHold(t *testing.T) {
	env := thermostatEnv(100)
	thermo := NewVelocityScalingThermostat(20, 20, 0.5, Every(10, 0)).Seed(42)
	env.AddController(thermo)

	sys, err := BuildSystem(env, DirectSum{})
	require.NoError(t, err)
	require.NoError(t, NewVelocityVerlet(sys).RunForSteps(0.001, 100))

	measured := temperature(sys, averageVelocity(sys))
	assert.Greater(t, measured, 19.0)
	assert.Less(t, measured, 21.0)
}

func TestMaxwellBoltzmannDimensions(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	v := MaxwellBoltzmannVelocity(rng, 1, 2)
	assert.Zero(t, v.Z(), "third component untouched in 2D")

	v = MaxwellBoltzmannVelocity(rng, 0, 3)
	assert.Equal(t, mgl64.Vec3{}, v, "zero sigma gives zero velocity")
}
