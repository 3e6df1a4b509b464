package kinetic

import (
	"fmt"
	"math"
	"math/rand"
)

// Controller is a periodic actor on the whole system state (thermostats,
// barostats, pumps). Init runs at build, Apply whenever the trigger
// fires.
type Controller interface {
	Trigger() Trigger
	Init(sys *System) error
	Apply(sys *System)
}

// TemperatureNotSet disables the corresponding thermostat behavior.
const TemperatureNotSet = -1.0

// VelocityScalingThermostat drives the kinetic temperature toward a
// target by rescaling thermal velocities about the center-of-mass motion,
// limiting each correction to MaxChange.
type VelocityScalingThermostat struct {
	InitTemp   float64
	TargetTemp float64
	MaxChange  float64

	trigger Trigger
	rng     *rand.Rand
}

func NewVelocityScalingThermostat(initT, targetT, maxChange float64, trigger Trigger) *VelocityScalingThermostat {
	return &VelocityScalingThermostat{
		InitTemp:   initT,
		TargetTemp: targetT,
		MaxChange:  maxChange,
		trigger:    trigger,
		rng:        rand.New(rand.NewSource(42)),
	}
}

// Seed replaces the sampling source, mostly for reproducible tests.
func (c *VelocityScalingThermostat) Seed(seed int64) *VelocityScalingThermostat {
	c.rng = rand.New(rand.NewSource(seed))
	return c
}

func (c *VelocityScalingThermostat) Trigger() Trigger { return c.trigger }

func (c *VelocityScalingThermostat) Init(sys *System) error {
	if sys.Size() < 2 {
		return fmt.Errorf("thermostat needs at least two particles, got %d", sys.Size())
	}
	if c.InitTemp == TemperatureNotSet {
		return nil
	}

	dims := sys.Dimensions()
	sys.ForEachParticle(FieldVelocity|FieldMass, StateMovable, TraverseSequential, func(p ParticleRef) {
		sigma := math.Sqrt(c.InitTemp / *p.Mass)
		p.Velocity.Set(MaxwellBoltzmannVelocity(c.rng, sigma, dims))
	})
	return nil
}

func (c *VelocityScalingThermostat) Apply(sys *System) {
	if c.TargetTemp == TemperatureNotSet {
		return
	}

	avg := averageVelocity(sys)
	current := temperature(sys, avg)

	diff := c.TargetTemp - current
	step := math.Max(-c.MaxChange, math.Min(diff, c.MaxChange))
	next := current + step
	if math.Abs(next-current) < 1e-12 {
		return
	}

	if current < 1e-12 {
		// cannot scale from T=0: re-seed thermal motion about the mean
		dims := sys.Dimensions()
		sys.ForEachParticle(FieldVelocity|FieldMass, StateMovable, TraverseSequential, func(p ParticleRef) {
			sigma := math.Sqrt(next / *p.Mass)
			p.Velocity.Set(avg.Add(MaxwellBoltzmannVelocity(c.rng, sigma, dims)))
		})
		return
	}

	factor := math.Sqrt(next / current)
	sys.ForEachParticle(FieldVelocity, StateMovable, TraverseSequential, func(p ParticleRef) {
		thermal := p.Velocity.Get().Sub(avg)
		p.Velocity.Set(avg.Add(thermal.Mul(factor)))
	})
}
