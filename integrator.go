package kinetic

import (
	"fmt"
	"math"
)

// Integrator advances a System through time with a pluggable step scheme
// and monitor hooks around every step.
type Integrator struct {
	sys      *System
	monitors []Monitor

	dt       float64
	duration float64
	numSteps int

	// lastSet remembers whether duration or steps were configured last;
	// Run derives the other from dt.
	lastSet lastConfigured

	stepFn func(dt float64)
}

type lastConfigured int

const (
	configuredNone lastConfigured = iota
	configuredDuration
	configuredSteps
)

// NewVelocityVerlet builds the canonical second-order integrator.
func NewVelocityVerlet(sys *System, monitors ...Monitor) *Integrator {
	integ := &Integrator{sys: sys, monitors: monitors}
	integ.stepFn = integ.velocityVerletStep
	return integ
}

// NewYoshida4 builds the fourth-order symplectic integrator.
func NewYoshida4(sys *System, monitors ...Monitor) *Integrator {
	integ := &Integrator{sys: sys, monitors: monitors}
	integ.stepFn = integ.yoshida4Step
	return integ
}

func (in *Integrator) AddMonitor(m Monitor) *Integrator {
	in.monitors = append(in.monitors, m)
	return in
}

func (in *Integrator) WithDt(dt float64) *Integrator {
	in.dt = dt
	return in
}

func (in *Integrator) ForDuration(duration float64) *Integrator {
	in.duration = duration
	in.lastSet = configuredDuration
	return in
}

func (in *Integrator) ForSteps(steps int) *Integrator {
	in.numSteps = steps
	in.lastSet = configuredSteps
	return in
}

// Run executes the configured simulation loop.
func (in *Integrator) Run() error {
	if in.dt <= 0 {
		return fmt.Errorf("time step must be positive, got dt=%v", in.dt)
	}

	switch in.lastSet {
	case configuredDuration:
		in.numSteps = int(in.duration / in.dt)
	case configuredSteps:
		in.duration = float64(in.numSteps) * in.dt
	default:
		return fmt.Errorf("neither duration nor step count has been configured")
	}

	for _, m := range in.monitors {
		m.Init(in.dt, 0, in.duration, in.numSteps)
	}

	// valid forces before the first half-kick
	in.sys.UpdateForces()
	in.sys.ApplyForceFields()

	for step := 0; step < in.numSteps; step++ {
		ctx := TriggerContext{Step: in.sys.Step(), Time: in.sys.Time()}

		for _, m := range in.monitors {
			if m.Trigger()(ctx) {
				m.BeforeStep(in.sys)
			}
		}

		in.stepFn(in.dt)

		for _, m := range in.monitors {
			if m.Trigger()(ctx) {
				m.Record(in.sys)
			}
		}

		in.sys.UpdateTime(in.dt)
		in.sys.IncrementStep()
	}

	for _, m := range in.monitors {
		m.Finalize()
	}
	return nil
}

func (in *Integrator) RunForSteps(dt float64, steps int) error {
	return in.WithDt(dt).ForSteps(steps).Run()
}

func (in *Integrator) RunForDuration(dt, duration float64) error {
	return in.WithDt(dt).ForDuration(duration).Run()
}

const (
	posUpdateFields = FieldState | FieldVelocity | FieldPosition | FieldMass | FieldOldPosition | FieldForce
	velUpdateFields = FieldState | FieldVelocity | FieldForce | FieldMass
)

func (in *Integrator) velocityVerletStep(dt float64) {
	sys := in.sys

	sys.UpdateAllComponents()

	sys.ForEachParticle(posUpdateFields, StateMovable, TraverseSequential, func(p ParticleRef) {
		pos := p.Position.Get()
		p.OldPosition.Set(pos)

		vel := p.Velocity.Get().Add(p.Force.Get().Mul(dt / (2.0 * *p.Mass)))
		p.Velocity.Set(vel)
		p.Position.Set(pos.Add(vel.Mul(dt)))
	})

	sys.RebuildStructure()
	sys.ApplyBoundaryConditions()
	sys.UpdateForces()
	sys.ApplyForceFields()

	sys.ForEachParticle(velUpdateFields, StateMovable, TraverseSequential, func(p ParticleRef) {
		p.Velocity.Add(p.Force.Get().Mul(dt / (2.0 * *p.Mass)))
	})

	sys.ApplyControllers()
}

// Yoshida 4th-order coefficients.
var (
	yoshidaW1 = 1.0 / (2.0 - math.Cbrt(2.0))
	yoshidaW0 = -math.Cbrt(2.0) * yoshidaW1

	yoshidaC = [4]float64{yoshidaW1 / 2, (yoshidaW0 + yoshidaW1) / 2, (yoshidaW0 + yoshidaW1) / 2, yoshidaW1 / 2}
	yoshidaD = [3]float64{yoshidaW1, yoshidaW0, yoshidaW1}
)

func (in *Integrator) yoshida4Step(dt float64) {
	sys := in.sys

	sys.UpdateAllComponents()

	for sub := 0; sub < 4; sub++ {
		sys.ForEachParticle(posUpdateFields, StateMovable, TraverseSequential, func(p ParticleRef) {
			pos := p.Position.Get()
			p.OldPosition.Set(pos)
			p.Position.Set(pos.Add(p.Velocity.Get().Mul(yoshidaC[sub] * dt)))
		})

		sys.RebuildStructure()
		sys.ApplyBoundaryConditions()

		if sub < 3 {
			sys.UpdateForces()
			sys.ApplyForceFields()

			sys.ForEachParticle(velUpdateFields, StateMovable, TraverseSequential, func(p ParticleRef) {
				p.Velocity.Add(p.Force.Get().Mul(yoshidaD[sub] * dt / *p.Mass))
			})
		}
	}

	sys.ApplyControllers()
}
