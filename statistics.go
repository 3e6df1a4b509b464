package kinetic

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
)

// MaxwellBoltzmannVelocity samples a thermal velocity with per-component
// standard deviation sigma (= sqrt(kT/m)). Only the first `dimensions`
// components are populated.
func MaxwellBoltzmannVelocity(rng *rand.Rand, sigma float64, dimensions int) mgl64.Vec3 {
	var v mgl64.Vec3
	for i := 0; i < dimensions && i < 3; i++ {
		v[i] = sigma * rng.NormFloat64()
	}
	return v
}

// averageVelocity of all movable particles.
func averageVelocity(sys *System) mgl64.Vec3 {
	var sum mgl64.Vec3
	n := 0
	sys.ForEachParticle(FieldVelocity, StateMovable, TraverseSequential, func(p ParticleRef) {
		sum = sum.Add(p.Velocity.Get())
		n++
	})
	if n == 0 {
		return mgl64.Vec3{}
	}
	return sum.Mul(1.0 / float64(n))
}

// temperature computes the kinetic temperature about the mean velocity
// with D * N degrees of freedom.
func temperature(sys *System, avg mgl64.Vec3) float64 {
	kinetic := 0.0
	n := 0
	sys.ForEachParticle(FieldVelocity|FieldMass, StateMovable, TraverseSequential, func(p ParticleRef) {
		dv := p.Velocity.Get().Sub(avg)
		kinetic += *p.Mass * dv.Dot(dv)
		n++
	})

	d := sys.Dimensions()
	if d == 0 || n == 0 {
		return 0
	}
	return kinetic / float64(d*n)
}
