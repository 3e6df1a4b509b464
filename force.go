package kinetic

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// NoCutoff marks an effectively unbounded interaction range. Chosen so
// its square stays finite in float64.
const NoCutoff = 1.0e150

// Force is a pairwise interaction law. Eval receives field-filtered views
// of both partners plus the (possibly wrap-corrected) displacement from a
// to b and returns the force acting on a; the caller applies Newton-3.
type Force interface {
	Cutoff() float64
	Fields() FieldMask
	Eval(a, b ParticleView, r mgl64.Vec3) mgl64.Vec3
	// Mix derives the cross-type interaction from two same-law diagonal
	// entries. Mixing across different laws is an error.
	Mix(other Force) (Force, error)
	// Equals compares concrete law and all parameters, cutoff included.
	Equals(other Force) bool
}

func mixError(a, b Force) error {
	return fmt.Errorf("cannot mix force %T with %T", a, b)
}

// forceSentinel fills table cells that construction must overwrite.
// Evaluating it is a bug.
type forceSentinel struct{}

func (forceSentinel) Cutoff() float64   { return -1 }
func (forceSentinel) Fields() FieldMask { return FieldNone }

func (forceSentinel) Eval(_, _ ParticleView, _ mgl64.Vec3) mgl64.Vec3 {
	panic("force sentinel evaluated; the force table was not fully built")
}

func (forceSentinel) Mix(other Force) (Force, error) {
	if _, ok := other.(forceSentinel); ok {
		return forceSentinel{}, nil
	}
	return nil, mixError(forceSentinel{}, other)
}

func (forceSentinel) Equals(other Force) bool {
	_, ok := other.(forceSentinel)
	return ok
}

// NoForce is the explicit, legal "no interaction" value.
type NoForce struct{}

func (NoForce) Cutoff() float64   { return 0 }
func (NoForce) Fields() FieldMask { return FieldNone }

func (NoForce) Eval(_, _ ParticleView, _ mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{}
}

func (NoForce) Mix(other Force) (Force, error) {
	if _, ok := other.(NoForce); ok {
		return NoForce{}, nil
	}
	return nil, mixError(NoForce{}, other)
}

func (NoForce) Equals(other Force) bool {
	_, ok := other.(NoForce)
	return ok
}

// LennardJones is the 12-6 potential. Epsilon is the well depth, Sigma
// the zero-crossing distance.
type LennardJones struct {
	Epsilon float64
	Sigma   float64
	cutoff  float64
}

// NewLennardJones builds an LJ law; cutoff <= 0 selects the 3*sigma
// convention.
func NewLennardJones(epsilon, sigma, cutoff float64) LennardJones {
	if cutoff <= 0 {
		cutoff = 3 * sigma
	}
	return LennardJones{Epsilon: epsilon, Sigma: sigma, cutoff: cutoff}
}

func (f LennardJones) Cutoff() float64   { return f.cutoff }
func (f LennardJones) Fields() FieldMask { return FieldNone }

func (f LennardJones) Eval(_, _ ParticleView, r mgl64.Vec3) mgl64.Vec3 {
	r2 := r.Dot(r)
	invR2 := 1.0 / r2
	sigmaR2 := f.Sigma * f.Sigma * invR2
	sigmaR6 := sigmaR2 * sigmaR2 * sigmaR2
	sigmaR12 := sigmaR6 * sigmaR6
	magnitude := 24.0 * f.Epsilon * invR2 * (2.0*sigmaR12 - sigmaR6)
	return r.Mul(-magnitude)
}

func (f LennardJones) Mix(other Force) (Force, error) {
	o, ok := other.(LennardJones)
	if !ok {
		return nil, mixError(f, other)
	}
	// Lorentz-Berthelot
	return LennardJones{
		Epsilon: math.Sqrt(f.Epsilon * o.Epsilon),
		Sigma:   0.5 * (f.Sigma + o.Sigma),
		cutoff:  math.Sqrt(f.cutoff * o.cutoff),
	}, nil
}

func (f LennardJones) Equals(other Force) bool {
	o, ok := other.(LennardJones)
	return ok && f == o
}

// Harmonic is a spring law with stiffness K and rest length R0.
type Harmonic struct {
	K      float64
	R0     float64
	cutoff float64
}

func NewHarmonic(k, r0, cutoff float64) Harmonic {
	if cutoff <= 0 {
		cutoff = NoCutoff
	}
	return Harmonic{K: k, R0: r0, cutoff: cutoff}
}

func (f Harmonic) Cutoff() float64   { return f.cutoff }
func (f Harmonic) Fields() FieldMask { return FieldNone }

func (f Harmonic) Eval(_, _ ParticleView, r mgl64.Vec3) mgl64.Vec3 {
	dist := r.Len()
	if dist == 0 {
		return mgl64.Vec3{}
	}
	return r.Mul(-f.K * (dist - f.R0) / dist)
}

func (f Harmonic) Mix(other Force) (Force, error) {
	o, ok := other.(Harmonic)
	if !ok {
		return nil, mixError(f, other)
	}
	return o, nil
}

func (f Harmonic) Equals(other Force) bool {
	o, ok := other.(Harmonic)
	return ok && f == o
}

// PowerLaw is an inverse-power attraction: magnitude Prefactor * m1 * m2
// / r^Exponent along +r. Exponent 2 with Prefactor G is Newtonian
// gravity.
type PowerLaw struct {
	Prefactor float64
	Exponent  uint8
	cutoff    float64
}

func NewPowerLaw(exponent uint8, prefactor, cutoff float64) PowerLaw {
	if cutoff <= 0 {
		cutoff = NoCutoff
	}
	return PowerLaw{Prefactor: prefactor, Exponent: exponent, cutoff: cutoff}
}

// NewGravity is PowerLaw with exponent 2.
func NewGravity(g, cutoff float64) PowerLaw {
	return NewPowerLaw(2, g, cutoff)
}

func (f PowerLaw) Cutoff() float64   { return f.cutoff }
func (f PowerLaw) Fields() FieldMask { return FieldMass }

func (f PowerLaw) Eval(a, b ParticleView, r mgl64.Vec3) mgl64.Vec3 {
	r2 := r.Dot(r)
	invR := 1.0 / math.Sqrt(r2)
	invPow := invR
	for i := uint8(0); i < f.Exponent; i++ {
		invPow *= invR
	}
	return r.Mul(f.Prefactor * a.Mass * b.Mass * invPow)
}

func (f PowerLaw) Mix(other Force) (Force, error) {
	o, ok := other.(PowerLaw)
	if !ok {
		return nil, mixError(f, other)
	}
	return PowerLaw{
		Prefactor: 0.5 * (f.Prefactor + o.Prefactor),
		Exponent:  f.Exponent,
		cutoff:    0.5 * (f.cutoff + o.cutoff),
	}, nil
}

func (f PowerLaw) Equals(other Force) bool {
	o, ok := other.(PowerLaw)
	return ok && f == o
}

// Coulomb couples user-data charges: magnitude K * q1 * q2 / r^2 along
// -r, so like charges repel (a negative product flips the direction).
// Particles whose user data does not implement Charged contribute zero
// charge.
type Coulomb struct {
	K      float64
	cutoff float64
}

func NewCoulomb(k, cutoff float64) Coulomb {
	if cutoff <= 0 {
		cutoff = NoCutoff
	}
	return Coulomb{K: k, cutoff: cutoff}
}

func (f Coulomb) Cutoff() float64   { return f.cutoff }
func (f Coulomb) Fields() FieldMask { return FieldUserData }

func chargeOf(v ParticleView) float64 {
	if c, ok := v.UserData.(Charged); ok {
		return c.Charge()
	}
	return 0
}

func (f Coulomb) Eval(a, b ParticleView, r mgl64.Vec3) mgl64.Vec3 {
	r2 := r.Dot(r)
	invR := 1.0 / math.Sqrt(r2)
	invR3 := invR / r2
	// negative sign: like charges push a away from b (along -r)
	return r.Mul(-f.K * chargeOf(a) * chargeOf(b) * invR3)
}

func (f Coulomb) Mix(other Force) (Force, error) {
	o, ok := other.(Coulomb)
	if !ok {
		return nil, mixError(f, other)
	}
	return Coulomb{
		K:      0.5 * (f.K + o.K),
		cutoff: 0.5 * (f.cutoff + o.cutoff),
	}, nil
}

func (f Coulomb) Equals(other Force) bool {
	o, ok := other.(Coulomb)
	return ok && f == o
}
