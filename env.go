package kinetic

import "github.com/go-gl/mathgl/mgl64"

// ParticleSpec is one user-space particle before dense remapping.
type ParticleSpec struct {
	Position mgl64.Vec3
	Velocity mgl64.Vec3
	Mass     float64

	// Type is a free user label; the builder remaps labels to dense
	// indices.
	Type int

	// ID is an optional explicit user id (< 0 assigns the next free one).
	ID int

	// State defaults to alive.
	State ParticleState

	UserData any
}

type scopeKind int

const (
	scopeToType scopeKind = iota
	scopeBetweenTypes
	scopeBetweenIDs
)

// InteractionScope says which particles a force binds to.
type InteractionScope struct {
	kind     scopeKind
	t1, t2   int
	id1, id2 int
}

// ToType binds a force to all pairs within one type.
func ToType(t int) InteractionScope {
	return InteractionScope{kind: scopeToType, t1: t, t2: t}
}

// BetweenTypes binds a force to pairs across two types.
func BetweenTypes(t1, t2 int) InteractionScope {
	return InteractionScope{kind: scopeBetweenTypes, t1: t1, t2: t2}
}

// BetweenIDs binds a force to one specific particle pair.
func BetweenIDs(id1, id2 int) InteractionScope {
	return InteractionScope{kind: scopeBetweenIDs, id1: id1, id2: id2}
}

type scopedForce struct {
	force Force
	scope InteractionScope
}

// Environment is the fluent assembly surface: particles, interactions,
// boundaries, fields, controllers and the domain, validated and lowered
// into dense records by BuildSystem.
type Environment struct {
	particles  []ParticleSpec
	cuboids    []CuboidSpec
	ellipsoids []EllipsoidSpec

	interactions []scopedForce

	boundaries [6]BoundaryCondition

	controllers []Controller
	fields      []ForceField

	origin, extent      *mgl64.Vec3
	autoMarginAbs       float64
	autoMarginFac       float64
	autoDomainRequested bool
	infiniteDomain      bool

	nextAutoID int

	log Logger
}

func NewEnvironment() *Environment {
	env := &Environment{log: NewNopLogger()}
	for i := range env.boundaries {
		env.boundaries[i] = Open{}
	}
	return env
}

// AddParticle registers one particle and returns its user id.
func (e *Environment) AddParticle(spec ParticleSpec) int {
	if spec.ID < 0 {
		spec.ID = e.nextAutoID
	}
	if spec.ID >= e.nextAutoID {
		e.nextAutoID = spec.ID + 1
	}
	if spec.State == 0 {
		spec.State = StateAlive
	}
	e.particles = append(e.particles, spec)
	return spec.ID
}

// AddBody is AddParticle for the common position/velocity/mass case.
func (e *Environment) AddBody(position, velocity mgl64.Vec3, mass float64) int {
	return e.AddParticle(ParticleSpec{Position: position, Velocity: velocity, Mass: mass, ID: -1})
}

func (e *Environment) AddCuboid(spec CuboidSpec) *Environment {
	e.cuboids = append(e.cuboids, spec)
	return e
}

func (e *Environment) AddEllipsoid(spec EllipsoidSpec) *Environment {
	e.ellipsoids = append(e.ellipsoids, spec)
	return e
}

func (e *Environment) AddForce(f Force, scope InteractionScope) *Environment {
	e.interactions = append(e.interactions, scopedForce{force: f, scope: scope})
	return e
}

func (e *Environment) SetBoundary(face Face, bc BoundaryCondition) *Environment {
	e.boundaries[face] = bc
	return e
}

func (e *Environment) SetAllBoundaries(bc BoundaryCondition) *Environment {
	for i := range e.boundaries {
		e.boundaries[i] = bc
	}
	return e
}

func (e *Environment) AddController(c Controller) *Environment {
	e.controllers = append(e.controllers, c)
	return e
}

func (e *Environment) AddField(f ForceField) *Environment {
	e.fields = append(e.fields, f)
	return e
}

func (e *Environment) SetOrigin(origin mgl64.Vec3) *Environment {
	v := origin
	e.origin = &v
	return e
}

func (e *Environment) SetExtent(extent mgl64.Vec3) *Environment {
	v := extent
	e.extent = &v
	return e
}

// AutoDomain fits the domain to the particle bounding box, padded per
// axis by the larger of the absolute margin and the fractional one.
func (e *Environment) AutoDomain(marginAbs, marginFac float64) *Environment {
	e.autoMarginAbs = marginAbs
	e.autoMarginFac = marginFac
	e.autoDomainRequested = true
	return e
}

// InfiniteDomain requests an unbounded region (DirectSum only).
func (e *Environment) InfiniteDomain() *Environment {
	e.infiniteDomain = true
	return e
}

func (e *Environment) WithLogger(log Logger) *Environment {
	e.log = log
	return e
}
