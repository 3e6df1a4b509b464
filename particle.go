package kinetic

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type ParticleID uint32
type ParticleType uint16

// SentinelID marks storage holes in chunked layouts.
const SentinelID = ParticleID(math.MaxUint32)

// ParticleState is a bitflag classification assigned at build time.
// Alive -> Dead is the only runtime transition.
type ParticleState uint8

const (
	StateAlive ParticleState = 1 << iota
	StateDead
	StatePassive    // moves but exerts no force on others
	StateStationary // exerts force but never moves
	StateInvalid    // storage hole, chunked layouts only
)

const (
	StateMovable  = StateAlive | StatePassive
	StateExerting = StateAlive | StateStationary
	StateAll      = StateAlive | StateDead | StatePassive | StateStationary
)

// FieldMask selects the per-particle fields a rule wants access to.
// Forces, boundaries, fields, controllers and monitors each declare one;
// the storage hands out projections carrying exactly those fields.
type FieldMask uint16

const (
	FieldPosition FieldMask = 1 << iota
	FieldVelocity
	FieldForce
	FieldOldPosition
	FieldMass
	FieldState
	FieldType
	FieldID
	FieldUserData
)

const FieldNone FieldMask = 0
const FieldAll = FieldPosition | FieldVelocity | FieldForce | FieldOldPosition |
	FieldMass | FieldState | FieldType | FieldID | FieldUserData

func (m FieldMask) Has(f FieldMask) bool { return m&f == f }

// Charged is the user-data contract consumed by charge-based force laws.
type Charged interface {
	Charge() float64
}

// ParticleRecord is the canonical dense per-particle state produced by
// the builder and consumed by storage layouts.
type ParticleRecord struct {
	ID          ParticleID
	Type        ParticleType
	Position    mgl64.Vec3
	Velocity    mgl64.Vec3
	Force       mgl64.Vec3
	OldPosition mgl64.Vec3
	Mass        float64
	State       ParticleState
	UserData    any
}

// sentinelRecord fills chunk padding slots. Its +Inf position makes the
// cutoff branch of every pair kernel reject it without explicit masking.
func sentinelRecord() ParticleRecord {
	inf := math.Inf(1)
	return ParticleRecord{
		ID:       SentinelID,
		State:    StateInvalid,
		Position: mgl64.Vec3{inf, inf, inf},
	}
}

// Vec3Ref is a mutable handle to one vector field of one particle. For
// SoA layouts the three components live in separate columns, so the
// handle carries one pointer per component.
type Vec3Ref struct {
	X, Y, Z *float64
}

func (v Vec3Ref) Get() mgl64.Vec3 {
	return mgl64.Vec3{*v.X, *v.Y, *v.Z}
}

func (v Vec3Ref) Set(w mgl64.Vec3) {
	*v.X, *v.Y, *v.Z = w.X(), w.Y(), w.Z()
}

func (v Vec3Ref) Add(w mgl64.Vec3) {
	*v.X += w.X()
	*v.Y += w.Y()
	*v.Z += w.Z()
}

func (v Vec3Ref) Sub(w mgl64.Vec3) {
	*v.X -= w.X()
	*v.Y -= w.Y()
	*v.Z -= w.Z()
}

func vec3RefOf(v *mgl64.Vec3) Vec3Ref {
	return Vec3Ref{X: &v[0], Y: &v[1], Z: &v[2]}
}

// ParticleRef is a mutable, field-filtered projection of one particle.
// Handles outside the requested mask are left zero; touching them is a
// caller bug.
type ParticleRef struct {
	Mask        FieldMask
	Position    Vec3Ref
	Velocity    Vec3Ref
	Force       Vec3Ref
	OldPosition Vec3Ref
	Mass        *float64
	State       *ParticleState
	Type        *ParticleType
	ID          *ParticleID
	UserData    *any
}

// ParticleView is a read-only, by-value projection of one particle.
type ParticleView struct {
	Mask        FieldMask
	Position    mgl64.Vec3
	Velocity    mgl64.Vec3
	Force       mgl64.Vec3
	OldPosition mgl64.Vec3
	Mass        float64
	State       ParticleState
	Type        ParticleType
	ID          ParticleID
	UserData    any
}

// RestrictedRef exposes a read-only view plus a writable force handle.
// External force fields get these so they cannot disturb anything else.
type RestrictedRef struct {
	Force Vec3Ref
	View  ParticleView
}
