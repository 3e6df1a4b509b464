package kinetic

import "github.com/go-gl/mathgl/mgl64"

// ForceField is a global external force rule. Apply receives a restricted
// handle (only force is writable) for every particle; Update runs once
// per step.
type ForceField interface {
	Fields() FieldMask
	Init(sys *System)
	Update(sys *System)
	Apply(p RestrictedRef)
}

// UniformField adds a constant force to every particle (gravity-like).
type UniformField struct {
	Force mgl64.Vec3
}

func (f *UniformField) Fields() FieldMask { return FieldForce }
func (f *UniformField) Init(*System)      {}
func (f *UniformField) Update(*System)    {}

func (f *UniformField) Apply(p RestrictedRef) {
	p.Force.Add(f.Force)
}

// LocalForceField adds a constant force inside a region during a time
// window [Start, Stop).
type LocalForceField struct {
	Force  mgl64.Vec3
	Region Box
	Start  float64
	Stop   float64

	active bool
}

func (f *LocalForceField) Fields() FieldMask { return FieldPosition | FieldForce }

func (f *LocalForceField) Init(sys *System) {
	f.Update(sys)
}

func (f *LocalForceField) Update(sys *System) {
	t := sys.Time()
	f.active = t >= f.Start && t < f.Stop
}

func (f *LocalForceField) Apply(p RestrictedRef) {
	if f.active && f.Region.Contains(p.View.Position) {
		p.Force.Add(f.Force)
	}
}
