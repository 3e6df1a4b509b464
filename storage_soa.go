package kinetic

import "github.com/go-gl/mathgl/mgl64"

// Vec3Cols is one vector field stored as three parallel columns.
type Vec3Cols struct {
	X, Y, Z []float64
}

func makeVec3Cols(n int) Vec3Cols {
	return Vec3Cols{X: make([]float64, n), Y: make([]float64, n), Z: make([]float64, n)}
}

func (c *Vec3Cols) ref(i int) Vec3Ref {
	return Vec3Ref{X: &c.X[i], Y: &c.Y[i], Z: &c.Z[i]}
}

func (c *Vec3Cols) get(i int) mgl64.Vec3 {
	return mgl64.Vec3{c.X[i], c.Y[i], c.Z[i]}
}

func (c *Vec3Cols) set(i int, v mgl64.Vec3) {
	c.X[i], c.Y[i], c.Z[i] = v.X(), v.Y(), v.Z()
}

func (c *Vec3Cols) swap(i, j int) {
	c.X[i], c.X[j] = c.X[j], c.X[i]
	c.Y[i], c.Y[j] = c.Y[j], c.Y[i]
	c.Z[i], c.Z[j] = c.Z[j], c.Z[i]
}

type soaColumns struct {
	pos, vel, frc, old Vec3Cols
	mass               []float64
	state              []ParticleState
	typ                []ParticleType
	id                 []ParticleID
	user               []any
}

func makeSoAColumns(n int) soaColumns {
	return soaColumns{
		pos:   makeVec3Cols(n),
		vel:   makeVec3Cols(n),
		frc:   makeVec3Cols(n),
		old:   makeVec3Cols(n),
		mass:  make([]float64, n),
		state: make([]ParticleState, n),
		typ:   make([]ParticleType, n),
		id:    make([]ParticleID, n),
		user:  make([]any, n),
	}
}

func (c *soaColumns) setRecord(i int, r ParticleRecord) {
	c.pos.set(i, r.Position)
	c.vel.set(i, r.Velocity)
	c.frc.set(i, r.Force)
	c.old.set(i, r.OldPosition)
	c.mass[i] = r.Mass
	c.state[i] = r.State
	c.typ[i] = r.Type
	c.id[i] = r.ID
	c.user[i] = r.UserData
}

func (c *soaColumns) copyRecord(dst int, src *soaColumns, i int) {
	c.pos.set(dst, src.pos.get(i))
	c.vel.set(dst, src.vel.get(i))
	c.frc.set(dst, src.frc.get(i))
	c.old.set(dst, src.old.get(i))
	c.mass[dst] = src.mass[i]
	c.state[dst] = src.state[i]
	c.typ[dst] = src.typ[i]
	c.id[dst] = src.id[i]
	c.user[dst] = src.user[i]
}

// soaStorage keeps every scalar field in its own column and every vector
// field as an x/y/z column triple.
type soaStorage struct {
	data    soaColumns
	scratch soaColumns
	n       int
}

func newSoAStorage(records []ParticleRecord) *soaStorage {
	s := &soaStorage{data: makeSoAColumns(len(records)), n: len(records)}
	for i, r := range records {
		s.data.setRecord(i, r)
	}
	return s
}

func (s *soaStorage) Len() int       { return s.n }
func (s *soaStorage) SlotCount() int { return s.n }
func (s *soaStorage) ChunkSize() int { return 1 }

func (s *soaStorage) At(i int, mask FieldMask) ParticleRef {
	ref := ParticleRef{Mask: mask}
	if mask.Has(FieldPosition) {
		ref.Position = s.data.pos.ref(i)
	}
	if mask.Has(FieldVelocity) {
		ref.Velocity = s.data.vel.ref(i)
	}
	if mask.Has(FieldForce) {
		ref.Force = s.data.frc.ref(i)
	}
	if mask.Has(FieldOldPosition) {
		ref.OldPosition = s.data.old.ref(i)
	}
	if mask.Has(FieldMass) {
		ref.Mass = &s.data.mass[i]
	}
	if mask.Has(FieldState) {
		ref.State = &s.data.state[i]
	}
	if mask.Has(FieldType) {
		ref.Type = &s.data.typ[i]
	}
	if mask.Has(FieldID) {
		ref.ID = &s.data.id[i]
	}
	if mask.Has(FieldUserData) {
		ref.UserData = &s.data.user[i]
	}
	return ref
}

func (s *soaStorage) View(i int, mask FieldMask) ParticleView {
	view := ParticleView{Mask: mask}
	if mask.Has(FieldPosition) {
		view.Position = s.data.pos.get(i)
	}
	if mask.Has(FieldVelocity) {
		view.Velocity = s.data.vel.get(i)
	}
	if mask.Has(FieldForce) {
		view.Force = s.data.frc.get(i)
	}
	if mask.Has(FieldOldPosition) {
		view.OldPosition = s.data.old.get(i)
	}
	if mask.Has(FieldMass) {
		view.Mass = s.data.mass[i]
	}
	if mask.Has(FieldState) {
		view.State = s.data.state[i]
	}
	if mask.Has(FieldType) {
		view.Type = s.data.typ[i]
	}
	if mask.Has(FieldID) {
		view.ID = s.data.id[i]
	}
	if mask.Has(FieldUserData) {
		view.UserData = s.data.user[i]
	}
	return view
}

func (s *soaStorage) RestrictedAt(i int, mask FieldMask) RestrictedRef {
	return RestrictedRef{
		Force: s.data.frc.ref(i),
		View:  s.View(i, mask),
	}
}

func (s *soaStorage) Swap(i, j int) {
	s.data.pos.swap(i, j)
	s.data.vel.swap(i, j)
	s.data.frc.swap(i, j)
	s.data.old.swap(i, j)
	s.data.mass[i], s.data.mass[j] = s.data.mass[j], s.data.mass[i]
	s.data.state[i], s.data.state[j] = s.data.state[j], s.data.state[i]
	s.data.typ[i], s.data.typ[j] = s.data.typ[j], s.data.typ[i]
	s.data.id[i], s.data.id[j] = s.data.id[j], s.data.id[i]
	s.data.user[i], s.data.user[j] = s.data.user[j], s.data.user[i]
}

func (s *soaStorage) EnsureScratch(slots int) {
	if len(s.scratch.mass) < slots {
		s.scratch = makeSoAColumns(slots)
	}
}

func (s *soaStorage) WriteToScratch(dst, src int) {
	s.scratch.copyRecord(dst, &s.data, src)
}

func (s *soaStorage) PadScratch(dst int) {
	s.scratch.setRecord(dst, sentinelRecord())
}

func (s *soaStorage) SwapScratch(slots int) {
	s.data, s.scratch = s.scratch, s.data
}
