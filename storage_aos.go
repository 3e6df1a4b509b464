package kinetic

// aosStorage keeps whole records contiguous: one ParticleRecord per slot.
type aosStorage struct {
	particles []ParticleRecord
	scratch   []ParticleRecord
}

func newAoSStorage(records []ParticleRecord) *aosStorage {
	s := &aosStorage{particles: make([]ParticleRecord, len(records))}
	copy(s.particles, records)
	return s
}

func (s *aosStorage) Len() int       { return len(s.particles) }
func (s *aosStorage) SlotCount() int { return len(s.particles) }
func (s *aosStorage) ChunkSize() int { return 1 }

func (s *aosStorage) At(i int, mask FieldMask) ParticleRef {
	p := &s.particles[i]
	ref := ParticleRef{Mask: mask}
	if mask.Has(FieldPosition) {
		ref.Position = vec3RefOf(&p.Position)
	}
	if mask.Has(FieldVelocity) {
		ref.Velocity = vec3RefOf(&p.Velocity)
	}
	if mask.Has(FieldForce) {
		ref.Force = vec3RefOf(&p.Force)
	}
	if mask.Has(FieldOldPosition) {
		ref.OldPosition = vec3RefOf(&p.OldPosition)
	}
	if mask.Has(FieldMass) {
		ref.Mass = &p.Mass
	}
	if mask.Has(FieldState) {
		ref.State = &p.State
	}
	if mask.Has(FieldType) {
		ref.Type = &p.Type
	}
	if mask.Has(FieldID) {
		ref.ID = &p.ID
	}
	if mask.Has(FieldUserData) {
		ref.UserData = &p.UserData
	}
	return ref
}

func (s *aosStorage) View(i int, mask FieldMask) ParticleView {
	p := &s.particles[i]
	view := ParticleView{Mask: mask}
	if mask.Has(FieldPosition) {
		view.Position = p.Position
	}
	if mask.Has(FieldVelocity) {
		view.Velocity = p.Velocity
	}
	if mask.Has(FieldForce) {
		view.Force = p.Force
	}
	if mask.Has(FieldOldPosition) {
		view.OldPosition = p.OldPosition
	}
	if mask.Has(FieldMass) {
		view.Mass = p.Mass
	}
	if mask.Has(FieldState) {
		view.State = p.State
	}
	if mask.Has(FieldType) {
		view.Type = p.Type
	}
	if mask.Has(FieldID) {
		view.ID = p.ID
	}
	if mask.Has(FieldUserData) {
		view.UserData = p.UserData
	}
	return view
}

func (s *aosStorage) RestrictedAt(i int, mask FieldMask) RestrictedRef {
	return RestrictedRef{
		Force: vec3RefOf(&s.particles[i].Force),
		View:  s.View(i, mask),
	}
}

func (s *aosStorage) Swap(i, j int) {
	s.particles[i], s.particles[j] = s.particles[j], s.particles[i]
}

func (s *aosStorage) EnsureScratch(slots int) {
	if cap(s.scratch) < slots {
		s.scratch = make([]ParticleRecord, slots)
	}
	s.scratch = s.scratch[:slots]
}

func (s *aosStorage) WriteToScratch(dst, src int) {
	s.scratch[dst] = s.particles[src]
}

func (s *aosStorage) PadScratch(dst int) {
	s.scratch[dst] = sentinelRecord()
}

func (s *aosStorage) SwapScratch(slots int) {
	s.particles, s.scratch = s.scratch[:slots], s.particles
}
