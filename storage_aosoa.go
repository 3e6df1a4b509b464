package kinetic

// aosoaChunkSize is the lane width of the chunked layout. Power of two so
// slot indices split into (chunk, lane) with shift and mask.
const aosoaChunkSize = 8
const aosoaChunkShift = 3
const aosoaLaneMask = aosoaChunkSize - 1

// particleChunk holds aosoaChunkSize particles in lane-major arrays, so a
// kernel can sweep one field of a whole chunk contiguously.
type particleChunk struct {
	posX, posY, posZ [aosoaChunkSize]float64
	velX, velY, velZ [aosoaChunkSize]float64
	frcX, frcY, frcZ [aosoaChunkSize]float64
	oldX, oldY, oldZ [aosoaChunkSize]float64
	mass             [aosoaChunkSize]float64
	state            [aosoaChunkSize]ParticleState
	typ              [aosoaChunkSize]ParticleType
	id               [aosoaChunkSize]ParticleID
	user             [aosoaChunkSize]any
}

func (c *particleChunk) setRecord(lane int, r ParticleRecord) {
	c.posX[lane], c.posY[lane], c.posZ[lane] = r.Position.X(), r.Position.Y(), r.Position.Z()
	c.velX[lane], c.velY[lane], c.velZ[lane] = r.Velocity.X(), r.Velocity.Y(), r.Velocity.Z()
	c.frcX[lane], c.frcY[lane], c.frcZ[lane] = r.Force.X(), r.Force.Y(), r.Force.Z()
	c.oldX[lane], c.oldY[lane], c.oldZ[lane] = r.OldPosition.X(), r.OldPosition.Y(), r.OldPosition.Z()
	c.mass[lane] = r.Mass
	c.state[lane] = r.State
	c.typ[lane] = r.Type
	c.id[lane] = r.ID
	c.user[lane] = r.UserData
}

func (c *particleChunk) record(lane int) ParticleRecord {
	return ParticleRecord{
		ID:          c.id[lane],
		Type:        c.typ[lane],
		Position:    [3]float64{c.posX[lane], c.posY[lane], c.posZ[lane]},
		Velocity:    [3]float64{c.velX[lane], c.velY[lane], c.velZ[lane]},
		Force:       [3]float64{c.frcX[lane], c.frcY[lane], c.frcZ[lane]},
		OldPosition: [3]float64{c.oldX[lane], c.oldY[lane], c.oldZ[lane]},
		Mass:        c.mass[lane],
		State:       c.state[lane],
		UserData:    c.user[lane],
	}
}

// aosoaStorage is the chunked hybrid layout: an array of fixed-width
// chunks, each chunk an SoA block. Holes are sentinel records so batches
// can sweep whole chunks without branching on partial fills.
type aosoaStorage struct {
	chunks        []particleChunk
	scratchChunks []particleChunk
	live          int
	slots         int
}

func newAoSoAStorage(records []ParticleRecord) *aosoaStorage {
	n := len(records)
	slots := ((n + aosoaChunkSize - 1) >> aosoaChunkShift) << aosoaChunkShift
	s := &aosoaStorage{
		chunks: make([]particleChunk, slots>>aosoaChunkShift),
		live:   n,
		slots:  slots,
	}
	for i, r := range records {
		s.chunkLane(i).setRecord(i&aosoaLaneMask, r)
	}
	for i := n; i < slots; i++ {
		s.chunkLane(i).setRecord(i&aosoaLaneMask, sentinelRecord())
	}
	return s
}

func (s *aosoaStorage) chunkLane(i int) *particleChunk {
	return &s.chunks[i>>aosoaChunkShift]
}

func (s *aosoaStorage) Len() int       { return s.live }
func (s *aosoaStorage) SlotCount() int { return s.slots }
func (s *aosoaStorage) ChunkSize() int { return aosoaChunkSize }

func (s *aosoaStorage) At(i int, mask FieldMask) ParticleRef {
	c := s.chunkLane(i)
	l := i & aosoaLaneMask

	ref := ParticleRef{Mask: mask}
	if mask.Has(FieldPosition) {
		ref.Position = Vec3Ref{X: &c.posX[l], Y: &c.posY[l], Z: &c.posZ[l]}
	}
	if mask.Has(FieldVelocity) {
		ref.Velocity = Vec3Ref{X: &c.velX[l], Y: &c.velY[l], Z: &c.velZ[l]}
	}
	if mask.Has(FieldForce) {
		ref.Force = Vec3Ref{X: &c.frcX[l], Y: &c.frcY[l], Z: &c.frcZ[l]}
	}
	if mask.Has(FieldOldPosition) {
		ref.OldPosition = Vec3Ref{X: &c.oldX[l], Y: &c.oldY[l], Z: &c.oldZ[l]}
	}
	if mask.Has(FieldMass) {
		ref.Mass = &c.mass[l]
	}
	if mask.Has(FieldState) {
		ref.State = &c.state[l]
	}
	if mask.Has(FieldType) {
		ref.Type = &c.typ[l]
	}
	if mask.Has(FieldID) {
		ref.ID = &c.id[l]
	}
	if mask.Has(FieldUserData) {
		ref.UserData = &c.user[l]
	}
	return ref
}

func (s *aosoaStorage) View(i int, mask FieldMask) ParticleView {
	c := s.chunkLane(i)
	l := i & aosoaLaneMask

	view := ParticleView{Mask: mask}
	if mask.Has(FieldPosition) {
		view.Position = [3]float64{c.posX[l], c.posY[l], c.posZ[l]}
	}
	if mask.Has(FieldVelocity) {
		view.Velocity = [3]float64{c.velX[l], c.velY[l], c.velZ[l]}
	}
	if mask.Has(FieldForce) {
		view.Force = [3]float64{c.frcX[l], c.frcY[l], c.frcZ[l]}
	}
	if mask.Has(FieldOldPosition) {
		view.OldPosition = [3]float64{c.oldX[l], c.oldY[l], c.oldZ[l]}
	}
	if mask.Has(FieldMass) {
		view.Mass = c.mass[l]
	}
	if mask.Has(FieldState) {
		view.State = c.state[l]
	}
	if mask.Has(FieldType) {
		view.Type = c.typ[l]
	}
	if mask.Has(FieldID) {
		view.ID = c.id[l]
	}
	if mask.Has(FieldUserData) {
		view.UserData = c.user[l]
	}
	return view
}

func (s *aosoaStorage) RestrictedAt(i int, mask FieldMask) RestrictedRef {
	c := s.chunkLane(i)
	l := i & aosoaLaneMask
	return RestrictedRef{
		Force: Vec3Ref{X: &c.frcX[l], Y: &c.frcY[l], Z: &c.frcZ[l]},
		View:  s.View(i, mask),
	}
}

func (s *aosoaStorage) Swap(i, j int) {
	ri := s.chunkLane(i).record(i & aosoaLaneMask)
	rj := s.chunkLane(j).record(j & aosoaLaneMask)
	s.chunkLane(i).setRecord(i&aosoaLaneMask, rj)
	s.chunkLane(j).setRecord(j&aosoaLaneMask, ri)
}

func (s *aosoaStorage) EnsureScratch(slots int) {
	chunks := (slots + aosoaChunkSize - 1) >> aosoaChunkShift
	if len(s.scratchChunks) < chunks {
		s.scratchChunks = make([]particleChunk, chunks)
	}
}

func (s *aosoaStorage) WriteToScratch(dst, src int) {
	r := s.chunkLane(src).record(src & aosoaLaneMask)
	s.scratchChunks[dst>>aosoaChunkShift].setRecord(dst&aosoaLaneMask, r)
}

func (s *aosoaStorage) PadScratch(dst int) {
	s.scratchChunks[dst>>aosoaChunkShift].setRecord(dst&aosoaLaneMask, sentinelRecord())
}

func (s *aosoaStorage) SwapScratch(slots int) {
	s.chunks, s.scratchChunks = s.scratchChunks, s.chunks
	s.slots = slots
}
