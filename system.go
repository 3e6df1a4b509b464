package kinetic

import (
	"github.com/go-gl/mathgl/mgl64"
)

// System owns the container, the interaction tables, and the registered
// controllers and fields, and exposes the one-shot physics operations an
// integrator composes into a time step.
type System struct {
	box        Box
	container  Container
	forces     *ForceTable
	boundaries *BoundaryTable

	controllers []Controller
	fields      []ForceField

	// idToParticle maps dense interaction ids to record ids for the
	// topology (id-pair) force pass.
	idToParticle []ParticleID

	wrapBCP BCP
	log     Logger

	time float64
	step int

	moved []int // boundary-move scratch
}

func newSystem(
	box Box,
	container Container,
	forces *ForceTable,
	boundaries *BoundaryTable,
	controllers []Controller,
	fields []ForceField,
	idToParticle []ParticleID,
	flags ContainerFlags,
	log Logger,
) (*System, error) {
	s := &System{
		box:          box,
		container:    container,
		forces:       forces,
		boundaries:   boundaries,
		controllers:  controllers,
		fields:       fields,
		idToParticle: idToParticle,
		wrapBCP:      minimumImageBCP(flags, box.Extent),
		log:          log,
	}

	for _, c := range s.controllers {
		if err := c.Init(s); err != nil {
			return nil, err
		}
	}
	for _, f := range s.fields {
		f.Init(s)
	}
	return s, nil
}

// -----------------
// lifecycle & state
// -----------------

func (s *System) Time() float64 { return s.time }
func (s *System) Step() int     { return s.step }

func (s *System) Box() Box       { return s.box }
func (s *System) Domain() Domain { return Domain{Origin: s.box.Min, Extent: s.box.Extent} }

func (s *System) UpdateTime(dt float64) { s.time += dt }
func (s *System) IncrementStep()        { s.step++ }

func (s *System) ResetTime() {
	s.time = 0
	s.step = 0
}

func (s *System) Size() int { return s.container.Len() }

// Dimensions counts the axes with a nonzero extent.
func (s *System) Dimensions() int {
	d := 3
	for ax := 0; ax < 3; ax++ {
		if s.box.Extent[ax] == 0 {
			d--
		}
	}
	return d
}

func (s *System) Logger() Logger { return s.log }

func (s *System) Container() Container { return s.container }

// ------------------
// particle accessors
// ------------------

func (s *System) At(index int, mask FieldMask) ParticleRef {
	return s.container.Storage().At(index, mask)
}

func (s *System) View(index int, mask FieldMask) ParticleView {
	return s.container.Storage().View(index, mask)
}

func (s *System) RestrictedAt(index int, mask FieldMask) RestrictedRef {
	return s.container.Storage().RestrictedAt(index, mask)
}

func (s *System) IDToIndex(id ParticleID) int {
	return s.container.IDToIndex(id)
}

func (s *System) AtID(id ParticleID, mask FieldMask) ParticleRef {
	return s.At(s.IDToIndex(id), mask)
}

func (s *System) ViewID(id ParticleID, mask FieldMask) ParticleView {
	return s.View(s.IDToIndex(id), mask)
}

// ForEachParticle visits every live particle matching the state filter.
func (s *System) ForEachParticle(mask FieldMask, filter ParticleState, policy TraversalPolicy, fn func(ParticleRef)) {
	forEachParticle(s.container.Storage(), mask, filter, policy, fn)
}

func (s *System) CollectIndicesInRegion(region Box) []int {
	return s.container.CollectIndicesInRegion(region)
}

// ExportParticles returns dense records in id order.
func (s *System) ExportParticles() []ParticleRecord {
	records := make([]ParticleRecord, s.container.Len())
	st := s.container.Storage()
	n := st.SlotCount()
	for i := 0; i < n; i++ {
		v := st.View(i, FieldAll)
		if v.State&StateInvalid != 0 {
			continue
		}
		records[v.ID] = ParticleRecord{
			ID:          v.ID,
			Type:        v.Type,
			Position:    v.Position,
			Velocity:    v.Velocity,
			Force:       v.Force,
			OldPosition: v.OldPosition,
			Mass:        v.Mass,
			State:       v.State,
			UserData:    v.UserData,
		}
	}
	return records
}

// -------------------
// one-shot physics ops
// -------------------

// RebuildStructure re-bins the container after particle motion.
func (s *System) RebuildStructure() {
	s.container.RebuildStructure()
}

// UpdateForces resets all forces, runs every interaction batch through
// the matching force kernel, then evaluates the topology (id-pair)
// interactions. Newton-3 is applied inside the kernel.
func (s *System) UpdateForces() {
	s.ForEachParticle(FieldForce, StateAll, TraverseSequential, func(p ParticleRef) {
		p.Force.Set(mgl64.Vec3{})
	})

	s.container.ForEachInteractionBatch(func(b Batch, bcp BCP) {
		t1, t2 := b.Types()
		// one dispatch per batch; the pair loop below is monomorphic
		s.forces.Dispatch(t1, t2, func(f Force) {
			s.runPairKernel(b, bcp, f)
		})
	})

	s.applyTopologyForces()
}

func (s *System) runPairKernel(b Batch, bcp BCP, f Force) {
	st := s.container.Storage()
	cutoff := f.Cutoff()
	cutoffSq := cutoff * cutoff
	viewMask := FieldPosition | FieldState | f.Fields()

	b.ForEachPair(func(i, j int) {
		vi := st.View(i, viewMask)
		vj := st.View(j, viewMask)

		r := bcp(vj.Position.Sub(vi.Position))
		r2 := r.Dot(r)
		// negated comparison also rejects the NaN produced by sentinel
		// lane positions
		if !(r2 <= cutoffSq) {
			return
		}

		fv := f.Eval(vi, vj, r)
		if vj.State&StatePassive == 0 {
			st.At(i, FieldForce).Force.Add(fv)
		}
		if vi.State&StatePassive == 0 {
			st.At(j, FieldForce).Force.Sub(fv)
		}
	})
}

func (s *System) applyTopologyForces() {
	st := s.container.Storage()
	nIDs := s.forces.NumIDs()

	for i1 := 0; i1 < nIDs; i1++ {
		for i2 := i1 + 1; i2 < nIDs; i2++ {
			s.forces.DispatchID(ParticleID(i1), ParticleID(i2), func(f Force) {
				idxA := s.container.IDToIndex(s.idToParticle[i1])
				idxB := s.container.IDToIndex(s.idToParticle[i2])

				viewMask := FieldPosition | FieldState | f.Fields()
				va := st.View(idxA, viewMask)
				vb := st.View(idxB, viewMask)

				r := s.wrapBCP(vb.Position.Sub(va.Position))
				cutoff := f.Cutoff()
				if r2 := r.Dot(r); !(r2 <= cutoff*cutoff) {
					return
				}

				fv := f.Eval(va, vb, r)
				if vb.State&StatePassive == 0 {
					st.At(idxA, FieldForce).Force.Add(fv)
				}
				if va.State&StatePassive == 0 {
					st.At(idxB, FieldForce).Force.Sub(fv)
				}
			})
		}
	}
}

// ApplyBoundaryConditions queries each face's boundary region and applies
// the face condition. Outside half-space faces additionally confirm the
// particle exited through this particular face, so corner exits are
// handled by exactly one face per step.
func (s *System) ApplyBoundaryConditions() {
	st := s.container.Storage()
	s.moved = s.moved[:0]

	for _, face := range AllFaces {
		cb := s.boundaries.At(face)
		indices := s.container.CollectIndicesInRegion(cb.Region)
		if len(indices) == 0 {
			continue
		}

		mask := cb.Condition.Fields()
		ax := face.Axis()

		if cb.Topology.Thickness >= 0 {
			for _, idx := range indices {
				cb.Condition.Apply(st.At(idx, mask), s.box, face)
				if cb.Topology.MayChangePosition {
					s.moved = append(s.moved, idx)
				}
			}
			continue
		}

		wall := s.box.Min[ax]
		if face.SignPositive() {
			wall = s.box.Max[ax]
		}
		a1, a2 := face.LateralAxes()

		for _, idx := range indices {
			v := st.View(idx, FieldPosition|FieldOldPosition)
			diff := v.Position.Sub(v.OldPosition)
			if diff[ax] == 0 {
				continue
			}

			// intersect the travel segment with the face plane and demand
			// the crossing point lies on this face's rectangle
			t := (wall - v.OldPosition[ax]) / diff[ax]
			crossing := v.OldPosition.Add(diff.Mul(t))
			if crossing[a1] < s.box.Min[a1] || crossing[a1] > s.box.Max[a1] ||
				crossing[a2] < s.box.Min[a2] || crossing[a2] > s.box.Max[a2] {
				continue
			}

			cb.Condition.Apply(st.At(idx, mask), s.box, face)
			if cb.Topology.MayChangePosition {
				s.moved = append(s.moved, idx)
			}
		}
	}

	if len(s.moved) > 0 {
		s.container.NotifyMoved(s.moved)
	}
}

// ApplyForceFields runs every registered field over the whole particle
// set through restricted handles, then invokes each field's update hook.
func (s *System) ApplyForceFields() {
	st := s.container.Storage()
	for _, field := range s.fields {
		mask := field.Fields()
		n := st.SlotCount()
		for i := 0; i < n; i++ {
			if st.View(i, FieldState).State&StateInvalid != 0 {
				continue
			}
			field.Apply(st.RestrictedAt(i, mask))
		}
	}
	for _, field := range s.fields {
		field.Update(s)
	}
}

// ApplyControllers fires every controller whose trigger matches the
// current step and time.
func (s *System) ApplyControllers() {
	ctx := TriggerContext{Step: s.step, Time: s.time}
	for _, c := range s.controllers {
		if c.Trigger()(ctx) {
			c.Apply(s)
		}
	}
}

// controllerUpdater is the optional per-step hook a controller may
// implement in addition to its triggered Apply.
type controllerUpdater interface {
	Update(sys *System)
}

// UpdateAllComponents runs the per-step update hooks of fields and
// controllers. Integrators call it once at the top of every step.
func (s *System) UpdateAllComponents() {
	for _, f := range s.fields {
		f.Update(s)
	}
	for _, c := range s.controllers {
		if u, ok := c.(controllerUpdater); ok {
			u.Update(s)
		}
	}
}
