package kinetic

import "fmt"

// TypeInteraction binds a force law to a pair of dense particle types.
type TypeInteraction struct {
	Type1, Type2 ParticleType
	Force        Force
}

// IDInteraction binds a force law to a pair of dense interaction ids.
type IDInteraction struct {
	ID1, ID2 ParticleID
	Force    Force
}

// TypePair and IDPair key schema attributions.
type TypePair struct {
	T1, T2 ParticleType
}

type IDPair struct {
	I1, I2 ParticleID
}

// InteractionProp describes one deduplicated interaction entry.
type InteractionProp struct {
	Cutoff      float64
	IsActive    bool
	UsedByTypes []TypePair
	UsedByIDs   []IDPair
}

// InteractionSchema is the container-facing summary of the force table:
// which interactions exist, their cutoffs, and which type and id pairs
// each one serves.
type InteractionSchema struct {
	Types []ParticleType
	IDs   []ParticleID

	TypeInteractionMatrix []int // t1*T + t2 -> index into Interactions
	IDInteractionMatrix   []int // i1*I + i2 -> index into Interactions

	Interactions []InteractionProp
}

// MaxCutoff is the largest cutoff among active type interactions, the
// quantity that sizes linked cells.
func (s InteractionSchema) MaxCutoff() float64 {
	max := 0.0
	for _, prop := range s.Interactions {
		if prop.IsActive && len(prop.UsedByTypes) > 0 && prop.Cutoff > max {
			max = prop.Cutoff
		}
	}
	return max
}

// ForceTable is the dense (type,type) and (id,id) force lookup. Immutable
// after construction.
type ForceTable struct {
	typeForces []Force
	idForces   []Force
	nTypes     int
	nIDs       int
}

// NewForceTable builds the dense tables from interactions whose type and
// id fields are already dense (the builder remaps user values first).
// Missing off-diagonal type cells are mixed from the diagonals; mixing
// across different laws fails construction.
func NewForceTable(typeInteractions []TypeInteraction, idInteractions []IDInteraction, nTypes, nIDs int) (*ForceTable, error) {
	t := &ForceTable{
		typeForces: make([]Force, nTypes*nTypes),
		idForces:   make([]Force, nIDs*nIDs),
		nTypes:     nTypes,
		nIDs:       nIDs,
	}
	for i := range t.typeForces {
		t.typeForces[i] = forceSentinel{}
	}
	for i := range t.idForces {
		t.idForces[i] = forceSentinel{}
	}

	if err := t.buildTypeForces(typeInteractions); err != nil {
		return nil, err
	}
	if err := t.buildIDForces(idInteractions); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *ForceTable) buildTypeForces(interactions []TypeInteraction) error {
	for _, x := range interactions {
		if int(x.Type1) >= t.nTypes || int(x.Type2) >= t.nTypes {
			return fmt.Errorf("type interaction (%d,%d) references a type outside [0,%d)", x.Type1, x.Type2, t.nTypes)
		}
		t.typeForces[t.typeIndex(x.Type1, x.Type2)] = x.Force
		t.typeForces[t.typeIndex(x.Type2, x.Type1)] = x.Force
	}

	// mix missing off-diagonals from the diagonals
	for a := 0; a < t.nTypes; a++ {
		for b := 0; b < t.nTypes; b++ {
			if a == b {
				continue
			}
			cell := t.typeIndex(ParticleType(a), ParticleType(b))
			if _, empty := t.typeForces[cell].(forceSentinel); !empty {
				continue
			}

			fa := t.typeForces[t.typeIndex(ParticleType(a), ParticleType(a))]
			fb := t.typeForces[t.typeIndex(ParticleType(b), ParticleType(b))]
			if _, ok := fa.(forceSentinel); ok {
				return fmt.Errorf("no interaction declared for type pair (%d,%d) and type %d has no self interaction to mix from", a, b, a)
			}
			if _, ok := fb.(forceSentinel); ok {
				return fmt.Errorf("no interaction declared for type pair (%d,%d) and type %d has no self interaction to mix from", a, b, b)
			}

			mixed, err := fa.Mix(fb)
			if err != nil {
				return fmt.Errorf("type pair (%d,%d): %w", a, b, err)
			}
			t.typeForces[cell] = mixed
			t.typeForces[t.typeIndex(ParticleType(b), ParticleType(a))] = mixed
		}
	}

	// after mixing no sentinel may remain anywhere, diagonal included
	for a := 0; a < t.nTypes; a++ {
		if _, empty := t.typeForces[t.typeIndex(ParticleType(a), ParticleType(a))].(forceSentinel); empty {
			return fmt.Errorf("type %d has no self interaction declared", a)
		}
	}
	return nil
}

func (t *ForceTable) buildIDForces(interactions []IDInteraction) error {
	for _, x := range interactions {
		if int(x.ID1) >= t.nIDs || int(x.ID2) >= t.nIDs {
			return fmt.Errorf("id interaction (%d,%d) references an id outside [0,%d)", x.ID1, x.ID2, t.nIDs)
		}
		if x.ID1 == x.ID2 {
			return fmt.Errorf("id interaction references the same id %d twice", x.ID1)
		}
		t.idForces[t.idIndex(x.ID1, x.ID2)] = x.Force
		t.idForces[t.idIndex(x.ID2, x.ID1)] = x.Force
	}

	// undeclared id pairs get an explicit NoForce; the diagonal stays a
	// sentinel since self interaction is structurally impossible
	for a := 0; a < t.nIDs; a++ {
		for b := 0; b < t.nIDs; b++ {
			if a == b {
				continue
			}
			cell := t.idIndex(ParticleID(a), ParticleID(b))
			if _, empty := t.idForces[cell].(forceSentinel); empty {
				t.idForces[cell] = NoForce{}
			}
		}
	}
	return nil
}

func (t *ForceTable) typeIndex(a, b ParticleType) int { return int(a)*t.nTypes + int(b) }
func (t *ForceTable) idIndex(a, b ParticleID) int     { return int(a)*t.nIDs + int(b) }

func (t *ForceTable) NumTypes() int { return t.nTypes }
func (t *ForceTable) NumIDs() int   { return t.nIDs }

// Dispatch invokes fn with the (t1,t2) force unless it is the sentinel or
// NoForce. Callers lift the dispatch out of their pair loops.
func (t *ForceTable) Dispatch(t1, t2 ParticleType, fn func(Force)) {
	f := t.typeForces[t.typeIndex(t1, t2)]
	switch f.(type) {
	case forceSentinel, NoForce:
		return
	}
	fn(f)
}

// DispatchID is Dispatch for id-pair interactions.
func (t *ForceTable) DispatchID(i1, i2 ParticleID, fn func(Force)) {
	f := t.idForces[t.idIndex(i1, i2)]
	switch f.(type) {
	case forceSentinel, NoForce:
		return
	}
	fn(f)
}

// GenerateSchema deduplicates all table entries by Force.Equals and
// attributes every (type,type) and (id,id) pair to exactly one entry.
func (t *ForceTable) GenerateSchema() InteractionSchema {
	types := make([]ParticleType, t.nTypes)
	for i := range types {
		types[i] = ParticleType(i)
	}
	ids := make([]ParticleID, t.nIDs)
	for i := range ids {
		ids[i] = ParticleID(i)
	}

	var unique []Force
	var props []InteractionProp

	indexOf := func(f Force) int {
		for i, u := range unique {
			if u.Equals(f) {
				return i
			}
		}
		unique = append(unique, f)
		_, noop := f.(NoForce)
		_, sentinel := f.(forceSentinel)
		props = append(props, InteractionProp{
			Cutoff:   f.Cutoff(),
			IsActive: !noop && !sentinel,
		})
		return len(unique) - 1
	}

	typeMatrix := make([]int, t.nTypes*t.nTypes)
	for a := 0; a < t.nTypes; a++ {
		for b := 0; b < t.nTypes; b++ {
			idx := indexOf(t.typeForces[t.typeIndex(ParticleType(a), ParticleType(b))])
			typeMatrix[a*t.nTypes+b] = idx
			props[idx].UsedByTypes = append(props[idx].UsedByTypes, TypePair{ParticleType(a), ParticleType(b)})
		}
	}

	idMatrix := make([]int, t.nIDs*t.nIDs)
	for a := 0; a < t.nIDs; a++ {
		for b := 0; b < t.nIDs; b++ {
			idx := indexOf(t.idForces[t.idIndex(ParticleID(a), ParticleID(b))])
			idMatrix[a*t.nIDs+b] = idx
			if a < b {
				props[idx].UsedByIDs = append(props[idx].UsedByIDs, IDPair{ParticleID(a), ParticleID(b)})
			}
		}
	}

	return InteractionSchema{
		Types:                 types,
		IDs:                   ids,
		TypeInteractionMatrix: typeMatrix,
		IDInteractionMatrix:   idMatrix,
		Interactions:          props,
	}
}
