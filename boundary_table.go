package kinetic

import "math"

// pseudoInf keeps "infinite" half-space regions arithmetically safe: the
// corners stay addable without overflowing float64.
const pseudoInf = math.MaxFloat64 / 4

// CompiledBoundary is the per-face record the step driver consumes: the
// region to query, the topology flags, and the stored condition.
type CompiledBoundary struct {
	Region    Box
	Domain    Box
	Face      Face
	Topology  Topology
	Condition BoundaryCondition
}

// compileBoundary derives the query region from the topology. A
// non-negative thickness selects the inside slab adjacent to the face; a
// negative one selects the outside half-space beyond the wall.
func compileBoundary(bc BoundaryCondition, domain Box, face Face) CompiledBoundary {
	ax := face.Axis()
	plus := face.SignPositive()
	topo := bc.Topology()

	var min, max [3]float64
	if topo.Thickness >= 0 {
		min = domain.Min
		max = domain.Max

		d := math.Min(topo.Thickness, domain.Extent[ax])
		if plus {
			min[ax] = domain.Max[ax] - d
		} else {
			max[ax] = domain.Min[ax] + d
		}
	} else {
		min = [3]float64{-pseudoInf, -pseudoInf, -pseudoInf}
		max = [3]float64{pseudoInf, pseudoInf, pseudoInf}
		if plus {
			min[ax] = domain.Max[ax]
		} else {
			max[ax] = domain.Min[ax]
		}
	}

	return CompiledBoundary{
		Region:    MustBox(min, max),
		Domain:    domain,
		Face:      face,
		Topology:  topo,
		Condition: bc,
	}
}

// BoundaryTable holds the six compiled faces. Immutable after build.
type BoundaryTable struct {
	table [6]CompiledBoundary
}

func NewBoundaryTable(conditions [6]BoundaryCondition, domain Box) *BoundaryTable {
	var t BoundaryTable
	for _, face := range AllFaces {
		t.table[face] = compileBoundary(conditions[face], domain, face)
	}
	return &t
}

func (t *BoundaryTable) At(face Face) *CompiledBoundary {
	return &t.table[face]
}

// PeriodicAxes reports, per axis, whether both faces force periodic wrap.
func (t *BoundaryTable) PeriodicAxes() [3]bool {
	var periodic [3]bool
	for ax := 0; ax < 3; ax++ {
		minus := t.table[Face(2*ax)].Topology
		plus := t.table[Face(2*ax+1)].Topology
		periodic[ax] = minus.ForceWrap && plus.ForceWrap
	}
	return periodic
}
