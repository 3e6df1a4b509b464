package kinetic

import "github.com/go-gl/mathgl/mgl64"

// BCP (boundary-coordinate projector) adjusts a pair displacement for
// periodic wrap. Identity outside periodic axes.
type BCP func(dr mgl64.Vec3) mgl64.Vec3

func identityBCP(dr mgl64.Vec3) mgl64.Vec3 { return dr }

type BatchSymmetry uint8

const (
	// Symmetric: pairs from one index list, i<j only.
	Symmetric BatchSymmetry = iota
	// Asymmetric: full Cartesian product of two distinct lists.
	Asymmetric
)

type ParallelPolicy uint8

const (
	ParallelNone ParallelPolicy = iota
	ParallelInner
)

type UpdatePolicy uint8

const (
	UpdateSerial UpdatePolicy = iota
	UpdateSerialNewton3
	// Atomic policies are reserved for a parallel force pass; no container
	// emits them today.
	UpdateAtomic
	UpdateAtomicNewton3
)

// IndexRange is a half-open run of physical storage indices.
type IndexRange struct {
	Start, End int
}

func (r IndexRange) Len() int { return r.End - r.Start }

// RangePair couples two index runs whose cross product must be evaluated.
type RangePair struct {
	A, B IndexRange
}

// Batch is one unit of pairwise work emitted by a container. The shape
// (single range, range pair, or chunk list) is the container's choice;
// consumers only enumerate pairs.
type Batch interface {
	Types() (ParticleType, ParticleType)
	Symmetry() BatchSymmetry
	Parallel() ParallelPolicy
	Update() UpdatePolicy
	ForEachPair(fn func(i, j int))
}

// SymmetricRangeBatch: one contiguous same-type run, i<j pairs.
type SymmetricRangeBatch struct {
	Type    ParticleType
	Indices IndexRange
}

func (b SymmetricRangeBatch) Types() (ParticleType, ParticleType) { return b.Type, b.Type }
func (b SymmetricRangeBatch) Symmetry() BatchSymmetry             { return Symmetric }
func (b SymmetricRangeBatch) Parallel() ParallelPolicy            { return ParallelNone }
func (b SymmetricRangeBatch) Update() UpdatePolicy                { return UpdateSerialNewton3 }

func (b SymmetricRangeBatch) ForEachPair(fn func(i, j int)) {
	for i := b.Indices.Start; i < b.Indices.End; i++ {
		for j := i + 1; j < b.Indices.End; j++ {
			fn(i, j)
		}
	}
}

// AsymmetricRangeBatch: full cross product of two distinct runs.
type AsymmetricRangeBatch struct {
	Type1, Type2 ParticleType
	Indices1     IndexRange
	Indices2     IndexRange
}

func (b AsymmetricRangeBatch) Types() (ParticleType, ParticleType) { return b.Type1, b.Type2 }
func (b AsymmetricRangeBatch) Symmetry() BatchSymmetry             { return Asymmetric }
func (b AsymmetricRangeBatch) Parallel() ParallelPolicy            { return ParallelNone }
func (b AsymmetricRangeBatch) Update() UpdatePolicy                { return UpdateSerialNewton3 }

func (b AsymmetricRangeBatch) ForEachPair(fn func(i, j int)) {
	for i := b.Indices1.Start; i < b.Indices1.End; i++ {
		for j := b.Indices2.Start; j < b.Indices2.End; j++ {
			fn(i, j)
		}
	}
}

// SymmetricChunkedBatch: many same-type runs (one per cell), i<j within
// each run.
type SymmetricChunkedBatch struct {
	Type   ParticleType
	Chunks []IndexRange
}

func (b *SymmetricChunkedBatch) Types() (ParticleType, ParticleType) { return b.Type, b.Type }
func (b *SymmetricChunkedBatch) Symmetry() BatchSymmetry             { return Symmetric }
func (b *SymmetricChunkedBatch) Parallel() ParallelPolicy            { return ParallelNone }
func (b *SymmetricChunkedBatch) Update() UpdatePolicy                { return UpdateSerialNewton3 }

func (b *SymmetricChunkedBatch) ForEachPair(fn func(i, j int)) {
	for _, c := range b.Chunks {
		for i := c.Start; i < c.End; i++ {
			for j := i + 1; j < c.End; j++ {
				fn(i, j)
			}
		}
	}
}

// AsymmetricChunkedBatch: many run pairs (one per cell or cell pair).
type AsymmetricChunkedBatch struct {
	Type1, Type2 ParticleType
	Chunks       []RangePair
}

func (b *AsymmetricChunkedBatch) Types() (ParticleType, ParticleType) { return b.Type1, b.Type2 }
func (b *AsymmetricChunkedBatch) Symmetry() BatchSymmetry             { return Asymmetric }
func (b *AsymmetricChunkedBatch) Parallel() ParallelPolicy            { return ParallelNone }
func (b *AsymmetricChunkedBatch) Update() UpdatePolicy                { return UpdateSerialNewton3 }

func (b *AsymmetricChunkedBatch) ForEachPair(fn func(i, j int)) {
	for _, pair := range b.Chunks {
		for i := pair.A.Start; i < pair.A.End; i++ {
			for j := pair.B.Start; j < pair.B.End; j++ {
				fn(i, j)
			}
		}
	}
}
