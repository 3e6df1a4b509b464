package kinetic

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Layout selects a particle storage memory layout.
type Layout int

const (
	LayoutAoS Layout = iota
	LayoutSoA
	LayoutAoSoA
)

// TraversalPolicy selects how ForEachParticle walks the storage.
type TraversalPolicy int

const (
	TraverseSequential TraversalPolicy = iota
	TraverseParallel
)

// Storage is the layout contract shared by all containers. Indices are
// physical slot indices: for chunked layouts they may address sentinel
// slots, which every traversal skips and every pair kernel rejects via
// the cutoff branch.
type Storage interface {
	// Len is the logical number of live particles.
	Len() int
	// SlotCount is the number of physical slots currently laid out
	// (equals Len for unchunked layouts).
	SlotCount() int
	// ChunkSize is the SIMD-style lane width (1 for AoS and SoA).
	ChunkSize() int

	At(i int, mask FieldMask) ParticleRef
	View(i int, mask FieldMask) ParticleView
	RestrictedAt(i int, mask FieldMask) RestrictedRef

	Swap(i, j int)

	// Scratch reorder protocol driven by containers: stage records into a
	// same-shaped scratch buffer, then ping-pong swap. PadScratch fills a
	// scratch slot with the sentinel record.
	EnsureScratch(slots int)
	WriteToScratch(dst, src int)
	PadScratch(dst int)
	SwapScratch(slots int)
}

func newStorage(layout Layout, records []ParticleRecord) Storage {
	switch layout {
	case LayoutSoA:
		return newSoAStorage(records)
	case LayoutAoSoA:
		return newAoSoAStorage(records)
	default:
		return newAoSStorage(records)
	}
}

// forEachParticle walks all live slots matching the state filter. The
// parallel policy shards the slot range across GOMAXPROCS workers; the
// callback must not race on shared state in that mode.
func forEachParticle(s Storage, mask FieldMask, filter ParticleState, policy TraversalPolicy, fn func(ParticleRef)) {
	n := s.SlotCount()
	visit := func(lo, hi int) {
		stateMask := mask | FieldState
		for i := lo; i < hi; i++ {
			ref := s.At(i, stateMask)
			st := *ref.State
			if st&StateInvalid != 0 || st&filter == 0 {
				continue
			}
			fn(ref)
		}
	}

	if policy != TraverseParallel || n < 2 {
		visit(0, n)
		return
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		if lo >= hi {
			break
		}
		g.Go(func() error {
			visit(lo, hi)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors
}
