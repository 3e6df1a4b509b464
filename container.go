package kinetic

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ContainerFlags is the periodicity/domain configuration a container is
// created with. Periodic flags are derived from the boundary table.
type ContainerFlags struct {
	PeriodicX bool
	PeriodicY bool
	PeriodicZ bool

	// InfiniteDomain requests an unbounded region; only DirectSum
	// supports it.
	InfiniteDomain bool
}

// ContainerCreateInfo bundles what the builder hands to a container
// declaration.
type ContainerCreateInfo struct {
	Flags  ContainerFlags
	Schema InteractionSchema
	Domain Box
	Log    Logger
}

// Container organizes particle storage and emits the interaction batches
// the force pass consumes.
type Container interface {
	Build(records []ParticleRecord) error

	// RebuildStructure re-bins all particles after positions changed.
	RebuildStructure()

	// NotifyMoved registers position changes made outside the integrator
	// drift (boundary teleports, reflections).
	NotifyMoved(indices []int)

	// ForEachInteractionBatch emits every pairwise work unit together
	// with the displacement projector to apply to its pairs.
	ForEachInteractionBatch(fn func(b Batch, bcp BCP))

	CollectIndicesInRegion(region Box) []int

	Storage() Storage
	IDToIndex(id ParticleID) int
	Len() int
}

// ContainerDecl is a container configuration consumed by BuildSystem.
type ContainerDecl interface {
	makeContainer(info ContainerCreateInfo) (Container, error)
}

// minimumImageBCP selects one of eight projector specializations from
// the periodic-axis flags, so the per-pair code carries no flag checks.
func minimumImageBCP(flags ContainerFlags, extent mgl64.Vec3) BCP {
	lx, ly, lz := extent.X(), extent.Y(), extent.Z()

	mode := 0
	if flags.PeriodicX {
		mode |= 4
	}
	if flags.PeriodicY {
		mode |= 2
	}
	if flags.PeriodicZ {
		mode |= 1
	}

	switch mode {
	case 0:
		return identityBCP
	case 1:
		return func(dr mgl64.Vec3) mgl64.Vec3 {
			dr[2] -= lz * math.Round(dr[2]/lz)
			return dr
		}
	case 2:
		return func(dr mgl64.Vec3) mgl64.Vec3 {
			dr[1] -= ly * math.Round(dr[1]/ly)
			return dr
		}
	case 3:
		return func(dr mgl64.Vec3) mgl64.Vec3 {
			dr[1] -= ly * math.Round(dr[1]/ly)
			dr[2] -= lz * math.Round(dr[2]/lz)
			return dr
		}
	case 4:
		return func(dr mgl64.Vec3) mgl64.Vec3 {
			dr[0] -= lx * math.Round(dr[0]/lx)
			return dr
		}
	case 5:
		return func(dr mgl64.Vec3) mgl64.Vec3 {
			dr[0] -= lx * math.Round(dr[0]/lx)
			dr[2] -= lz * math.Round(dr[2]/lz)
			return dr
		}
	case 6:
		return func(dr mgl64.Vec3) mgl64.Vec3 {
			dr[0] -= lx * math.Round(dr[0]/lx)
			dr[1] -= ly * math.Round(dr[1]/ly)
			return dr
		}
	default:
		return func(dr mgl64.Vec3) mgl64.Vec3 {
			dr[0] -= lx * math.Round(dr[0]/lx)
			dr[1] -= ly * math.Round(dr[1]/ly)
			dr[2] -= lz * math.Round(dr[2]/lz)
			return dr
		}
	}
}

// rebuildIDMap refreshes id -> physical index over all live slots.
func rebuildIDMap(s Storage, idToIndex []int) {
	for i := range idToIndex {
		idToIndex[i] = -1
	}
	n := s.SlotCount()
	for i := 0; i < n; i++ {
		v := s.View(i, FieldID|FieldState)
		if v.State&StateInvalid != 0 {
			continue
		}
		idToIndex[v.ID] = i
	}
}
