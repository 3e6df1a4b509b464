package kinetic

import (
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildLinkedCells(t *testing.T, decl LinkedCells, records []ParticleRecord, info ContainerCreateInfo) *linkedCellsContainer {
	t.Helper()
	c, err := decl.makeContainer(info)
	require.NoError(t, err)
	require.NoError(t, c.Build(records))
	return c.(*linkedCellsContainer)
}

func randomRecords(n int, seed int64, box Box) []ParticleRecord {
	rng := rand.New(rand.NewSource(seed))
	records := make([]ParticleRecord, n)
	for i := range records {
		records[i] = ParticleRecord{
			ID: ParticleID(i),
			Position: mgl64.Vec3{
				box.Min.X() + rng.Float64()*box.Extent.X(),
				box.Min.Y() + rng.Float64()*box.Extent.Y(),
				box.Min.Z() + rng.Float64()*box.Extent.Z(),
			},
			Mass:  1,
			State: StateAlive,
		}
	}
	return records
}

func TestLinkedCellsGridSizing(t *testing.T) {
	box := MustBox(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{10, 10, 10})
	info := ContainerCreateInfo{
		Domain: box,
		Schema: schemaFor(t, 1, TypeInteraction{Type1: 0, Type2: 0, Force: NewLennardJones(1, 1, 2)}),
	}
	c := buildLinkedCells(t, LinkedCells{}, randomRecords(10, 1, box), info)

	// cutoff 2 on extent 10: 5 cells per axis, stretched to exactly 2.0
	assert.Equal(t, [3]int{5, 5, 5}, c.cellsPerAxis)
	assert.InDelta(t, 2.0, c.cellSize.X(), 1e-12)
	assert.Equal(t, 125, c.nGridCells)
	assert.Equal(t, 125, c.outsideCellID)
}

func TestLinkedCellsCutoffClamp(t *testing.T) {
	box := MustBox(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{4, 4, 4})
	info := ContainerCreateInfo{
		Domain: box,
		// cutoff larger than the domain: clamp to extent/2
		Schema: schemaFor(t, 1, TypeInteraction{Type1: 0, Type2: 0, Force: NewLennardJones(1, 1, 100)}),
	}
	c := buildLinkedCells(t, LinkedCells{}, randomRecords(4, 2, box), info)

	assert.Equal(t, [3]int{2, 2, 2}, c.cellsPerAxis)
	assert.InDelta(t, 2.0, c.globalCutoff, 1e-12)
}

func TestLinkedCellsRejectsInfiniteDomain(t *testing.T) {
	_, err := LinkedCells{}.makeContainer(ContainerCreateInfo{
		Flags: ContainerFlags{InfiniteDomain: true},
	})
	assert.Error(t, err)
}

func TestLinkedCellsBinMonotonicity(t *testing.T) {
	box := MustBox(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{10, 10, 10})
	info := ContainerCreateInfo{
		Domain: box,
		Schema: schemaFor(t, 1, TypeInteraction{Type1: 0, Type2: 0, Force: NewLennardJones(1, 1, 2)}),
	}

	for _, tc := range allLayouts {
		t.Run(tc.name, func(t *testing.T) {
			c := buildLinkedCells(t, LinkedCells{Layout: tc.layout}, randomRecords(60, 3, box), info)

			for i := 1; i < len(c.binStart); i++ {
				if c.binStart[i] < c.binStart[i-1] {
					t.Fatalf("bin starts must be non-decreasing at %d", i)
				}
			}
			// trailing sentinel equals the slot count (padded for chunked
			// layouts)
			assert.Equal(t, c.store.SlotCount(), c.binStart[len(c.binStart)-1])

			// id -> index inverse holds after rebuild
			for id := ParticleID(0); id < 60; id++ {
				idx := c.IDToIndex(id)
				assert.Equal(t, id, c.store.View(idx, FieldID).ID)
			}
		})
	}
}

func TestLinkedCellsBinsMatchPositions(t *testing.T) {
	box := MustBox(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{10, 10, 10})
	info := ContainerCreateInfo{
		Domain: box,
		Schema: schemaFor(t, 1, TypeInteraction{Type1: 0, Type2: 0, Force: NewLennardJones(1, 1, 2)}),
	}
	c := buildLinkedCells(t, LinkedCells{}, randomRecords(80, 4, box), info)

	// every particle sits in the bin range its position maps to
	for cell := 0; cell < c.nCells; cell++ {
		start := c.binStart[c.binIndex(cell, 0)]
		end := c.binStart[c.binIndex(cell, 0)+c.nTypes]
		for i := start; i < end; i++ {
			v := c.store.View(i, FieldPosition|FieldState)
			if v.State&StateInvalid != 0 {
				continue
			}
			assert.Equal(t, cell, c.cellIndexFromPosition(v.Position))
		}
	}
}

func TestLinkedCellsOutsideCell(t *testing.T) {
	box := MustBox(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{10, 10, 10})
	info := ContainerCreateInfo{
		Domain: box,
		Schema: schemaFor(t, 1, TypeInteraction{Type1: 0, Type2: 0, Force: NewLennardJones(1, 1, 2)}),
	}
	records := randomRecords(5, 5, box)
	c := buildLinkedCells(t, LinkedCells{}, records, info)

	// move a particle outside and rebuild: it lands in the outside cell
	idx := c.IDToIndex(0)
	c.store.At(idx, FieldPosition).Position.Set(mgl64.Vec3{-3, 5, 5})
	c.RebuildStructure()

	idx = c.IDToIndex(0)
	outsideStart := c.binStart[c.binIndex(c.outsideCellID, 0)]
	outsideEnd := c.binStart[c.binIndex(c.outsideCellID, 0)+c.nTypes]
	assert.GreaterOrEqual(t, idx, outsideStart)
	assert.Less(t, idx, outsideEnd)

	// region query beyond the domain scans the outside cell
	region := MustBox(mgl64.Vec3{-5, 0, 0}, mgl64.Vec3{0, 10, 10})
	indices := c.CollectIndicesInRegion(region)
	require.Len(t, indices, 1)
	assert.Equal(t, ParticleID(0), c.store.View(indices[0], FieldID).ID)
}

func TestLinkedCellsRegionQueryClosure(t *testing.T) {
	box := MustBox(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{10, 10, 10})
	info := ContainerCreateInfo{
		Domain: box,
		Schema: schemaFor(t, 1, TypeInteraction{Type1: 0, Type2: 0, Force: NewLennardJones(1, 1, 2)}),
	}
	records := randomRecords(100, 6, box)
	records[7].State = StateDead
	c := buildLinkedCells(t, LinkedCells{}, records, info)

	region := MustBox(mgl64.Vec3{2, 2, 2}, mgl64.Vec3{7.5, 7.5, 7.5})
	indices := c.CollectIndicesInRegion(region)

	// soundness: every returned index is alive and inside
	got := map[ParticleID]bool{}
	for _, i := range indices {
		v := c.store.View(i, FieldPosition|FieldState|FieldID)
		assert.Zero(t, v.State&StateDead, "dead particle returned")
		assert.True(t, region.Contains(v.Position))
		got[v.ID] = true
	}

	// completeness: every alive in-region particle is found
	for _, r := range records {
		if r.State != StateAlive || !region.Contains(r.Position) {
			continue
		}
		assert.True(t, got[r.ID], "particle %d missing from region query", r.ID)
	}
}

func TestLinkedCellsWrappedPairsOnlyWhenPeriodic(t *testing.T) {
	box := MustBox(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{10, 10, 10})
	schema := schemaFor(t, 1, TypeInteraction{Type1: 0, Type2: 0, Force: NewLennardJones(1, 1, 2)})

	plain := buildLinkedCells(t, LinkedCells{}, randomRecords(10, 7, box),
		ContainerCreateInfo{Domain: box, Schema: schema})
	assert.Empty(t, plain.wrappedPairs)

	periodic := buildLinkedCells(t, LinkedCells{}, randomRecords(10, 7, box),
		ContainerCreateInfo{Domain: box, Schema: schema, Flags: ContainerFlags{PeriodicX: true}})
	assert.NotEmpty(t, periodic.wrappedPairs)

	for _, pair := range periodic.wrappedPairs {
		assert.Equal(t, wrapX, pair.wrapFlags&wrapX, "only x wraps")
		assert.InDelta(t, 10.0, math.Abs(pair.shift.X()), 1e-12)
		assert.Zero(t, pair.shift.Y())
	}
}

func TestLinkedCellsStencilWithinCutoff(t *testing.T) {
	box := MustBox(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{10, 10, 10})
	info := ContainerCreateInfo{
		Domain: box,
		Schema: schemaFor(t, 1, TypeInteraction{Type1: 0, Type2: 0, Force: NewLennardJones(1, 1, 2)}),
	}
	c := buildLinkedCells(t, LinkedCells{}, randomRecords(10, 8, box), info)

	// cutoff == cell size: the half stencil is the 13 forward neighbors of
	// the 3x3x3 cube
	assert.Len(t, c.stencil, 13)
	for _, offset := range c.stencil {
		if !forwardOffset(offset[2], offset[1], offset[0]) {
			t.Errorf("stencil offset %v is not forward", offset)
		}
	}
}

func TestLinkedCellsAoSoAPadding(t *testing.T) {
	box := MustBox(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{10, 10, 10})
	info := ContainerCreateInfo{
		Domain: box,
		Schema: schemaFor(t, 1, TypeInteraction{Type1: 0, Type2: 0, Force: NewLennardJones(1, 1, 2)}),
	}
	c := buildLinkedCells(t, LinkedCells{Layout: LayoutAoSoA}, randomRecords(50, 9, box), info)

	// every bin occupies whole chunks
	for b := 0; b < len(c.binStart)-1; b++ {
		assert.Zero(t, c.binStart[b]%aosoaChunkSize, "bin %d start not chunk aligned", b)
	}
	assert.Zero(t, c.store.SlotCount()%aosoaChunkSize)
	assert.Equal(t, 50, c.store.Len())

	// padded slots carry the sentinel
	invalid := 0
	for i := 0; i < c.store.SlotCount(); i++ {
		if c.store.View(i, FieldState).State&StateInvalid != 0 {
			invalid++
		}
	}
	assert.Equal(t, c.store.SlotCount()-50, invalid)
}

func TestCellOrderingsArePermutations(t *testing.T) {
	cases := []struct {
		name string
		ord  CellOrdering
	}{
		{"identity", IdentityOrdering},
		{"morton", MortonOrdering},
		{"hilbert", HilbertOrdering},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order := tc.ord(3, 4, 5)
			require.Len(t, order, 60)

			seen := make([]bool, 60)
			for _, idx := range order {
				require.Less(t, int(idx), 60)
				require.False(t, seen[idx], "index %d assigned twice", idx)
				seen[idx] = true
			}
		})
	}
}

func TestMortonOrderingLocality(t *testing.T) {
	// in a 2x2x2 grid morton order is exactly the bit-interleaved order
	order := MortonOrdering(2, 2, 2)
	want := []uint32{0, 1, 2, 3, 4, 5, 6, 7}
	for flat, rank := range order {
		// flat = z*4 + y*2 + x; morton of (x,y,z) = x | y<<1 | z<<2 which
		// equals flat here
		assert.Equal(t, want[flat], rank)
	}
}
