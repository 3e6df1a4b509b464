package kinetic

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// LinkedCells is the O(N) container declaration: the domain is cut into
// cells no smaller than the largest cutoff, so interaction partners live
// in the same or an adjacent stencil cell.
type LinkedCells struct {
	Layout Layout

	// CellSizeHint raises the target cell size above the cutoff (0 means
	// cutoff-sized cells).
	CellSizeHint float64

	// Ordering permutes cells in memory (Morton, Hilbert); nil keeps the
	// flat layout.
	Ordering CellOrdering

	// BlockSize groups cells into cubic blocks for chunked emission; only
	// meaningful for the AoSoA layout. 0 emits per cell.
	BlockSize int
}

func (d LinkedCells) makeContainer(info ContainerCreateInfo) (Container, error) {
	if info.Flags.InfiniteDomain {
		return nil, fmt.Errorf("linked cells requires a bounded domain")
	}
	if d.CellSizeHint < 0 {
		return nil, fmt.Errorf("cell size hint must be >= 0, got %v", d.CellSizeHint)
	}
	log := info.Log
	if log == nil {
		log = NewNopLogger()
	}
	return &linkedCellsContainer{
		cfg:    d,
		flags:  info.Flags,
		domain: info.Domain,
		schema: info.Schema,
		log:    log,
	}, nil
}

type cellPair struct {
	c1, c2 uint32
}

const (
	wrapX uint8 = 1 << iota
	wrapY
	wrapZ
)

type wrappedCellPair struct {
	c1, c2    uint32
	wrapFlags uint8
	shift     mgl64.Vec3
}

type linkedCellsContainer struct {
	cfg    LinkedCells
	flags  ContainerFlags
	domain Box
	schema InteractionSchema
	log    Logger

	store     Storage
	idToIndex []int

	nTypes       int
	cellsPerAxis [3]int
	cellSize     mgl64.Vec3
	invCellSize  mgl64.Vec3
	globalCutoff float64

	nGridCells    int
	outsideCellID int
	nCells        int // grid + outside

	cellOrdering []uint32
	binStart     []int
	writePtr     []int

	stencil       [][3]int
	neighborPairs []cellPair
	wrappedPairs  []wrappedCellPair

	// blocked emission (AoSoA)
	blockOfCell   []int
	cellsPerBlock [][]uint32
	pairsPerBlock [][]cellPair
	nBlocks       int

	// reusable emission scratch
	symScratch  SymmetricChunkedBatch
	asymScratch AsymmetricChunkedBatch
}

func (c *linkedCellsContainer) Build(records []ParticleRecord) error {
	c.store = newStorage(c.cfg.Layout, records)
	c.idToIndex = make([]int, len(records))
	c.nTypes = len(c.schema.Types)

	c.setupCellGrid()
	c.initCellOrder()
	c.RebuildStructure()
	c.computeCellPairs()
	if c.cfg.Layout == LayoutAoSoA && c.cfg.BlockSize > 0 {
		c.buildBlocks()
	}
	return nil
}

func (c *linkedCellsContainer) setupCellGrid() {
	min := minExtent(c.domain.Extent)

	maxCutoff := c.schema.MaxCutoff()
	if maxCutoff <= 0 || maxCutoff > min {
		if maxCutoff > min {
			c.log.Warnf("cutoff %v exceeds minimum domain extent %v; clamping cell size", maxCutoff, min)
		}
		maxCutoff = min / 2.0
	}

	target := math.Max(maxCutoff, c.cfg.CellSizeHint)

	for ax := 0; ax < 3; ax++ {
		n := 1
		if target > 0 {
			n = int(math.Max(1, math.Floor(c.domain.Extent[ax]/target)))
		}
		c.cellsPerAxis[ax] = n
		c.cellSize[ax] = c.domain.Extent[ax] / float64(n)
		if c.cellSize[ax] > 0 {
			c.invCellSize[ax] = 1.0 / c.cellSize[ax]
		} else {
			c.invCellSize[ax] = 0
		}
	}

	c.globalCutoff = maxCutoff
	c.nGridCells = c.cellsPerAxis[0] * c.cellsPerAxis[1] * c.cellsPerAxis[2]
	c.outsideCellID = c.nGridCells
	c.nCells = c.nGridCells + 1

	c.binStart = make([]int, c.nCells*c.nTypes+1)
	c.writePtr = make([]int, c.nCells*c.nTypes+1)
}

func (c *linkedCellsContainer) initCellOrder() {
	if c.cfg.Ordering != nil {
		c.cellOrdering = c.cfg.Ordering(c.cellsPerAxis[0], c.cellsPerAxis[1], c.cellsPerAxis[2])
	}
}

func (c *linkedCellsContainer) binIndex(cell int, t ParticleType) int {
	return cell*c.nTypes + int(t)
}

func (c *linkedCellsContainer) cellPosToIdx(x, y, z int) uint32 {
	flat := uint32(z*c.cellsPerAxis[0]*c.cellsPerAxis[1] + y*c.cellsPerAxis[0] + x)
	if len(c.cellOrdering) == 0 {
		return flat
	}
	return c.cellOrdering[flat]
}

func (c *linkedCellsContainer) cellIndexFromPosition(pos mgl64.Vec3) int {
	var coord [3]int
	for ax := 0; ax < 3; ax++ {
		rel := pos[ax] - c.domain.Min[ax]
		if !(rel >= 0) { // negative or NaN
			return c.outsideCellID
		}
		f := rel * c.invCellSize[ax]
		if f >= float64(c.cellsPerAxis[ax]) {
			return c.outsideCellID
		}
		coord[ax] = int(f)
	}
	return int(c.cellPosToIdx(coord[0], coord[1], coord[2]))
}

// RebuildStructure re-bins every particle with a counting sort into the
// scratch buffer, then ping-pong swaps. Chunked layouts pad every bin to
// a whole chunk with sentinels.
func (c *linkedCellsContainer) RebuildStructure() {
	numBins := c.nCells * c.nTypes
	for i := range c.binStart {
		c.binStart[i] = 0
	}

	posTypeState := FieldPosition | FieldType | FieldState
	slots := c.store.SlotCount()
	for i := 0; i < slots; i++ {
		v := c.store.View(i, posTypeState)
		if v.State&StateInvalid != 0 {
			continue
		}
		c.binStart[c.binIndex(c.cellIndexFromPosition(v.Position), v.Type)]++
	}

	// counts -> start indices, padding each bin for chunked layouts
	chunk := c.store.ChunkSize()
	sum := 0
	for b := 0; b < numBins; b++ {
		count := c.binStart[b]
		if chunk > 1 {
			count = (count + chunk - 1) / chunk * chunk
		}
		c.binStart[b] = sum
		sum += count
	}
	c.binStart[numBins] = sum

	c.store.EnsureScratch(sum)
	copy(c.writePtr, c.binStart)

	withID := posTypeState | FieldID
	for i := 0; i < slots; i++ {
		v := c.store.View(i, withID)
		if v.State&StateInvalid != 0 {
			continue
		}
		bin := c.binIndex(c.cellIndexFromPosition(v.Position), v.Type)
		dst := c.writePtr[bin]
		c.writePtr[bin]++
		c.store.WriteToScratch(dst, i)
		c.idToIndex[v.ID] = dst
	}

	if chunk > 1 {
		for b := 0; b < numBins; b++ {
			for dst := c.writePtr[b]; dst < c.binStart[b+1]; dst++ {
				c.store.PadScratch(dst)
			}
		}
	}

	c.store.SwapScratch(sum)
}

func (c *linkedCellsContainer) NotifyMoved(indices []int) {
	if len(indices) == 0 {
		return
	}
	// re-bin everything; moved particles changed cells
	c.RebuildStructure()
}

// computeCellPairs materializes the half-sphere stencil and the concrete
// (cell, neighbor) pairs, wrapping across periodic faces.
func (c *linkedCellsContainer) computeCellPairs() {
	nx := int(math.Ceil(c.globalCutoff * c.invCellSize[0]))
	ny := int(math.Ceil(c.globalCutoff * c.invCellSize[1]))
	nz := int(math.Ceil(c.globalCutoff * c.invCellSize[2]))

	cutoffSq := c.globalCutoff * c.globalCutoff

	c.stencil = c.stencil[:0]
	for z := 0; z <= nz; z++ { // half sphere: forward z only
		for y := -ny; y <= ny; y++ {
			for x := -nx; x <= nx; x++ {
				if !forwardOffset(z, y, x) {
					continue
				}

				// minimum distance between representative cell corners
				var dist mgl64.Vec3
				if abs := math.Abs(float64(x)); abs > 1 {
					dist[0] = (abs - 1) * c.cellSize[0]
				}
				if abs := math.Abs(float64(y)); abs > 1 {
					dist[1] = (abs - 1) * c.cellSize[1]
				}
				if abs := math.Abs(float64(z)); abs > 1 {
					dist[2] = (abs - 1) * c.cellSize[2]
				}

				if dist.Dot(dist) <= cutoffSq {
					c.stencil = append(c.stencil, [3]int{x, y, z})
				}
			}
		}
	}

	c.neighborPairs = c.neighborPairs[:0]
	c.wrappedPairs = c.wrappedPairs[:0]

	periodic := [3]bool{c.flags.PeriodicX, c.flags.PeriodicY, c.flags.PeriodicZ}

	for z := 0; z < c.cellsPerAxis[2]; z++ {
		for y := 0; y < c.cellsPerAxis[1]; y++ {
			for x := 0; x < c.cellsPerAxis[0]; x++ {
				for _, offset := range c.stencil {
					n := [3]int{x + offset[0], y + offset[1], z + offset[2]}
					var shift mgl64.Vec3
					var flags uint8

					for ax := 0; ax < 3; ax++ {
						if !periodic[ax] {
							continue
						}
						dim := c.cellsPerAxis[ax]
						if n[ax] < 0 {
							n[ax] += dim
							shift[ax] = -c.domain.Extent[ax]
							flags |= 1 << ax
						} else if n[ax] >= dim {
							n[ax] -= dim
							shift[ax] = c.domain.Extent[ax]
							flags |= 1 << ax
						}
					}

					if n[0] < 0 || n[1] < 0 || n[2] < 0 ||
						n[0] >= c.cellsPerAxis[0] || n[1] >= c.cellsPerAxis[1] || n[2] >= c.cellsPerAxis[2] {
						continue
					}

					c1 := c.cellPosToIdx(x, y, z)
					c2 := c.cellPosToIdx(n[0], n[1], n[2])
					if shift == (mgl64.Vec3{}) {
						c.neighborPairs = append(c.neighborPairs, cellPair{c1, c2})
					} else {
						c.wrappedPairs = append(c.wrappedPairs, wrappedCellPair{c1: c1, c2: c2, wrapFlags: flags, shift: shift})
					}
				}
			}
		}
	}
}

// forwardOffset keeps only the lexicographically positive half of the
// stencil: (z,y,x) > (0,0,0).
func forwardOffset(z, y, x int) bool {
	if z != 0 {
		return z > 0
	}
	if y != 0 {
		return y > 0
	}
	return x > 0
}

// buildBlocks groups grid cells into cubic blocks for the chunked AoSoA
// emission path and assigns every neighbor pair to the block of its first
// cell.
func (c *linkedCellsContainer) buildBlocks() {
	bs := c.cfg.BlockSize
	bx := (c.cellsPerAxis[0] + bs - 1) / bs
	by := (c.cellsPerAxis[1] + bs - 1) / bs
	bz := (c.cellsPerAxis[2] + bs - 1) / bs
	c.nBlocks = bx * by * bz

	c.blockOfCell = make([]int, c.nGridCells)
	c.cellsPerBlock = make([][]uint32, c.nBlocks)
	for z := 0; z < c.cellsPerAxis[2]; z++ {
		for y := 0; y < c.cellsPerAxis[1]; y++ {
			for x := 0; x < c.cellsPerAxis[0]; x++ {
				block := (z/bs)*bx*by + (y/bs)*bx + x/bs
				cell := c.cellPosToIdx(x, y, z)
				c.blockOfCell[cell] = block
				c.cellsPerBlock[block] = append(c.cellsPerBlock[block], cell)
			}
		}
	}

	c.pairsPerBlock = make([][]cellPair, c.nBlocks)
	for _, pair := range c.neighborPairs {
		block := c.blockOfCell[pair.c1]
		c.pairsPerBlock[block] = append(c.pairsPerBlock[block], pair)
	}
}

func (c *linkedCellsContainer) typeRange(cell uint32, t ParticleType) IndexRange {
	bin := c.binIndex(int(cell), t)
	return IndexRange{Start: c.binStart[bin], End: c.binStart[bin+1]}
}

func (c *linkedCellsContainer) ForEachInteractionBatch(fn func(b Batch, bcp BCP)) {
	if c.cfg.Layout == LayoutAoSoA && c.cfg.BlockSize > 0 {
		c.forEachBlockedBatch(fn)
	} else {
		c.forEachCellBatch(fn)
	}
	c.emitWrappedBatches(fn)
}

func (c *linkedCellsContainer) forEachCellBatch(fn func(b Batch, bcp BCP)) {
	for t1 := 0; t1 < c.nTypes; t1++ {
		// intra-cell symmetric
		c.symScratch.Type = ParticleType(t1)
		c.symScratch.Chunks = c.symScratch.Chunks[:0]
		for cell := 0; cell < c.nGridCells; cell++ {
			r := c.typeRange(uint32(cell), ParticleType(t1))
			if r.Len() < 2 {
				continue
			}
			c.symScratch.Chunks = append(c.symScratch.Chunks, r)
		}
		if len(c.symScratch.Chunks) > 0 {
			fn(&c.symScratch, identityBCP)
		}

		// intra-cell asymmetric type pairs
		for t2 := t1 + 1; t2 < c.nTypes; t2++ {
			c.asymScratch.Type1 = ParticleType(t1)
			c.asymScratch.Type2 = ParticleType(t2)
			c.asymScratch.Chunks = c.asymScratch.Chunks[:0]
			for cell := 0; cell < c.nGridCells; cell++ {
				r1 := c.typeRange(uint32(cell), ParticleType(t1))
				if r1.Len() == 0 {
					continue
				}
				r2 := c.typeRange(uint32(cell), ParticleType(t2))
				if r2.Len() == 0 {
					continue
				}
				c.asymScratch.Chunks = append(c.asymScratch.Chunks, RangePair{A: r1, B: r2})
			}
			if len(c.asymScratch.Chunks) > 0 {
				fn(&c.asymScratch, identityBCP)
			}
		}

		// neighbor cells across the half stencil (all ordered type pairs)
		for t2 := 0; t2 < c.nTypes; t2++ {
			c.asymScratch.Type1 = ParticleType(t1)
			c.asymScratch.Type2 = ParticleType(t2)
			c.asymScratch.Chunks = c.asymScratch.Chunks[:0]
			for _, pair := range c.neighborPairs {
				r1 := c.typeRange(pair.c1, ParticleType(t1))
				if r1.Len() == 0 {
					continue
				}
				r2 := c.typeRange(pair.c2, ParticleType(t2))
				if r2.Len() == 0 {
					continue
				}
				c.asymScratch.Chunks = append(c.asymScratch.Chunks, RangePair{A: r1, B: r2})
			}
			if len(c.asymScratch.Chunks) > 0 {
				fn(&c.asymScratch, identityBCP)
			}
		}
	}
}

// forEachBlockedBatch aggregates each block's intra-cell work and its
// half-stencil neighbor pairs into one chunked batch per (block, type
// pair). Reverse type pairs ride the same pair list with the ranges
// swapped; the half stencil guarantees each unordered cell pair appears
// once, so nothing is emitted twice.
func (c *linkedCellsContainer) forEachBlockedBatch(fn func(b Batch, bcp BCP)) {
	for block := 0; block < c.nBlocks; block++ {
		cells := c.cellsPerBlock[block]
		pairs := c.pairsPerBlock[block]

		for t1 := 0; t1 < c.nTypes; t1++ {
			c.symScratch.Type = ParticleType(t1)
			c.symScratch.Chunks = c.symScratch.Chunks[:0]
			for _, cell := range cells {
				r := c.typeRange(cell, ParticleType(t1))
				if r.Len() < 2 {
					continue
				}
				c.symScratch.Chunks = append(c.symScratch.Chunks, r)
			}
			if len(c.symScratch.Chunks) > 0 {
				fn(&c.symScratch, identityBCP)
			}

			for t2 := t1; t2 < c.nTypes; t2++ {
				c.asymScratch.Type1 = ParticleType(t1)
				c.asymScratch.Type2 = ParticleType(t2)
				c.asymScratch.Chunks = c.asymScratch.Chunks[:0]

				if t2 > t1 {
					for _, cell := range cells {
						r1 := c.typeRange(cell, ParticleType(t1))
						if r1.Len() == 0 {
							continue
						}
						r2 := c.typeRange(cell, ParticleType(t2))
						if r2.Len() == 0 {
							continue
						}
						c.asymScratch.Chunks = append(c.asymScratch.Chunks, RangePair{A: r1, B: r2})
					}
				}

				for _, pair := range pairs {
					r1 := c.typeRange(pair.c1, ParticleType(t1))
					r2 := c.typeRange(pair.c2, ParticleType(t2))
					if r1.Len() > 0 && r2.Len() > 0 {
						c.asymScratch.Chunks = append(c.asymScratch.Chunks, RangePair{A: r1, B: r2})
					}
					if t2 > t1 {
						// reverse orientation of the same cell pair
						r1 = c.typeRange(pair.c2, ParticleType(t1))
						r2 = c.typeRange(pair.c1, ParticleType(t2))
						if r1.Len() > 0 && r2.Len() > 0 {
							c.asymScratch.Chunks = append(c.asymScratch.Chunks, RangePair{A: r1, B: r2})
						}
					}
				}

				if len(c.asymScratch.Chunks) > 0 {
					fn(&c.asymScratch, identityBCP)
				}
			}
		}
	}
}

func (c *linkedCellsContainer) emitWrappedBatches(fn func(b Batch, bcp BCP)) {
	for i := range c.wrappedPairs {
		pair := &c.wrappedPairs[i]
		shift := pair.shift
		bcp := func(dr mgl64.Vec3) mgl64.Vec3 { return dr.Add(shift) }

		for t1 := 0; t1 < c.nTypes; t1++ {
			r1 := c.typeRange(pair.c1, ParticleType(t1))
			if r1.Len() == 0 {
				continue
			}
			for t2 := 0; t2 < c.nTypes; t2++ {
				r2 := c.typeRange(pair.c2, ParticleType(t2))
				if r2.Len() == 0 {
					continue
				}
				fn(AsymmetricRangeBatch{
					Type1:    ParticleType(t1),
					Type2:    ParticleType(t2),
					Indices1: r1,
					Indices2: r2,
				}, bcp)
			}
		}
	}
}

func (c *linkedCellsContainer) CollectIndicesInRegion(region Box) []int {
	var minCell, maxCell [3]int
	for ax := 0; ax < 3; ax++ {
		lo := math.Floor((region.Min[ax] - c.domain.Min[ax]) * c.invCellSize[ax])
		hi := math.Ceil((region.Max[ax] - c.domain.Min[ax]) * c.invCellSize[ax])
		minCell[ax] = clampCell(lo, c.cellsPerAxis[ax])
		maxCell[ax] = clampCell(hi, c.cellsPerAxis[ax])
	}

	cells := make([]uint32, 0, (maxCell[0]-minCell[0]+1)*(maxCell[1]-minCell[1]+1)*(maxCell[2]-minCell[2]+1))
	for x := minCell[0]; x <= maxCell[0]; x++ {
		for y := minCell[1]; y <= maxCell[1]; y++ {
			for z := minCell[2]; z <= maxCell[2]; z++ {
				cells = append(cells, c.cellPosToIdx(x, y, z))
			}
		}
	}

	escapes := !(region.Min[0] >= c.domain.Min[0] && region.Min[1] >= c.domain.Min[1] && region.Min[2] >= c.domain.Min[2] &&
		region.Max[0] <= c.domain.Max[0] && region.Max[1] <= c.domain.Max[1] && region.Max[2] <= c.domain.Max[2])
	if escapes {
		cells = append(cells, uint32(c.outsideCellID))
	}

	var ret []int
	if est := c.store.Len() * len(cells) / c.nCells; est > 0 {
		ret = make([]int, 0, est)
	}

	posState := FieldPosition | FieldState
	for _, cell := range cells {
		start := c.binStart[c.binIndex(int(cell), 0)]
		end := c.binStart[c.binIndex(int(cell), 0)+c.nTypes]
		for i := start; i < end; i++ {
			v := c.store.View(i, posState)
			if v.State&(StateDead|StateInvalid) != 0 {
				continue
			}
			if region.Contains(v.Position) {
				ret = append(ret, i)
			}
		}
	}
	return ret
}

func clampCell(f float64, n int) int {
	if !(f > 0) {
		return 0
	}
	if f > float64(n-1) {
		return n - 1
	}
	return int(f)
}

func (c *linkedCellsContainer) Storage() Storage { return c.store }

func (c *linkedCellsContainer) IDToIndex(id ParticleID) int { return c.idToIndex[id] }

func (c *linkedCellsContainer) Len() int { return c.store.Len() }
