package kinetic

import "sort"

// CellOrdering maps the flat x-fastest cell index (z*Nx*Ny + y*Nx + x) to
// a linear cell index, controlling which cells end up adjacent in memory.
// A nil ordering is identity.
type CellOrdering func(nx, ny, nz int) []uint32

// IdentityOrdering keeps the flat layout.
func IdentityOrdering(nx, ny, nz int) []uint32 {
	order := make([]uint32, nx*ny*nz)
	for i := range order {
		order[i] = uint32(i)
	}
	return order
}

// orderingFromKeys ranks every flat cell index by its curve key, ties
// broken by the flat index itself.
func orderingFromKeys(keys []uint64) []uint32 {
	perm := make([]int, len(keys))
	for i := range perm {
		perm[i] = i
	}
	sort.Slice(perm, func(a, b int) bool {
		if keys[perm[a]] != keys[perm[b]] {
			return keys[perm[a]] < keys[perm[b]]
		}
		return perm[a] < perm[b]
	})

	order := make([]uint32, len(keys))
	for rank, flat := range perm {
		order[flat] = uint32(rank)
	}
	return order
}

func curveKeys(nx, ny, nz int, key func(x, y, z uint32) uint64) []uint64 {
	keys := make([]uint64, 0, nx*ny*nz)
	for z := 0; z < nz; z++ {
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				keys = append(keys, key(uint32(x), uint32(y), uint32(z)))
			}
		}
	}
	return keys
}

// MortonOrdering sorts cells along the Z-order curve (coordinates bit
// interleaved).
func MortonOrdering(nx, ny, nz int) []uint32 {
	return orderingFromKeys(curveKeys(nx, ny, nz, mortonEncode))
}

// HilbertOrdering sorts cells along a Hilbert-style curve approximated by
// Gray-coded Morton keys, which keeps most spatial neighbors adjacent
// without the full rotation state machine.
func HilbertOrdering(nx, ny, nz int) []uint32 {
	return orderingFromKeys(curveKeys(nx, ny, nz, func(x, y, z uint32) uint64 {
		m := mortonEncode(x, y, z)
		return m ^ (m >> 1)
	}))
}

// spreadBits2 spaces the low 21 bits of v two zero bits apart.
func spreadBits2(v uint64) uint64 {
	v &= 0x1fffff
	v = (v | v<<32) & 0x1f00000000ffff
	v = (v | v<<16) & 0x1f0000ff0000ff
	v = (v | v<<8) & 0x100f00f00f00f00f
	v = (v | v<<4) & 0x10c30c30c30c30c3
	v = (v | v<<2) & 0x1249249249249249
	return v
}

func mortonEncode(x, y, z uint32) uint64 {
	return spreadBits2(uint64(x)) | spreadBits2(uint64(y))<<1 | spreadBits2(uint64(z))<<2
}
