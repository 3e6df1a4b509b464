package kinetic

import "sort"

// DirectSum is the O(N^2) container declaration: no spatial structure,
// every type-pair range crossed in full. Valid for any domain, including
// an infinite one.
type DirectSum struct {
	Layout Layout
}

func (d DirectSum) makeContainer(info ContainerCreateInfo) (Container, error) {
	return &directSumContainer{
		layout: d.Layout,
		flags:  info.Flags,
		domain: info.Domain,
		schema: info.Schema,
	}, nil
}

type directSumContainer struct {
	layout Layout
	flags  ContainerFlags
	domain Box
	schema InteractionSchema

	store     Storage
	idToIndex []int
	bcp       BCP

	symBatches  []SymmetricRangeBatch
	asymBatches []AsymmetricRangeBatch
}

func (c *directSumContainer) Build(records []ParticleRecord) error {
	c.store = newStorage(c.layout, records)
	c.idToIndex = make([]int, len(records))

	c.sortStorageByType()
	rebuildIDMap(c.store, c.idToIndex)
	c.buildBatches()

	c.bcp = minimumImageBCP(c.flags, c.domain.Extent)
	return nil
}

// sortStorageByType groups each type into one contiguous index run by
// applying the sorted permutation with in-place cycle swaps.
func (c *directSumContainer) sortStorageByType() {
	n := c.store.Len()
	if n == 0 {
		return
	}

	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(a, b int) bool {
		ta := c.store.View(perm[a], FieldType).Type
		tb := c.store.View(perm[b], FieldType).Type
		return ta < tb
	})

	done := make([]bool, n)
	for i := 0; i < n; i++ {
		if done[i] {
			continue
		}
		current := i
		for i != perm[current] {
			next := perm[current]
			c.store.Swap(current, next)
			perm[current] = current
			current = next
		}
		perm[current] = current
		done[current] = true
	}
}

func (c *directSumContainer) buildBatches() {
	n := c.store.Len()
	c.symBatches = c.symBatches[:0]
	c.asymBatches = c.asymBatches[:0]
	if n == 0 {
		return
	}

	nTypes := len(c.schema.Types)
	ranges := make([]IndexRange, nTypes)

	start := 0
	current := c.store.View(0, FieldType).Type
	for i := 0; i < n; i++ {
		t := c.store.View(i, FieldType).Type
		if t != current {
			ranges[current] = IndexRange{Start: start, End: i}
			start = i
			current = t
		}
	}
	ranges[current] = IndexRange{Start: start, End: n}

	for t := 0; t < nTypes; t++ {
		c.symBatches = append(c.symBatches, SymmetricRangeBatch{
			Type:    ParticleType(t),
			Indices: ranges[t],
		})
	}

	for t1 := 0; t1 < nTypes; t1++ {
		for t2 := t1 + 1; t2 < nTypes; t2++ {
			c.asymBatches = append(c.asymBatches, AsymmetricRangeBatch{
				Type1:    ParticleType(t1),
				Type2:    ParticleType(t2),
				Indices1: ranges[t1],
				Indices2: ranges[t2],
			})
		}
	}
}

// RebuildStructure is a no-op: ordering depends only on type, which never
// changes.
func (c *directSumContainer) RebuildStructure() {}

func (c *directSumContainer) NotifyMoved([]int) {}

func (c *directSumContainer) ForEachInteractionBatch(fn func(b Batch, bcp BCP)) {
	for _, b := range c.symBatches {
		fn(b, c.bcp)
	}
	for _, b := range c.asymBatches {
		fn(b, c.bcp)
	}
}

func (c *directSumContainer) CollectIndicesInRegion(region Box) []int {
	var ret []int

	domainVol := c.domain.Volume()
	if inter, ok := c.domain.Intersection(region); ok && domainVol > 1e-9 {
		ratio := inter.Volume() / domainVol
		// 1.1x safety factor: distributions are rarely perfectly uniform
		est := int(float64(c.store.Len()) * ratio * 1.1)
		if est > c.store.Len() {
			est = c.store.Len()
		}
		ret = make([]int, 0, est)
	}

	n := c.store.SlotCount()
	for i := 0; i < n; i++ {
		v := c.store.View(i, FieldPosition|FieldState)
		if v.State&(StateDead|StateInvalid) != 0 {
			continue
		}
		if region.Contains(v.Position) {
			ret = append(ret, i)
		}
	}
	return ret
}

func (c *directSumContainer) Storage() Storage { return c.store }

func (c *directSumContainer) IDToIndex(id ParticleID) int { return c.idToIndex[id] }

func (c *directSumContainer) Len() int { return c.store.Len() }
