package kinetic

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForceTableMixingFillsOffDiagonals(t *testing.T) {
	table, err := NewForceTable([]TypeInteraction{
		{Type1: 0, Type2: 0, Force: NewLennardJones(1, 1, 4)},
		{Type1: 1, Type2: 1, Force: NewLennardJones(4, 3, 9)},
	}, nil, 2, 0)
	require.NoError(t, err)

	var mixed Force
	table.Dispatch(0, 1, func(f Force) { mixed = f })
	require.NotNil(t, mixed, "mixed off-diagonal should dispatch")

	lj := mixed.(LennardJones)
	assert.Equal(t, 2.0, lj.Epsilon)
	assert.Equal(t, 2.0, lj.Sigma)

	// symmetric
	var reverse Force
	table.Dispatch(1, 0, func(f Force) { reverse = f })
	assert.True(t, mixed.Equals(reverse))
}

func TestForceTableMixingAcrossLawsFails(t *testing.T) {
	_, err := NewForceTable([]TypeInteraction{
		{Type1: 0, Type2: 0, Force: NewLennardJones(1, 1, 3)},
		{Type1: 1, Type2: 1, Force: NewHarmonic(1, 0, 2)},
	}, nil, 2, 0)
	assert.Error(t, err, "mixing different families is unsupported")
}

func TestForceTableMissingDiagonalFails(t *testing.T) {
	// pair (0,1) declared but type 2 has nothing to mix from
	_, err := NewForceTable([]TypeInteraction{
		{Type1: 0, Type2: 1, Force: NewLennardJones(1, 1, 3)},
	}, nil, 3, 0)
	assert.Error(t, err)
}

func TestForceTableDispatchSkipsNoForce(t *testing.T) {
	table, err := NewForceTable([]TypeInteraction{
		{Type1: 0, Type2: 0, Force: NoForce{}},
	}, nil, 1, 0)
	require.NoError(t, err)

	called := false
	table.Dispatch(0, 0, func(Force) { called = true })
	assert.False(t, called, "NoForce must not dispatch")
}

func TestForceTableIDForces(t *testing.T) {
	table, err := NewForceTable(
		[]TypeInteraction{{Type1: 0, Type2: 0, Force: NoForce{}}},
		[]IDInteraction{{ID1: 0, ID2: 2, Force: NewHarmonic(1, 0.5, 2)}},
		1, 3,
	)
	require.NoError(t, err)

	var bound Force
	table.DispatchID(0, 2, func(f Force) { bound = f })
	require.NotNil(t, bound)
	assert.True(t, bound.Equals(NewHarmonic(1, 0.5, 2)))

	// undeclared pairs fall back to NoForce and never dispatch
	called := false
	table.DispatchID(0, 1, func(Force) { called = true })
	assert.False(t, called)
}

func TestForceTableRejectsSelfIDPair(t *testing.T) {
	_, err := NewForceTable(
		[]TypeInteraction{{Type1: 0, Type2: 0, Force: NoForce{}}},
		[]IDInteraction{{ID1: 1, ID2: 1, Force: NewHarmonic(1, 0, 2)}},
		1, 2,
	)
	assert.Error(t, err)
}

func TestSchemaDeduplication(t *testing.T) {
	shared := NewLennardJones(1, 1, 3)
	table, err := NewForceTable([]TypeInteraction{
		{Type1: 0, Type2: 0, Force: shared},
		{Type1: 1, Type2: 1, Force: shared},
		{Type1: 0, Type2: 1, Force: shared},
	}, nil, 2, 0)
	require.NoError(t, err)

	schema := table.GenerateSchema()

	// one unique interaction shared by all four (t1,t2) cells
	require.Len(t, schema.Interactions, 1)
	prop := schema.Interactions[0]
	assert.True(t, prop.IsActive)
	assert.Equal(t, 3.0, prop.Cutoff)

	wantPairs := []TypePair{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	if diff := cmp.Diff(wantPairs, prop.UsedByTypes); diff != "" {
		t.Errorf("unexpected type attribution (-want +got):\n%s", diff)
	}

	// every matrix cell points at the single entry
	for _, idx := range schema.TypeInteractionMatrix {
		assert.Equal(t, 0, idx)
	}
}

func TestSchemaMaxCutoff(t *testing.T) {
	table, err := NewForceTable([]TypeInteraction{
		{Type1: 0, Type2: 0, Force: NewLennardJones(1, 1, 3)},
		{Type1: 1, Type2: 1, Force: NewLennardJones(1, 1, 5)},
	}, nil, 2, 0)
	require.NoError(t, err)

	schema := table.GenerateSchema()
	// the mixed pair carries sqrt(3*5) < 5, so 5 stays the maximum
	assert.InDelta(t, 5.0, schema.MaxCutoff(), 1e-12)

	assert.Equal(t, []ParticleType{0, 1}, schema.Types)
}

func TestSchemaIDAttribution(t *testing.T) {
	table, err := NewForceTable(
		[]TypeInteraction{{Type1: 0, Type2: 0, Force: NoForce{}}},
		[]IDInteraction{{ID1: 0, ID2: 1, Force: NewHarmonic(2, 0, 4)}},
		1, 2,
	)
	require.NoError(t, err)

	schema := table.GenerateSchema()

	var harmonicProp *InteractionProp
	for i := range schema.Interactions {
		if schema.Interactions[i].IsActive {
			harmonicProp = &schema.Interactions[i]
		}
	}
	require.NotNil(t, harmonicProp, "the id-bound harmonic should be active")
	assert.Equal(t, []IDPair{{0, 1}}, harmonicProp.UsedByIDs)
}
