package kinetic

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minimalEnv() *Environment {
	env := NewEnvironment()
	env.AddBody(mgl64.Vec3{1, 1, 1}, mgl64.Vec3{}, 1)
	env.AddBody(mgl64.Vec3{2, 2, 2}, mgl64.Vec3{}, 1)
	env.AddForce(NoForce{}, ToType(0))
	env.SetOrigin(mgl64.Vec3{0, 0, 0}).SetExtent(mgl64.Vec3{10, 10, 10})
	return env
}

func TestBuildDenseRemapping(t *testing.T) {
	env := NewEnvironment()
	// user types 7 and 3 remap densely in sorted label order: 3->0, 7->1
	env.AddParticle(ParticleSpec{Position: mgl64.Vec3{1, 1, 1}, Mass: 1, Type: 7, ID: -1})
	env.AddParticle(ParticleSpec{Position: mgl64.Vec3{2, 2, 2}, Mass: 1, Type: 3, ID: -1})
	env.AddParticle(ParticleSpec{Position: mgl64.Vec3{3, 3, 3}, Mass: 1, Type: 7, ID: -1})
	env.AddForce(NoForce{}, ToType(7))
	env.AddForce(NoForce{}, ToType(3))
	env.SetOrigin(mgl64.Vec3{0, 0, 0}).SetExtent(mgl64.Vec3{10, 10, 10})

	inputs, err := lowerEnvironment(env)
	require.NoError(t, err)

	want := map[int]ParticleType{3: 0, 7: 1}
	if diff := cmp.Diff(want, inputs.TypeMap); diff != "" {
		t.Errorf("type map mismatch (-want +got):\n%s", diff)
	}

	// record ids are dense insertion order, types remapped
	assert.Equal(t, ParticleID(0), inputs.Records[0].ID)
	assert.Equal(t, ParticleType(1), inputs.Records[0].Type)
	assert.Equal(t, ParticleType(0), inputs.Records[1].Type)
}

func TestBuildRejectsDuplicateUserIDs(t *testing.T) {
	env := NewEnvironment()
	env.AddParticle(ParticleSpec{Position: mgl64.Vec3{1, 1, 1}, Mass: 1, ID: 5})
	env.AddParticle(ParticleSpec{Position: mgl64.Vec3{2, 2, 2}, Mass: 1, ID: 5})
	env.AddForce(NoForce{}, ToType(0))
	env.SetOrigin(mgl64.Vec3{0, 0, 0}).SetExtent(mgl64.Vec3{10, 10, 10})

	_, err := BuildSystem(env, DirectSum{})
	assert.ErrorContains(t, err, "duplicate")
}

func TestBuildRejectsUndeclaredType(t *testing.T) {
	env := NewEnvironment()
	env.AddParticle(ParticleSpec{Position: mgl64.Vec3{1, 1, 1}, Mass: 1, Type: 2, ID: -1})
	env.AddForce(NoForce{}, ToType(0)) // type 2 never declared
	env.SetOrigin(mgl64.Vec3{0, 0, 0}).SetExtent(mgl64.Vec3{10, 10, 10})

	_, err := BuildSystem(env, DirectSum{})
	assert.Error(t, err)
}

func TestBuildRejectsUnknownIDInteraction(t *testing.T) {
	env := minimalEnv()
	env.AddForce(NewHarmonic(1, 0, 2), BetweenIDs(0, 99))

	_, err := BuildSystem(env, DirectSum{})
	assert.ErrorContains(t, err, "unknown particle id")
}

func TestBuildRejectsSelfIDInteraction(t *testing.T) {
	env := minimalEnv()
	env.AddForce(NewHarmonic(1, 0, 2), BetweenIDs(1, 1))

	_, err := BuildSystem(env, DirectSum{})
	assert.ErrorContains(t, err, "twice")
}

func TestBuildRejectsParticleOutsideDomain(t *testing.T) {
	env := NewEnvironment()
	env.AddBody(mgl64.Vec3{20, 1, 1}, mgl64.Vec3{}, 1)
	env.AddForce(NoForce{}, ToType(0))
	env.SetOrigin(mgl64.Vec3{0, 0, 0}).SetExtent(mgl64.Vec3{10, 10, 10})

	_, err := BuildSystem(env, DirectSum{})
	assert.ErrorContains(t, err, "outside the domain")
}

func TestBuildRejectsMismatchedPeriodicFaces(t *testing.T) {
	env := minimalEnv()
	env.SetBoundary(FaceXMinus, Periodic{}) // x+ stays open

	_, err := BuildSystem(env, DirectSum{})
	assert.ErrorContains(t, err, "couples")
}

func TestBuildRejectsMissingDomain(t *testing.T) {
	env := NewEnvironment()
	env.AddBody(mgl64.Vec3{1, 1, 1}, mgl64.Vec3{}, 1)
	env.AddForce(NoForce{}, ToType(0))

	_, err := BuildSystem(env, DirectSum{})
	assert.ErrorContains(t, err, "domain")
}

func TestBuildRejectsHalfSpecifiedDomain(t *testing.T) {
	env := NewEnvironment()
	env.AddBody(mgl64.Vec3{1, 1, 1}, mgl64.Vec3{}, 1)
	env.AddForce(NoForce{}, ToType(0))
	env.SetOrigin(mgl64.Vec3{0, 0, 0})

	_, err := BuildSystem(env, DirectSum{})
	assert.Error(t, err)
}

func TestAutoDomainMargins(t *testing.T) {
	env := NewEnvironment()
	env.AddBody(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{}, 1)
	env.AddBody(mgl64.Vec3{10, 4, 2}, mgl64.Vec3{}, 1)
	env.AddForce(NoForce{}, ToType(0))
	// absolute margin 1 vs 10% of the bbox: the larger wins per axis
	env.AutoDomain(1, 0.1)

	inputs, err := lowerEnvironment(env)
	require.NoError(t, err)

	// x: bbox 10, margin max(1, 1.0) = 1 -> [-1, 11]
	assert.InDelta(t, -1.0, inputs.Box.Min.X(), 1e-12)
	assert.InDelta(t, 11.0, inputs.Box.Max.X(), 1e-12)
	// y: bbox 4, margin max(1, 0.4) = 1 -> [-1, 5]
	assert.InDelta(t, -1.0, inputs.Box.Min.Y(), 1e-12)
	assert.InDelta(t, 5.0, inputs.Box.Max.Y(), 1e-12)
}

func TestInfiniteDomainOnlyDirectSum(t *testing.T) {
	env := NewEnvironment()
	env.AddBody(mgl64.Vec3{1, 1, 1}, mgl64.Vec3{}, 1)
	env.AddForce(NewLennardJones(1, 1, 3), ToType(0))
	env.InfiniteDomain()

	_, err := BuildSystem(env, DirectSum{})
	assert.NoError(t, err, "direct sum supports unbounded domains")

	_, err = BuildSystem(env, LinkedCells{})
	assert.ErrorContains(t, err, "bounded")
}

func TestBuildGenerators(t *testing.T) {
	env := NewEnvironment()
	env.AddCuboid(CuboidSpec{
		Origin:  mgl64.Vec3{1, 1, 1},
		Counts:  [3]int{2, 3, 2},
		Spacing: 1,
		Mass:    1,
	})
	env.AddEllipsoid(EllipsoidSpec{
		Center:  mgl64.Vec3{7, 7, 7},
		Radii:   mgl64.Vec3{1, 1, 1},
		Spacing: 0.9,
		Mass:    2,
	})
	env.AddForce(NoForce{}, ToType(0))
	env.SetOrigin(mgl64.Vec3{0, 0, 0}).SetExtent(mgl64.Vec3{10, 10, 10})

	sys, err := BuildSystem(env, DirectSum{})
	require.NoError(t, err)

	// cuboid contributes 12; the unit ball with spacing 0.9 keeps the
	// center plus six axis neighbors
	assert.Equal(t, 12+7, sys.Size())
}

func TestBuildRejectsZeroSpacing(t *testing.T) {
	env := NewEnvironment()
	env.AddCuboid(CuboidSpec{Origin: mgl64.Vec3{1, 1, 1}, Counts: [3]int{2, 2, 2}, Spacing: 0, Mass: 1})
	env.AddForce(NoForce{}, ToType(0))
	env.SetOrigin(mgl64.Vec3{0, 0, 0}).SetExtent(mgl64.Vec3{10, 10, 10})

	_, err := BuildSystem(env, DirectSum{})
	assert.ErrorContains(t, err, "spacing")
}

func TestBuildRejectsEmptyEnvironment(t *testing.T) {
	env := NewEnvironment()
	env.SetOrigin(mgl64.Vec3{0, 0, 0}).SetExtent(mgl64.Vec3{10, 10, 10})

	_, err := BuildSystem(env, DirectSum{})
	assert.ErrorContains(t, err, "no particles")
}
