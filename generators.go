package kinetic

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// CuboidSpec materializes a regular lattice of particles.
type CuboidSpec struct {
	Origin  mgl64.Vec3
	Counts  [3]int
	Spacing float64

	Mass     float64
	Velocity mgl64.Vec3
	Type     int
	State    ParticleState
	UserData any
}

// EllipsoidSpec materializes the lattice points inside an ellipsoid.
type EllipsoidSpec struct {
	Center  mgl64.Vec3
	Radii   mgl64.Vec3
	Spacing float64

	Mass     float64
	Velocity mgl64.Vec3
	Type     int
	State    ParticleState
	UserData any
}

func (spec CuboidSpec) materialize(emit func(ParticleSpec)) error {
	if spec.Spacing <= 0 {
		return fmt.Errorf("cuboid spacing must be positive, got %v", spec.Spacing)
	}
	for _, n := range spec.Counts {
		if n <= 0 {
			return fmt.Errorf("cuboid counts must be positive, got %v", spec.Counts)
		}
	}

	state := spec.State
	if state == 0 {
		state = StateAlive
	}

	for i := 0; i < spec.Counts[0]; i++ {
		for j := 0; j < spec.Counts[1]; j++ {
			for k := 0; k < spec.Counts[2]; k++ {
				offset := mgl64.Vec3{float64(i), float64(j), float64(k)}.Mul(spec.Spacing)
				emit(ParticleSpec{
					Position: spec.Origin.Add(offset),
					Velocity: spec.Velocity,
					Mass:     spec.Mass,
					Type:     spec.Type,
					ID:       -1,
					State:    state,
					UserData: spec.UserData,
				})
			}
		}
	}
	return nil
}

func (spec EllipsoidSpec) materialize(emit func(ParticleSpec)) error {
	if spec.Spacing <= 0 {
		return fmt.Errorf("ellipsoid spacing must be positive, got %v", spec.Spacing)
	}
	for ax := 0; ax < 3; ax++ {
		if spec.Radii[ax] <= 0 {
			return fmt.Errorf("ellipsoid radii must be positive, got %v", spec.Radii)
		}
	}

	state := spec.State
	if state == 0 {
		state = StateAlive
	}

	// walk the bounding lattice and keep interior points
	counts := [3]int{}
	for ax := 0; ax < 3; ax++ {
		counts[ax] = int(spec.Radii[ax]/spec.Spacing) + 1
	}

	for i := -counts[0]; i <= counts[0]; i++ {
		for j := -counts[1]; j <= counts[1]; j++ {
			for k := -counts[2]; k <= counts[2]; k++ {
				offset := mgl64.Vec3{float64(i), float64(j), float64(k)}.Mul(spec.Spacing)

				n := mgl64.Vec3{
					offset.X() / spec.Radii.X(),
					offset.Y() / spec.Radii.Y(),
					offset.Z() / spec.Radii.Z(),
				}
				if n.Dot(n) > 1 {
					continue
				}

				emit(ParticleSpec{
					Position: spec.Center.Add(offset),
					Velocity: spec.Velocity,
					Mass:     spec.Mass,
					Type:     spec.Type,
					ID:       -1,
					State:    state,
					UserData: spec.UserData,
				})
			}
		}
	}
	return nil
}
