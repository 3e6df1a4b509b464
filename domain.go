package kinetic

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Domain describes a simulation region by origin corner and extent.
// Extent components may be negative; Min/Max corners normalize them.
type Domain struct {
	Origin mgl64.Vec3
	Extent mgl64.Vec3
}

func DomainFromMinMax(min, max mgl64.Vec3) Domain {
	return Domain{Origin: min, Extent: max.Sub(min)}
}

func DomainFromCenterAndSize(center, size mgl64.Vec3) Domain {
	return Domain{Origin: center.Sub(size.Mul(0.5)), Extent: size}
}

func (d Domain) MinCorner() mgl64.Vec3 {
	far := d.Origin.Add(d.Extent)
	return mgl64.Vec3{
		math.Min(d.Origin.X(), far.X()),
		math.Min(d.Origin.Y(), far.Y()),
		math.Min(d.Origin.Z(), far.Z()),
	}
}

func (d Domain) MaxCorner() mgl64.Vec3 {
	far := d.Origin.Add(d.Extent)
	return mgl64.Vec3{
		math.Max(d.Origin.X(), far.X()),
		math.Max(d.Origin.Y(), far.Y()),
		math.Max(d.Origin.Z(), far.Z()),
	}
}

func (d Domain) Volume() float64 {
	return math.Abs(d.Extent.X() * d.Extent.Y() * d.Extent.Z())
}

// Box is an axis-aligned box with precomputed extent. Min <= Max on every
// axis is an invariant of construction.
type Box struct {
	Min    mgl64.Vec3
	Max    mgl64.Vec3
	Extent mgl64.Vec3
}

func NewBox(min, max mgl64.Vec3) (Box, error) {
	for ax := 0; ax < 3; ax++ {
		if min[ax] > max[ax] {
			return Box{}, fmt.Errorf("box min[%d]=%v is greater than max[%d]=%v", ax, min[ax], ax, max[ax])
		}
	}
	return Box{Min: min, Max: max, Extent: max.Sub(min)}, nil
}

// MustBox is NewBox for statically known corners, mostly used in tests.
func MustBox(min, max mgl64.Vec3) Box {
	b, err := NewBox(min, max)
	if err != nil {
		panic(err)
	}
	return b
}

func BoxFromDomain(d Domain) Box {
	return Box{
		Min:    d.MinCorner(),
		Max:    d.MaxCorner(),
		Extent: d.MaxCorner().Sub(d.MinCorner()),
	}
}

func (b Box) Contains(p mgl64.Vec3) bool {
	return p.X() >= b.Min.X() && p.X() <= b.Max.X() &&
		p.Y() >= b.Min.Y() && p.Y() <= b.Max.Y() &&
		p.Z() >= b.Min.Z() && p.Z() <= b.Max.Z()
}

// Intersection returns the overlap of two boxes, or false when any axis
// separates them.
func (b Box) Intersection(other Box) (Box, bool) {
	min := mgl64.Vec3{
		math.Max(b.Min.X(), other.Min.X()),
		math.Max(b.Min.Y(), other.Min.Y()),
		math.Max(b.Min.Z(), other.Min.Z()),
	}
	max := mgl64.Vec3{
		math.Min(b.Max.X(), other.Max.X()),
		math.Min(b.Max.Y(), other.Max.Y()),
		math.Min(b.Max.Z(), other.Max.Z()),
	}

	if min.X() > max.X() || min.Y() > max.Y() || min.Z() > max.Z() {
		return Box{}, false
	}
	return Box{Min: min, Max: max, Extent: max.Sub(min)}, true
}

func (b Box) Volume() float64 {
	return b.Extent.X() * b.Extent.Y() * b.Extent.Z()
}

func minExtent(v mgl64.Vec3) float64 {
	return math.Min(v.X(), math.Min(v.Y(), v.Z()))
}
