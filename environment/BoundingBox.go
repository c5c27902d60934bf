package environment

import (
	"fmt"

	"github.com/samuelfneumann/gomanip/utils/floatutils"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/spatial/r3"
)

// BoundingBox is an axis-aligned box in 3D space, used for workspace
// limits and for the regions task instances are sampled from
type BoundingBox struct {
	Low  r3.Vec `yaml:"low" json:"low"`
	High r3.Vec `yaml:"high" json:"high"`
}

// NewBoundingBox returns a new BoundingBox from its low and high
// corners. NewBoundingBox panics if the box is malformed.
func NewBoundingBox(low, high r3.Vec) BoundingBox {
	b := BoundingBox{low, high}
	if err := b.Validate(); err != nil {
		panic(fmt.Sprintf("newBoundingBox: %v", err))
	}
	return b
}

// Validate returns an error if some component of Low exceeds the
// same component of High
func (b BoundingBox) Validate() error {
	if b.Low.X > b.High.X || b.Low.Y > b.High.Y || b.Low.Z > b.High.Z {
		return fmt.Errorf("validate: low corner %v exceeds high corner %v",
			b.Low, b.High)
	}
	return nil
}

// Contains returns whether p lies inside the box, boundaries included.
// Unlike r3.Box, a box which is flat along some axis still contains
// the points on its face.
func (b BoundingBox) Contains(p r3.Vec) bool {
	return b.Low.X <= p.X && p.X <= b.High.X &&
		b.Low.Y <= p.Y && p.Y <= b.High.Y &&
		b.Low.Z <= p.Z && p.Z <= b.High.Z
}

// Clamp returns the point in the box closest to p
func (b BoundingBox) Clamp(p r3.Vec) r3.Vec {
	return r3.Vec{
		X: floatutils.Clip(p.X, b.Low.X, b.High.X),
		Y: floatutils.Clip(p.Y, b.Low.Y, b.High.Y),
		Z: floatutils.Clip(p.Z, b.Low.Z, b.High.Z),
	}
}

// Center returns the center of the box
func (b BoundingBox) Center() r3.Vec {
	return b.box().Center()
}

// Intervals returns the box as per-axis intervals in x, y, z order
func (b BoundingBox) Intervals() []r1.Interval {
	return []r1.Interval{
		{Min: b.Low.X, Max: b.High.X},
		{Min: b.Low.Y, Max: b.High.Y},
		{Min: b.Low.Z, Max: b.High.Z},
	}
}

func (b BoundingBox) box() r3.Box {
	return r3.Box{Min: b.Low, Max: b.High}
}
