package planar

import (
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/samuelfneumann/gomanip/environment/mujoco/simulator"
)

// Viewport of the top-down cameras, in metres
const (
	ViewMinX = -0.6
	ViewMaxX = 0.6
	ViewMinY = 0.3
	ViewMaxY = 1.1
)

var (
	tableColour   = color.RGBA{R: 196, G: 164, B: 132, A: 255}
	supportColour = color.RGBA{R: 120, G: 90, B: 60, A: 255}
	bodyColour    = color.RGBA{R: 80, G: 80, B: 80, A: 255}
	siteColour    = color.RGBA{R: 230, G: 40, B: 40, A: 255}
	objectColour  = color.RGBA{R: 40, G: 160, B: 60, A: 255}
	heldColour    = color.RGBA{R: 40, G: 220, B: 90, A: 255}
	handColour    = color.RGBA{R: 128, G: 102, B: 230, A: 255}
	padColour     = color.RGBA{R: 77, G: 77, B: 128, A: 255}
)

// pixel converts a position in metres into pixel coordinates for an
// image of the argument size, with y pointing away from the robot
func pixel(p r3.Vec, width, height int) (float64, float64) {
	x := (p.X - ViewMinX) / (ViewMaxX - ViewMinX) * float64(width)
	y := (ViewMaxY - p.Y) / (ViewMaxY - ViewMinY) * float64(height)
	return x, y
}

// Render draws the scene from above. Only the rgb_array mode is
// supported, from either the top-down or the corner camera; both view
// the table from directly above.
func (s *Sim) Render(mode simulator.RenderMode, camera string, width,
	height int) (image.Image, error) {
	if mode != simulator.RGBArray {
		return nil, fmt.Errorf("render: %w: %v", simulator.ErrRenderMode, mode)
	}
	if camera != "" && camera != DefaultCamera && camera != CornerCamera {
		return nil, unknown("render", "camera", camera)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("render: invalid image size %vx%v", width,
			height)
	}

	pxPerMetre := float64(width) / (ViewMaxX - ViewMinX)
	dc := gg.NewContext(width, height)
	dc.SetColor(tableColour)
	dc.Clear()

	// Supports
	dc.SetColor(supportColour)
	for _, sup := range s.scene.Supports {
		centre := r3.Add(s.bodies[sup.Body], sup.Offset)
		corner := r3.Vec{X: centre.X - sup.HalfX, Y: centre.Y + sup.HalfY}
		x, y := pixel(corner, width, height)
		dc.DrawRectangle(x, y, 2*sup.HalfX*pxPerMetre, 2*sup.HalfY*pxPerMetre)
		dc.Fill()
	}

	// Static bodies
	dc.SetColor(bodyColour)
	for _, pos := range s.bodies {
		x, y := pixel(pos, width, height)
		dc.DrawRectangle(x-3, y-3, 6, 6)
		dc.Fill()
	}

	// Sites
	dc.SetColor(siteColour)
	for name := range s.sites {
		x, y := pixel(s.framePos(s.sites[name]), width, height)
		dc.DrawCircle(x, y, 3)
		dc.Fill()
	}

	// Object
	x, y := pixel(s.objectPos(), width, height)
	dc.DrawCircle(x, y, s.scene.ObjectRadius*pxPerMetre)
	if s.held != nil {
		dc.SetColor(heldColour)
	} else {
		dc.SetColor(objectColour)
	}
	dc.Fill()

	// Gripper
	dc.SetColor(padColour)
	for i := range s.pads {
		centre := s.padPos(i)
		corner := r3.Vec{X: centre.X - padHalfX, Y: centre.Y + padHalfY}
		x, y := pixel(corner, width, height)
		dc.DrawRectangle(x, y, 2*padHalfX*pxPerMetre, 2*padHalfY*pxPerMetre)
		dc.Fill()
	}
	dc.SetColor(handColour)
	dc.SetLineWidth(2)
	x, y = pixel(s.hand, width, height)
	dc.DrawCircle(x, y, 4)
	dc.Stroke()

	return dc.Image(), nil
}
