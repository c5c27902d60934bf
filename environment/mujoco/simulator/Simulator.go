// Package simulator defines the contract between manipulation
// environments and the physics engines that simulate them. Bodies,
// sites, geoms and joints are addressed by the names given in the
// scene description.
package simulator

import (
	"errors"
	"image"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrUnknownName is reported when a named element does not exist
	// in the scene
	ErrUnknownName = errors.New("no such element in scene")

	// ErrUnstable is reported when the simulation diverges
	ErrUnstable = errors.New("simulation unstable")

	// ErrRenderMode is reported when a render mode is not supported
	ErrRenderMode = errors.New("unsupported render mode")
)

// RenderMode determines how a simulator renders its scene
type RenderMode string

const (
	// RGBArray renders a frame into an image
	RGBArray RenderMode = "rgb_array"

	// DepthArray renders a depth map into a grayscale image
	DepthArray RenderMode = "depth_array"
)

// Simulator is a physics engine simulating a manipulation scene
type Simulator interface {
	// Reset restores the scene to the state it was loaded in
	Reset() error

	// Forward recomputes derived quantities (positions of bodies,
	// sites and contacts) after the state was modified
	Forward() error

	// Step applies ctrl to the actuators and advances nFrames frames
	Step(ctrl []float64, nFrames int) error

	// Timestep returns the duration of a single frame
	Timestep() float64

	JointQPos(joint string) ([]float64, error)
	SetJointQPos(joint string, qpos []float64) error
	SetJointQVel(joint string, qvel []float64) error

	MocapPos(body string) (r3.Vec, error)
	SetMocapPos(body string, pos r3.Vec) error
	SetMocapQuat(body string, q quat.Number) error

	BodyCOM(body string) (r3.Vec, error)
	BodyQuat(body string) (quat.Number, error)
	SetBodyPos(body string, pos r3.Vec) error

	// SitePos returns the world position of a site
	SitePos(site string) (r3.Vec, error)

	// SetSitePos sets a site's position relative to its parent body
	SetSitePos(site string, pos r3.Vec) error

	GeomPos(geom string) (r3.Vec, error)
	GeomQuat(geom string) (quat.Number, error)

	// ContactForce returns the magnitude of the normal contact force
	// between two geoms, 0 if they are not in contact
	ContactForce(geomA, geomB string) (float64, error)

	Render(mode RenderMode, camera string, width, height int) (image.Image,
		error)

	Close() error
}
