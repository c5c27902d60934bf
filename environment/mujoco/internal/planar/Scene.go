package planar

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Names of the elements every scene provides for the Sawyer hand
const (
	Mocap           = "mocap"
	Hand            = "hand"
	LeftPad         = "leftpad"
	RightPad        = "rightpad"
	LeftClaw        = "leftclaw_it"
	RightClaw       = "rightclaw_it"
	LeftEffector    = "leftEndEffector"
	RightEffector   = "rightEndEffector"
	LeftPadGeom     = "leftpad_geom"
	RightPadGeom    = "rightpad_geom"
	DefaultCamera   = "topview"
	CornerCamera    = "corner"
	DefaultTimestep = 0.0025
)

// Frame attaches an element to a body at a fixed offset. An empty Body
// attaches the element to the world.
type Frame struct {
	Body   string
	Offset r3.Vec
}

// Support is a raised rectangular surface that a released object comes
// to rest on, such as a shelf. The surface is centred on Body's xy
// position, offset by Offset.
type Support struct {
	Body   string
	Offset r3.Vec
	HalfX  float64
	HalfY  float64
	Height float64
}

// Scene describes the contents of a planar manipulation scene: a
// single free object on a table, the static bodies surrounding it and
// the sites and geoms attached to them.
type Scene struct {
	Name string

	ObjectBody   string
	ObjectJoint  string
	ObjectGeom   string
	ObjectRadius float64

	// ObjectRest is the height of the object's centre above the surface
	// it rests on
	ObjectRest float64
	ObjectInit r3.Vec

	// Bodies holds the initial positions of static bodies
	Bodies   map[string]r3.Vec
	Sites    map[string]Frame
	Geoms    map[string]Frame
	Supports []Support

	HandInit r3.Vec
}

// builtinBody returns whether name is a body every scene provides
func builtinBody(name string) bool {
	switch name {
	case Mocap, Hand, LeftPad, RightPad, LeftClaw, RightClaw:
		return true
	}
	return false
}

// Validate returns an error if the scene is malformed
func (s Scene) Validate() error {
	if s.ObjectBody == "" || s.ObjectJoint == "" || s.ObjectGeom == "" {
		return fmt.Errorf("validate: scene %q must name its object body, "+
			"joint and geom", s.Name)
	}
	if s.ObjectRadius <= 0 {
		return fmt.Errorf("validate: scene %q object radius must be "+
			"positive, have(%v)", s.Name, s.ObjectRadius)
	}
	if 2*s.ObjectRadius > MaxOpening {
		return fmt.Errorf("validate: scene %q object of radius %v does not "+
			"fit in the gripper", s.Name, s.ObjectRadius)
	}
	if s.ObjectRest < 0 {
		return fmt.Errorf("validate: scene %q object rest height must be "+
			"non-negative, have(%v)", s.Name, s.ObjectRest)
	}
	if builtinBody(s.ObjectBody) {
		return fmt.Errorf("validate: scene %q object body %q is reserved",
			s.Name, s.ObjectBody)
	}

	known := func(body string) bool {
		if body == "" || body == s.ObjectBody || builtinBody(body) {
			return true
		}
		_, ok := s.Bodies[body]
		return ok
	}
	for name, f := range s.Sites {
		if !known(f.Body) {
			return fmt.Errorf("validate: site %q attached to unknown body "+
				"%q", name, f.Body)
		}
	}
	for name, f := range s.Geoms {
		if !known(f.Body) {
			return fmt.Errorf("validate: geom %q attached to unknown body "+
				"%q", name, f.Body)
		}
	}
	for i, sup := range s.Supports {
		if !known(sup.Body) || sup.Body == s.ObjectBody ||
			builtinBody(sup.Body) {
			return fmt.Errorf("validate: support %v must rest on a static "+
				"body, have %q", i, sup.Body)
		}
		if sup.HalfX <= 0 || sup.HalfY <= 0 {
			return fmt.Errorf("validate: support %v must have positive "+
				"extents", i)
		}
	}
	return nil
}
