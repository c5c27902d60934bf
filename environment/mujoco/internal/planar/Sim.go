// Package planar implements a lightweight simulator for Sawyer
// manipulation scenes. Motion in the table plane is simulated with
// Box2D: the object is a damped dynamic disc and the gripper pads are
// kinematic boxes which push and cage it. Heights are kinematic. The
// hand tracks its mocap target, a caged object squeezed by the
// gripper is carried with the hand, and a released object drops onto
// the highest surface beneath it.
package planar

import (
	"fmt"
	"math"

	"github.com/ByteArena/box2d"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/samuelfneumann/gomanip/environment/mujoco/simulator"
	"github.com/samuelfneumann/gomanip/utils/floatutils"
)

const (
	// Scale converts metres into Box2D world units
	Scale = 100.0

	// MaxOpening is the widest separation of the gripper pads
	MaxOpening = 0.1

	// OpeningSpeed is the rate at which the pads open and close at
	// full effort
	OpeningSpeed = 0.8

	// PadReach is the vertical distance within which the pads collide
	// with and can cage the object
	PadReach = 0.06

	// GripForce is the contact force reported between each pad and a
	// held object at full effort
	GripForce = 10.0

	padHalfX = 0.01
	padHalfY = 0.005

	graspTolerance = 0.002

	objectDensity  = 1.0
	objectFriction = 0.3
	objectDamping  = 8.0

	velocityIterations = 8
	positionIterations = 3

	kinematicBody = 1
	dynamicBody   = 2
)

var _ simulator.Simulator = (*Sim)(nil)

// grasp records how a held object is attached to the hand
type grasp struct {
	dx, dz float64
}

// Sim is a planar simulator of a Scene. Sim satisfies the
// simulator.Simulator interface.
type Sim struct {
	scene    Scene
	timestep float64

	world    box2d.B2World
	object   *box2d.B2Body
	pads     [2]*box2d.B2Body
	contacts *contactDetector

	mocap     r3.Vec
	mocapQuat quat.Number
	hand      r3.Vec
	opening   float64
	effort    float64
	objZ      float64
	held      *grasp

	bodies map[string]r3.Vec
	sites  map[string]Frame
}

// New returns a new simulator of the argument scene, in its initial
// state
func New(scene Scene) (*Sim, error) {
	if err := scene.Validate(); err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	s := &Sim{
		scene:    scene,
		timestep: DefaultTimestep,
	}
	if err := s.Reset(); err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}
	return s, nil
}

// Scene returns the scene being simulated
func (s *Sim) Scene() Scene {
	return s.scene
}

// destroy removes all bodies from the Box2D world
func (s *Sim) destroy() {
	if s.object == nil {
		return
	}
	s.world.SetContactListener(nil)

	s.world.DestroyBody(s.object)
	s.object = nil

	s.world.DestroyBody(s.pads[0])
	s.world.DestroyBody(s.pads[1])
}

// Reset restores the scene to its initial state
func (s *Sim) Reset() error {
	s.destroy()
	s.world = box2d.MakeB2World(box2d.MakeB2Vec2(0, 0))
	s.contacts = newContactDetector(s)
	s.world.SetContactListener(s.contacts)

	// Object disc
	objDef := box2d.MakeB2BodyDef()
	objDef.Type = dynamicBody
	objDef.Position = toWorld(s.scene.ObjectInit)
	objDef.LinearDamping = objectDamping
	objDef.AngularDamping = objectDamping
	s.object = s.world.CreateBody(&objDef)

	objShape := box2d.NewB2CircleShape()
	objShape.M_radius = s.scene.ObjectRadius * Scale
	objFix := box2d.MakeB2FixtureDef()
	objFix.Shape = objShape
	objFix.Density = objectDensity
	objFix.Friction = objectFriction
	objFix.Restitution = 0.0
	s.object.CreateFixtureFromDef(&objFix)

	// Gripper pads
	for i := range s.pads {
		padDef := box2d.MakeB2BodyDef()
		padDef.Type = kinematicBody
		padDef.Position = toWorld(s.scene.HandInit)
		s.pads[i] = s.world.CreateBody(&padDef)

		padShape := box2d.NewB2PolygonShape()
		padShape.SetAsBox(padHalfX*Scale, padHalfY*Scale)
		padFix := box2d.MakeB2FixtureDef()
		padFix.Shape = padShape
		padFix.Friction = objectFriction
		s.pads[i].CreateFixtureFromDef(&padFix)
	}

	s.bodies = make(map[string]r3.Vec, len(s.scene.Bodies))
	for name, pos := range s.scene.Bodies {
		s.bodies[name] = pos
	}
	s.sites = make(map[string]Frame, len(s.scene.Sites))
	for name, f := range s.scene.Sites {
		s.sites[name] = f
	}

	s.mocap = s.scene.HandInit
	s.mocapQuat = quat.Number{Real: 1}
	s.hand = s.scene.HandInit
	s.opening = MaxOpening
	s.effort = 0
	s.objZ = s.scene.ObjectInit.Z
	s.held = nil
	s.placePads(true)

	return nil
}

// Forward moves the gripper pads to the hand after the state was
// modified directly
func (s *Sim) Forward() error {
	s.placePads(true)
	return s.stable()
}

// Timestep returns the duration of a single frame
func (s *Sim) Timestep() float64 {
	return s.timestep
}

// Step applies the gripper control ctrl = (right, left) and simulates
// nFrames frames. The right actuator closes the gripper for positive
// values and opens it for negative values; the left actuator mirrors
// it.
func (s *Sim) Step(ctrl []float64, nFrames int) error {
	if len(ctrl) != 2 {
		return fmt.Errorf("step: invalid control dimensions \n\t"+
			"have(%v) \n\twant(2)", len(ctrl))
	}
	if nFrames <= 0 {
		return fmt.Errorf("step: number of frames must be positive, "+
			"have(%v)", nFrames)
	}

	s.effort = floatutils.Clip((ctrl[0]-ctrl[1])/2, -1, 1)
	s.contacts.clearImpulses()
	for i := 0; i < nFrames; i++ {
		s.frame()
		if err := s.stable(); err != nil {
			return fmt.Errorf("step: frame %v: %w", i, err)
		}
	}
	s.contacts.elapsed = float64(nFrames) * s.timestep
	return nil
}

// frame simulates a single frame
func (s *Sim) frame() {
	s.hand = s.mocap
	if s.held != nil {
		s.follow()
	}

	// Drive the pads toward the actuator target, stopping at the object
	// if it is caged
	target := MaxOpening * (1 - s.effort) / 2
	delta := OpeningSpeed * s.timestep
	s.opening += floatutils.Clip(target-s.opening, -delta, delta)

	diameter := 2 * s.scene.ObjectRadius
	caged := s.caged()
	if caged && s.opening < diameter {
		s.opening = diameter
	}

	closedOn := caged && s.opening <= diameter+graspTolerance
	switch {
	case s.held == nil && closedOn && s.effort > 0:
		s.pick()
	case s.held != nil && (!closedOn || s.effort <= 0):
		s.release()
	}

	s.placePads(false)
	s.world.Step(s.timestep, velocityIterations, positionIterations)
}

// caged returns whether the object lies between the pads
func (s *Sim) caged() bool {
	obj := s.objectPos()
	return math.Abs(obj.Y-s.hand.Y) < s.opening/2 &&
		math.Abs(obj.X-s.hand.X) < padHalfX+s.scene.ObjectRadius/2 &&
		math.Abs(s.hand.Z-s.objZ) < PadReach
}

// pick attaches the object to the hand
func (s *Sim) pick() {
	obj := s.objectPos()
	s.held = &grasp{dx: obj.X - s.hand.X, dz: s.hand.Z - obj.Z}
	s.object.SetLinearVelocity(box2d.MakeB2Vec2(0, 0))
	s.object.SetAngularVelocity(0)
	s.object.SetActive(false)
}

// follow moves a held object with the hand
func (s *Sim) follow() {
	pos := r3.Vec{
		X: s.hand.X + s.held.dx,
		Y: s.hand.Y,
		Z: s.hand.Z - s.held.dz,
	}
	s.object.SetTransform(toWorld(pos), s.object.GetAngle())
	s.objZ = pos.Z
}

// release detaches the object, which drops onto the surface below it
func (s *Sim) release() {
	s.held = nil
	s.objZ = s.restHeight(s.objectPos())
	s.object.SetActive(true)
}

// restHeight returns the height the object settles at when dropped at
// pos: the top of the highest support below it, or the table
func (s *Sim) restHeight(pos r3.Vec) float64 {
	surface := 0.0
	for _, sup := range s.scene.Supports {
		centre := r3.Add(s.bodies[sup.Body], sup.Offset)
		top := centre.Z + sup.Height
		if math.Abs(pos.X-centre.X) <= sup.HalfX &&
			math.Abs(pos.Y-centre.Y) <= sup.HalfY &&
			top <= pos.Z-s.scene.ObjectRest+graspTolerance &&
			top > surface {
			surface = top
		}
	}
	return math.Min(surface+s.scene.ObjectRest, pos.Z)
}

// placePads moves the pads either side of the hand. The pads only
// collide with the object when they are level with it. If teleport is
// true, the pads are moved instantly, otherwise they are given the
// velocity that takes them to their targets within one frame.
func (s *Sim) placePads(teleport bool) {
	active := s.held == nil && math.Abs(s.hand.Z-s.objZ) < PadReach
	for i, pad := range s.pads {
		target := toWorld(s.padPos(i))
		if pad.IsActive() != active {
			pad.SetActive(active)
			teleport = true
		}

		if teleport || !active {
			pad.SetTransform(target, 0)
			pad.SetLinearVelocity(box2d.MakeB2Vec2(0, 0))
			continue
		}
		current := pad.GetPosition()
		pad.SetLinearVelocity(box2d.MakeB2Vec2(
			(target.X-current.X)/s.timestep,
			(target.Y-current.Y)/s.timestep,
		))
	}
}

// padPos returns the centre of pad i, 0 for the left pad and 1 for
// the right
func (s *Sim) padPos(i int) r3.Vec {
	offset := s.opening/2 + padHalfY
	if i == 1 {
		offset = -offset
	}
	return r3.Vec{X: s.hand.X, Y: s.hand.Y + offset, Z: s.hand.Z}
}

// objectPos returns the position of the object's centre
func (s *Sim) objectPos() r3.Vec {
	p := s.object.GetPosition()
	return r3.Vec{X: p.X / Scale, Y: p.Y / Scale, Z: s.objZ}
}

// objectQuat returns the object's orientation, a rotation about z
func (s *Sim) objectQuat() quat.Number {
	angle := s.object.GetAngle()
	return quat.Number{Real: math.Cos(angle / 2), Kmag: math.Sin(angle / 2)}
}

// stable returns an error if the simulation has diverged
func (s *Sim) stable() error {
	obj := s.objectPos()
	for _, v := range []float64{obj.X, obj.Y, obj.Z, s.object.GetAngle()} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return simulator.ErrUnstable
		}
	}
	return nil
}

// JointQPos returns the position of a joint. The object's free joint
// has position (x, y, z, qw, qx, qy, qz).
func (s *Sim) JointQPos(joint string) ([]float64, error) {
	if joint != s.scene.ObjectJoint {
		return nil, unknown("jointQPos", "joint", joint)
	}
	p, q := s.objectPos(), s.objectQuat()
	return []float64{p.X, p.Y, p.Z, q.Real, q.Imag, q.Jmag, q.Kmag}, nil
}

// SetJointQPos sets the position of a joint. The object's free joint
// accepts either a position (x, y, z) or a position and orientation
// (x, y, z, qw, qx, qy, qz). Only the yaw of the orientation is kept.
// Moving the object releases it from the gripper.
func (s *Sim) SetJointQPos(joint string, qpos []float64) error {
	if joint != s.scene.ObjectJoint {
		return unknown("setJointQPos", "joint", joint)
	}
	if len(qpos) != 3 && len(qpos) != 7 {
		return fmt.Errorf("setJointQPos: invalid position dimensions \n\t"+
			"have(%v) \n\twant(3 or 7)", len(qpos))
	}

	angle := s.object.GetAngle()
	if len(qpos) == 7 {
		angle = 2 * math.Atan2(qpos[6], qpos[3])
	}
	s.held = nil
	s.object.SetActive(true)
	s.object.SetTransform(toWorld(r3.Vec{X: qpos[0], Y: qpos[1]}), angle)
	s.objZ = qpos[2]
	return nil
}

// SetJointQVel sets the velocity of a joint. The object's free joint
// accepts either a linear velocity or a linear and angular velocity.
// Out of plane components are ignored.
func (s *Sim) SetJointQVel(joint string, qvel []float64) error {
	if joint != s.scene.ObjectJoint {
		return unknown("setJointQVel", "joint", joint)
	}
	if len(qvel) != 3 && len(qvel) != 6 {
		return fmt.Errorf("setJointQVel: invalid velocity dimensions \n\t"+
			"have(%v) \n\twant(3 or 6)", len(qvel))
	}

	s.object.SetLinearVelocity(box2d.MakeB2Vec2(qvel[0]*Scale,
		qvel[1]*Scale))
	if len(qvel) == 6 {
		s.object.SetAngularVelocity(qvel[5])
	}
	return nil
}

// MocapPos returns the position of a mocap body
func (s *Sim) MocapPos(body string) (r3.Vec, error) {
	if body != Mocap {
		return r3.Vec{}, unknown("mocapPos", "mocap body", body)
	}
	return s.mocap, nil
}

// SetMocapPos sets the position the hand tracks
func (s *Sim) SetMocapPos(body string, pos r3.Vec) error {
	if body != Mocap {
		return unknown("setMocapPos", "mocap body", body)
	}
	s.mocap = pos
	return nil
}

// SetMocapQuat sets the orientation of a mocap body. The hand always
// points down in a planar scene, so the orientation is only recorded.
func (s *Sim) SetMocapQuat(body string, q quat.Number) error {
	if body != Mocap {
		return unknown("setMocapQuat", "mocap body", body)
	}
	s.mocapQuat = q
	return nil
}

// BodyCOM returns the centre of mass of a body
func (s *Sim) BodyCOM(body string) (r3.Vec, error) {
	pos, ok := s.bodyPos(body)
	if !ok {
		return r3.Vec{}, unknown("bodyCOM", "body", body)
	}
	return pos, nil
}

// BodyQuat returns the orientation of a body
func (s *Sim) BodyQuat(body string) (quat.Number, error) {
	switch {
	case body == s.scene.ObjectBody:
		return s.objectQuat(), nil
	case body == Mocap:
		return s.mocapQuat, nil
	}
	if _, ok := s.bodyPos(body); !ok {
		return quat.Number{}, unknown("bodyQuat", "body", body)
	}
	return quat.Number{Real: 1}, nil
}

// SetBodyPos moves a static body, or the object. Bodies of the hand
// cannot be moved, use SetMocapPos instead.
func (s *Sim) SetBodyPos(body string, pos r3.Vec) error {
	if body == s.scene.ObjectBody {
		q := s.objectQuat()
		return s.SetJointQPos(s.scene.ObjectJoint, []float64{
			pos.X, pos.Y, pos.Z, q.Real, q.Imag, q.Jmag, q.Kmag,
		})
	}
	if _, ok := s.bodies[body]; !ok {
		return unknown("setBodyPos", "static body", body)
	}
	s.bodies[body] = pos
	return nil
}

// bodyPos returns the position of any body in the scene
func (s *Sim) bodyPos(body string) (r3.Vec, bool) {
	switch body {
	case "":
		return r3.Vec{}, true
	case s.scene.ObjectBody:
		return s.objectPos(), true
	case Mocap:
		return s.mocap, true
	case Hand:
		return s.hand, true
	case LeftPad, LeftClaw:
		return s.padPos(0), true
	case RightPad, RightClaw:
		return s.padPos(1), true
	}
	pos, ok := s.bodies[body]
	return pos, ok
}

// framePos returns the world position of an element attached to a
// body. Offsets from the object rotate with it.
func (s *Sim) framePos(f Frame) r3.Vec {
	parent, _ := s.bodyPos(f.Body)
	offset := f.Offset
	if f.Body == s.scene.ObjectBody {
		offset = r3.Rotate(offset, s.object.GetAngle(), r3.Vec{Z: 1})
	}
	return r3.Add(parent, offset)
}

// SitePos returns the world position of a site
func (s *Sim) SitePos(site string) (r3.Vec, error) {
	switch site {
	case LeftEffector:
		return s.padPos(0), nil
	case RightEffector:
		return s.padPos(1), nil
	}
	f, ok := s.sites[site]
	if !ok {
		return r3.Vec{}, unknown("sitePos", "site", site)
	}
	return s.framePos(f), nil
}

// SetSitePos sets a site's position relative to its parent body
func (s *Sim) SetSitePos(site string, pos r3.Vec) error {
	f, ok := s.sites[site]
	if !ok {
		return unknown("setSitePos", "site", site)
	}
	f.Offset = pos
	s.sites[site] = f
	return nil
}

// GeomPos returns the world position of a geom
func (s *Sim) GeomPos(geom string) (r3.Vec, error) {
	switch geom {
	case s.scene.ObjectGeom:
		return s.objectPos(), nil
	case LeftPadGeom:
		return s.padPos(0), nil
	case RightPadGeom:
		return s.padPos(1), nil
	}
	f, ok := s.scene.Geoms[geom]
	if !ok {
		return r3.Vec{}, unknown("geomPos", "geom", geom)
	}
	return s.framePos(f), nil
}

// GeomQuat returns the orientation of a geom
func (s *Sim) GeomQuat(geom string) (quat.Number, error) {
	switch geom {
	case s.scene.ObjectGeom:
		return s.objectQuat(), nil
	case LeftPadGeom, RightPadGeom:
		return quat.Number{Real: 1}, nil
	}
	f, ok := s.scene.Geoms[geom]
	if !ok {
		return quat.Number{}, unknown("geomQuat", "geom", geom)
	}
	if f.Body == s.scene.ObjectBody {
		return s.objectQuat(), nil
	}
	return quat.Number{Real: 1}, nil
}

// ContactForce returns the normal force between a pad and the object,
// averaged over the last call to Step. Only pad-object contacts are
// simulated; all other pairs of known geoms report no force.
func (s *Sim) ContactForce(geomA, geomB string) (float64, error) {
	for _, g := range []string{geomA, geomB} {
		if _, err := s.GeomPos(g); err != nil {
			return 0, fmt.Errorf("contactForce: %w", err)
		}
	}

	pad := -1
	switch {
	case geomA == s.scene.ObjectGeom:
		pad = padIndex(geomB)
	case geomB == s.scene.ObjectGeom:
		pad = padIndex(geomA)
	}
	if pad < 0 {
		return 0, nil
	}

	if s.held != nil {
		return GripForce * math.Max(s.effort, 0), nil
	}
	return s.contacts.force(pad), nil
}

// padIndex returns the index of the pad with the argument geom, or -1
func padIndex(geom string) int {
	switch geom {
	case LeftPadGeom:
		return 0
	case RightPadGeom:
		return 1
	}
	return -1
}

// Held returns whether the object is held by the gripper
func (s *Sim) Held() bool {
	return s.held != nil
}

// Opening returns the separation of the gripper pads
func (s *Sim) Opening() float64 {
	return s.opening
}

// Close releases the Box2D world
func (s *Sim) Close() error {
	s.destroy()
	return nil
}

// toWorld converts a position in metres into Box2D world coordinates,
// dropping its height
func toWorld(p r3.Vec) box2d.B2Vec2 {
	return box2d.MakeB2Vec2(p.X*Scale, p.Y*Scale)
}

func unknown(op, kind, name string) error {
	return fmt.Errorf("%v: %w: %v %q", op, simulator.ErrUnknownName, kind,
		name)
}
