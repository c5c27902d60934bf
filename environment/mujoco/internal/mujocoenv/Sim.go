//go:build mujoco

// Package mujocoenv implements a simulator.Simulator on top of the
// MuJoCo physics engine. The package binds MuJoCo through cgo and is
// only built with the mujoco build tag. MuJoCo headers and libraries
// are located through CGO_CFLAGS and CGO_LDFLAGS.
//
// Rendering requires an OpenGL context, which this package does not
// create, so that Render always reports simulator.ErrRenderMode.
package mujocoenv

// #cgo LDFLAGS: -lmujoco
// #include <stdlib.h>
// #include "mujoco/mujoco.h"
//
// static int contactGeom1(mjData* d, int i) { return d->contact[i].geom1; }
// static int contactGeom2(mjData* d, int i) { return d->contact[i].geom2; }
//
// static double normalForce(mjModel* m, mjData* d, int i) {
// 	mjtNum force[6];
// 	mj_contactForce(m, d, i, force);
// 	return force[0];
// }
import "C"

import (
	"fmt"
	"image"
	"math"
	"os"
	"unsafe"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/samuelfneumann/gomanip/environment/mujoco/simulator"
)

// Joint types of MuJoCo
const (
	jointFree  = 0
	jointBall  = 1
	jointSlide = 2
	jointHinge = 3
)

var _ simulator.Simulator = (*Sim)(nil)

// Sim is a MuJoCo simulation of a scene
type Sim struct {
	model *C.mjModel
	data  *C.mjData
	path  string
}

// New loads the scene description at xmlPath
func New(xmlPath string) (*Sim, error) {
	if _, err := os.Stat(xmlPath); err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}
	model, data, err := loadXML(xmlPath)
	if err != nil {
		return nil, fmt.Errorf("new: could not load %v: %w", xmlPath, err)
	}
	return &Sim{model: model, data: data, path: xmlPath}, nil
}

// id returns the index of a named element of the argument kind
func (s *Sim) id(kind C.mjtObj, op, label, name string) (int, error) {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))

	id := int(C.mj_name2id(s.model, C.int(kind), cName))
	if id < 0 {
		return -1, fmt.Errorf("%v: %w: %v %q", op, simulator.ErrUnknownName,
			label, name)
	}
	return id, nil
}

func (s *Sim) nq() int    { return int(s.model.nq) }
func (s *Sim) nv() int    { return int(s.model.nv) }
func (s *Sim) nbody() int { return int(s.model.nbody) }
func (s *Sim) nsite() int { return int(s.model.nsite) }
func (s *Sim) ngeom() int { return int(s.model.ngeom) }

// Reset restores the scene to its initial state
func (s *Sim) Reset() error {
	C.mj_resetData(s.model, s.data)
	C.mj_forward(s.model, s.data)
	return nil
}

// Forward recomputes positions after the state was modified
func (s *Sim) Forward() error {
	C.mj_forward(s.model, s.data)
	return s.stable()
}

// Timestep returns the duration of a single frame
func (s *Sim) Timestep() float64 {
	return float64(s.model.opt.timestep)
}

// Step applies ctrl to the actuators and advances nFrames frames
func (s *Sim) Step(ctrl []float64, nFrames int) error {
	nu := int(s.model.nu)
	if len(ctrl) != nu {
		return fmt.Errorf("step: invalid control dimensions \n\thave(%v) "+
			"\n\twant(%v)", len(ctrl), nu)
	}
	if nFrames <= 0 {
		return fmt.Errorf("step: number of frames must be positive, "+
			"have(%v)", nFrames)
	}
	copy(f64Slice(s.data.ctrl, nu), ctrl)

	for i := 0; i < nFrames; i++ {
		C.mj_step(s.model, s.data)
		if err := s.stable(); err != nil {
			return fmt.Errorf("step: frame %v: %w", i, err)
		}
	}
	return nil
}

// stable returns an error if the state diverged
func (s *Sim) stable() error {
	if !finite(f64Slice(s.data.qpos, s.nq())) ||
		!finite(f64Slice(s.data.qvel, s.nv())) {
		return simulator.ErrUnstable
	}
	if s.data.warning[C.mjWARN_BADQACC].number > 0 {
		return simulator.ErrUnstable
	}
	return nil
}

// joint returns the joint's qpos and qvel slices
func (s *Sim) joint(op, name string) (qpos, qvel []float64, err error) {
	id, err := s.id(C.mjOBJ_JOINT, op, "joint", name)
	if err != nil {
		return nil, nil, err
	}
	nq, nv := 1, 1
	switch intSlice(s.model.jnt_type, int(s.model.njnt))[id] {
	case jointFree:
		nq, nv = 7, 6
	case jointBall:
		nq, nv = 4, 3
	}
	qposAdr := int(intSlice(s.model.jnt_qposadr, int(s.model.njnt))[id])
	dofAdr := int(intSlice(s.model.jnt_dofadr, int(s.model.njnt))[id])
	qpos = f64Slice(s.data.qpos, s.nq())[qposAdr : qposAdr+nq]
	qvel = f64Slice(s.data.qvel, s.nv())[dofAdr : dofAdr+nv]
	return qpos, qvel, nil
}

// JointQPos returns a copy of a joint's position coordinates
func (s *Sim) JointQPos(joint string) ([]float64, error) {
	qpos, _, err := s.joint("jointQPos", joint)
	if err != nil {
		return nil, err
	}
	return append([]float64(nil), qpos...), nil
}

// SetJointQPos sets a joint's position coordinates. Free joints accept
// a position alone, keeping their orientation.
func (s *Sim) SetJointQPos(joint string, values []float64) error {
	qpos, _, err := s.joint("setJointQPos", joint)
	if err != nil {
		return err
	}
	if len(values) != len(qpos) && !(len(qpos) == 7 && len(values) == 3) {
		return fmt.Errorf("setJointQPos: joint %q has %v coordinates, "+
			"have(%v)", joint, len(qpos), len(values))
	}
	copy(qpos, values)
	return nil
}

// SetJointQVel sets a joint's velocity coordinates
func (s *Sim) SetJointQVel(joint string, values []float64) error {
	_, qvel, err := s.joint("setJointQVel", joint)
	if err != nil {
		return err
	}
	if len(values) != len(qvel) {
		return fmt.Errorf("setJointQVel: joint %q has %v degrees of "+
			"freedom, have(%v)", joint, len(qvel), len(values))
	}
	copy(qvel, values)
	return nil
}

// mocap returns the mocap index of a body
func (s *Sim) mocap(op, body string) (int, error) {
	id, err := s.id(C.mjOBJ_BODY, op, "body", body)
	if err != nil {
		return -1, err
	}
	mocapID := int(intSlice(s.model.body_mocapid, s.nbody())[id])
	if mocapID < 0 {
		return -1, fmt.Errorf("%v: %w: mocap body %q", op,
			simulator.ErrUnknownName, body)
	}
	return mocapID, nil
}

// MocapPos returns the position of a mocap body
func (s *Sim) MocapPos(body string) (r3.Vec, error) {
	id, err := s.mocap("mocapPos", body)
	if err != nil {
		return r3.Vec{}, err
	}
	return vec(f64Slice(s.data.mocap_pos, 3*int(s.model.nmocap)), id), nil
}

// SetMocapPos sets the position of a mocap body
func (s *Sim) SetMocapPos(body string, pos r3.Vec) error {
	id, err := s.mocap("setMocapPos", body)
	if err != nil {
		return err
	}
	setVec(f64Slice(s.data.mocap_pos, 3*int(s.model.nmocap)), id, pos)
	return nil
}

// SetMocapQuat sets the orientation of a mocap body
func (s *Sim) SetMocapQuat(body string, q quat.Number) error {
	id, err := s.mocap("setMocapQuat", body)
	if err != nil {
		return err
	}
	setQuat(f64Slice(s.data.mocap_quat, 4*int(s.model.nmocap)), id, q)
	return nil
}

// BodyCOM returns the world position of a body's frame
func (s *Sim) BodyCOM(body string) (r3.Vec, error) {
	id, err := s.id(C.mjOBJ_BODY, "bodyCOM", "body", body)
	if err != nil {
		return r3.Vec{}, err
	}
	return vec(f64Slice(s.data.xpos, 3*s.nbody()), id), nil
}

// BodyQuat returns the world orientation of a body
func (s *Sim) BodyQuat(body string) (quat.Number, error) {
	id, err := s.id(C.mjOBJ_BODY, "bodyQuat", "body", body)
	if err != nil {
		return quat.Number{}, err
	}
	return toQuat(f64Slice(s.data.xquat, 4*s.nbody()), id), nil
}

// SetBodyPos sets a body's position relative to its parent in the
// model
func (s *Sim) SetBodyPos(body string, pos r3.Vec) error {
	id, err := s.id(C.mjOBJ_BODY, "setBodyPos", "body", body)
	if err != nil {
		return err
	}
	setVec(f64Slice(s.model.body_pos, 3*s.nbody()), id, pos)
	return nil
}

// SitePos returns the world position of a site
func (s *Sim) SitePos(site string) (r3.Vec, error) {
	id, err := s.id(C.mjOBJ_SITE, "sitePos", "site", site)
	if err != nil {
		return r3.Vec{}, err
	}
	return vec(f64Slice(s.data.site_xpos, 3*s.nsite()), id), nil
}

// SetSitePos sets a site's position relative to its parent body
func (s *Sim) SetSitePos(site string, pos r3.Vec) error {
	id, err := s.id(C.mjOBJ_SITE, "setSitePos", "site", site)
	if err != nil {
		return err
	}
	setVec(f64Slice(s.model.site_pos, 3*s.nsite()), id, pos)
	return nil
}

// GeomPos returns the world position of a geom
func (s *Sim) GeomPos(geom string) (r3.Vec, error) {
	id, err := s.id(C.mjOBJ_GEOM, "geomPos", "geom", geom)
	if err != nil {
		return r3.Vec{}, err
	}
	return vec(f64Slice(s.data.geom_xpos, 3*s.ngeom()), id), nil
}

// GeomQuat returns the world orientation of a geom
func (s *Sim) GeomQuat(geom string) (quat.Number, error) {
	id, err := s.id(C.mjOBJ_GEOM, "geomQuat", "geom", geom)
	if err != nil {
		return quat.Number{}, err
	}
	var q [4]C.mjtNum
	xmat := (*C.mjtNum)(unsafe.Pointer(&f64Slice(s.data.geom_xmat,
		9*s.ngeom())[9*id]))
	C.mju_mat2Quat(&q[0], xmat)
	return quat.Number{Real: float64(q[0]), Imag: float64(q[1]),
		Jmag: float64(q[2]), Kmag: float64(q[3])}, nil
}

// ContactForce returns the summed normal force of all contacts
// between two geoms
func (s *Sim) ContactForce(geomA, geomB string) (float64, error) {
	a, err := s.id(C.mjOBJ_GEOM, "contactForce", "geom", geomA)
	if err != nil {
		return 0, err
	}
	b, err := s.id(C.mjOBJ_GEOM, "contactForce", "geom", geomB)
	if err != nil {
		return 0, err
	}

	force := 0.0
	for i := 0; i < int(s.data.ncon); i++ {
		g1 := int(C.contactGeom1(s.data, C.int(i)))
		g2 := int(C.contactGeom2(s.data, C.int(i)))
		if (g1 == a && g2 == b) || (g1 == b && g2 == a) {
			force += math.Abs(float64(C.normalForce(s.model, s.data,
				C.int(i))))
		}
	}
	return force, nil
}

// Render is unsupported without an OpenGL context
func (s *Sim) Render(mode simulator.RenderMode, camera string, width,
	height int) (image.Image, error) {
	return nil, fmt.Errorf("render: %w: %v", simulator.ErrRenderMode, mode)
}

// Close releases the model and data
func (s *Sim) Close() error {
	C.mj_deleteData(s.data)
	C.mj_deleteModel(s.model)
	return nil
}

func vec(v []float64, i int) r3.Vec {
	return r3.Vec{X: v[3*i], Y: v[3*i+1], Z: v[3*i+2]}
}

func setVec(v []float64, i int, p r3.Vec) {
	v[3*i], v[3*i+1], v[3*i+2] = p.X, p.Y, p.Z
}

func toQuat(v []float64, i int) quat.Number {
	return quat.Number{Real: v[4*i], Imag: v[4*i+1], Jmag: v[4*i+2],
		Kmag: v[4*i+3]}
}

func setQuat(v []float64, i int, q quat.Number) {
	v[4*i], v[4*i+1], v[4*i+2], v[4*i+3] = q.Real, q.Imag, q.Jmag, q.Kmag
}
