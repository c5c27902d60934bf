package planar

import "github.com/ByteArena/box2d"

// contactDetector tracks contacts between the gripper pads and the
// object, and the normal impulses exchanged through them
type contactDetector struct {
	sim      *Sim
	touching [2]int
	impulse  [2]float64
	elapsed  float64
}

func newContactDetector(s *Sim) *contactDetector {
	return &contactDetector{sim: s}
}

// pad returns the index of the pad in a pad-object contact, or -1 if
// the contact is between other bodies
func (c *contactDetector) pad(contact box2d.B2ContactInterface) int {
	a := contact.GetFixtureA().GetBody()
	b := contact.GetFixtureB().GetBody()
	for i, pad := range c.sim.pads {
		if (a == pad && b == c.sim.object) || (b == pad && a == c.sim.object) {
			return i
		}
	}
	return -1
}

func (c *contactDetector) BeginContact(contact box2d.B2ContactInterface) {
	if i := c.pad(contact); i >= 0 {
		c.touching[i]++
	}
}

func (c *contactDetector) EndContact(contact box2d.B2ContactInterface) {
	if i := c.pad(contact); i >= 0 && c.touching[i] > 0 {
		c.touching[i]--
	}
}

func (c *contactDetector) PreSolve(contact box2d.B2ContactInterface,
	oldManifold box2d.B2Manifold) {
}

func (c *contactDetector) PostSolve(contact box2d.B2ContactInterface,
	impulse *box2d.B2ContactImpulse) {
	i := c.pad(contact)
	if i < 0 {
		return
	}
	for j := 0; j < impulse.Count; j++ {
		c.impulse[i] += impulse.NormalImpulses[j]
	}
}

// clearImpulses forgets the impulses accumulated so far
func (c *contactDetector) clearImpulses() {
	c.impulse = [2]float64{}
	c.elapsed = 0
}

// force returns the mean normal force on pad i over the elapsed time
func (c *contactDetector) force(i int) float64 {
	if c.touching[i] == 0 || c.elapsed <= 0 {
		return 0
	}
	return c.impulse[i] / c.elapsed / Scale
}
