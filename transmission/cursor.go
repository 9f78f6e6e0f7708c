package transmission

import "github.com/bob-anderson-ok/MirrorBeamline/profile"

// Cursor finds the profile interval that brackets a footprint coordinate.
//
// The scan only moves forward: each search starts at the lower end of the last
// bracket found, so queries must come in non-decreasing order until Reset is called.
// A Cursor is not safe for concurrent use.
type Cursor struct {
	pos, hgt []float64
	proj     []float64
	sinAng   float64
	start    int
	steps    int
}

// NewCursor prepares a cursor over p as seen by a mirror with sin(grazing angle) = sinAngle.
func NewCursor(p profile.HeightProfile, sinAngle float64) *Cursor {
	n := min(len(p.Position), len(p.Height))
	p = profile.HeightProfile{Position: p.Position[:n], Height: p.Height[:n]}
	return &Cursor{
		pos:    p.Position,
		hgt:    p.Height,
		proj:   p.Project(sinAngle),
		sinAng: sinAngle,
	}
}

// Height interpolates the profile height at coord. ok is false, and h is 0, when no
// interval in front of the cursor holds coord.
func (c *Cursor) Height(coord float64) (h float64, ok bool) {
	if len(c.proj) < 2 {
		return 0, false
	}
	c1 := c.proj[c.start]
	for i := c.start + 1; i < len(c.proj); i++ {
		c.steps++
		c2 := c.proj[i]
		if c1 <= coord && coord < c2 {
			h = ((c.hgt[i]-c.hgt[i-1])/((c.pos[i]-c.pos[i-1])*c.sinAng))*(coord-c1) + c.hgt[i-1]
			c.start = i - 1
			return h, true
		}
		c1 = c2
	}
	return 0, false
}

// Reset moves the cursor back to the first profile sample.
func (c *Cursor) Reset() {
	c.start = 0
}

// Start is the index of the lower end of the last bracket found.
func (c *Cursor) Start() int {
	return c.start
}

// Steps counts the profile samples examined since the cursor was created.
func (c *Cursor) Steps() int {
	return c.steps
}
