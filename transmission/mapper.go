package transmission

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/bob-anderson-ok/MirrorBeamline/profile"
)

// Axis selects the grid directions a height profile is laid along.
type Axis uint8

const (
	MapX  Axis = 1 << iota // profile runs along x (horizontally deflecting mirror)
	MapY                   // profile runs along y (vertically deflecting mirror)
	MapXY = MapX | MapY
)

// ParseAxis accepts "x", "y", "xy" or "yx".
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x":
		return MapX, nil
	case "y":
		return MapY, nil
	case "xy", "yx":
		return MapXY, nil
	}
	return 0, fmt.Errorf("unknown mapping axis %q (want x, y or xy)", s)
}

func (a Axis) String() string {
	switch a {
	case MapX:
		return "x"
	case MapY:
		return "y"
	case MapXY:
		return "xy"
	}
	return fmt.Sprintf("Axis(%d)", uint8(a))
}

// Stats describes one mapping pass.
type Stats struct {
	Cells     int // cells written
	Imprinted int // cells that received a non-zero OPD
	Steps     int // profile samples examined by all bracket scans
}

type options struct {
	workers int
}

// Option tunes AddSurfHeightProfile.
type Option func(*options)

// WithWorkers maps blocks of rows on up to n goroutines at a time. n < 2 keeps the pass sequential.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// AddSurfHeightProfile imprints the height profile p of a mirror at grazing angle angle
// (radians) onto m. Every cell is written once with amplitude 1 and OPD -2*sin(angle)*h,
// where h is the profile height interpolated at the cell coordinate along axis. Cells
// outside the projected profile get h = 0 and keep OPD 0. With MapXY the heights found
// along x and along y are added.
//
// Grid coordinates are accumulated from XStart/YStart one step at a time. The y scan
// runs once per row in increasing y and is never rewound; the x scan is rewound at the
// start of every row.
//
// Profile positions must increase. They are not checked; an unsorted profile maps
// deterministically but wrongly.
func AddSurfHeightProfile(m *Map, p profile.HeightProfile, axis Axis, angle float64, opts ...Option) (Stats, error) {
	if m == nil {
		return Stats{}, errors.New("nil transmission map")
	}
	if axis == 0 || axis&^MapXY != 0 {
		return Stats{}, fmt.Errorf("invalid mapping axis %v", axis)
	}
	if err := m.Validate(); err != nil {
		return Stats{}, err
	}
	if len(m.Data) != 2*m.Cells() {
		return Stats{}, fmt.Errorf("transmission data holds %d values, grid %dx%d needs %d",
			len(m.Data), m.Nx, m.Ny, 2*m.Cells())
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	sinAng := math.Sin(angle)
	base := NewCursor(p, sinAng)
	xs := accumulate(m.XStart, m.XStep(), m.Nx)
	ys := accumulate(m.YStart, m.YStep(), m.Ny)

	st := Stats{Cells: m.Cells()}

	rowHeight := make([]float64, m.Ny)
	if axis&MapY != 0 {
		yc := base.fork()
		for iy, y := range ys {
			rowHeight[iy], _ = yc.Height(y)
		}
		st.Steps += yc.Steps()
	}

	mapRows := func(from, to int) (imprinted, steps int) {
		var xc *Cursor
		if axis&MapX != 0 {
			xc = base.fork()
		}
		for iy := from; iy < to; iy++ {
			if xc != nil {
				xc.Reset()
			}
			for ix, x := range xs {
				h := rowHeight[iy]
				if xc != nil {
					hx, _ := xc.Height(x)
					h += hx
				}
				opd := 0.0
				if h != 0 {
					opd = -2 * sinAng * h
					imprinted++
				}
				m.Set(ix, iy, 1, opd)
			}
		}
		if xc != nil {
			steps = xc.Steps()
		}
		return imprinted, steps
	}

	workers := min(o.workers, m.Ny)
	if workers < 2 {
		imprinted, steps := mapRows(0, m.Ny)
		st.Imprinted += imprinted
		st.Steps += steps
		return st, nil
	}

	// Up to four row blocks per worker; at most workers blocks run at once.
	blocks := min(4*workers, m.Ny)
	chunk := (m.Ny + blocks - 1) / blocks
	imprinted := make([]int, blocks)
	steps := make([]int, blocks)
	var g errgroup.Group
	g.SetLimit(workers)
	for b := 0; b < blocks; b++ {
		from, to := b*chunk, min((b+1)*chunk, m.Ny)
		if from >= to {
			continue
		}
		g.Go(func() error {
			imprinted[b], steps[b] = mapRows(from, to)
			return nil
		})
	}
	_ = g.Wait() // mapRows cannot fail
	for b := range imprinted {
		st.Imprinted += imprinted[b]
		st.Steps += steps[b]
	}
	return st, nil
}

// accumulate returns n coordinates start, start+step, ... built by repeated addition,
// so that they round exactly like an incrementing loop variable.
func accumulate(start, step float64, n int) []float64 {
	out := make([]float64, n)
	v := start
	for i := range out {
		out[i] = v
		v += step
	}
	return out
}

// fork returns a cursor over the same profile with its own position and step count.
func (c *Cursor) fork() *Cursor {
	return &Cursor{pos: c.pos, hgt: c.hgt, proj: c.proj, sinAng: c.sinAng}
}
