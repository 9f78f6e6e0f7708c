// Package transmission holds the per-cell amplitude/OPD maps carried by transmission
// elements and the mapper that imprints a measured mirror height profile onto them.
package transmission

import (
	"errors"
	"fmt"
)

// Grid is the sampling of a transmission element.
type Grid struct {
	Nx, Ny       int
	XStart, XFin float64
	YStart, YFin float64
}

// XStep is the horizontal point spacing. A single-column grid has no step.
func (g Grid) XStep() float64 {
	if g.Nx < 2 {
		return 0
	}
	return (g.XFin - g.XStart) / float64(g.Nx-1)
}

// YStep is the vertical point spacing. A single-row grid has no step.
func (g Grid) YStep() float64 {
	if g.Ny < 2 {
		return 0
	}
	return (g.YFin - g.YStart) / float64(g.Ny-1)
}

// Cells returns nx*ny.
func (g Grid) Cells() int {
	return g.Nx * g.Ny
}

// Validate rejects grids without points.
func (g Grid) Validate() error {
	if g.Nx < 1 || g.Ny < 1 {
		return fmt.Errorf("grid needs at least one point per axis, got %dx%d", g.Nx, g.Ny)
	}
	return nil
}

// Map is the transmission of an optical element. Data interleaves (amplitude, OPD)
// pairs, x fastest: cell (ix, iy) lives at 2*ix + 2*Nx*iy.
type Map struct {
	Grid
	Data []float64
}

// NewMap allocates a fully transmitting map (amplitude 1, OPD 0) over grid.
func NewMap(grid Grid) (*Map, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	m := &Map{Grid: grid, Data: make([]float64, 2*grid.Cells())}
	for i := 0; i < len(m.Data); i += 2 {
		m.Data[i] = 1
	}
	return m, nil
}

// NewCentered builds a map of nx*ny points spanning rx by ry, centred on the optical axis.
func NewCentered(nx, ny int, rx, ry float64) (*Map, error) {
	if rx < 0 || ry < 0 {
		return nil, errors.New("transmission ranges must not be negative")
	}
	return NewMap(Grid{
		Nx: nx, Ny: ny,
		XStart: -0.5 * rx, XFin: 0.5 * rx,
		YStart: -0.5 * ry, YFin: 0.5 * ry,
	})
}

func (m *Map) offset(ix, iy int) int {
	return 2*ix + 2*m.Nx*iy
}

// At returns the amplitude transmission and OPD of a cell.
func (m *Map) At(ix, iy int) (amp, opd float64) {
	o := m.offset(ix, iy)
	return m.Data[o], m.Data[o+1]
}

// Set writes one cell.
func (m *Map) Set(ix, iy int, amp, opd float64) {
	o := m.offset(ix, iy)
	m.Data[o] = amp
	m.Data[o+1] = opd
}

// OPD returns a flat copy of the optical path difference, x fastest.
func (m *Map) OPD() []float64 {
	out := make([]float64, m.Cells())
	for i := range out {
		out[i] = m.Data[2*i+1]
	}
	return out
}

// Amplitude returns a flat copy of the amplitude transmission, x fastest.
func (m *Map) Amplitude() []float64 {
	out := make([]float64, m.Cells())
	for i := range out {
		out[i] = m.Data[2*i]
	}
	return out
}
