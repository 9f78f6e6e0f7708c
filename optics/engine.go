package optics

import "fmt"

// Polarization selects the field component(s) an extraction is computed from.
type Polarization int

const (
	LinearHorizontal Polarization = 0
	LinearVertical   Polarization = 1
	Total            Polarization = 6
)

// Component selects the quantity an extraction returns.
type Component int

const (
	SingleElectronIntensity Component = 0
	Phase                   Component = 4
)

func (c Component) String() string {
	switch c {
	case SingleElectronIntensity:
		return "intensity"
	case Phase:
		return "phase"
	}
	return fmt.Sprintf("component(%d)", int(c))
}

// Dependence selects the mesh axes an extraction spans.
type Dependence int

const (
	VsE  Dependence = 0
	VsX  Dependence = 1
	VsY  Dependence = 2
	VsXY Dependence = 3
)

func (d Dependence) String() string {
	switch d {
	case VsE:
		return "e"
	case VsX:
		return "x"
	case VsY:
		return "y"
	case VsXY:
		return "xy"
	}
	return fmt.Sprintf("dependence(%d)", int(d))
}

// ExtractLength is the number of values an extraction with dep returns on mesh.
func ExtractLength(m Mesh, dep Dependence) int {
	switch dep {
	case VsE:
		return m.Ne
	case VsX:
		return m.Nx
	case VsY:
		return m.Ny
	case VsXY:
		return m.Nx * m.Ny
	}
	return 0
}

// Engine is the wave-optics engine. Calls block until the engine is done and the
// wavefront is modified in place.
type Engine interface {
	GenerateGaussianField(wfr *Wavefront, beam GaussianBeam, prec PrecisionParams) error
	PropagateField(wfr *Wavefront, bl *Beamline) error
	// ExtractIntensityOrPhase returns ExtractLength(wfr.Mesh, dep) values taken at the
	// given energy and, for one-dimensional cuts, at the fixed x or y.
	ExtractIntensityOrPhase(wfr *Wavefront, pol Polarization, comp Component, dep Dependence,
		energy, x, y float64) ([]float64, error)
}
