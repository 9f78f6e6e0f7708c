// Package optics describes the source, the beamline and the wavefront exchanged with the
// wave-optics engine that does the actual propagation.
package optics

// Mesh is the sampling of a wavefront or a transmission element in photon energy and
// transverse position at longitudinal position ZStart.
type Mesh struct {
	EStart float64 `json:"e_start" yaml:"e_start"` // eV
	EFin   float64 `json:"e_fin" yaml:"e_fin"`     // eV
	Ne     int     `json:"ne" yaml:"ne"`
	XStart float64 `json:"x_start" yaml:"x_start"` // m
	XFin   float64 `json:"x_fin" yaml:"x_fin"`
	Nx     int     `json:"nx" yaml:"nx"`
	YStart float64 `json:"y_start" yaml:"y_start"`
	YFin   float64 `json:"y_fin" yaml:"y_fin"`
	Ny     int     `json:"ny" yaml:"ny"`
	ZStart float64 `json:"z_start" yaml:"z_start"` // m
}

// Points is ne*nx*ny.
func (m Mesh) Points() int {
	return m.Ne * m.Nx * m.Ny
}

// GaussianBeam holds the parameters of a coherent Gaussian source at its waist.
type GaussianBeam struct {
	X         float64 `json:"x" yaml:"x"` // transverse waist centre, m
	Y         float64 `json:"y" yaml:"y"`
	Z         float64 `json:"z" yaml:"z"`   // longitudinal waist position, m
	Xp        float64 `json:"xp" yaml:"xp"` // average angles at waist, rad
	Yp        float64 `json:"yp" yaml:"yp"`
	AvgPhotEn float64 `json:"avg_phot_en" yaml:"avg_phot_en"` // eV
	PulseEn   float64 `json:"pulse_en" yaml:"pulse_en"`       // J
	RepRate   float64 `json:"rep_rate" yaml:"rep_rate"`       // Hz
	Polar     int     `json:"polar" yaml:"polar"`             // 1 = linear horizontal
	SigX      float64 `json:"sig_x" yaml:"sig_x"`             // RMS waist size, m
	SigY      float64 `json:"sig_y" yaml:"sig_y"`
	SigT      float64 `json:"sig_t" yaml:"sig_t"` // pulse duration, s
	Mx        int     `json:"mx" yaml:"mx"`       // Gauss-Hermite mode orders
	My        int     `json:"my" yaml:"my"`
}

// PrecisionParams controls Gaussian field generation.
type PrecisionParams struct {
	// SampFactNxNy adjusts nx and ny when > 0.
	SampFactNxNy float64 `json:"samp_fact_nx_ny" yaml:"samp_fact_nx_ny"`
}

// BeamMoments are the first-order moments of the source recorded in the wavefront.
type BeamMoments struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	Z  float64 `json:"z"`
	Xp float64 `json:"xp"`
	Yp float64 `json:"yp"`
}

// Wavefront is the electric field on Mesh. Ex and Ey interleave real and imaginary parts,
// photon energy fastest, then x, then y.
type Wavefront struct {
	Mesh   Mesh        `json:"mesh"`
	Ex     []float32   `json:"ex"`
	Ey     []float32   `json:"ey"`
	Source BeamMoments `json:"source"`
}

// NewWavefront allocates a zero field of ne*nx*ny points.
func NewWavefront(ne, nx, ny int) *Wavefront {
	n := 2 * ne * nx * ny
	return &Wavefront{
		Mesh: Mesh{Ne: ne, Nx: nx, Ny: ny},
		Ex:   make([]float32, n),
		Ey:   make([]float32, n),
	}
}

// SetSource records the moments of beam in the wavefront.
func (w *Wavefront) SetSource(beam GaussianBeam) {
	w.Source = BeamMoments{X: beam.X, Y: beam.Y, Z: beam.Z, Xp: beam.Xp, Yp: beam.Yp}
}
