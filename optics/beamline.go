package optics

import (
	"errors"
	"fmt"
)

// ErrParamCount is returned by Assemble when the propagation parameters do not line up
// with the elements.
var ErrParamCount = errors.New("propagation parameter count does not match elements")

// PropagationParams are the per-element propagation instructions, in the order the
// engine expects them.
type PropagationParams struct {
	ResizeBefore            int     `json:"resize_before" yaml:"resize_before"` // auto-resize before propagation (0/1)
	ResizeAfter             int     `json:"resize_after" yaml:"resize_after"`   // auto-resize after propagation (0/1)
	RelativePrecision       float64 `json:"relative_precision" yaml:"relative_precision"`
	QuadraticPhaseTreatment int     `json:"quadratic_phase_treatment" yaml:"quadratic_phase_treatment"` // semi-analytical leading phase (0/1)
	FourierResize           int     `json:"fourier_resize" yaml:"fourier_resize"`                       // resize on the Fourier side (0/1)
	RangeFactorH            float64 `json:"range_factor_h" yaml:"range_factor_h"`
	ResolutionFactorH       float64 `json:"resolution_factor_h" yaml:"resolution_factor_h"`
	RangeFactorV            float64 `json:"range_factor_v" yaml:"range_factor_v"`
	ResolutionFactorV       float64 `json:"resolution_factor_v" yaml:"resolution_factor_v"`
	// Reserved by the engine.
	ShiftType int     `json:"shift_type" yaml:"shift_type"`
	ShiftH    float64 `json:"shift_h" yaml:"shift_h"`
	ShiftV    float64 `json:"shift_v" yaml:"shift_v"`
}

// DefaultParams propagates without resizing.
func DefaultParams() PropagationParams {
	return PropagationParams{
		RelativePrecision:       1,
		QuadraticPhaseTreatment: 1,
		RangeFactorH:            1,
		ResolutionFactorH:       1,
		RangeFactorV:            1,
		ResolutionFactorV:       1,
	}
}

// Vector returns the parameters as the 12-number vector the engine consumes.
func (p PropagationParams) Vector() [12]float64 {
	return [12]float64{
		float64(p.ResizeBefore),
		float64(p.ResizeAfter),
		p.RelativePrecision,
		float64(p.QuadraticPhaseTreatment),
		float64(p.FourierResize),
		p.RangeFactorH,
		p.ResolutionFactorH,
		p.RangeFactorV,
		p.ResolutionFactorV,
		float64(p.ShiftType),
		p.ShiftH,
		p.ShiftV,
	}
}

// ParamsFromVector is the inverse of Vector.
func ParamsFromVector(v []float64) (PropagationParams, error) {
	if len(v) != 12 {
		return PropagationParams{}, fmt.Errorf("propagation vector has %d values, want 12", len(v))
	}
	return PropagationParams{
		ResizeBefore:            int(v[0]),
		ResizeAfter:             int(v[1]),
		RelativePrecision:       v[2],
		QuadraticPhaseTreatment: int(v[3]),
		FourierResize:           int(v[4]),
		RangeFactorH:            v[5],
		ResolutionFactorH:       v[6],
		RangeFactorV:            v[7],
		ResolutionFactorV:       v[8],
		ShiftType:               int(v[9]),
		ShiftH:                  v[10],
		ShiftV:                  v[11],
	}, nil
}

// Beamline is an ordered container of elements and their propagation parameters.
// Params may hold one more entry than Elements; the engine applies it after the last element.
type Beamline struct {
	Elements []Element
	Params   []PropagationParams
}

// Assemble composes elements and params into a Beamline. It copies the slices and
// checks only that the counts line up.
func Assemble(elems []Element, params []PropagationParams) (*Beamline, error) {
	if len(params) != len(elems) && len(params) != len(elems)+1 {
		return nil, fmt.Errorf("%w: %d elements, %d parameter sets", ErrParamCount, len(elems), len(params))
	}
	for i, e := range elems {
		if e == nil {
			return nil, fmt.Errorf("beamline element %d is nil", i)
		}
	}
	return &Beamline{
		Elements: append([]Element(nil), elems...),
		Params:   append([]PropagationParams(nil), params...),
	}, nil
}

// Final returns the trailing parameter set applied after the last element, if any.
func (b *Beamline) Final() (PropagationParams, bool) {
	if len(b.Params) > len(b.Elements) {
		return b.Params[len(b.Params)-1], true
	}
	return PropagationParams{}, false
}
