package engine

import (
	"fmt"

	"github.com/bob-anderson-ok/MirrorBeamline/optics"
)

// request is one line written to the engine's stdin.
type request struct {
	ID         int                     `json:"id"`
	Method     string                  `json:"method"`
	Wavefront  *optics.Wavefront       `json:"wavefront"`
	Beam       *optics.GaussianBeam    `json:"beam,omitempty"`
	Precision  *optics.PrecisionParams `json:"precision,omitempty"`
	Beamline   []element               `json:"beamline,omitempty"`
	Params     [][12]float64           `json:"params,omitempty"`
	Extraction *extraction             `json:"extraction,omitempty"`
}

type extraction struct {
	Polarization int     `json:"polarization"`
	Component    int     `json:"component"`
	Dependence   int     `json:"dependence"`
	Energy       float64 `json:"energy"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
}

// response is one line read from the engine's stdout.
type response struct {
	ID        int               `json:"id"`
	Wavefront *optics.Wavefront `json:"wavefront,omitempty"`
	Data      []float64         `json:"data,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// element is the flat wire form of every optics.Element.
type element struct {
	Kind   string       `json:"kind"`
	Length float64      `json:"length,omitempty"`
	Shape  string       `json:"shape,omitempty"`
	Type   string       `json:"type,omitempty"`
	Dx     float64      `json:"dx,omitempty"`
	Dy     float64      `json:"dy,omitempty"`
	X      float64      `json:"x,omitempty"`
	Y      float64      `json:"y,omitempty"`
	Fx     float64      `json:"fx,omitempty"`
	Fy     float64      `json:"fy,omitempty"`
	ExtTr  int          `json:"ext_tr,omitempty"`
	Mesh   *optics.Mesh `json:"mesh,omitempty"`
	Data   []float64    `json:"data,omitempty"`
}

func encodeBeamline(bl *optics.Beamline) ([]element, [][12]float64, error) {
	elems := make([]element, 0, len(bl.Elements))
	for i, e := range bl.Elements {
		w, err := encodeElement(e)
		if err != nil {
			return nil, nil, fmt.Errorf("beamline element %d: %w", i, err)
		}
		elems = append(elems, w)
	}
	params := make([][12]float64, 0, len(bl.Params))
	for _, p := range bl.Params {
		params = append(params, p.Vector())
	}
	return elems, params, nil
}

func encodeElement(e optics.Element) (element, error) {
	switch v := e.(type) {
	case optics.Drift:
		return element{Kind: v.Kind(), Length: v.Length}, nil
	case optics.Aperture:
		return element{Kind: v.Kind(), Shape: string(v.Shape), Type: string(v.Type),
			Dx: v.Dx, Dy: v.Dy, X: v.X, Y: v.Y}, nil
	case optics.Lens:
		return element{Kind: v.Kind(), Fx: v.Fx, Fy: v.Fy, X: v.X, Y: v.Y}, nil
	case *optics.Transmission:
		if v.Map == nil {
			return element{}, fmt.Errorf("transmission element has no map")
		}
		g := v.Map.Grid
		return element{
			Kind:  v.Kind(),
			Fx:    v.Fx,
			Fy:    v.Fy,
			ExtTr: v.ExtTr,
			Mesh: &optics.Mesh{
				Ne: 1, Nx: g.Nx, Ny: g.Ny,
				XStart: g.XStart, XFin: g.XFin, YStart: g.YStart, YFin: g.YFin,
			},
			Data: v.Map.Data,
		}, nil
	}
	return element{}, fmt.Errorf("unsupported element %T", e)
}
