package optics

import (
	"fmt"

	"github.com/bob-anderson-ok/MirrorBeamline/transmission"
)

// Element is an optical element the engine knows how to propagate through.
type Element interface {
	Kind() string
}

// Drift is free space of the given length (m).
type Drift struct {
	Length float64
}

func (Drift) Kind() string { return "drift" }

// Aperture shapes.
const (
	Rectangular = 'r'
	Circular    = 'c'
)

// Aperture kinds.
const (
	Opening  = 'a'
	Obstacle = 'o'
)

// Aperture is a rectangular or circular opening (or obstacle) of size Dx by Dy centred at X, Y.
type Aperture struct {
	Shape  byte
	Type   byte
	Dx, Dy float64
	X, Y   float64
}

func (Aperture) Kind() string { return "aperture" }

// NewAperture checks the shape and type codes.
func NewAperture(shape, typ byte, dx, dy, x, y float64) (Aperture, error) {
	if shape != Rectangular && shape != Circular {
		return Aperture{}, fmt.Errorf("aperture shape %q: want 'r' or 'c'", shape)
	}
	if typ != Opening && typ != Obstacle {
		return Aperture{}, fmt.Errorf("aperture type %q: want 'a' or 'o'", typ)
	}
	if dx <= 0 || dy <= 0 {
		return Aperture{}, fmt.Errorf("aperture size must be positive, got %g x %g", dx, dy)
	}
	return Aperture{Shape: shape, Type: typ, Dx: dx, Dy: dy, X: x, Y: y}, nil
}

// Lens is an ideal thin lens. A very large focal length (1e20) switches a plane off.
type Lens struct {
	Fx, Fy float64
	X, Y   float64
}

func (Lens) Kind() string { return "lens" }

// Transmission applies a per-cell amplitude and OPD map, typically a mirror's surface error.
type Transmission struct {
	Map *transmission.Map
	// ExtTr is the transmission outside the map: 0 opaque, 1 as at the map border.
	ExtTr  int
	Fx, Fy float64 // focal lengths the map represents, 1e23 for none
}

func (Transmission) Kind() string { return "transmission" }

// NoFocus is the focal length used for planes without focusing.
const NoFocus = 1e23

// NewTransmission wraps m as an element with no focusing and opaque surroundings.
func NewTransmission(m *transmission.Map) *Transmission {
	return &Transmission{Map: m, Fx: NoFocus, Fy: NoFocus}
}
