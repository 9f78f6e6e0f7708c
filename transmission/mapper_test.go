package transmission

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bob-anderson-ok/MirrorBeamline/profile"
)

// linearProfile has height equal to position at samples 0, 1, ..., n-1.
func linearProfile(n int) profile.HeightProfile {
	p := profile.HeightProfile{Position: make([]float64, n), Height: make([]float64, n)}
	for i := 0; i < n; i++ {
		p.Position[i] = float64(i)
		p.Height[i] = float64(i)
	}
	return p
}

func TestCursorInterpolatesWithinBracket(t *testing.T) {
	p := profile.HeightProfile{Position: []float64{0, 1, 2}, Height: []float64{0, 2, 2}}
	c := NewCursor(p, math.Sin(math.Asin(0.5)))

	h, ok := c.Height(0.25)
	require.True(t, ok)
	assert.InDelta(t, 1.0, h, 1e-12)
	assert.InDelta(t, -1.0, -2*0.5*h, 1e-12)
}

func TestCursorResumesFromLastBracket(t *testing.T) {
	p := profile.HeightProfile{Position: []float64{0, 0.5, 1.0}, Height: []float64{0, 1, 0}}
	c := NewCursor(p, 1)

	_, ok := c.Height(0.1)
	require.True(t, ok)
	assert.Equal(t, 0, c.Start())
	assert.Equal(t, 1, c.Steps())

	_, ok = c.Height(0.3)
	require.True(t, ok)
	assert.Equal(t, 0, c.Start())
	assert.Equal(t, 2, c.Steps())

	_, ok = c.Height(0.6)
	require.True(t, ok)
	assert.Equal(t, 1, c.Start(), "0.6 lies in [0.5, 1.0)")
	assert.Equal(t, 4, c.Steps())

	// Resuming at index 1 costs one step; a scan from 0 would cost two.
	_, ok = c.Height(0.7)
	require.True(t, ok)
	assert.Equal(t, 5, c.Steps())

	fresh := NewCursor(p, 1)
	_, ok = fresh.Height(0.7)
	require.True(t, ok)
	assert.Equal(t, 2, fresh.Steps())
}

func TestCursorDoesNotLookBackward(t *testing.T) {
	p := profile.HeightProfile{Position: []float64{0, 0.5, 1.0}, Height: []float64{1, 1, 1}}
	c := NewCursor(p, 1)

	_, ok := c.Height(0.75)
	require.True(t, ok)

	h, ok := c.Height(0.1)
	assert.False(t, ok)
	assert.Zero(t, h)

	c.Reset()
	h, ok = c.Height(0.1)
	assert.True(t, ok)
	assert.Equal(t, 1.0, h)
}

func TestCursorOutOfRange(t *testing.T) {
	p := profile.HeightProfile{Position: []float64{0, 0.5, 1.0}, Height: []float64{3, 3, 3}}
	for _, coord := range []float64{-0.2, 1.0, 1.5} {
		c := NewCursor(p, 1)
		h, ok := c.Height(coord)
		assert.False(t, ok, "coord %g", coord)
		assert.Zero(t, h, "coord %g", coord)
	}
}

func TestCursorDegenerateProfile(t *testing.T) {
	for _, p := range []profile.HeightProfile{
		{},
		{Position: []float64{0}, Height: []float64{1}},
	} {
		c := NewCursor(p, 1)
		h, ok := c.Height(0)
		assert.False(t, ok)
		assert.Zero(t, h)
		assert.Zero(t, c.Steps())
	}
}

func TestAddSurfHeightProfileThreeCellRow(t *testing.T) {
	m, err := NewMap(Grid{Nx: 3, Ny: 1, XStart: -1, XFin: 1})
	require.NoError(t, err)
	p := profile.HeightProfile{Position: []float64{0, 2}, Height: []float64{0, 4}}

	st, err := AddSurfHeightProfile(m, p, MapX, math.Pi/2)
	require.NoError(t, err)

	// x = -1 is before the profile, x = 0 hits the first sample where the height is 0,
	// x = 1 is halfway up the first interval (h = 2).
	assert.Equal(t, []float64{0, 0, -4}, m.OPD())
	assert.Equal(t, []float64{1, 1, 1}, m.Amplitude())
	assert.Equal(t, Stats{Cells: 3, Imprinted: 1, Steps: 3}, st)
}

func TestAddSurfHeightProfileInterpolation(t *testing.T) {
	m, err := NewMap(Grid{Nx: 2, Ny: 1, XStart: 0.25, XFin: 0.75})
	require.NoError(t, err)
	p := profile.HeightProfile{Position: []float64{0, 1, 2}, Height: []float64{0, 2, 2}}

	_, err = AddSurfHeightProfile(m, p, MapX, math.Asin(0.5))
	require.NoError(t, err)

	_, opd0 := m.At(0, 0)
	_, opd1 := m.At(1, 0)
	assert.InDelta(t, -1.0, opd0, 1e-12)
	assert.InDelta(t, -2.0, opd1, 1e-12)
}

func TestAddSurfHeightProfileAlongY(t *testing.T) {
	m, err := NewMap(Grid{Nx: 2, Ny: 4, XStart: 0, XFin: 1, YStart: 0.5, YFin: 2})
	require.NoError(t, err)

	st, err := AddSurfHeightProfile(m, linearProfile(4), MapY, math.Pi/2)
	require.NoError(t, err)

	wantRow := []float64{-1, -2, -3, -4}
	for iy := 0; iy < 4; iy++ {
		for ix := 0; ix < 2; ix++ {
			amp, opd := m.At(ix, iy)
			assert.Equal(t, 1.0, amp)
			assert.Equal(t, wantRow[iy], opd, "cell (%d,%d)", ix, iy)
		}
	}
	// One scan per row, never rewound: 1 + 2 + 1 + 2 steps.
	assert.Equal(t, 6, st.Steps)
	assert.Equal(t, 8, st.Imprinted)
}

func TestAddSurfHeightProfileAlongXRewindsEachRow(t *testing.T) {
	m, err := NewMap(Grid{Nx: 4, Ny: 2, XStart: 0.5, XFin: 2, YStart: 0, YFin: 1})
	require.NoError(t, err)

	st, err := AddSurfHeightProfile(m, linearProfile(4), MapX, math.Pi/2)
	require.NoError(t, err)

	for iy := 0; iy < 2; iy++ {
		for ix, want := range []float64{-1, -2, -3, -4} {
			_, opd := m.At(ix, iy)
			assert.Equal(t, want, opd, "cell (%d,%d)", ix, iy)
		}
	}
	assert.Equal(t, 12, st.Steps)
}

func TestAddSurfHeightProfileBothAxesAdd(t *testing.T) {
	m, err := NewMap(Grid{Nx: 2, Ny: 2, XStart: 0.5, XFin: 1.5, YStart: 0.5, YFin: 1.5})
	require.NoError(t, err)

	_, err = AddSurfHeightProfile(m, linearProfile(4), MapXY, math.Pi/2)
	require.NoError(t, err)

	xs := []float64{0.5, 1.5}
	ys := []float64{0.5, 1.5}
	for iy, y := range ys {
		for ix, x := range xs {
			_, opd := m.At(ix, iy)
			assert.Equal(t, -2*(x+y), opd, "cell (%d,%d)", ix, iy)
		}
	}
}

func TestAddSurfHeightProfileDegenerateProfile(t *testing.T) {
	for _, p := range []profile.HeightProfile{
		{},
		{Position: []float64{0.1}, Height: []float64{5}},
	} {
		m, err := NewCentered(7, 5, 1e-3, 1e-3)
		require.NoError(t, err)

		st, err := AddSurfHeightProfile(m, p, MapXY, 3.6e-3)
		require.NoError(t, err)
		assert.Equal(t, 35, st.Cells)
		assert.Zero(t, st.Imprinted)
		for _, v := range m.OPD() {
			assert.Zero(t, v)
		}
		for _, v := range m.Amplitude() {
			assert.Equal(t, 1.0, v)
		}
	}
}

func TestAddSurfHeightProfileWritesEveryCell(t *testing.T) {
	for _, axis := range []Axis{MapX, MapY, MapXY} {
		m, err := NewCentered(13, 9, 2, 2)
		require.NoError(t, err)
		for i := range m.Data {
			m.Data[i] = math.NaN()
		}

		p := profile.HeightProfile{Position: []float64{-0.5, 0, 0.4}, Height: []float64{1e-3, -2e-3, 5e-4}}
		st, err := AddSurfHeightProfile(m, p, axis, 0.7)
		require.NoError(t, err)
		assert.Equal(t, 13*9, st.Cells)

		for i, v := range m.Data {
			require.False(t, math.IsNaN(v), "axis %v: value %d never written", axis, i)
		}
	}
}

func TestAddSurfHeightProfileWorkersMatchSequential(t *testing.T) {
	p := profile.HeightProfile{}
	for i := 0; i <= 200; i++ {
		pos := -0.5 + float64(i)*0.005
		p.Position = append(p.Position, pos)
		p.Height = append(p.Height, 1e-9*math.Sin(40*pos))
	}

	for _, axis := range []Axis{MapX, MapY, MapXY} {
		seq, err := NewCentered(64, 37, 1.98e-3, 1.98e-3)
		require.NoError(t, err)
		st1, err := AddSurfHeightProfile(seq, p, axis, 3.6e-3)
		require.NoError(t, err)
		assert.Positive(t, st1.Imprinted, "axis %v", axis)

		// 2 and 5 workers split rows into 8 and 20 blocks; 64 workers get one row each.
		for _, workers := range []int{2, 5, 64} {
			par, err := NewCentered(64, 37, 1.98e-3, 1.98e-3)
			require.NoError(t, err)
			st2, err := AddSurfHeightProfile(par, p, axis, 3.6e-3, WithWorkers(workers))
			require.NoError(t, err)

			assert.Equal(t, seq.Data, par.Data, "axis %v, %d workers", axis, workers)
			assert.Equal(t, st1, st2, "axis %v, %d workers", axis, workers)
		}
	}
}

func TestAddSurfHeightProfileRejectsBadInput(t *testing.T) {
	p := linearProfile(3)

	_, err := AddSurfHeightProfile(nil, p, MapX, 0.1)
	assert.Error(t, err)

	m, err := NewMap(Grid{Nx: 2, Ny: 2, XFin: 1, YFin: 1})
	require.NoError(t, err)
	_, err = AddSurfHeightProfile(m, p, 0, 0.1)
	assert.Error(t, err)
	_, err = AddSurfHeightProfile(m, p, Axis(8), 0.1)
	assert.Error(t, err)

	m.Data = m.Data[:4]
	_, err = AddSurfHeightProfile(m, p, MapX, 0.1)
	assert.Error(t, err)
}

func TestParseAxis(t *testing.T) {
	tests := map[string]Axis{"x": MapX, "Y": MapY, "xy": MapXY, " yx ": MapXY}
	for in, want := range tests {
		got, err := ParseAxis(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, bad := range []string{"", "z", "xyz", "horizontal"} {
		_, err := ParseAxis(bad)
		assert.Error(t, err, bad)
	}
	assert.Equal(t, "xy", MapXY.String())
}
