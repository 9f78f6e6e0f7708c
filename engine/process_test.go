package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bob-anderson-ok/MirrorBeamline/logger"
	"github.com/bob-anderson-ok/MirrorBeamline/optics"
	"github.com/bob-anderson-ok/MirrorBeamline/transmission"
)

// TestHelperProcess is a fake engine. It is not a real test; helperEngine runs the test
// binary with only this function selected.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	fmt.Fprintln(os.Stderr, "fake engine ready")
	dec := json.NewDecoder(os.Stdin)
	enc := json.NewEncoder(os.Stdout)
	for {
		var req request
		if err := dec.Decode(&req); err != nil {
			os.Exit(0)
		}
		resp := response{ID: req.ID}
		switch req.Method {
		case "gaussian":
			w := req.Wavefront
			n := 2 * w.Mesh.Points()
			w.Ex = make([]float32, n)
			w.Ey = make([]float32, n)
			for i := range w.Ex {
				w.Ex[i] = 1
			}
			w.Mesh.ZStart = req.Beam.Z
			resp.Wavefront = w
		case "propagate":
			w := req.Wavefront
			if len(req.Params) != len(req.Beamline) && len(req.Params) != len(req.Beamline)+1 {
				resp.Error = "parameter count"
				break
			}
			for _, e := range req.Beamline {
				switch e.Kind {
				case "drift":
					w.Mesh.ZStart += e.Length
				case "transmission":
					if e.Mesh == nil || len(e.Data) != 2*e.Mesh.Nx*e.Mesh.Ny {
						resp.Error = "bad transmission map"
					}
				}
			}
			resp.Wavefront = w
		case "extract":
			n := optics.ExtractLength(req.Wavefront.Mesh, optics.Dependence(req.Extraction.Dependence))
			if req.Extraction.X == 99 {
				n++
			}
			resp.Data = make([]float64, n)
			for i := range resp.Data {
				resp.Data[i] = float64(req.Extraction.Component)
			}
		case "exit":
			os.Exit(3)
		default:
			resp.Error = "unknown method " + req.Method
		}
		if err := enc.Encode(resp); err != nil {
			os.Exit(2)
		}
	}
}

func helperEngine(t *testing.T) (*Process, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	p := New(os.Args[0], "-test.run=TestHelperProcess")
	p.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1")
	p.Log = logger.NewText("debug", &logs)
	require.NoError(t, p.Start())
	return p, &logs
}

func TestProcessRoundTrip(t *testing.T) {
	p, logs := helperEngine(t)

	w := optics.NewWavefront(1, 4, 3)
	w.Mesh.EStart, w.Mesh.EFin = 9000, 9000
	w.Mesh.XStart, w.Mesh.XFin = -1e-3, 1e-3
	require.NoError(t, p.GenerateGaussianField(w, optics.GaussianBeam{Z: 0.5}, optics.PrecisionParams{SampFactNxNy: 1}))
	assert.Equal(t, 0.5, w.Mesh.ZStart)
	assert.Equal(t, float32(1), w.Ex[23])
	assert.Equal(t, -1e-3, w.Mesh.XStart)

	m, err := transmission.NewCentered(2, 2, 1e-3, 1e-3)
	require.NoError(t, err)
	bl, err := optics.Assemble(
		[]optics.Element{optics.Drift{Length: 10}, optics.NewTransmission(m), optics.Drift{Length: 2.5}},
		[]optics.PropagationParams{optics.DefaultParams(), optics.DefaultParams(), optics.DefaultParams(), optics.DefaultParams()},
	)
	require.NoError(t, err)
	require.NoError(t, p.PropagateField(w, bl))
	assert.Equal(t, 13.0, w.Mesh.ZStart)

	data, err := p.ExtractIntensityOrPhase(w, optics.Total, optics.Phase, optics.VsXY, 9000, 0, 0)
	require.NoError(t, err)
	require.Len(t, data, 12)
	assert.Equal(t, 4.0, data[0])

	data, err = p.ExtractIntensityOrPhase(w, optics.Total, optics.SingleElectronIntensity, optics.VsY, 9000, 0, 0)
	require.NoError(t, err)
	assert.Len(t, data, 3)

	_, err = p.ExtractIntensityOrPhase(w, optics.Total, optics.Phase, optics.VsX, 9000, 99, 0)
	assert.ErrorContains(t, err, "got 5 values, want 4")

	require.NoError(t, p.Close())
	assert.Contains(t, logs.String(), "fake engine ready")
}

func TestProcessRemoteError(t *testing.T) {
	p, _ := helperEngine(t)
	defer p.Close()

	resp, err := p.call(&request{Method: "bogus", Wavefront: optics.NewWavefront(1, 1, 1)})
	assert.Nil(t, resp)
	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "bogus", re.Method)
	assert.Equal(t, "engine bogus: unknown method bogus", err.Error())
}

func TestProcessExitMidCall(t *testing.T) {
	p, _ := helperEngine(t)

	_, err := p.call(&request{Method: "exit", Wavefront: optics.NewWavefront(1, 1, 1)})
	assert.ErrorContains(t, err, "engine exit response")

	assert.Error(t, p.Close())
}

func TestProcessNotStarted(t *testing.T) {
	p := New("does-not-matter")
	err := p.PropagateField(optics.NewWavefront(1, 1, 1), &optics.Beamline{})
	assert.ErrorIs(t, err, errNotStarted)
	assert.NoError(t, p.Close())

	bad := New("/nonexistent/engine-binary")
	bad.Log = logger.Discard()
	assert.Error(t, bad.Start())
}

func TestEncodeElement(t *testing.T) {
	ap, err := optics.NewAperture(optics.Rectangular, optics.Opening, 1e-3, 2e-3, 0, 0)
	require.NoError(t, err)
	e, err := encodeElement(ap)
	require.NoError(t, err)
	assert.Equal(t, element{Kind: "aperture", Shape: "r", Type: "a", Dx: 1e-3, Dy: 2e-3}, e)

	m, err := transmission.NewMap(transmission.Grid{Nx: 3, Ny: 2, XStart: -1, XFin: 1, YStart: 0, YFin: 1})
	require.NoError(t, err)
	e, err = encodeElement(optics.NewTransmission(m))
	require.NoError(t, err)
	assert.Equal(t, optics.NoFocus, e.Fx)
	assert.Equal(t, 3, e.Mesh.Nx)
	assert.Len(t, e.Data, 12)

	_, err = encodeElement(&optics.Transmission{})
	assert.Error(t, err)
	_, err = encodeElement(nil)
	assert.Error(t, err)
}
