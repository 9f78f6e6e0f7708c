// Package engine drives an external wave-optics engine process. Requests and responses are
// single-line JSON documents exchanged over the process's stdin and stdout.
package engine

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sync"

	"github.com/bob-anderson-ok/MirrorBeamline/logger"
	"github.com/bob-anderson-ok/MirrorBeamline/optics"
)

var errNotStarted = errors.New("engine process not started")

// RemoteError is an error reported by the engine for one request.
type RemoteError struct {
	Method  string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("engine %s: %s", e.Method, e.Message)
}

// Process is an optics.Engine backed by a child process. Calls are serialized.
type Process struct {
	Path string
	Args []string
	// Env, when non-nil, replaces the child's environment.
	Env []string
	Log *slog.Logger

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	enc    *json.Encoder
	dec    *json.Decoder
	stderr sync.WaitGroup
	nextID int
}

var _ optics.Engine = (*Process)(nil)

// New returns an unstarted Process for the given command.
func New(path string, args ...string) *Process {
	return &Process{Path: path, Args: args, Log: logger.Default}
}

// Start launches the engine.
func (p *Process) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd != nil {
		return fmt.Errorf("engine %s already started", p.Path)
	}
	if p.Log == nil {
		p.Log = logger.Default
	}

	cmd := exec.Command(p.Path, p.Args...)
	if p.Env != nil {
		cmd.Env = p.Env
	}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("engine stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("engine stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("engine stderr: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start engine %s: %w", p.Path, err)
	}

	p.stderr.Add(1)
	go func() {
		defer p.stderr.Done()
		sc := bufio.NewScanner(stderr)
		for sc.Scan() {
			p.Log.Warn("engine stderr", "line", sc.Text())
		}
	}()

	p.cmd = cmd
	p.stdin = stdin
	p.enc = json.NewEncoder(stdin)
	p.dec = json.NewDecoder(bufio.NewReader(stdout))
	p.Log.Debug("engine started", "path", p.Path, "pid", cmd.Process.Pid)
	return nil
}

// Close closes the engine's stdin and waits for it to exit.
func (p *Process) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd == nil {
		return nil
	}
	cerr := p.stdin.Close()
	p.stderr.Wait()
	werr := p.cmd.Wait()
	p.cmd = nil
	if werr != nil {
		return fmt.Errorf("engine %s exited: %w", p.Path, werr)
	}
	return cerr
}

func (p *Process) call(req *request) (*response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd == nil {
		return nil, errNotStarted
	}
	p.nextID++
	req.ID = p.nextID
	if err := p.enc.Encode(req); err != nil {
		return nil, fmt.Errorf("engine %s request: %w", req.Method, err)
	}
	var resp response
	if err := p.dec.Decode(&resp); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("engine %s response: %w", req.Method, err)
	}
	if resp.ID != req.ID {
		return nil, fmt.Errorf("engine %s: response id %d for request %d", req.Method, resp.ID, req.ID)
	}
	if resp.Error != "" {
		return nil, &RemoteError{Method: req.Method, Message: resp.Error}
	}
	return &resp, nil
}

// replaceWavefront copies the engine's wavefront into wfr.
func replaceWavefront(method string, wfr *optics.Wavefront, resp *response) error {
	if resp.Wavefront == nil {
		return fmt.Errorf("engine %s: response carries no wavefront", method)
	}
	*wfr = *resp.Wavefront
	return nil
}

// GenerateGaussianField fills wfr with the field of beam on wfr.Mesh.
func (p *Process) GenerateGaussianField(wfr *optics.Wavefront, beam optics.GaussianBeam, prec optics.PrecisionParams) error {
	resp, err := p.call(&request{Method: "gaussian", Wavefront: wfr, Beam: &beam, Precision: &prec})
	if err != nil {
		return err
	}
	return replaceWavefront("gaussian", wfr, resp)
}

// PropagateField propagates wfr through bl.
func (p *Process) PropagateField(wfr *optics.Wavefront, bl *optics.Beamline) error {
	elems, params, err := encodeBeamline(bl)
	if err != nil {
		return err
	}
	resp, err := p.call(&request{Method: "propagate", Wavefront: wfr, Beamline: elems, Params: params})
	if err != nil {
		return err
	}
	return replaceWavefront("propagate", wfr, resp)
}

// ExtractIntensityOrPhase returns the requested intensity or phase distribution.
func (p *Process) ExtractIntensityOrPhase(wfr *optics.Wavefront, pol optics.Polarization, comp optics.Component,
	dep optics.Dependence, energy, x, y float64) ([]float64, error) {
	resp, err := p.call(&request{
		Method:    "extract",
		Wavefront: wfr,
		Extraction: &extraction{
			Polarization: int(pol),
			Component:    int(comp),
			Dependence:   int(dep),
			Energy:       energy,
			X:            x,
			Y:            y,
		},
	})
	if err != nil {
		return nil, err
	}
	if want := optics.ExtractLength(wfr.Mesh, dep); len(resp.Data) != want {
		return nil, fmt.Errorf("engine extract %s vs %s: got %d values, want %d", comp, dep, len(resp.Data), want)
	}
	return resp.Data, nil
}
