// Package profile reads measured mirror height profiles from delimited text files.
package profile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrDegenerateProfile marks a profile with fewer than two samples. Such a profile
// can never bracket a coordinate, so it maps to an all-zero OPD.
var ErrDegenerateProfile = errors.New("height profile needs at least 2 points")

// HeightProfile is a measured surface height error sampled along the mirror.
// Position must be strictly increasing for the bracket scan to find every interval;
// this is not checked.
type HeightProfile struct {
	Position []float64 // Position along the mirror surface
	Height   []float64 // Surface deviation at Position[i], in the grid's spatial unit
}

// Len returns the number of samples.
func (p HeightProfile) Len() int {
	return len(p.Position)
}

// Check returns ErrDegenerateProfile when the profile has fewer than two samples.
func (p HeightProfile) Check() error {
	if p.Len() < 2 {
		return fmt.Errorf("%w (have %d)", ErrDegenerateProfile, p.Len())
	}
	return nil
}

// Project returns the positions scaled by sinAngle, i.e. the footprint coordinate
// every sample lands on for a mirror at that grazing angle.
func (p HeightProfile) Project(sinAngle float64) []float64 {
	proj := make([]float64, len(p.Position))
	for i, pos := range p.Position {
		proj[i] = pos * sinAngle
	}
	return proj
}

// ParseError reports a field that is not a number.
type ParseError struct {
	Path   string
	Line   int // 1-based
	Column int // 0-based
	Field  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: column %d: cannot parse %q: %v", e.Path, e.Line, e.Column, e.Field, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ReadColumns reads nCol columns of numbers from the file at path. Each line is split on sep;
// fields past nCol are ignored and a short line only extends the columns it has.
func ReadColumns(path string, nCol int, sep string) (cols [][]float64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open height profile: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return ReadColumnsFrom(f, path, nCol, sep)
}

// ReadColumnsFrom is ReadColumns on an open stream. name is used in error messages.
func ReadColumnsFrom(r io.Reader, name string, nCol int, sep string) ([][]float64, error) {
	if nCol < 1 {
		return nil, fmt.Errorf("column count must be positive, got %d", nCol)
	}
	if sep == "" {
		return nil, errors.New("field separator must not be empty")
	}

	cols := make([][]float64, nCol)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}
		parts := strings.Split(line, sep)
		for iCol := 0; iCol < nCol && iCol < len(parts); iCol++ {
			field := strings.TrimSpace(parts[iCol])
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, &ParseError{Path: name, Line: lineNo, Column: iCol, Field: field, Err: err}
			}
			cols[iCol] = append(cols[iCol], v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return cols, nil
}

// ReadHeightProfile reads a two-column (position, height) profile. When the columns end up
// with different lengths only the common prefix is kept.
func ReadHeightProfile(path, sep string) (HeightProfile, error) {
	cols, err := ReadColumns(path, 2, sep)
	if err != nil {
		return HeightProfile{}, err
	}
	n := min(len(cols[0]), len(cols[1]))
	return HeightProfile{Position: cols[0][:n], Height: cols[1][:n]}, nil
}
