package lut

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DefaultSize is assumed when a .cube body carries no LUT_3D_SIZE
// header. Salvage, not fatal: 32 is the common resolution in the wild.
const DefaultSize = 32

// identityTol is the per-channel tolerance used by the degenerate-LUT
// check: cells closer than this to their identity coordinate count as
// non-transforming.
const identityTol = 0.01

var (
	ErrEmptyLUT      = errors.New("lut: no data lines in LUT body")
	ErrDegenerateLUT = errors.New("lut: LUT is identity-only and transforms nothing")
	ErrTruncatedLUT  = errors.New("lut: too many malformed data lines")
)

// Parse reads a .cube-formatted document into a Grid.
//
// Header lines (TITLE, LUT_3D_SIZE, DOMAIN_MIN/MAX, # comments) may be
// interleaved with data lines. Data lines are three whitespace-separated
// floats and fill the grid in file order, blue index varying fastest.
// A malformed data line still consumes its position, leaving that cell
// absent rather than shifting every later line. Malformed lines are not
// fatal but count toward a sanity check. A body whose every cell matches the identity lattice is
// rejected with ErrDegenerateLUT: it is syntactically valid but would
// silently transform nothing.
func Parse(text string) (*Grid, error) {
	text = unescape(text)

	type cell struct {
		index  int
		sample Sample
	}
	var (
		title   string
		size    = 0
		data    []cell
		lineNo  = 0
		skipped = 0
	)

	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)

		switch fields[0] {
		case "TITLE":
			if start := strings.Index(line, `"`); start != -1 {
				if end := strings.LastIndex(line, `"`); end > start {
					title = line[start+1 : end]
				}
			}
			continue
		case "LUT_3D_SIZE":
			if len(fields) == 2 {
				if n, err := strconv.Atoi(fields[1]); err == nil && n >= 2 {
					size = n
				}
			}
			continue
		case "DOMAIN_MIN", "DOMAIN_MAX", "LUT_1D_SIZE", "LUT_3D_INPUT_RANGE":
			// Recognized headers we don't act on; domain is assumed [0,1].
			continue
		}

		// Anything below here is a data line and owns slot lineNo,
		// parseable or not.
		s, ok := parseTriple(fields)
		if ok {
			data = append(data, cell{index: lineNo, sample: s})
		} else {
			skipped++
		}
		lineNo++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("lut: scan LUT body: %w", err)
	}

	if len(data) == 0 {
		return nil, ErrEmptyLUT
	}
	if skipped > len(data) {
		return nil, fmt.Errorf("%w: %d malformed vs %d valid", ErrTruncatedLUT, skipped, len(data))
	}
	if size == 0 {
		size = DefaultSize
	}

	g := NewGrid(size)
	g.Title = title
	for _, c := range data {
		if c.index >= size*size*size {
			break
		}
		// Line order is blue-fastest, so line k is flat index k.
		g.SetByIndex(c.index, c.sample)
	}

	if g.IsIdentity(identityTol) {
		return nil, ErrDegenerateLUT
	}
	return g, nil
}

// unescape undoes one layer of JSON string encoding. LUT text fetched
// through JSON transports sometimes arrives quoted with literal \n
// sequences; a plain body passes through untouched.
func unescape(text string) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) >= 2 && strings.HasPrefix(trimmed, `"`) && strings.HasSuffix(trimmed, `"`) {
		if s, err := strconv.Unquote(trimmed); err == nil {
			text = s
		}
	}
	return strings.ReplaceAll(text, "\r\n", "\n")
}

func parseTriple(fields []string) (Sample, bool) {
	if len(fields) != 3 {
		return Sample{}, false
	}
	var v [3]float64
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Sample{}, false
		}
		v[i] = x
	}
	return Sample{R: v[0], G: v[1], B: v[2]}, true
}
