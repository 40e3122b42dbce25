package lut

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Encode writes g as a .cube document: title, unit domain, size header,
// then N^3 data lines blue-fastest at six decimal places, the precision
// color-grading tools expect. Absent cells are written as their identity
// coordinate so the output is always a complete, loadable file.
func Encode(w io.Writer, g *Grid) error {
	bw := bufio.NewWriter(w)

	title := g.Title
	if title == "" {
		title = "lutforge"
	}
	fmt.Fprintf(bw, "TITLE %q\n", title)
	fmt.Fprintf(bw, "# Generated by lutforge\n")
	fmt.Fprintf(bw, "DOMAIN_MIN 0.0 0.0 0.0\n")
	fmt.Fprintf(bw, "DOMAIN_MAX 1.0 1.0 1.0\n")
	fmt.Fprintf(bw, "LUT_3D_SIZE %d\n\n", g.Size())

	n := g.Size()
	for r := 0; r < n; r++ {
		for gg := 0; gg < n; gg++ {
			for b := 0; b < n; b++ {
				s, ok := g.At(r, gg, b)
				if !ok {
					s = g.identityAt(r, gg, b)
				}
				if _, err := fmt.Fprintf(bw, "%.6f %.6f %.6f\n", s.R, s.G, s.B); err != nil {
					return fmt.Errorf("lut: write data line: %w", err)
				}
			}
		}
	}
	return bw.Flush()
}

// EncodeToString renders g as .cube text for transport.
func EncodeToString(g *Grid) string {
	var sb strings.Builder
	_ = Encode(&sb, g)
	return sb.String()
}
