package fortio

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"
)

// A Writer emits floating point values as fixed-width Fortran-style fields,
// starting a new line after a configured number of values. It mirrors the
// Scanner's field conventions so that its output re-scans to the same
// values up to the configured precision. Line position is held in the
// Writer itself, so independent Writers never interfere.
type Writer struct {
	w       *bufio.Writer
	width   int
	prec    int
	perLine int
	count   int
}

// NewWriter returns a Writer emitting fields of the given total width with
// prec decimal digits, perLine values to a line.
func NewWriter(w io.Writer, width, prec, perLine int) *Writer {
	return &Writer{w: bufio.NewWriter(w), width: width, prec: prec, perLine: perLine}
}

// WriteFloat writes a single value, adding a newline if the line is full.
// It returns a *WidthOverflowError if the value cannot be rendered within
// the configured field width.
func (w *Writer) WriteFloat(v float64) error {
	s, err := formatField(v, w.width, w.prec)
	if err != nil {
		return err
	}
	if _, err := w.w.WriteString(s); err != nil {
		return err
	}
	w.count++
	if w.count == w.perLine {
		return w.endLine()
	}
	return nil
}

// WriteFloats writes each value in order.
func (w *Writer) WriteFloats(vs []float64) error {
	for _, v := range vs {
		if err := w.WriteFloat(v); err != nil {
			return err
		}
	}
	return nil
}

// Newline terminates a partially filled line so that the next value starts
// a fresh one. It does nothing at the start of a line.
func (w *Writer) Newline() error {
	if w.count == 0 {
		return nil
	}
	return w.endLine()
}

// Flush writes any buffered output to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

func (w *Writer) endLine() error {
	w.count = 0
	return w.w.WriteByte('\n')
}

// formatField renders v in Fortran-style scientific notation. Non-negative
// values carry a space in the sign slot so that positive and negative
// values occupy identical width. NaN and infinities have no field
// representation in these formats.
func formatField(v float64, width, prec int) (string, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "", &WidthOverflowError{Value: v, Width: width}
	}
	s := strconv.FormatFloat(v, 'E', prec, 64)
	if s[0] != '-' {
		s = " " + s
	}
	if len(s) > width {
		return "", &WidthOverflowError{Value: v, Width: width}
	}
	if len(s) < width {
		s = strings.Repeat(" ", width-len(s)) + s
	}
	return s, nil
}
