// Package fortio provides reading and writing of Fortran-style formatted
// numeric text: fixed-width, exponent-bearing floating point fields packed
// onto lines with no separator between adjacent values, as emitted by
// legacy equilibrium codes.
package fortio

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"
)

// Token is a single numeric field decoded from the input, along with the
// exact substring it was parsed from.
type Token struct {
	Value float64
	Text  string
}

// Width returns the number of columns the token occupied in the input.
func (t Token) Width() int {
	return len(t.Text)
}

// A Scanner extracts numeric fields from a stream of packed numeric text.
//
// By default field boundaries are detected from the text itself; see Next
// for the rules. When the caller knows the stream uses uniform column
// widths, SetFieldWidth switches the Scanner to fixed slicing instead.
type Scanner struct {
	r     *bufio.Reader
	width int
	toks  []string
	pos   int
	eof   bool
}

// NewScanner returns a new Scanner that reads from r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{r: bufio.NewReader(r)}
}

// SetFieldWidth configures the Scanner to slice each line into fields of
// exactly w columns, skipping blank fields. A width of 0 restores boundary
// detection. The change takes effect from the next line read; callers
// switch modes only between line-aligned sections of a record.
func (s *Scanner) SetFieldWidth(w int) {
	s.width = w
}

// Next returns the next numeric field in left-to-right, top-to-bottom
// order. It returns io.EOF once the input is exhausted and a
// *MalformedFieldError if a field cannot be parsed as a number.
//
// In boundary-detection mode a sign character is the only evidence that a
// new field has begun when two fields abut with no space: a + or - that
// follows a mantissa character without an intervening exponent marker, or
// that follows the digits of an exponent, starts a new field. A sign
// immediately after the marker itself is the exponent sign. Both E and D
// exponent markers are accepted; D is the legacy double-precision marker.
func (s *Scanner) Next() (Token, error) {
	for s.pos >= len(s.toks) {
		if s.eof {
			return Token{}, io.EOF
		}
		line, err := s.r.ReadString('\n')
		if err == io.EOF {
			s.eof = true
		} else if err != nil {
			return Token{}, err
		}
		if s.width > 0 {
			s.toks = sliceFixed(line, s.width)
		} else {
			s.toks = splitPacked(line)
		}
		s.pos = 0
	}
	text := s.toks[s.pos]
	s.pos++
	v, err := parseField(text)
	if err != nil {
		return Token{}, err
	}
	return Token{Value: v, Text: text}, nil
}

// NextInt returns the next field as an integer. Count lines in these
// formats carry plain integers through the same field conventions.
func (s *Scanner) NextInt() (int, error) {
	tok, err := s.Next()
	if err != nil {
		return 0, err
	}
	if tok.Value != math.Trunc(tok.Value) {
		return 0, &MalformedFieldError{Field: tok.Text}
	}
	return int(tok.Value), nil
}

// ReadFloats returns the next n field values. It returns a
// *TruncatedRecordError if the input ends before n fields are found.
func (s *Scanner) ReadFloats(n int) ([]float64, error) {
	out := make([]float64, 0, n)
	for len(out) < n {
		tok, err := s.Next()
		if err == io.EOF {
			return nil, &TruncatedRecordError{Want: n, Got: len(out)}
		}
		if err != nil {
			return nil, err
		}
		out = append(out, tok.Value)
	}
	return out, nil
}

// Scanner states for boundary detection. A field is a signed mantissa with
// an optional decimal point, optionally followed by an exponent marker, an
// optional exponent sign, and exponent digits.
const (
	stateNone = iota
	stateMantissa
	stateMarker
	stateExponent
)

// splitPacked splits a line into field substrings using sign-based
// boundary detection.
func splitPacked(line string) []string {
	var toks []string
	start := -1
	state := stateNone
	flush := func(end int) {
		if start >= 0 {
			toks = append(toks, line[start:end])
		}
		start = -1
		state = stateNone
	}
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c >= '0' && c <= '9':
			switch state {
			case stateNone:
				start = i
				state = stateMantissa
			case stateMarker:
				state = stateExponent
			}
		case c == '+' || c == '-':
			if state == stateMarker {
				state = stateExponent
				break
			}
			// Inside the mantissa, or after the exponent digits, a sign
			// can only begin a new field.
			flush(i)
			start = i
			state = stateMantissa
		case c == '.':
			if state != stateMantissa {
				flush(i)
				start = i
			}
			state = stateMantissa
		case c == 'E' || c == 'e' || c == 'D' || c == 'd':
			if state == stateMantissa {
				state = stateMarker
			} else {
				flush(i)
			}
		default:
			flush(i)
		}
	}
	flush(len(line))
	return toks
}

// sliceFixed splits a line into fields of exactly width columns. Blank
// fields (zero-filled tails, short final lines) are skipped.
func sliceFixed(line string, width int) []string {
	line = strings.TrimRight(line, "\r\n")
	var toks []string
	for i := 0; i < len(line); i += width {
		end := i + width
		if end > len(line) {
			end = len(line)
		}
		if strings.TrimSpace(line[i:end]) != "" {
			toks = append(toks, line[i:end])
		}
	}
	return toks
}

var markerNormalizer = strings.NewReplacer("D", "E", "d", "e")

func parseField(text string) (float64, error) {
	v, err := strconv.ParseFloat(markerNormalizer.Replace(strings.TrimSpace(text)), 64)
	if err != nil {
		return 0, &MalformedFieldError{Field: text, Cause: err}
	}
	return v, nil
}
