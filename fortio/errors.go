package fortio

import "strconv"

// A MalformedFieldError describes a field that could not be parsed as a
// number under the Scanner's boundary rules.
type MalformedFieldError struct {
	Field string // the raw field text
	Cause error
}

func (e *MalformedFieldError) Error() string {
	s := "fortio: cannot parse numeric field " + strconv.Quote(e.Field)
	if e.Cause != nil {
		return s + ": " + e.Cause.Error()
	}
	return s
}

// A WidthOverflowError describes a value that cannot be rendered within
// the configured field width, such as a magnitude requiring a three-digit
// exponent in a field sized for two.
type WidthOverflowError struct {
	Value float64
	Width int
}

func (e *WidthOverflowError) Error() string {
	return "fortio: value " + strconv.FormatFloat(e.Value, 'G', -1, 64) +
		" does not fit in a field of width " + strconv.Itoa(e.Width)
}

// A TruncatedRecordError describes input that ended before the expected
// number of fields was found.
type TruncatedRecordError struct {
	Want, Got int
}

func (e *TruncatedRecordError) Error() string {
	return "fortio: record truncated: want " + strconv.Itoa(e.Want) +
		" values, got " + strconv.Itoa(e.Got)
}
