package aeqdsk

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// arrayLengths gives each array field a distinct, plausible size.
var arrayLengths = map[string]int{
	"rco2v":  3,
	"dco2v":  3,
	"rco2r":  1,
	"dco2r":  1,
	"csilop": 41,
	"cmpr2":  26,
	"ccbrsp": 18,
	"eccurt": 2,
}

func testData(t *testing.T, revision string) *Data {
	t.Helper()

	d := &Data{
		Date:     "26-OCT-98",
		Revision: revision,
		Shot:     66832,
		Time:     2384.0,
		Jflag:    1,
		Lflag:    0,
		Limloc:   "SNB",
		Mco2v:    3,
		Mco2r:    1,
		Qmflag:   "CLC",
		Scalars:  map[string]float64{},
		Arrays:   map[string][]float64{},
	}

	names, err := FieldNames(revision)
	require.NoError(t, err)
	for i, name := range names {
		if n, ok := arrayLengths[name]; ok {
			arr := make([]float64, n)
			for j := range arr {
				arr[j] = float64(i) + float64(j)/16.0
			}
			d.Arrays[name] = arr
			continue
		}
		if isSizeField(name) {
			continue
		}
		d.Scalars[name] = float64(i) + 0.5
	}
	return d
}

func isSizeField(name string) bool {
	switch name {
	case "nsilop", "magpri", "nfcoil", "nesum":
		return true
	}
	return false
}

func TestRoundTrip(t *testing.T) {
	for _, revision := range Revisions() {
		t.Run(revision, func(t *testing.T) {
			data := testData(t, revision)

			var buf bytes.Buffer
			require.NoError(t, Write(&buf, data))

			got, err := Read(&buf)
			require.NoError(t, err)

			assert.Equal(t, data.Revision, got.Revision)
			assert.Equal(t, data.Date, got.Date)
			assert.Equal(t, data.Shot, got.Shot)
			assert.InDelta(t, data.Time, got.Time, 1e-6)
			assert.Equal(t, data.Jflag, got.Jflag)
			assert.Equal(t, data.Lflag, got.Lflag)
			assert.Equal(t, data.Limloc, got.Limloc)
			assert.Equal(t, data.Mco2v, got.Mco2v)
			assert.Equal(t, data.Mco2r, got.Mco2r)
			assert.Equal(t, data.Qmflag, got.Qmflag)

			require.Len(t, got.Scalars, len(data.Scalars))
			for name, want := range data.Scalars {
				assert.InDelta(t, want, got.Scalars[name], 1e-6, name)
			}
			require.Len(t, got.Arrays, len(data.Arrays))
			for name, want := range data.Arrays {
				assert.InDeltaSlice(t, want, got.Arrays[name], 1e-6, name)
			}
		})
	}
}

// A record built from a revision's field table must come back with exactly
// that table's field names, none dropped, none added.
func TestRevisionFieldSets(t *testing.T) {
	for _, revision := range Revisions() {
		t.Run(revision, func(t *testing.T) {
			names, err := FieldNames(revision)
			require.NoError(t, err)

			data := testData(t, revision)
			var buf bytes.Buffer
			require.NoError(t, Write(&buf, data))
			got, err := Read(&buf)
			require.NoError(t, err)

			for _, name := range names {
				if isSizeField(name) {
					continue
				}
				_, scalar := got.Scalars[name]
				_, array := got.Arrays[name]
				assert.True(t, scalar || array, "field %q missing after round trip", name)
			}
			assert.Len(t, got.Scalars, len(data.Scalars))
			assert.Len(t, got.Arrays, len(data.Arrays))
		})
	}
}

func TestRevisionsAreOrdered(t *testing.T) {
	revs := Revisions()
	require.Equal(t, []string{"05/08/91", "06/10/97", "09/07/98"}, revs)

	// the pre-extended revision carries no probe or coil arrays
	names, err := FieldNames("05/08/91")
	require.NoError(t, err)
	assert.NotContains(t, names, "csilop")

	names, err = FieldNames("09/07/98")
	require.NoError(t, err)
	assert.Contains(t, names, "csilop")
	assert.Contains(t, names, "rmidout")
}

func TestUnknownRevision(t *testing.T) {
	// Body is deliberately garbage: an unregistered revision must fail
	// before any numeric parsing happens.
	file := " 01-JAN-70 01/01/70\n" +
		" 1               1\n" +
		" 0.000000000E+00\n" +
		"*0.000000000E+00             1                0 DN  0   0 CLC\n" +
		"not numbers at all\n"

	_, err := Read(strings.NewReader(file))
	var unsupported *UnsupportedRevisionError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "01/01/70", unsupported.Revision)
}

func TestWriteUnknownRevision(t *testing.T) {
	data := testData(t, "09/07/98")
	data.Revision = "never registered"

	err := Write(&bytes.Buffer{}, data)
	var unsupported *UnsupportedRevisionError
	require.ErrorAs(t, err, &unsupported)
}

func TestWriteArrayLengthMismatch(t *testing.T) {
	data := testData(t, "09/07/98")
	data.Arrays["rco2v"] = data.Arrays["rco2v"][:2] // header declares mco2v = 3

	err := Write(&bytes.Buffer{}, data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rco2v")
}

func TestFieldNamesUnknown(t *testing.T) {
	_, err := FieldNames("no such revision")
	var unsupported *UnsupportedRevisionError
	require.ErrorAs(t, err, &unsupported)
}
