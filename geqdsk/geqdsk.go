// Package geqdsk reads and writes G-EQDSK equilibrium files.
//
// A G-EQDSK file describes a tokamak plasma equilibrium on a rectangular
// (R, Z) grid: a header line with a case description and the grid
// dimensions, a block of scalar quantities, 1-D radial profiles, the 2-D
// poloidal flux on the grid, and optional boundary and limiter contours.
// All numeric data is packed five fields to a line at sixteen columns per
// field with nine decimal digits.
package geqdsk

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/freegs-plasma/freeqdsk/fortio"
)

const (
	fieldWidth    = 16
	fieldPrec     = 9
	valuesPerLine = 5

	// The header line reserves 48 columns for the case description,
	// followed by three 4-column integers.
	commentWidth = 48
	intWidth     = 4
)

// Data holds the contents of a G-EQDSK file.
//
// The profile arrays are defined on a uniform poloidal flux grid of Nx
// points between Simagx and Sibdry. Psi holds Nz rows of Nx values. The
// boundary and limiter contours are stored as parallel R and Z slices of
// equal length; both may be empty.
type Data struct {
	Comment string
	Nx, Nz  int

	Rdim, Zdim float64 // domain extent [m]
	Rcentr     float64 // reference major radius [m]
	Rleft      float64 // R at inner domain edge [m]
	Zmid       float64 // Z at domain centre [m]

	Rmagx, Zmagx float64 // magnetic axis position [m]
	Simagx       float64 // poloidal flux at the magnetic axis [Wb/rad]
	Sibdry       float64 // poloidal flux at the plasma boundary [Wb/rad]
	Bcentr       float64 // vacuum toroidal field at Rcentr [T]
	Cpasma       float64 // plasma current [A]

	Fpol    []float64 // poloidal current function F = R*Bt [m T]
	Pres    []float64 // plasma pressure [Pa]
	FFprime []float64 // FF' profile; written as zeros when nil
	Pprime  []float64 // p' profile; written as zeros when nil
	Qpsi    []float64 // safety factor

	Psi [][]float64 // poloidal flux on the grid [Wb/rad]

	Rbdry, Zbdry []float64 // plasma boundary contour [m]
	Rlim, Zlim   []float64 // limiter contour [m]
}

// A ShapeError describes an array whose length disagrees with the declared
// grid dimensions.
type ShapeError struct {
	Name      string
	Want, Got int
}

func (e *ShapeError) Error() string {
	return "geqdsk: array " + e.Name + " has length " + strconv.Itoa(e.Got) +
		", want " + strconv.Itoa(e.Want)
}

// Read parses a G-EQDSK file from r.
func Read(r io.Reader) (*Data, error) {
	br := bufio.NewReader(r)

	line, err := br.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "geqdsk: reading header")
	}
	d := &Data{}
	if err := parseHeader(line, d); err != nil {
		return nil, err
	}

	sc := fortio.NewScanner(br)
	sc.SetFieldWidth(fieldWidth)

	// The scalar block carries twenty values; some slots duplicate earlier
	// quantities and some are unused padding.
	dests := []*float64{
		&d.Rdim, &d.Zdim, &d.Rcentr, &d.Rleft, &d.Zmid,
		&d.Rmagx, &d.Zmagx, &d.Simagx, &d.Sibdry, &d.Bcentr,
		&d.Cpasma, &d.Simagx, nil, &d.Rmagx, nil,
		&d.Zmagx, nil, &d.Sibdry, nil, nil,
	}
	vals, err := sc.ReadFloats(len(dests))
	if err != nil {
		return nil, errors.Wrap(err, "geqdsk: scalar block")
	}
	for i, p := range dests {
		if p != nil {
			*p = vals[i]
		}
	}

	readProfile := func(name string) ([]float64, error) {
		vs, err := sc.ReadFloats(d.Nx)
		return vs, errors.Wrapf(err, "geqdsk: %s profile", name)
	}
	if d.Fpol, err = readProfile("fpol"); err != nil {
		return nil, err
	}
	if d.Pres, err = readProfile("pres"); err != nil {
		return nil, err
	}
	if d.FFprime, err = readProfile("ffprime"); err != nil {
		return nil, err
	}
	if d.Pprime, err = readProfile("pprime"); err != nil {
		return nil, err
	}

	flat, err := sc.ReadFloats(d.Nx * d.Nz)
	if err != nil {
		return nil, errors.Wrap(err, "geqdsk: psi grid")
	}
	d.Psi = make([][]float64, d.Nz)
	for j := range d.Psi {
		d.Psi[j] = flat[j*d.Nx : (j+1)*d.Nx : (j+1)*d.Nx]
	}

	if d.Qpsi, err = readProfile("qpsi"); err != nil {
		return nil, err
	}

	// The boundary and limiter counts sit on their own line in narrower
	// columns, so they are read with boundary detection.
	sc.SetFieldWidth(0)
	nbdry, err := sc.NextInt()
	if err != nil {
		return nil, errors.Wrap(err, "geqdsk: boundary count")
	}
	nlim, err := sc.NextInt()
	if err != nil {
		return nil, errors.Wrap(err, "geqdsk: limiter count")
	}
	sc.SetFieldWidth(fieldWidth)

	if d.Rbdry, d.Zbdry, err = readPairs(sc, nbdry); err != nil {
		return nil, errors.Wrap(err, "geqdsk: boundary contour")
	}
	if d.Rlim, d.Zlim, err = readPairs(sc, nlim); err != nil {
		return nil, errors.Wrap(err, "geqdsk: limiter contour")
	}

	return d, nil
}

// Write formats data as a G-EQDSK file on w.
func Write(w io.Writer, data *Data) error {
	if err := checkShapes(data); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)

	comment := data.Comment
	if len(comment) > commentWidth {
		comment = comment[:commentWidth]
	}
	// The first integer slot identifies the writing code; its value is not
	// read back.
	fmt.Fprintf(bw, "%-*s%*d%*d%*d\n", commentWidth, comment,
		intWidth, 3, intWidth, data.Nx, intWidth, data.Nz)

	fw := fortio.NewWriter(bw, fieldWidth, fieldPrec, valuesPerLine)

	scalars := []float64{
		data.Rdim, data.Zdim, data.Rcentr, data.Rleft, data.Zmid,
		data.Rmagx, data.Zmagx, data.Simagx, data.Sibdry, data.Bcentr,
		data.Cpasma, data.Simagx, 0, data.Rmagx, 0,
		data.Zmagx, 0, data.Sibdry, 0, 0,
	}
	if err := fw.WriteFloats(scalars); err != nil {
		return err
	}
	if err := fw.Newline(); err != nil {
		return err
	}

	for _, p := range []struct {
		name   string
		values []float64
	}{
		{"fpol", data.Fpol},
		{"pres", data.Pres},
		{"ffprime", orZeros(data.FFprime, data.Nx)},
		{"pprime", orZeros(data.Pprime, data.Nx)},
	} {
		if err := writeBlock(fw, p.values); err != nil {
			return errors.Wrapf(err, "geqdsk: %s profile", p.name)
		}
	}

	for _, row := range data.Psi {
		if err := fw.WriteFloats(row); err != nil {
			return errors.Wrap(err, "geqdsk: psi grid")
		}
	}
	if err := fw.Newline(); err != nil {
		return err
	}

	if err := writeBlock(fw, data.Qpsi); err != nil {
		return errors.Wrap(err, "geqdsk: qpsi profile")
	}

	if err := fw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(bw, "%5d%5d\n", len(data.Rbdry), len(data.Rlim))

	if err := writePairs(fw, data.Rbdry, data.Zbdry); err != nil {
		return errors.Wrap(err, "geqdsk: boundary contour")
	}
	if err := writePairs(fw, data.Rlim, data.Zlim); err != nil {
		return errors.Wrap(err, "geqdsk: limiter contour")
	}
	if err := fw.Flush(); err != nil {
		return err
	}

	return bw.Flush()
}

func parseHeader(line string, d *Data) error {
	words := strings.Fields(line)
	if len(words) < 3 {
		return errors.Errorf("geqdsk: header line %q: want case description and three integers", strings.TrimRight(line, "\r\n"))
	}
	nx, err := strconv.Atoi(words[len(words)-2])
	if err != nil {
		return errors.Wrap(err, "geqdsk: header nx")
	}
	nz, err := strconv.Atoi(words[len(words)-1])
	if err != nil {
		return errors.Wrap(err, "geqdsk: header nz")
	}
	if nx < 1 || nz < 1 {
		return errors.Errorf("geqdsk: invalid grid dimensions %dx%d", nx, nz)
	}
	d.Nx, d.Nz = nx, nz

	trimmed := strings.TrimRight(line, "\r\n")
	if len(trimmed) > 3*intWidth {
		d.Comment = strings.TrimSpace(trimmed[:len(trimmed)-3*intWidth])
	}
	return nil
}

func readPairs(sc *fortio.Scanner, n int) (r, z []float64, err error) {
	if n == 0 {
		return nil, nil, nil
	}
	flat, err := sc.ReadFloats(2 * n)
	if err != nil {
		return nil, nil, err
	}
	r = make([]float64, n)
	z = make([]float64, n)
	for i := 0; i < n; i++ {
		r[i] = flat[2*i]
		z[i] = flat[2*i+1]
	}
	return r, z, nil
}

func writePairs(fw *fortio.Writer, r, z []float64) error {
	if len(r) == 0 {
		return nil
	}
	for i := range r {
		if err := fw.WriteFloat(r[i]); err != nil {
			return err
		}
		if err := fw.WriteFloat(z[i]); err != nil {
			return err
		}
	}
	return fw.Newline()
}

// writeBlock writes a profile array as its own newline-terminated block.
func writeBlock(fw *fortio.Writer, values []float64) error {
	if err := fw.WriteFloats(values); err != nil {
		return err
	}
	return fw.Newline()
}

func orZeros(values []float64, n int) []float64 {
	if values == nil {
		return make([]float64, n)
	}
	return values
}

func checkShapes(d *Data) error {
	if d.Nx < 1 || d.Nz < 1 {
		return errors.Errorf("geqdsk: invalid grid dimensions %dx%d", d.Nx, d.Nz)
	}
	for _, p := range []struct {
		name   string
		values []float64
	}{
		{"fpol", d.Fpol},
		{"pres", d.Pres},
		{"qpsi", d.Qpsi},
	} {
		if len(p.values) != d.Nx {
			return &ShapeError{Name: p.name, Want: d.Nx, Got: len(p.values)}
		}
	}
	for _, p := range []struct {
		name   string
		values []float64
	}{
		{"ffprime", d.FFprime},
		{"pprime", d.Pprime},
	} {
		if p.values != nil && len(p.values) != d.Nx {
			return &ShapeError{Name: p.name, Want: d.Nx, Got: len(p.values)}
		}
	}
	if len(d.Psi) != d.Nz {
		return &ShapeError{Name: "psi", Want: d.Nz, Got: len(d.Psi)}
	}
	for _, row := range d.Psi {
		if len(row) != d.Nx {
			return &ShapeError{Name: "psi", Want: d.Nx, Got: len(row)}
		}
	}
	if len(d.Rbdry) != len(d.Zbdry) {
		return &ShapeError{Name: "zbdry", Want: len(d.Rbdry), Got: len(d.Zbdry)}
	}
	if len(d.Rlim) != len(d.Zlim) {
		return &ShapeError{Name: "zlim", Want: len(d.Rlim), Got: len(d.Zlim)}
	}
	return nil
}
