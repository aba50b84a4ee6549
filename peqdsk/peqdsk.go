// Package peqdsk reads and writes p-EQDSK kinetics profile files.
//
// A p-EQDSK file holds radial kinetics profiles (densities, temperatures,
// and the like) tabulated against psinorm, the normalised poloidal flux.
// Unlike the G- and A-EQDSK formats the data is ordinary whitespace
// delimited text: each profile is a block of the form
//
//	nrows psinorm ne(10^20/m^3) dne/dpsiN
//	 0.000000   0.812950   -0.080914
//	 ...
//
// and the file ends with a block describing the ion species:
//
//	nrows N Z A of ION SPECIES
//	 6.000000   6.000000   12.000000
//	 ...
//
// Column whitespace is not preserved across a read/write cycle.
package peqdsk

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// A Profile is one kinetics quantity tabulated against psinorm, together
// with its derivative column.
type Profile struct {
	Name   string
	Unit   string // empty when the column carries no unit
	Values []float64
	Deriv  []float64 // d<Name>/dpsiN
}

// A Species holds the atomic number, charge, and mass of one ion species.
type Species struct {
	N, Z, A float64
}

// Data holds the contents of a p-EQDSK file. All profiles share the
// Psinorm grid and have the same number of samples.
type Data struct {
	Psinorm  []float64
	Profiles []Profile
	Species  []Species
}

// Units returns the unit label of each profile that has one, keyed by
// profile name.
func (d *Data) Units() map[string]string {
	units := make(map[string]string)
	for _, p := range d.Profiles {
		if p.Unit != "" {
			units[p.Name] = p.Unit
		}
	}
	return units
}

// A ColumnCountError reports a block whose declared row or column count
// disagrees with the data found.
type ColumnCountError struct {
	Block     string
	Want, Got int
}

func (e *ColumnCountError) Error() string {
	return "peqdsk: block " + strconv.Quote(e.Block) + ": declared " +
		strconv.Itoa(e.Want) + " entries, found " + strconv.Itoa(e.Got)
}

// unitRE recovers the unit label from a column name like "ne(10^20/m^3)".
var unitRE = regexp.MustCompile(`^(.*)\((.*)\)$`)

// Read parses a p-EQDSK file from r.
func Read(r io.Reader) (*Data, error) {
	br := bufio.NewReader(r)
	d := &Data{}

	for {
		line, err := br.ReadString('\n')
		header := strings.Fields(line)
		if len(header) == 0 {
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, errors.Wrap(err, "peqdsk: reading block header")
			}
			continue
		}
		nrows, aerr := strconv.Atoi(header[0])
		if aerr != nil {
			return nil, errors.Wrapf(aerr, "peqdsk: block header %q", strings.TrimRight(line, "\r\n"))
		}

		if len(header) >= 2 && header[1] == "psinorm" {
			if err := readProfileBlock(br, d, header, nrows); err != nil {
				return nil, err
			}
		} else {
			if err := readSpeciesBlock(br, d, nrows); err != nil {
				return nil, err
			}
		}
		if err == io.EOF {
			break
		}
	}

	return d, nil
}

// Write formats data as a p-EQDSK file on w, preserving profile order and
// unit strings.
func Write(w io.Writer, data *Data) error {
	bw := bufio.NewWriter(w)
	n := len(data.Psinorm)

	for _, p := range data.Profiles {
		if len(p.Values) != n {
			return &ColumnCountError{Block: p.Name, Want: n, Got: len(p.Values)}
		}
		if len(p.Deriv) != n {
			return &ColumnCountError{Block: p.Name, Want: n, Got: len(p.Deriv)}
		}
		col := p.Name
		if p.Unit != "" {
			col += "(" + p.Unit + ")"
		}
		fmt.Fprintf(bw, "%d psinorm %s d%s/dpsiN\n", n, col, p.Name)
		for i := 0; i < n; i++ {
			writeRow(bw, data.Psinorm[i], p.Values[i], p.Deriv[i])
		}
	}

	fmt.Fprintf(bw, "%d N Z A of ION SPECIES\n", len(data.Species))
	for _, s := range data.Species {
		writeRow(bw, s.N, s.Z, s.A)
	}

	return bw.Flush()
}

func writeRow(bw *bufio.Writer, a, b, c float64) {
	fmt.Fprintf(bw, " %.6f   %.6f   %.6f\n", a, b, c)
}

func readProfileBlock(br *bufio.Reader, d *Data, header []string, nrows int) error {
	if len(header) < 4 {
		return &ColumnCountError{Block: strings.Join(header[1:], " "), Want: 3, Got: len(header) - 1}
	}
	name := header[2]
	p := Profile{Name: name}
	if m := unitRE.FindStringSubmatch(name); m != nil {
		p.Name, p.Unit = m[1], m[2]
	}

	first := d.Psinorm == nil
	if !first && nrows != len(d.Psinorm) {
		return &ColumnCountError{Block: p.Name, Want: len(d.Psinorm), Got: nrows}
	}
	if first {
		d.Psinorm = make([]float64, 0, nrows)
	}
	p.Values = make([]float64, 0, nrows)
	p.Deriv = make([]float64, 0, nrows)

	for i := 0; i < nrows; i++ {
		row, err := readRow(br, p.Name, nrows, i)
		if err != nil {
			return err
		}
		if first {
			d.Psinorm = append(d.Psinorm, row[0])
		}
		p.Values = append(p.Values, row[1])
		p.Deriv = append(p.Deriv, row[2])
	}
	d.Profiles = append(d.Profiles, p)
	return nil
}

func readSpeciesBlock(br *bufio.Reader, d *Data, nrows int) error {
	for i := 0; i < nrows; i++ {
		row, err := readRow(br, "species", nrows, i)
		if err != nil {
			return err
		}
		d.Species = append(d.Species, Species{N: row[0], Z: row[1], A: row[2]})
	}
	return nil
}

// readRow reads one three-column data row of the named block. The block's
// declared row count and the rows found so far produce the error context
// when the file ends early.
func readRow(br *bufio.Reader, block string, nrows, got int) ([3]float64, error) {
	var row [3]float64
	line, err := br.ReadString('\n')
	fields := strings.Fields(line)
	if len(fields) == 0 && err == io.EOF {
		return row, &ColumnCountError{Block: block, Want: nrows, Got: got}
	}
	if err != nil && err != io.EOF {
		return row, errors.Wrapf(err, "peqdsk: block %q", block)
	}
	if len(fields) != 3 {
		return row, &ColumnCountError{Block: block, Want: 3, Got: len(fields)}
	}
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return row, errors.Wrapf(err, "peqdsk: block %q row %d", block, got+1)
		}
		row[i] = v
	}
	return row, nil
}
