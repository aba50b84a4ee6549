// Package aeqdsk reads and writes A-EQDSK diagnostics files.
//
// An A-EQDSK file carries the named scalar outputs of an equilibrium fit:
// geometric moments, beta values, safety factors, gap sizes, interferometer
// chords, and, in later file revisions, probe signals and coil currents.
// Which fields are present, and in what order, depends on the format
// revision stamped in the file header; the per-revision layouts live in
// fields.go as static tables.
package aeqdsk

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
	valuesPerLine = 4
)

// Data holds the contents of an A-EQDSK file.
//
// The header quantities have dedicated fields; everything below them is
// keyed by field name, with the revision table supplying order and layout.
// Size fields (nsilop and friends) are derived from array lengths on write
// and are not stored.
type Data struct {
	Date     string // date stamp from the first header line
	Revision string // format revision stamp, e.g. "09/07/98"

	Shot   int
	Time   float64 // [ms]
	Jflag  int     // fit status
	Lflag  int     // error flag
	Limloc string  // limiter configuration, e.g. "SNB" or "DN"
	Mco2v  int     // number of vertical CO2 chords
	Mco2r  int     // number of radial CO2 chords
	Qmflag string  // axial q(0) flag, "FIX" or "CLC"

	Scalars map[string]float64
	Arrays  map[string][]float64
}

// An UnsupportedRevisionError reports a format revision stamp with no
// registered field table.
type UnsupportedRevisionError struct {
	Revision string
}

func (e *UnsupportedRevisionError) Error() string {
	return "aeqdsk: unsupported format revision " + strconv.Quote(e.Revision)
}

// Read parses an A-EQDSK file from r. The revision is taken from the file
// header; an unregistered revision fails before any numeric data is read.
func Read(r io.Reader) (*Data, error) {
	br := bufio.NewReader(r)
	d := &Data{
		Scalars: map[string]float64{},
		Arrays:  map[string][]float64{},
	}

	if err := readIdent(br, d); err != nil {
		return nil, err
	}
	blocks, ok := revisions[d.Revision]
	if !ok {
		return nil, &UnsupportedRevisionError{Revision: d.Revision}
	}
	if err := readHeader(br, d); err != nil {
		return nil, err
	}

	sc := fortio.NewScanner(br)
	sc.SetFieldWidth(fieldWidth)

	counts := map[string]int{"mco2v": d.Mco2v, "mco2r": d.Mco2r}

	for _, b := range blocks {
		if b.IntWidth > 0 {
			sc.SetFieldWidth(b.IntWidth)
			for _, f := range b.Fields {
				n, err := sc.NextInt()
				if err != nil {
					return nil, errors.Wrapf(err, "aeqdsk: size field %q", f.Name)
				}
				counts[f.Name] = n
			}
			sc.SetFieldWidth(fieldWidth)
			continue
		}
		for _, f := range b.Fields {
			if f.LengthFrom == "" {
				vals, err := sc.ReadFloats(1)
				if err != nil {
					return nil, errors.Wrapf(err, "aeqdsk: field %q", f.Name)
				}
				d.Scalars[f.Name] = vals[0]
				continue
			}
			n, ok := counts[f.LengthFrom]
			if !ok {
				return nil, errors.Errorf("aeqdsk: field %q: unknown length source %q", f.Name, f.LengthFrom)
			}
			vals, err := sc.ReadFloats(n)
			if err != nil {
				return nil, errors.Wrapf(err, "aeqdsk: field %q", f.Name)
			}
			d.Arrays[f.Name] = vals
		}
	}

	return d, nil
}

// Write formats data as an A-EQDSK file on w, laid out per the revision
// declared in data.Revision.
func Write(w io.Writer, data *Data) error {
	blocks, ok := revisions[data.Revision]
	if !ok {
		return &UnsupportedRevisionError{Revision: data.Revision}
	}

	bw := bufio.NewWriter(w)
	if err := writeHeader(bw, data); err != nil {
		return err
	}

	fw := fortio.NewWriter(bw, fieldWidth, fieldPrec, valuesPerLine)
	counts := map[string]int{"mco2v": data.Mco2v, "mco2r": data.Mco2r}

	for _, b := range blocks {
		if b.IntWidth > 0 {
			for _, f := range b.Fields {
				n := len(data.Arrays[f.LengthOf])
				counts[f.Name] = n
				fmt.Fprintf(bw, "%*d", b.IntWidth, n)
			}
			if err := bw.WriteByte('\n'); err != nil {
				return err
			}
			continue
		}
		for _, f := range b.Fields {
			if f.LengthFrom == "" {
				if err := fw.WriteFloat(data.Scalars[f.Name]); err != nil {
					return errors.Wrapf(err, "aeqdsk: field %q", f.Name)
				}
				continue
			}
			arr := data.Arrays[f.Name]
			if want := counts[f.LengthFrom]; len(arr) != want {
				return errors.Errorf("aeqdsk: array %q has length %d, %s declares %d",
					f.Name, len(arr), f.LengthFrom, want)
			}
			if err := fw.WriteFloats(arr); err != nil {
				return errors.Wrapf(err, "aeqdsk: field %q", f.Name)
			}
		}
		if err := fw.Newline(); err != nil {
			return err
		}
		// push chunked output ahead of any following integer line
		if err := fw.Flush(); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// readIdent reads the identification line only, so that the revision can
// be checked against the registered tables before anything numeric is
// parsed.
func readIdent(br *bufio.Reader, d *Data) error {
	line, err := br.ReadString('\n')
	if err != nil && err != io.EOF {
		return errors.Wrap(err, "aeqdsk: reading header")
	}
	words := strings.Fields(line)
	if len(words) < 2 {
		return errors.Errorf("aeqdsk: header line %q: want date and revision stamps", strings.TrimRight(line, "\r\n"))
	}
	d.Date = words[0]
	d.Revision = words[len(words)-1]
	return nil
}

func readHeader(br *bufio.Reader, d *Data) error {
	line, err := br.ReadString('\n')
	if err != nil && err != io.EOF {
		return errors.Wrap(err, "aeqdsk: reading shot line")
	}
	words := strings.Fields(line)
	if len(words) < 1 {
		return errors.New("aeqdsk: empty shot line")
	}
	if d.Shot, err = strconv.Atoi(words[0]); err != nil {
		return errors.Wrap(err, "aeqdsk: shot number")
	}

	line, err = br.ReadString('\n')
	if err != nil && err != io.EOF {
		return errors.Wrap(err, "aeqdsk: reading time line")
	}
	if d.Time, err = strconv.ParseFloat(strings.TrimSpace(line), 64); err != nil {
		return errors.Wrap(err, "aeqdsk: time stamp")
	}

	// *time jflag lflag limloc mco2v mco2r qmflag
	line, err = br.ReadString('\n')
	if err != nil && err != io.EOF {
		return errors.Wrap(err, "aeqdsk: reading flags line")
	}
	words = strings.Fields(line)
	if len(words) < 7 {
		return errors.Errorf("aeqdsk: flags line %q: want seven entries", strings.TrimRight(line, "\r\n"))
	}
	if d.Jflag, err = strconv.Atoi(words[1]); err != nil {
		return errors.Wrap(err, "aeqdsk: jflag")
	}
	if d.Lflag, err = strconv.Atoi(words[2]); err != nil {
		return errors.Wrap(err, "aeqdsk: lflag")
	}
	d.Limloc = words[3]
	if d.Mco2v, err = strconv.Atoi(words[4]); err != nil {
		return errors.Wrap(err, "aeqdsk: mco2v")
	}
	if d.Mco2r, err = strconv.Atoi(words[5]); err != nil {
		return errors.Wrap(err, "aeqdsk: mco2r")
	}
	d.Qmflag = words[6]
	return nil
}

func writeHeader(bw *bufio.Writer, d *Data) error {
	date := d.Date
	if date == "" {
		date = "01-JAN-00"
	}
	fmt.Fprintf(bw, " %s %s\n", date, d.Revision)
	fmt.Fprintf(bw, " %d               1\n", d.Shot)

	tw := fortio.NewWriter(bw, fieldWidth, fieldPrec, 1)
	if err := tw.WriteFloat(d.Time); err != nil {
		return errors.Wrap(err, "aeqdsk: time stamp")
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(bw, "*%s             %d                %d %s  %d   %d %s\n",
		strconv.FormatFloat(d.Time, 'E', fieldPrec, 64),
		d.Jflag, d.Lflag, d.Limloc, d.Mco2v, d.Mco2r, d.Qmflag)
	return nil
}
