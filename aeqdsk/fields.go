package aeqdsk

import "sort"

// A Field is one named entry in an A-EQDSK record.
//
// A plain field holds a single scalar. A field with LengthFrom set holds an
// array whose length is given by the named count (a header quantity or an
// earlier size field). A field with LengthOf set is a size field whose
// value is the length of the named array; it is derived on write and
// recorded on read.
type Field struct {
	Name       string
	LengthFrom string
	LengthOf   string
}

// A Block groups fields whose values flow together on the same chunked
// lines; a newline is emitted only between blocks. A Block with IntWidth
// set is a line of fixed-width integers rather than chunked floats.
type Block struct {
	Fields   []Field
	IntWidth int
}

func scalars(names ...string) Block {
	fs := make([]Field, len(names))
	for i, n := range names {
		fs[i] = Field{Name: n}
	}
	return Block{Fields: fs}
}

func array(name, lengthFrom string) Block {
	return Block{Fields: []Field{{Name: name, LengthFrom: lengthFrom}}}
}

// generalBlock1 runs from the fit quality through the vertical field at the
// current centroid.
var generalBlock1 = scalars(
	"tsaisq", "rcencm", "bcentr", "pasmat", "cpasma",
	"rout", "zout", "aout", "eout", "doutu",
	"doutl", "vout", "rcurrt", "zcurrt", "qsta",
	"betat", "betap", "ali", "oleft", "oright",
	"otop", "obott", "qpsib", "vertn",
)

// The CO2 interferometer chord arrays. Their lengths come from the mco2v
// and mco2r counts on the fourth header line.
var (
	laserRco2v = array("rco2v", "mco2v")
	laserDco2v = array("dco2v", "mco2v")
	laserRco2r = array("rco2r", "mco2r")
	laserDco2r = array("dco2r", "mco2r")
)

var generalBlock2 = scalars(
	"shearb", "bpolav", "s1", "s2", "s3",
	"qout", "olefs", "orighs", "otops", "sibdry",
	"areao", "wplasm", "terror", "elongm", "qqmagx",
	"cdflux", "alpha", "rttt", "psiref", "xndnt",
	"rseps1", "zseps1", "rseps2", "zseps2", "sepexp",
	"obots", "btaxp", "btaxv", "aaq1", "aaq2",
	"aaq3", "seplim", "rmagx", "zmagx", "simagx",
	"taumhd", "betapd", "betatd", "wplasmd", "diamag",
	"vloopt", "taudia", "qmerci", "tavem",
)

// extendedSizes is the 4-column integer line that opens the extended
// section, declaring the lengths of the probe and coil arrays.
var extendedSizes = Block{
	IntWidth: 4,
	Fields: []Field{
		{Name: "nsilop", LengthOf: "csilop"},
		{Name: "magpri", LengthOf: "cmpr2"},
		{Name: "nfcoil", LengthOf: "ccbrsp"},
		{Name: "nesum", LengthOf: "eccurt"},
	},
}

// The flux loop and magnetic probe signals are run together with no
// newline between them, so they share one block.
var probeSignals = Block{
	Fields: []Field{
		{Name: "csilop", LengthFrom: "nsilop"},
		{Name: "cmpr2", LengthFrom: "magpri"},
	},
}

var (
	coilCurrents  = array("ccbrsp", "nfcoil")
	ecoilCurrents = array("eccurt", "nesum")
)

// extendedGeneralNames is the trailing scalar block of the extended
// section. Later file revisions appended entries to its end, so older
// revisions carry a prefix of this list.
var extendedGeneralNames = []string{
	"pbinj", "rvsin", "zvsin", "rvsout", "zvsout",
	"vsurfa", "wpdot", "wbdot", "slantu", "slantl",
	"zuperts", "chipre", "cjor95", "pp95", "ssep",
	"yyy2", "xnnc",
	// added by the 09/07/98 revision
	"cprof", "oring", "cjor0", "fexpan", "qqmin",
	"chigamt", "ssi01", "fexpvs", "sepnose", "ssi95",
	"rqqmin", "cjor99", "cj1ave", "rmidin", "rmidout",
}

func commonBlocks() []Block {
	return []Block{
		generalBlock1,
		laserRco2v, laserDco2v, laserRco2r, laserDco2r,
		generalBlock2,
	}
}

func extendedBlocks(generalLen int) []Block {
	return []Block{
		extendedSizes,
		probeSignals,
		coilCurrents,
		ecoilCurrents,
		scalars(extendedGeneralNames[:generalLen]...),
	}
}

// revisions maps each supported EFIT version stamp to the ordered block
// table describing its record layout. Parsing iterates the table and never
// branches on the revision; adding a revision means adding an entry here.
var revisions = map[string][]Block{
	// pre-extended files: two general blocks and the CO2 chords
	"05/08/91": commonBlocks(),
	// adds the extended section up to xnnc
	"06/10/97": append(commonBlocks(), extendedBlocks(17)...),
	// full trailing general block
	"09/07/98": append(commonBlocks(), extendedBlocks(len(extendedGeneralNames))...),
}

// Revisions returns the supported format revision stamps, sorted.
func Revisions() []string {
	out := make([]string, 0, len(revisions))
	for rev := range revisions {
		out = append(out, rev)
	}
	sort.Strings(out)
	return out
}

// FieldNames returns the ordered field names of a revision, size fields
// included.
func FieldNames(revision string) ([]string, error) {
	blocks, ok := revisions[revision]
	if !ok {
		return nil, &UnsupportedRevisionError{Revision: revision}
	}
	var names []string
	for _, b := range blocks {
		for _, f := range b.Fields {
			names = append(names, f.Name)
		}
	}
	return names, nil
}
