package geqdsk

import (
	"bytes"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freegs-plasma/freeqdsk/fortio"
)

func testData(nx, nz int, rng *rand.Rand) *Data {
	profile := func() []float64 {
		vs := make([]float64, nx)
		for i := range vs {
			vs[i] = rng.Float64()
		}
		return vs
	}
	psi := make([][]float64, nz)
	for j := range psi {
		psi[j] = make([]float64, nx)
		for i := range psi[j] {
			psi[j][i] = rng.Float64()
		}
	}
	contour := func(n int) (r, z []float64) {
		r = make([]float64, n)
		z = make([]float64, n)
		for i := 0; i < n; i++ {
			r[i] = 1.5 + rng.Float64()
			z[i] = rng.Float64() - 0.5
		}
		return r, z
	}
	rbdry, zbdry := contour(7)
	rlim, zlim := contour(5)

	return &Data{
		Comment: "TEST",
		Nx:      nx,
		Nz:      nz,
		Rdim:    2 + rng.Float64(),
		Zdim:    1 + rng.Float64(),
		Rcentr:  1.5 + 0.1*rng.Float64(),
		Rleft:   rng.Float64(),
		Zmid:    0.1 * rng.Float64(),
		Rmagx:   1 + rng.Float64(),
		Zmagx:   0.1 + 0.05*rng.Float64(),
		Simagx:  -rng.Float64(),
		Sibdry:  rng.Float64(),
		Bcentr:  2 + rng.Float64(),
		Cpasma:  1e6 * (1 + rng.Float64()),
		Fpol:    profile(),
		Pres:    profile(),
		FFprime: profile(),
		Pprime:  profile(),
		Qpsi:    profile(),
		Psi:     psi,
		Rbdry:   rbdry,
		Zbdry:   zbdry,
		Rlim:    rlim,
		Zlim:    zlim,
	}
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, dims := range []struct{ nx, nz int }{
		{15, 15},
		{12, 15},
		{15, 16},
		{17, 61},
	} {
		data := testData(dims.nx, dims.nz, rng)

		var buf bytes.Buffer
		require.NoError(t, Write(&buf, data))

		got, err := Read(&buf)
		require.NoError(t, err)

		assert.Equal(t, data.Comment, got.Comment)
		assert.Equal(t, data.Nx, got.Nx)
		assert.Equal(t, data.Nz, got.Nz)

		const tol = 1e-8
		assert.InDelta(t, data.Rdim, got.Rdim, tol)
		assert.InDelta(t, data.Zdim, got.Zdim, tol)
		assert.InDelta(t, data.Rcentr, got.Rcentr, tol)
		assert.InDelta(t, data.Rleft, got.Rleft, tol)
		assert.InDelta(t, data.Zmid, got.Zmid, tol)
		assert.InDelta(t, data.Rmagx, got.Rmagx, tol)
		assert.InDelta(t, data.Zmagx, got.Zmagx, tol)
		assert.InDelta(t, data.Simagx, got.Simagx, tol)
		assert.InDelta(t, data.Sibdry, got.Sibdry, tol)
		assert.InDelta(t, data.Bcentr, got.Bcentr, tol)
		assert.InDelta(t, data.Cpasma, got.Cpasma, data.Cpasma*1e-9)

		assert.InDeltaSlice(t, data.Fpol, got.Fpol, tol)
		assert.InDeltaSlice(t, data.Pres, got.Pres, tol)
		assert.InDeltaSlice(t, data.FFprime, got.FFprime, tol)
		assert.InDeltaSlice(t, data.Pprime, got.Pprime, tol)
		assert.InDeltaSlice(t, data.Qpsi, got.Qpsi, tol)

		require.Len(t, got.Psi, dims.nz)
		for j := range data.Psi {
			assert.InDeltaSlice(t, data.Psi[j], got.Psi[j], tol)
		}

		assert.InDeltaSlice(t, data.Rbdry, got.Rbdry, tol)
		assert.InDeltaSlice(t, data.Zbdry, got.Zbdry, tol)
		assert.InDeltaSlice(t, data.Rlim, got.Rlim, tol)
		assert.InDeltaSlice(t, data.Zlim, got.Zlim, tol)
	}
}

func TestRoundTripNoContours(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	data := testData(9, 11, rng)
	data.Rbdry, data.Zbdry = nil, nil
	data.Rlim, data.Zlim = nil, nil
	// optional profiles written as zeros when absent
	data.FFprime, data.Pprime = nil, nil

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, data))

	got, err := Read(&buf)
	require.NoError(t, err)
	assert.Empty(t, got.Rbdry)
	assert.Empty(t, got.Rlim)
	assert.Equal(t, make([]float64, 9), got.FFprime)
	assert.Equal(t, make([]float64, 9), got.Pprime)
}

func TestWriteShapeMismatch(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	t.Run("profile length", func(t *testing.T) {
		data := testData(8, 8, rng)
		data.Pres = append(data.Pres, 1.0)

		err := Write(&bytes.Buffer{}, data)
		var shape *ShapeError
		require.ErrorAs(t, err, &shape)
		assert.Equal(t, "pres", shape.Name)
		assert.Equal(t, 8, shape.Want)
		assert.Equal(t, 9, shape.Got)
	})

	t.Run("psi rows", func(t *testing.T) {
		data := testData(8, 8, rng)
		data.Psi = data.Psi[:7]

		err := Write(&bytes.Buffer{}, data)
		var shape *ShapeError
		require.ErrorAs(t, err, &shape)
		assert.Equal(t, "psi", shape.Name)
	})

	t.Run("contour length", func(t *testing.T) {
		data := testData(8, 8, rng)
		data.Zbdry = data.Zbdry[:len(data.Zbdry)-1]

		err := Write(&bytes.Buffer{}, data)
		var shape *ShapeError
		require.ErrorAs(t, err, &shape)
	})
}

func TestReadTruncated(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	data := testData(10, 10, rng)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, data))

	cut := buf.String()
	cut = cut[:strings.LastIndex(cut[:len(cut)/2], "\n")+1]

	_, err := Read(strings.NewReader(cut))
	var truncated *fortio.TruncatedRecordError
	require.ErrorAs(t, err, &truncated)
}

func TestReadBadHeader(t *testing.T) {
	_, err := Read(strings.NewReader("not a geqdsk file\n"))
	require.Error(t, err)

	_, err = Read(strings.NewReader("CASE   3   0  12\n"))
	require.Error(t, err)
}

func TestHeaderLayout(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	data := testData(6, 7, rng)
	data.Comment = "EFITD   00/00/00   #000000  0ms"

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, data))

	header, err := buf.ReadString('\n')
	require.NoError(t, err)
	require.Len(t, header, 61) // 48 comment columns + three 4-wide ints + newline
	assert.Equal(t, "   6   7", header[52:60])
}
