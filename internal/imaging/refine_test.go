package imaging

import (
	"math"
	"math/rand"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func squareMask() *Mask {
	return maskFromRows(
		"..........",
		"..........",
		"..........",
		"...####...",
		"...####...",
		"...####...",
		"...####...",
		"..........",
		"..........",
		"..........",
	)
}

func randomMask(seed int64, w, h int) *Mask {
	rng := rand.New(rand.NewSource(seed))
	m := NewMask(w, h, 0)
	for i := range m.Pix {
		if rng.Intn(10) < 7 {
			m.Pix[i] = 255
		}
	}
	return m
}

func TestChoke_Zero(t *testing.T) {
	m := squareMask()
	out, err := Choke(m, 0)
	require.NoError(t, err)
	assert.Equal(t, m.Pix, out.Pix)

	out.Pix[0] = 7
	assert.Equal(t, uint8(0), m.Pix[0], "result must not alias the input")
}

func TestChoke_ShrinksSquare(t *testing.T) {
	out, err := Choke(squareMask(), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"..........",
		"..........",
		"..........",
		"..........",
		"....##....",
		"....##....",
		"..........",
		"..........",
		"..........",
		"..........",
	}, maskRows(out))
}

func TestChoke_SquareSmallerThanElementVanishes(t *testing.T) {
	out, err := Choke(squareMask(), 2)
	require.NoError(t, err)
	assert.Equal(t, 100, out.Stats().TransparentPixels)

	three := maskFromRows(
		".....",
		".###.",
		".###.",
		".###.",
		".....",
	)
	out, err = Choke(three, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{
		".....",
		".....",
		"..#..",
		".....",
		".....",
	}, maskRows(out))
}

func TestChoke_BorderIsReplicated(t *testing.T) {
	full := NewMask(6, 4, 255)
	out, err := Choke(full, 3)
	require.NoError(t, err)
	assert.Equal(t, full.Pix, out.Pix)

	edge := maskFromRows(
		"##...",
		"##...",
		"##...",
	)
	out, err = Choke(edge, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"#....",
		"#....",
		"#....",
	}, maskRows(out))
}

func TestChoke_Monotonic(t *testing.T) {
	m := randomMask(1, 40, 30)

	prev := m
	for k := 1; k <= 4; k++ {
		out, err := Choke(m, k)
		require.NoError(t, err)
		for i, v := range out.Pix {
			if v == 255 {
				require.Equal(t, uint8(255), prev.Pix[i], "choke %d kept pixel %d removed by choke %d", k, i, k-1)
			}
		}
		prev = out
	}
}

func TestChoke_Negative(t *testing.T) {
	_, err := Choke(squareMask(), -1)
	assert.True(t, errors.Is(err, ErrInvalidParameter))
}

func TestFeather_Zero(t *testing.T) {
	m := squareMask()
	out, err := Feather(m, 0)
	require.NoError(t, err)
	assert.Equal(t, m.Pix, out.Pix)
	assert.NotSame(t, m, out)
}

func TestFeather_ConstantMaskUnchanged(t *testing.T) {
	for _, fill := range []uint8{0, 128, 255} {
		for _, px := range []int{1, 2, 3, 5, 10} {
			m := NewMask(10, 7, fill)
			out, err := Feather(m, px)
			require.NoError(t, err)
			assert.Equal(t, m.Pix, out.Pix, "fill %d feather %d", fill, px)
		}
	}
}

func TestFeather_StepEdge(t *testing.T) {
	m := maskFromRows("..###")
	out, err := Feather(m, 1)
	require.NoError(t, err)
	// [1 2 1]/4 across the edge; the single row reflects onto itself vertically.
	// 63.75 and 191.25 truncate.
	assert.Equal(t, []uint8{0, 63, 191, 255, 255}, out.Pix)
}

func TestFeather_TruncatesFractions(t *testing.T) {
	// a lone opaque pixel under [1 4 6 4 1]/16 in both directions:
	// the center gets 255*36/256 = 35.86, its neighbours 255*24/256 = 23.9
	m := maskFromRows(
		".....",
		".....",
		"..#..",
		".....",
		".....",
	)
	out, err := Feather(m, 2)
	require.NoError(t, err)

	assert.Equal(t, uint8(35), out.At(2, 2))
	assert.Equal(t, uint8(23), out.At(1, 2))
	assert.Equal(t, uint8(23), out.At(2, 3))
	// reflect-101 folds the pixel onto the corner twice per axis: 255*4/256 = 3.98
	assert.Equal(t, uint8(3), out.At(0, 0))
}

func TestFeather_SoftensSquare(t *testing.T) {
	out, err := Feather(squareMask(), 2)
	require.NoError(t, err)

	for _, p := range [][2]int{{3, 3}, {3, 5}, {6, 4}, {2, 4}, {7, 5}} {
		v := out.At(p[0], p[1])
		assert.True(t, v > 0 && v < 255, "pixel %v = %d should be partial", p, v)
	}
	for _, p := range [][2]int{{0, 0}, {9, 9}, {0, 9}, {9, 0}, {4, 0}} {
		assert.Equal(t, uint8(0), out.At(p[0], p[1]), "pixel %v", p)
	}
}

func TestFeather_Symmetric(t *testing.T) {
	out, err := Feather(squareMask(), 3)
	require.NoError(t, err)
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			assert.Equal(t, out.At(x, y), out.At(y, x), "(%d,%d)", x, y)
		}
	}
}

func TestFeather_Negative(t *testing.T) {
	_, err := Feather(squareMask(), -2)
	assert.True(t, errors.Is(err, ErrInvalidParameter))
}

func TestRefine_ChokeThenFeather(t *testing.T) {
	m := randomMask(7, 25, 25)

	choked, err := Choke(m, 2)
	require.NoError(t, err)
	want, err := Feather(choked, 3)
	require.NoError(t, err)

	got, err := Refine(m, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, want.Pix, got.Pix)
}

func TestGaussianKernel(t *testing.T) {
	assert.Equal(t, []float64{1}, gaussianKernel(1))
	assert.Equal(t, []float64{0.25, 0.5, 0.25}, gaussianKernel(3))
	assert.Equal(t, []float64{1.0 / 16, 4.0 / 16, 6.0 / 16, 4.0 / 16, 1.0 / 16}, gaussianKernel(5))
	assert.Equal(t, []float64{2.0 / 64, 7.0 / 64, 14.0 / 64, 18.0 / 64, 14.0 / 64, 7.0 / 64, 2.0 / 64}, gaussianKernel(7))

	for _, k := range []int{9, 11, 21, 41} {
		kernel := gaussianKernel(k)
		require.Len(t, kernel, k)

		var sum float64
		for i, v := range kernel {
			sum += v
			assert.InDelta(t, v, kernel[k-1-i], 1e-15)
			if i > 0 && i <= k/2 {
				assert.Greater(t, v, kernel[i-1])
			}
		}
		assert.InDelta(t, 1.0, sum, 1e-12)
	}
}

func TestGaussianKernel_ReturnsCopy(t *testing.T) {
	k := gaussianKernel(3)
	k[0] = 99
	assert.Equal(t, 0.25, gaussianKernel(3)[0])
}

func TestGaussianSigma(t *testing.T) {
	assert.InDelta(t, 1.1, gaussianSigma(5), 1e-12)
	assert.InDelta(t, 1.7, gaussianSigma(9), 1e-12)
	assert.InDelta(t, 3.5, gaussianSigma(21), 1e-12)
}

func TestReflect101(t *testing.T) {
	tests := []struct {
		i, n, want int
	}{
		{0, 5, 0},
		{4, 5, 4},
		{-1, 5, 1},
		{-2, 5, 2},
		{5, 5, 3},
		{6, 5, 2},
		{-7, 5, 1},
		{12, 5, 4},
		{-3, 1, 0},
		{3, 1, 0},
		{-1, 2, 1},
		{2, 2, 0},
		{3, 2, 1},
	}

	for _, tt := range tests {
		got := reflect101(tt.i, tt.n)
		assert.Equal(t, tt.want, got, "reflect101(%d, %d)", tt.i, tt.n)
		assert.True(t, got >= 0 && got < tt.n)
	}
}

func TestFeather_LargeRadiusOnSmallMask(t *testing.T) {
	m := maskFromRows(
		"#..",
		"...",
	)
	out, err := Feather(m, 10)
	require.NoError(t, err)

	var total float64
	for _, v := range out.Pix {
		total += float64(v)
	}
	assert.False(t, math.IsNaN(total))
	assert.Equal(t, 6, len(out.Pix))
}
