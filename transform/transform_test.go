package transform

import (
	"testing"

	"github.com/born-ml/born/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromBytes(t *testing.T) {
	img, err := FromBytes([]byte{0, 128, 255, 1}, 1, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 128, 255, 1}, img.Pix)
	assert.Equal(t, tensor.Shape{1, 2, 2}, img.Shape())

	_, err = FromBytes([]byte{1, 2, 3}, 1, 2, 2)
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestResize_Constant(t *testing.T) {
	img := Image{Channels: 2, Height: 2, Width: 3, Pix: []float32{
		7, 7, 7, 7, 7, 7,
		9, 9, 9, 9, 9, 9,
	}}
	out, err := Resize(5, 4).Apply(img)
	require.NoError(t, err)

	assert.Equal(t, tensor.Shape{2, 5, 4}, out.Shape())
	for i, v := range out.Pix {
		want := float32(7)
		if i >= 20 {
			want = 9
		}
		assert.InDelta(t, want, v, 1e-6)
	}
}

func TestResize_UpscaleInterpolates(t *testing.T) {
	// One row, two columns: 0 and 100. Doubling the width puts the outer
	// outputs on the clamped border and the inner ones a quarter of the way in.
	img := Image{Channels: 1, Height: 1, Width: 2, Pix: []float32{0, 100}}
	out, err := Resize(1, 4).Apply(img)
	require.NoError(t, err)

	assert.Equal(t, []float32{0, 25, 75, 100}, out.Pix)
}

func TestResize_Identity(t *testing.T) {
	img := Image{Channels: 1, Height: 2, Width: 2, Pix: []float32{1, 2, 3, 4}}
	out, err := Resize(2, 2).Apply(img)
	require.NoError(t, err)
	assert.Equal(t, img.Pix, out.Pix)

	out.Pix[0] = 99
	assert.Equal(t, float32(1), img.Pix[0], "output owns its pixels")
}

func TestResize_RoundsToIntensities(t *testing.T) {
	// Three channels with distinct ramps; every resized value is an
	// integer intensity and channels stay separate.
	img := Image{Channels: 3, Height: 1, Width: 2, Pix: []float32{
		0, 255,
		10, 10,
		200, 0,
	}}
	out, err := Resize(1, 3).Apply(img)
	require.NoError(t, err)
	require.Equal(t, tensor.Shape{3, 1, 3}, out.Shape())

	for _, v := range out.Pix {
		assert.Equal(t, float32(int(v)), v)
	}
	assert.Equal(t, []float32{10, 10, 10}, out.Pix[3:6])
	assert.Equal(t, float32(0), out.Pix[0])
	assert.Equal(t, float32(255), out.Pix[2])
	assert.Equal(t, float32(200), out.Pix[6])
	assert.Equal(t, float32(0), out.Pix[8])
}

func TestResize_ClampsOutOfRange(t *testing.T) {
	img := Image{Channels: 1, Height: 1, Width: 1, Pix: []float32{300}}
	out, err := Resize(2, 2).Apply(img)
	require.NoError(t, err)
	assert.Equal(t, []float32{255, 255, 255, 255}, out.Pix)
}

func TestResize_Errors(t *testing.T) {
	_, err := Resize(0, 4).Apply(Image{Channels: 1, Height: 1, Width: 1, Pix: []float32{1}})
	assert.ErrorIs(t, err, ErrSize)

	_, err = Resize(2, 2).Apply(Image{Channels: 1, Height: 2, Width: 2, Pix: []float32{1}})
	assert.ErrorIs(t, err, ErrInvalidImage)

	_, err = Resize(2, 2).Apply(Image{Channels: 4, Height: 1, Width: 1, Pix: []float32{1, 2, 3, 4}})
	assert.ErrorIs(t, err, ErrChannels)
}

func TestToTensor(t *testing.T) {
	img := Image{Channels: 1, Height: 1, Width: 3, Pix: []float32{0, 51, 255}}
	out, err := ToTensor().Apply(img)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0, 0.2, 1}, out.Pix, 1e-6)
	assert.Equal(t, []float32{0, 51, 255}, img.Pix, "input is not modified")
}

func TestNormalize(t *testing.T) {
	img := Image{Channels: 2, Height: 1, Width: 2, Pix: []float32{0, 1, 0.5, 1}}
	out, err := Normalize([]float32{0.5, 0}, []float32{0.5, 2}).Apply(img)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{-1, 1, 0.25, 0.5}, out.Pix, 1e-6)

	_, err = Normalize([]float32{0.5}, []float32{0.5}).Apply(img)
	assert.ErrorIs(t, err, ErrChannels)

	_, err = Normalize([]float32{0, 0}, []float32{1, 0}).Apply(img)
	assert.ErrorIs(t, err, ErrZeroStd)
}

func TestCompose_StopsOnError(t *testing.T) {
	calls := 0
	count := Func(func(img Image) (Image, error) {
		calls++
		return img, nil
	})
	pipeline := Compose(count, Normalize([]float32{1}, []float32{0}), count)

	_, err := pipeline.Apply(Image{Channels: 1, Height: 1, Width: 1, Pix: []float32{1}})
	assert.ErrorIs(t, err, ErrZeroStd)
	assert.Equal(t, 1, calls)
}

func TestCIFAR(t *testing.T) {
	pix := make([]byte, 3*32*32)
	for i := range pix {
		pix[i] = byte(i % 256)
	}
	img, err := FromBytes(pix, 3, 32, 32)
	require.NoError(t, err)

	out, err := CIFAR().Apply(img)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{3, CIFARSize, CIFARSize}, out.Shape())
	lo, hi := out.Pix[0], out.Pix[0]
	for _, v := range out.Pix {
		lo, hi = min(lo, v), max(hi, v)
	}
	assert.GreaterOrEqual(t, lo, float32(-1))
	assert.LessOrEqual(t, hi, float32(1))
}
