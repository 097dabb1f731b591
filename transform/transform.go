// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package transform implements the image preprocessing applied to samples
// before they are batched: resizing, scaling to [0, 1] and per-channel
// normalization.
//
// Images are kept in CHW layout (channels, height, width) throughout, the
// layout Born's Conv2D expects.
//
// Example:
//
//	pipeline := transform.Compose(
//	    transform.Resize(224, 224),
//	    transform.ToTensor(),
//	    transform.Normalize([]float32{0.5, 0.5, 0.5}, []float32{0.5, 0.5, 0.5}),
//	)
//	out, err := pipeline.Apply(img)
package transform

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/born-ml/born/tensor"
	"golang.org/x/image/draw"
)

// Common errors.
var (
	ErrInvalidImage = errors.New("transform: pixel count does not match dimensions")
	ErrChannels     = errors.New("transform: channel count mismatch")
	ErrZeroStd      = errors.New("transform: standard deviation must be non-zero")
	ErrSize         = errors.New("transform: target size must be positive")
)

// Image is a CHW image held in host memory.
//
// Before ToTensor the values are raw 8-bit intensities in [0, 255].
type Image struct {
	Channels int
	Height   int
	Width    int
	Pix      []float32
}

// FromBytes builds an Image from CHW 8-bit pixels.
func FromBytes(pix []byte, channels, height, width int) (Image, error) {
	img := Image{Channels: channels, Height: height, Width: width, Pix: make([]float32, len(pix))}
	for i, p := range pix {
		img.Pix[i] = float32(p)
	}
	return img, img.Validate()
}

// Shape returns the tensor shape of the image, [C, H, W].
func (img Image) Shape() tensor.Shape {
	return tensor.Shape{img.Channels, img.Height, img.Width}
}

// Validate checks that Pix matches the dimensions.
func (img Image) Validate() error {
	if img.Channels <= 0 || img.Height <= 0 || img.Width <= 0 {
		return fmt.Errorf("%w: %dx%dx%d", ErrInvalidImage, img.Channels, img.Height, img.Width)
	}
	if want := img.Channels * img.Height * img.Width; len(img.Pix) != want {
		return fmt.Errorf("%w: %d values, want %d", ErrInvalidImage, len(img.Pix), want)
	}
	return nil
}

// Transform maps one image to another.
type Transform interface {
	Apply(img Image) (Image, error)
}

// Func adapts a function to Transform.
type Func func(img Image) (Image, error)

// Apply calls f.
func (f Func) Apply(img Image) (Image, error) { return f(img) }

// Compose chains transforms, applying them left to right.
func Compose(ts ...Transform) Transform {
	return Func(func(img Image) (Image, error) {
		var err error
		for _, t := range ts {
			if img, err = t.Apply(img); err != nil {
				return Image{}, err
			}
		}
		return img, nil
	})
}

// Resize resamples the image to height x width with bilinear interpolation
// on 8-bit pixels, so values are rounded to [0, 255] integers before
// ToTensor. Images of up to three channels are supported.
//
// The result never shares Pix with the input.
func Resize(height, width int) Transform {
	return Func(func(img Image) (Image, error) {
		if height <= 0 || width <= 0 {
			return Image{}, fmt.Errorf("%w: %dx%d", ErrSize, height, width)
		}
		if err := img.Validate(); err != nil {
			return Image{}, err
		}
		if img.Channels > 3 {
			return Image{}, fmt.Errorf("%w: resize handles at most 3 channels, got %d", ErrChannels, img.Channels)
		}
		if img.Height == height && img.Width == width {
			out := img
			out.Pix = append([]float32(nil), img.Pix...)
			return out, nil
		}

		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.BiLinear.Scale(dst, dst.Bounds(), toRGBA(img), image.Rect(0, 0, img.Width, img.Height), draw.Src, nil)
		return fromRGBA(dst, img.Channels), nil
	})
}

// toRGBA packs CHW intensities into an opaque RGBA image. Missing channels
// repeat channel 0.
func toRGBA(img Image) *image.RGBA {
	rgba := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	plane := img.Height * img.Width
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			off := rgba.PixOffset(x, y)
			for c := 0; c < 3; c++ {
				src := c
				if src >= img.Channels {
					src = 0
				}
				rgba.Pix[off+c] = toByte(img.Pix[src*plane+y*img.Width+x])
			}
			rgba.Pix[off+3] = 0xff
		}
	}
	return rgba
}

func fromRGBA(rgba *image.RGBA, channels int) Image {
	b := rgba.Bounds()
	out := Image{
		Channels: channels,
		Height:   b.Dy(),
		Width:    b.Dx(),
		Pix:      make([]float32, channels*b.Dy()*b.Dx()),
	}
	plane := out.Height * out.Width
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			off := rgba.PixOffset(x, y)
			for c := 0; c < channels; c++ {
				out.Pix[c*plane+y*out.Width+x] = float32(rgba.Pix[off+c])
			}
		}
	}
	return out
}

func toByte(v float32) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(255, float64(v)))))
}

// ToTensor scales 8-bit intensities to [0, 1].
func ToTensor() Transform {
	return Func(func(img Image) (Image, error) {
		if err := img.Validate(); err != nil {
			return Image{}, err
		}
		out := img
		out.Pix = make([]float32, len(img.Pix))
		for i, v := range img.Pix {
			out.Pix[i] = v / 255
		}
		return out, nil
	})
}

// Normalize maps every channel c to (x - mean[c]) / std[c].
func Normalize(mean, std []float32) Transform {
	return Func(func(img Image) (Image, error) {
		if err := img.Validate(); err != nil {
			return Image{}, err
		}
		if len(mean) != img.Channels || len(std) != img.Channels {
			return Image{}, fmt.Errorf("%w: image has %d, mean %d, std %d",
				ErrChannels, img.Channels, len(mean), len(std))
		}
		for _, s := range std {
			if s == 0 {
				return Image{}, ErrZeroStd
			}
		}

		out := img
		out.Pix = make([]float32, len(img.Pix))
		plane := img.Height * img.Width
		for c := 0; c < img.Channels; c++ {
			for i := c * plane; i < (c+1)*plane; i++ {
				out.Pix[i] = (img.Pix[i] - mean[c]) / std[c]
			}
		}
		return out, nil
	})
}

// CIFAR input geometry after preprocessing.
const (
	CIFARSize     = 224
	CIFARChannels = 3
)

// CIFAR returns the fixed CIFAR-10 pipeline: resize to 224x224, scale to
// [0, 1], then normalize each channel with mean 0.5 and std 0.5 so values
// land in [-1, 1].
func CIFAR() Transform {
	half := []float32{0.5, 0.5, 0.5}
	return Compose(
		Resize(CIFARSize, CIFARSize),
		ToTensor(),
		Normalize(half, half),
	)
}
