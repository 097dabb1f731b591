// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package data turns indexed datasets into shuffled mini-batches for the
// train package.
//
// A Dataset hands out one preprocessed Sample at a time. Loader groups
// samples into train.Batch values lazily, so a dataset whose preprocessed
// form would not fit in memory can still be iterated. Apply bridges a raw
// source, such as decoded images, and a per-item preprocessing function.
package data

import (
	"errors"

	"github.com/born-ml/born/tensor"
)

// Common errors.
var (
	ErrBatchSize     = errors.New("data: batch size must be positive")
	ErrShapeMismatch = errors.New("data: samples in a batch must share one shape")
)

// Sample is one preprocessed example. Shape excludes the batch dimension.
type Sample struct {
	Data  []float32
	Shape tensor.Shape
	Label int32
}

// Dataset is an indexed collection of samples.
type Dataset interface {
	Len() int
	Item(i int) (Sample, error)
}

// Source is an indexed collection of raw, unprocessed items.
type Source[T any] interface {
	Len() int
	Get(i int) (item T, label int32, err error)
}

// Apply returns a Dataset that runs fn on each item of src when it is read.
//
// fn fills Data and Shape; the label always comes from src.
func Apply[T any](src Source[T], fn func(T) (Sample, error)) Dataset {
	return &mapped[T]{src: src, fn: fn}
}

type mapped[T any] struct {
	src Source[T]
	fn  func(T) (Sample, error)
}

func (m *mapped[T]) Len() int { return m.src.Len() }

func (m *mapped[T]) Item(i int) (Sample, error) {
	item, label, err := m.src.Get(i)
	if err != nil {
		return Sample{}, err
	}
	s, err := m.fn(item)
	if err != nil {
		return Sample{}, err
	}
	s.Label = label
	return s, nil
}
