// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package data

import (
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/born-ml/born/tensor"
	"github.com/born-ml/trainer/train"
)

// Config holds configuration for Loader.
type Config struct {
	BatchSize int
	Shuffle   bool
	Seed      uint64 // 0 picks a random seed
}

// Loader batches a Dataset. It implements train.Loader.
//
// The last batch of a pass may be smaller than BatchSize. With Shuffle set
// every Reset draws a new sample order.
type Loader struct {
	dataset   Dataset
	batchSize int
	shuffle   bool
	rng       *rand.Rand
	indices   []int
	position  int
}

var _ train.Loader = (*Loader)(nil)

// NewLoader creates a loader over ds.
func NewLoader(ds Dataset, cfg Config) (*Loader, error) {
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrBatchSize, cfg.BatchSize)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	indices := make([]int, ds.Len())
	for i := range indices {
		indices[i] = i
	}

	l := &Loader{
		dataset:   ds,
		batchSize: cfg.BatchSize,
		shuffle:   cfg.Shuffle,
		rng:       rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		indices:   indices,
	}
	l.Reset()
	return l, nil
}

// Len returns the number of batches in one pass.
func (l *Loader) Len() int {
	return (len(l.indices) + l.batchSize - 1) / l.batchSize
}

// Reset rewinds the loader and reshuffles when configured to.
func (l *Loader) Reset() {
	l.position = 0
	if l.shuffle {
		l.rng.Shuffle(len(l.indices), func(i, j int) {
			l.indices[i], l.indices[j] = l.indices[j], l.indices[i]
		})
	}
}

// Next loads the next batch. It returns io.EOF when the pass is done.
func (l *Loader) Next() (*train.Batch, error) {
	remaining := len(l.indices) - l.position
	if remaining <= 0 {
		return nil, io.EOF
	}
	size := min(l.batchSize, remaining)

	var (
		inputs  []float32
		labels  = make([]int32, size)
		shape   tensor.Shape
		perItem int
	)
	for i := 0; i < size; i++ {
		idx := l.indices[l.position+i]
		s, err := l.dataset.Item(idx)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", idx, err)
		}

		if i == 0 {
			shape = s.Shape.Clone()
			perItem = shape.NumElements()
			inputs = make([]float32, size*perItem)
		} else if !s.Shape.Equal(shape) {
			return nil, fmt.Errorf("%w: sample %d has %v, batch has %v", ErrShapeMismatch, idx, s.Shape, shape)
		}
		if len(s.Data) != perItem {
			return nil, fmt.Errorf("%w: sample %d has %d values for shape %v", ErrShapeMismatch, idx, len(s.Data), shape)
		}

		copy(inputs[i*perItem:(i+1)*perItem], s.Data)
		labels[i] = s.Label
	}
	l.position += size

	return &train.Batch{
		Inputs: inputs,
		Shape:  append(tensor.Shape{size}, shape...),
		Labels: labels,
	}, nil
}
