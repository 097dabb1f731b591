// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package train

import (
	"fmt"
	"io"

	"github.com/born-ml/born/tensor"
)

// Batch is a mini-batch held in host memory.
//
// Inputs is row-major with the batch dimension first; Shape describes it,
// so Shape[0] == len(Labels). The loop copies a batch onto the device
// right before the forward pass.
type Batch struct {
	Inputs []float32
	Shape  tensor.Shape
	Labels []int32
}

// Size returns the number of samples in the batch.
func (b *Batch) Size() int {
	return len(b.Labels)
}

// Validate checks that inputs, shape and labels agree.
func (b *Batch) Validate() error {
	if len(b.Shape) == 0 {
		return fmt.Errorf("batch: empty shape")
	}
	if b.Shape[0] != len(b.Labels) {
		return fmt.Errorf("batch: shape %v has %d rows, got %d labels", b.Shape, b.Shape[0], len(b.Labels))
	}
	if n := b.Shape.NumElements(); n != len(b.Inputs) {
		return fmt.Errorf("batch: shape %v needs %d values, got %d", b.Shape, n, len(b.Inputs))
	}
	return nil
}

// Loader yields the batches of one pass over a dataset.
//
// Next returns io.EOF once the pass is exhausted. Reset rewinds to the
// start of a new pass and may reshuffle.
type Loader interface {
	Len() int
	Reset()
	Next() (*Batch, error)
}

// StaticLoader replays a fixed list of batches in order.
type StaticLoader struct {
	batches []*Batch
	pos     int
}

// NewStaticLoader returns a loader over already materialized batches.
func NewStaticLoader(batches ...*Batch) *StaticLoader {
	return &StaticLoader{batches: batches}
}

// Len returns the number of batches.
func (l *StaticLoader) Len() int { return len(l.batches) }

// Reset rewinds to the first batch.
func (l *StaticLoader) Reset() { l.pos = 0 }

// Next returns the next batch or io.EOF.
func (l *StaticLoader) Next() (*Batch, error) {
	if l.pos >= len(l.batches) {
		return nil, io.EOF
	}
	b := l.batches[l.pos]
	l.pos++
	return b, nil
}
