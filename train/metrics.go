// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package train

import (
	"fmt"
	"math"
)

// Predict returns the index of the largest score in every row of logits.
//
// logits is a row-major [rows, numClasses] buffer. Ties resolve to the
// lowest index, the same rule nn.Accuracy uses.
func Predict(logits []float32, numClasses int) []int32 {
	if numClasses <= 0 {
		return nil
	}
	rows := len(logits) / numClasses
	preds := make([]int32, rows)
	for r := 0; r < rows; r++ {
		row := logits[r*numClasses : (r+1)*numClasses]
		best := 0
		for c := 1; c < numClasses; c++ {
			if row[c] > row[best] {
				best = c
			}
		}
		preds[r] = int32(best)
	}
	return preds
}

// Top1 returns the fraction of predictions that exactly match their target.
func Top1(preds, targets []int32) (float64, error) {
	if len(preds) != len(targets) {
		return 0, fmt.Errorf("%w: %d predictions, %d targets", ErrLengthMismatch, len(preds), len(targets))
	}
	if len(preds) == 0 {
		return 0, ErrEmptyPass
	}

	correct := 0
	for i, p := range preds {
		if p == targets[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(preds)), nil
}

// Tracker keeps the best evaluation results seen across epochs.
//
// The zero value is not ready for use; call NewTracker.
type Tracker struct {
	minLoss float64
	maxTop1 float64
}

// NewTracker returns a tracker with minimum loss +Inf and maximum top-1 0.
func NewTracker() *Tracker {
	return &Tracker{minLoss: math.Inf(1)}
}

// Observe folds one evaluation result into the tracker.
func (t *Tracker) Observe(loss, top1 float64) {
	t.minLoss = math.Min(t.minLoss, loss)
	t.maxTop1 = math.Max(t.maxTop1, top1)
}

// MinLoss returns the smallest loss observed so far.
func (t *Tracker) MinLoss() float64 { return t.minLoss }

// MaxTop1 returns the largest top-1 accuracy observed so far.
func (t *Tracker) MaxTop1() float64 { return t.maxTop1 }

