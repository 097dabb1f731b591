// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package train

import "errors"

// Common errors.
var (
	ErrNoEpochs       = errors.New("train: epochs must be positive")
	ErrNoTrainLoader  = errors.New("train: training loader is required")
	ErrEmptyPass      = errors.New("train: pass produced no samples")
	ErrLengthMismatch = errors.New("train: predictions and targets differ in length")
	ErrNonFiniteLoss  = errors.New("train: loss is not finite")
	ErrMissingPart    = errors.New("train: model, criterion, optimizer and device are required")
)
