// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package train provides a generic supervised training loop for Born models.
//
// # Overview
//
// The package contains:
//   - Fit: epochs of training passes with optional evaluation passes
//   - RunPass: a single pass over a Loader in training or evaluation mode
//   - Top1, Predict: top-1 accuracy on host-side predictions
//   - Tracker: minimum test loss and maximum top-1 accuracy across epochs
//   - Loader, Batch: the host-side batch source the loop consumes
//
// # Basic Usage
//
//	backend := autodiff.New(cpu.New())
//	model := nn.NewSequential(
//	    nn.NewLinear(784, 128, backend),
//	    nn.NewReLU[*autodiff.Backend[*cpu.Backend]](),
//	    nn.NewLinear(128, 10, backend),
//	)
//	opt := optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: 0.001}, backend)
//
//	res, err := train.Fit(ctx, &train.Config[*cpu.Backend]{
//	    Model:     model,
//	    Criterion: nn.NewCrossEntropyLoss(backend),
//	    Optimizer: opt,
//	    Device:    backend,
//	    Train:     trainLoader,
//	    Test:      testLoader,
//	    Epochs:    10,
//	    Verbose:   true,
//	})
//
// # Pass Semantics
//
// For every batch the loop copies inputs and labels onto the device, runs the
// forward pass, computes the loss and records the argmax prediction. Only in
// training mode does it then zero the gradients, backpropagate and step the
// optimizer. The per-batch losses are summed, not averaged, and top-1 accuracy
// is computed once over all predictions of the pass.
package train
