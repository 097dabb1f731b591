// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package train

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/born-ml/born/autodiff"
	"github.com/born-ml/born/nn"
	"github.com/born-ml/born/optim"
	"github.com/born-ml/born/tensor"
)

// Model is a classifier mapping a batch of inputs to [batch, classes] logits.
//
// Every Born nn module satisfies it.
type Model[B tensor.Backend] interface {
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]
	Parameters() []*nn.Parameter[B]
}

// ModeSetter is implemented by models whose forward pass differs between
// training and evaluation. The loop calls SetTraining before every pass.
type ModeSetter interface {
	SetTraining(training bool)
}

// Criterion computes a scalar loss from logits and class-index targets.
//
// nn.CrossEntropyLoss satisfies it and records itself on the gradient tape
// when built on an autodiff backend.
type Criterion[B tensor.Backend] interface {
	Forward(logits *tensor.Tensor[float32, B], targets *tensor.Tensor[int32, B]) *tensor.Tensor[float32, B]
}

// Config wires the collaborators of a training run.
//
// Model and Criterion must be built on Device. Test is optional; without it
// Fit only trains and the reported minimum test loss stays +Inf.
type Config[B tensor.Backend] struct {
	Model     Model[*autodiff.Backend[B]]
	Criterion Criterion[*autodiff.Backend[B]]
	Optimizer optim.Optimizer
	Device    *autodiff.Backend[B]

	Train Loader
	Test  Loader

	Epochs  int
	Verbose bool
	Output  io.Writer // defaults to os.Stdout
}

func (c *Config[B]) validate() error {
	if c.Model == nil || c.Criterion == nil || c.Optimizer == nil || c.Device == nil {
		return ErrMissingPart
	}
	if c.Train == nil {
		return ErrNoTrainLoader
	}
	return nil
}

// PassResult summarizes one pass over a loader.
type PassResult struct {
	Loss    float64 // sum of the per-batch losses
	Top1    float64 // fraction of samples whose argmax matches the label
	Samples int
	Batches int
}

// EpochStats holds the results of one epoch. Test is nil when no test
// loader was configured.
type EpochStats struct {
	Epoch int
	Train PassResult
	Test  *PassResult
}

// Result is returned by Fit.
type Result struct {
	MinTestLoss float64
	MaxTop1     float64
	Epochs      []EpochStats
}

// Fit trains cfg.Model for cfg.Epochs epochs.
//
// Each epoch runs one training pass over cfg.Train and, when cfg.Test is
// set, one evaluation pass over it. The smallest test loss and largest test
// top-1 accuracy seen across epochs are printed at the end and returned.
func Fit[B tensor.Backend](ctx context.Context, cfg *Config[B]) (*Result, error) {
	if cfg.Epochs <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrNoEpochs, cfg.Epochs)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	rep := newReporter(cfg.Output, cfg.Verbose)
	tracker := NewTracker()
	result := &Result{
		MinTestLoss: tracker.MinLoss(),
		Epochs:      make([]EpochStats, 0, cfg.Epochs),
	}

	for e := 0; e < cfg.Epochs; e++ {
		rep.epoch(e, cfg.Epochs)

		trainRes, err := runPass(ctx, cfg, cfg.Train, true, rep)
		if err != nil {
			return nil, fmt.Errorf("epoch %d: training pass: %w", e, err)
		}
		stats := EpochStats{Epoch: e, Train: trainRes}

		if cfg.Test != nil {
			rep.testing()
			testRes, err := runPass(ctx, cfg, cfg.Test, false, rep)
			if err != nil {
				return nil, fmt.Errorf("epoch %d: test pass: %w", e, err)
			}
			tracker.Observe(testRes.Loss, testRes.Top1)
			stats.Test = &testRes
			rep.testResult(testRes)
		}

		result.Epochs = append(result.Epochs, stats)
		result.MinTestLoss = tracker.MinLoss()
		result.MaxTop1 = tracker.MaxTop1()
	}

	rep.summary(result.MinTestLoss, result.MaxTop1)
	return result, nil
}

// RunPass runs the model once over every batch of loader.
//
// In training mode each batch is followed by ZeroGrad, a backward pass
// through the gradient tape and an optimizer Step. In evaluation mode the
// tape stops recording for the whole pass and the optimizer is never
// touched, so parameters are left unchanged.
func RunPass[B tensor.Backend](ctx context.Context, cfg *Config[B], loader Loader, training bool) (PassResult, error) {
	if err := cfg.validate(); err != nil {
		return PassResult{}, err
	}
	return runPass(ctx, cfg, loader, training, newReporter(cfg.Output, cfg.Verbose))
}

func runPass[B tensor.Backend](
	ctx context.Context,
	cfg *Config[B],
	loader Loader,
	training bool,
	rep *reporter,
) (PassResult, error) {
	tape := cfg.Device.Tape()
	wasRecording := tape.IsRecording()
	tape.Clear()
	if training {
		tape.StartRecording()
	} else {
		tape.StopRecording()
	}
	defer func() {
		tape.Clear()
		if wasRecording {
			tape.StartRecording()
		} else {
			tape.StopRecording()
		}
	}()

	if m, ok := cfg.Model.(ModeSetter); ok {
		m.SetTraining(training)
	}

	loader.Reset()
	total := loader.Len()

	var (
		res     PassResult
		preds   []int32
		targets []int32
	)
	for i := 0; ; i++ {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("batch %d: %w", i, err)
		}

		batch, err := loader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("load batch %d: %w", i, err)
		}

		loss, batchPreds, err := step(cfg, batch, training)
		if err != nil {
			return res, fmt.Errorf("batch %d: %w", i, err)
		}

		res.Loss += loss
		res.Batches++
		preds = append(preds, batchPreds...)
		targets = append(targets, batch.Labels...)

		rep.iteration(i, total, loss)
	}

	top1, err := Top1(preds, targets)
	if err != nil {
		return res, err
	}
	res.Top1 = top1
	res.Samples = len(targets)
	return res, nil
}

// step pushes one batch through the model and returns its loss and the
// predicted class of every sample.
func step[B tensor.Backend](cfg *Config[B], batch *Batch, training bool) (float64, []int32, error) {
	if err := batch.Validate(); err != nil {
		return 0, nil, err
	}
	device := cfg.Device

	inputs, err := tensor.FromSlice(batch.Inputs, batch.Shape, device)
	if err != nil {
		return 0, nil, fmt.Errorf("copy inputs to %s: %w", device.Name(), err)
	}
	labels, err := tensor.FromSlice(batch.Labels, tensor.Shape{batch.Size()}, device)
	if err != nil {
		return 0, nil, fmt.Errorf("copy labels to %s: %w", device.Name(), err)
	}

	logits := cfg.Model.Forward(inputs)
	loss := cfg.Criterion.Forward(logits, labels)

	lossValue := float64(loss.Data()[0])
	if math.IsNaN(lossValue) || math.IsInf(lossValue, 0) {
		return 0, nil, fmt.Errorf("%w: %v", ErrNonFiniteLoss, lossValue)
	}

	shape := logits.Shape()
	if len(shape) != 2 || shape[0] != batch.Size() {
		return 0, nil, fmt.Errorf("logits shape %v, want [%d, classes]", shape, batch.Size())
	}
	preds := Predict(logits.Data(), shape[1])

	if training {
		cfg.Optimizer.ZeroGrad()

		outputGrad, err := tensor.NewRaw(loss.Shape(), loss.DType(), device.Device())
		if err != nil {
			return 0, nil, fmt.Errorf("allocate output gradient: %w", err)
		}
		outputGrad.AsFloat32()[0] = 1.0

		grads := device.Tape().Backward(outputGrad, device)
		cfg.Optimizer.Step(grads)
		device.Tape().Clear()
	}

	return lossValue, preds, nil
}
