// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cifar wires the train loop to CIFAR-10 with a fixed
// preprocessing pipeline.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	model, _ := models.NewCIFARNet(transform.CIFARSize, cifar10.NumClasses, backend)
//	opt := optim.NewSGD(model.Parameters(), optim.SGDConfig{LR: 0.01, Momentum: 0.9}, backend)
//
//	res, err := cifar.TrainCIFAR(ctx, model, 10, opt, backend, cifar.Options{Verbose: true})
package cifar

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/born-ml/born/autodiff"
	"github.com/born-ml/born/nn"
	"github.com/born-ml/born/optim"
	"github.com/born-ml/born/tensor"

	"github.com/born-ml/trainer/data"
	"github.com/born-ml/trainer/dataset/cifar10"
	"github.com/born-ml/trainer/train"
	"github.com/born-ml/trainer/transform"
)

// Defaults used when Options leaves a field zero.
const (
	DefaultRoot      = "../data/"
	DefaultBatchSize = 32
)

// Options tune TrainCIFAR.
type Options struct {
	Root         string              // dataset directory; DefaultRoot when empty
	BatchSize    int                 // DefaultBatchSize when zero
	SkipDownload bool                // fail instead of fetching missing files
	MaxSamples   int                 // per split, 0 = all
	Seed         uint64              // shuffle seed, 0 = random
	Verbose      bool                // also prints the size and class balance of each split
	Output       io.Writer           // defaults to os.Stdout
	Downloader   *cifar10.Downloader // nil uses the official archive
}

func (o Options) withDefaults() Options {
	if o.Output == nil {
		o.Output = os.Stdout
	}
	if o.Root == "" {
		o.Root = DefaultRoot
	}
	if o.BatchSize == 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.Downloader == nil {
		o.Downloader = &cifar10.Downloader{Output: o.Output}
	}
	return o
}

// Preprocess adapts a transform to the data package, producing samples
// shaped [C, H, W].
func Preprocess(t transform.Transform) func(transform.Image) (data.Sample, error) {
	return func(img transform.Image) (data.Sample, error) {
		out, err := t.Apply(img)
		if err != nil {
			return data.Sample{}, err
		}
		return data.Sample{Data: out.Pix, Shape: out.Shape()}, nil
	}
}

// Loaders builds shuffled train and test loaders over CIFAR-10 with the
// fixed pipeline of transform.CIFAR.
func Loaders(ctx context.Context, o Options) (trainLoader, testLoader *data.Loader, err error) {
	o = o.withDefaults()

	if !o.SkipDownload {
		if err := o.Downloader.Fetch(ctx, o.Root); err != nil {
			return nil, nil, fmt.Errorf("cifar: %w", err)
		}
	}

	trainSet, err := cifar10.Load(o.Root, true, o.MaxSamples)
	if err != nil {
		return nil, nil, fmt.Errorf("cifar: train split: %w", err)
	}
	testSet, err := cifar10.Load(o.Root, false, o.MaxSamples)
	if err != nil {
		return nil, nil, fmt.Errorf("cifar: test split: %w", err)
	}

	if o.Verbose {
		describeSplit(o.Output, "Train", trainSet)
		describeSplit(o.Output, "Test", testSet)
	}

	pipeline := Preprocess(transform.CIFAR())

	trainLoader, err = data.NewLoader(
		data.Apply[transform.Image](trainSet, pipeline),
		data.Config{BatchSize: o.BatchSize, Shuffle: true, Seed: o.Seed},
	)
	if err != nil {
		return nil, nil, err
	}

	testSeed := o.Seed
	if testSeed != 0 {
		testSeed++
	}
	testLoader, err = data.NewLoader(
		data.Apply[transform.Image](testSet, pipeline),
		data.Config{BatchSize: o.BatchSize, Shuffle: true, Seed: testSeed},
	)
	if err != nil {
		return nil, nil, err
	}
	return trainLoader, testLoader, nil
}

// describeSplit prints one line with the split size and per-class counts.
func describeSplit(w io.Writer, name string, ds *cifar10.Dataset) {
	counts := ds.ClassCounts()
	parts := make([]string, len(counts))
	for c, n := range counts {
		parts[c] = fmt.Sprintf("%s %d", cifar10.Classes[c], n)
	}
	fmt.Fprintf(w, "%s split: %d images (%s)\n", name, ds.Len(), strings.Join(parts, ", "))
}

// TrainCIFAR trains model on CIFAR-10 for epochs epochs with cross-entropy
// loss, evaluating on the test split after every epoch.
//
// model and optimizer must be built on device. Images reach the model as
// [batch, 3, 224, 224] tensors normalized to [-1, 1].
func TrainCIFAR[B tensor.Backend](
	ctx context.Context,
	model train.Model[*autodiff.Backend[B]],
	epochs int,
	optimizer optim.Optimizer,
	device *autodiff.Backend[B],
	o Options,
) (*train.Result, error) {
	if epochs <= 0 {
		return nil, fmt.Errorf("%w: got %d", train.ErrNoEpochs, epochs)
	}

	trainLoader, testLoader, err := Loaders(ctx, o)
	if err != nil {
		return nil, err
	}

	return train.Fit(ctx, &train.Config[B]{
		Model:     model,
		Criterion: nn.NewCrossEntropyLoss(device),
		Optimizer: optimizer,
		Device:    device,
		Train:     trainLoader,
		Test:      testLoader,
		Epochs:    epochs,
		Verbose:   o.Verbose,
		Output:    o.Output,
	})
}
