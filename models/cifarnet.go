// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package models holds the reference classifier the trainer CLI trains.
package models

import (
	"fmt"

	"github.com/born-ml/born/nn"
	"github.com/born-ml/born/tensor"
)

// CIFARNet is a LeNet-5 style convolutional network for 3x224x224 images.
//
// Architecture:
//
//	Input: [batch, 3, 224, 224]
//	Conv1: 3 → 6 channels, 5x5 kernel -> [batch, 6, 220, 220]
//	ReLU
//	MaxPool: 2x2 -> [batch, 6, 110, 110]
//	Conv2: 6 → 16 channels, 5x5 kernel -> [batch, 16, 106, 106]
//	ReLU
//	MaxPool: 2x2 -> [batch, 16, 53, 53]
//	Flatten -> [batch, 44944]
//	FC1: 44944 → 120
//	ReLU
//	FC2: 120 → 84
//	ReLU
//	FC3: 84 → classes
type CIFARNet[B tensor.Backend] struct {
	conv1 *nn.Conv2D[B]
	relu1 *nn.ReLU[B]
	pool1 *nn.MaxPool2D[B]
	conv2 *nn.Conv2D[B]
	relu2 *nn.ReLU[B]
	pool2 *nn.MaxPool2D[B]
	fc1   *nn.Linear[B]
	relu3 *nn.ReLU[B]
	fc2   *nn.Linear[B]
	relu4 *nn.ReLU[B]
	fc3   *nn.Linear[B]

	inputSize int
	flat      int
	classes   int
}

// NewCIFARNet creates the network for square inputs of inputSize pixels.
func NewCIFARNet[B tensor.Backend](inputSize, classes int, backend B) (*CIFARNet[B], error) {
	conv1 := nn.NewConv2D(3, 6, 5, 5, 1, 0, true, backend)
	pool1 := nn.NewMaxPool2D(2, 2, backend)
	conv2 := nn.NewConv2D(6, 16, 5, 5, 1, 0, true, backend)
	pool2 := nn.NewMaxPool2D(2, 2, backend)

	size := conv1.ComputeOutputSize(inputSize, inputSize)
	size = pool1.ComputeOutputSize(size[0], size[1])
	size = conv2.ComputeOutputSize(size[0], size[1])
	size = pool2.ComputeOutputSize(size[0], size[1])
	if size[0] <= 0 || size[1] <= 0 {
		return nil, fmt.Errorf("models: input size %d too small for CIFARNet", inputSize)
	}
	flat := 16 * size[0] * size[1]

	return &CIFARNet[B]{
		conv1: conv1,
		relu1: nn.NewReLU[B](),
		pool1: pool1,
		conv2: conv2,
		relu2: nn.NewReLU[B](),
		pool2: pool2,
		fc1:   nn.NewLinear(flat, 120, backend),
		relu3: nn.NewReLU[B](),
		fc2:   nn.NewLinear(120, 84, backend),
		relu4: nn.NewReLU[B](),
		fc3:   nn.NewLinear(84, classes, backend),

		inputSize: inputSize,
		flat:      flat,
		classes:   classes,
	}, nil
}

// Forward maps [batch, 3, size, size] images to [batch, classes] logits.
func (m *CIFARNet[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) != 4 || shape[1] != 3 || shape[2] != m.inputSize || shape[3] != m.inputSize {
		panic(fmt.Sprintf("CIFARNet: expected [batch, 3, %d, %d] input, got %v", m.inputSize, m.inputSize, shape))
	}

	x := m.conv1.Forward(input)
	x = m.relu1.Forward(x)
	x = m.pool1.Forward(x)

	x = m.conv2.Forward(x)
	x = m.relu2.Forward(x)
	x = m.pool2.Forward(x)

	x = x.Reshape(shape[0], m.flat)

	x = m.fc1.Forward(x)
	x = m.relu3.Forward(x)
	x = m.fc2.Forward(x)
	x = m.relu4.Forward(x)
	return m.fc3.Forward(x)
}

// Parameters returns all trainable parameters.
func (m *CIFARNet[B]) Parameters() []*nn.Parameter[B] {
	params := make([]*nn.Parameter[B], 0, 10)
	params = append(params, m.conv1.Parameters()...)
	params = append(params, m.conv2.Parameters()...)
	params = append(params, m.fc1.Parameters()...)
	params = append(params, m.fc2.Parameters()...)
	params = append(params, m.fc3.Parameters()...)
	return params
}

// NumParameters counts the scalar weights of the network.
func (m *CIFARNet[B]) NumParameters() int {
	total := 0
	for _, p := range m.Parameters() {
		total += p.Tensor().Shape().NumElements()
	}
	return total
}

// String returns a string representation of the model architecture.
func (m *CIFARNet[B]) String() string {
	return fmt.Sprintf(`CIFARNet(
  %s
  ReLU()
  %s
  %s
  ReLU()
  %s
  Linear(in=%d, out=120)
  ReLU()
  Linear(in=120, out=84)
  ReLU()
  Linear(in=84, out=%d)
)`,
		m.conv1.String(),
		m.pool1.String(),
		m.conv2.String(),
		m.pool2.String(),
		m.flat,
		m.classes,
	)
}
