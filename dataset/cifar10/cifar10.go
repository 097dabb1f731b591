// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cifar10 reads the CIFAR-10 image classification dataset in its
// binary distribution format and can download it on first use.
//
// Binary format, one record per image:
//
//	label: 1 byte (0-9)
//	red:   1024 bytes (32x32, row-major)
//	green: 1024 bytes
//	blue:  1024 bytes
//
// The training set is split over data_batch_1.bin ... data_batch_5.bin
// (10,000 records each) and the test set is test_batch.bin, all inside the
// cifar-10-batches-bin directory of the archive.
//
// Download from: https://www.cs.toronto.edu/~kriz/cifar.html
package cifar10

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/born-ml/trainer/data"
	"github.com/born-ml/trainer/transform"
)

// Image geometry and record layout.
const (
	Height     = 32
	Width      = 32
	Channels   = 3
	NumClasses = 10

	imageBytes  = Channels * Height * Width
	recordBytes = 1 + imageBytes
)

// BatchDir is the directory the archive extracts to.
const BatchDir = "cifar-10-batches-bin"

// Classes holds the class name for every label.
var Classes = [NumClasses]string{
	"airplane", "automobile", "bird", "cat", "deer",
	"dog", "frog", "horse", "ship", "truck",
}

// TrainFiles and TestFiles list the batch files of each split.
var (
	TrainFiles = []string{
		"data_batch_1.bin",
		"data_batch_2.bin",
		"data_batch_3.bin",
		"data_batch_4.bin",
		"data_batch_5.bin",
	}
	TestFiles = []string{"test_batch.bin"}
)

// Common errors.
var (
	ErrTruncated = errors.New("cifar10: truncated record")
	ErrLabel     = errors.New("cifar10: label out of range [0, 9]")
	ErrIndex     = errors.New("cifar10: index out of range")
)

// Dataset holds decoded CIFAR-10 images in CHW byte layout.
type Dataset struct {
	images [][]byte
	labels []uint8
}

var _ data.Source[transform.Image] = (*Dataset)(nil)

// Load reads the train or test split from root/cifar-10-batches-bin.
//
// maxSamples limits how many records are kept (0 = all).
func Load(root string, train bool, maxSamples int) (*Dataset, error) {
	files := TestFiles
	if train {
		files = TrainFiles
	}

	ds := &Dataset{}
	for _, name := range files {
		path := filepath.Join(root, BatchDir, name)
		if err := ds.readFile(path); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", name, err)
		}
		if maxSamples > 0 && ds.Len() >= maxSamples {
			ds.images = ds.images[:maxSamples]
			ds.labels = ds.labels[:maxSamples]
			break
		}
	}
	return ds, nil
}

func (d *Dataset) readFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	images, labels, err := ReadBatch(file)
	if err != nil {
		return err
	}
	d.images = append(d.images, images...)
	d.labels = append(d.labels, labels...)
	return nil
}

// ReadBatch decodes records from r until EOF.
func ReadBatch(r io.Reader) ([][]byte, []uint8, error) {
	var (
		images [][]byte
		labels []uint8
		record = make([]byte, recordBytes)
	)
	for i := 0; ; i++ {
		_, err := io.ReadFull(r, record)
		if errors.Is(err, io.EOF) {
			return images, labels, nil
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, nil, fmt.Errorf("%w: record %d", ErrTruncated, i)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read record %d: %w", i, err)
		}

		if record[0] >= NumClasses {
			return nil, nil, fmt.Errorf("%w: record %d has %d", ErrLabel, i, record[0])
		}
		labels = append(labels, record[0])
		images = append(images, append([]byte(nil), record[1:]...))
	}
}

// Len returns the number of images.
func (d *Dataset) Len() int {
	return len(d.images)
}

// Get returns image i as a 32x32 RGB image with values in [0, 255].
func (d *Dataset) Get(i int) (transform.Image, int32, error) {
	if i < 0 || i >= len(d.images) {
		return transform.Image{}, 0, fmt.Errorf("%w: %d of %d", ErrIndex, i, len(d.images))
	}
	img, err := transform.FromBytes(d.images[i], Channels, Height, Width)
	if err != nil {
		return transform.Image{}, 0, err
	}
	return img, int32(d.labels[i]), nil
}

// ClassCounts returns how many images carry each label.
func (d *Dataset) ClassCounts() [NumClasses]int {
	var counts [NumClasses]int
	for _, l := range d.labels {
		counts[l]++
	}
	return counts
}
