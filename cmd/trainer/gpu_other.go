//go:build !windows

package main

import (
	"context"
	"io"

	"github.com/born-ml/born/backend/cpu"

	"github.com/born-ml/trainer/internal/config"
)

// device.Select never reports WebGPU off windows; fall back to CPU anyway.
func trainOnGPU(ctx context.Context, cfg config.Run, stdout io.Writer) error {
	return trainOn(ctx, cfg, cpu.New(), stdout)
}
