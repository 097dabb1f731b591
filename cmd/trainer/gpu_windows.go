//go:build windows

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/born-ml/born/backend/webgpu"

	"github.com/born-ml/trainer/internal/config"
)

func trainOnGPU(ctx context.Context, cfg config.Run, stdout io.Writer) error {
	gpu, err := webgpu.New()
	if err != nil {
		return fmt.Errorf("failed to create WebGPU backend: %w", err)
	}
	defer gpu.Release()

	fmt.Fprintf(stdout, "GPU Backend: %s\n\n", gpu.Name())
	return trainOn(ctx, cfg, gpu, stdout)
}
