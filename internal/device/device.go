// Package device picks the compute backend for a training run and describes
// the host it runs on.
package device

import (
	"fmt"
	"strings"

	"github.com/klauspost/cpuid/v2"
)

// Kind identifies a compute backend.
type Kind int

// Supported backends.
const (
	CPU Kind = iota
	WebGPU
)

func (k Kind) String() string {
	switch k {
	case CPU:
		return "cpu"
	case WebGPU:
		return "webgpu"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Select returns WebGPU when it is requested and usable, CPU otherwise.
func Select(preferGPU bool) Kind {
	if preferGPU && gpuAvailable() {
		return WebGPU
	}
	return CPU
}

var simdFeatures = []struct {
	id   cpuid.FeatureID
	name string
}{
	{cpuid.AVX2, "AVX2"},
	{cpuid.FMA3, "FMA3"},
	{cpuid.AVX512F, "AVX512F"},
	{cpuid.ASIMD, "NEON"},
}

// Describe returns a one-line summary of the host CPU.
func Describe() string {
	return describe(cpuid.CPU)
}

func describe(c cpuid.CPUInfo) string {
	brand := strings.TrimSpace(c.BrandName)
	if brand == "" {
		brand = "unknown CPU"
	}

	var feats []string
	for _, f := range simdFeatures {
		if c.Supports(f.id) {
			feats = append(feats, f.name)
		}
	}
	simd := "no SIMD extensions"
	if len(feats) > 0 {
		simd = strings.Join(feats, " ")
	}

	return fmt.Sprintf("%s (%d cores, %d threads, %s)", brand, c.PhysicalCores, c.LogicalCores, simd)
}
