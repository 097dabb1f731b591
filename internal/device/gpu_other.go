//go:build !windows

package device

// The public WebGPU backend is only built for windows.
func gpuAvailable() bool {
	return false
}
