// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package train

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// reporter prints training progress as plain lines.
// Only the final summary is printed when verbose is off.
type reporter struct {
	w       io.Writer
	verbose bool
}

func newReporter(w io.Writer, verbose bool) *reporter {
	if w == nil {
		w = os.Stdout
	}
	return &reporter{w: w, verbose: verbose}
}

func (r *reporter) epoch(e, total int) {
	if !r.verbose {
		return
	}
	fmt.Fprintf(r.w, "Epoch [%d/%d]\n", e, total)
	fmt.Fprintln(r.w, strings.Repeat("-", 34))
}

func (r *reporter) iteration(i, total int, loss float64) {
	if !r.verbose {
		return
	}
	fmt.Fprintf(r.w, "Iteration [%d/%d], Loss: %f\n", i, total, loss)
}

func (r *reporter) testing() {
	if !r.verbose {
		return
	}
	fmt.Fprint(r.w, "\n\n")
	fmt.Fprintln(r.w, "Testing")
}

func (r *reporter) testResult(res PassResult) {
	if !r.verbose {
		return
	}
	fmt.Fprintf(r.w, "Test Loss: %f, Test Top1 %f\n", res.Loss, res.Top1)
}

func (r *reporter) summary(minLoss, maxTop1 float64) {
	fmt.Fprintf(r.w, "Min Test Loss: %f, Max Test Top1 %f\n", minLoss, maxTop1)
}
