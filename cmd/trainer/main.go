// Package main provides the trainer CLI: it trains the reference CIFARNet on
// CIFAR-10 with the generic training loop.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
)

const version = "v0.1.0"

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdout)
	if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("trainer: %v", err)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		printUsage(stdout)
		return nil
	}

	switch args[0] {
	case "version":
		fmt.Fprintf(stdout, "Born trainer %s\n", version)
		return nil
	case "train":
		return trainCommand(ctx, args[1:], stdout)
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	default:
		printUsage(stdout)
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Born trainer - supervised training loop for Born models")
	fmt.Fprintf(w, "Version: %s\n\n", version)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  train      Train CIFARNet on CIFAR-10 (see 'trainer train -h')")
	fmt.Fprintln(w, "  version    Show version")
}
