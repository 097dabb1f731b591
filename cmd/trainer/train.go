package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/born-ml/born/autodiff"
	"github.com/born-ml/born/backend/cpu"
	"github.com/born-ml/born/nn"
	"github.com/born-ml/born/optim"
	"github.com/born-ml/born/tensor"

	"github.com/born-ml/trainer/cifar"
	"github.com/born-ml/trainer/dataset/cifar10"
	"github.com/born-ml/trainer/internal/config"
	"github.com/born-ml/trainer/internal/device"
	"github.com/born-ml/trainer/models"
	"github.com/born-ml/trainer/train"
	"github.com/born-ml/trainer/transform"
)

// parseTrainFlags builds the run configuration: defaults, then the YAML file
// given by -config, then every flag set explicitly on the command line.
func parseTrainFlags(args []string, output io.Writer) (config.Run, error) {
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	fs.SetOutput(output)

	def := config.Default()
	configPath := fs.String("config", "", "YAML run configuration")
	dataDir := fs.String("data", def.DataDir, "Directory holding cifar-10-batches-bin")
	download := fs.Bool("download", def.Download, "Download CIFAR-10 when missing")
	samples := fs.Int("samples", def.MaxSamples, "Max samples per split (0 = all)")
	epochs := fs.Int("epochs", def.Epochs, "Number of training epochs")
	batch := fs.Int("batch", def.BatchSize, "Batch size")
	optName := fs.String("optim", def.Optimizer, "Optimizer: sgd or adam")
	lr := fs.Float64("lr", def.LR, "Learning rate")
	momentum := fs.Float64("momentum", def.Momentum, "SGD momentum")
	verbose := fs.Bool("v", def.Verbose, "Print per-iteration progress")
	gpu := fs.Bool("gpu", def.GPU, "Use WebGPU when available")
	seed := fs.Uint64("seed", def.Seed, "Shuffle seed (0 = random)")

	if err := fs.Parse(args); err != nil {
		return config.Run{}, err
	}

	cfg := def
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return config.Run{}, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "data":
			cfg.DataDir = *dataDir
		case "download":
			cfg.Download = *download
		case "samples":
			cfg.MaxSamples = *samples
		case "epochs":
			cfg.Epochs = *epochs
		case "batch":
			cfg.BatchSize = *batch
		case "optim":
			cfg.Optimizer = *optName
		case "lr":
			cfg.LR = *lr
		case "momentum":
			cfg.Momentum = *momentum
		case "v":
			cfg.Verbose = *verbose
		case "gpu":
			cfg.GPU = *gpu
		case "seed":
			cfg.Seed = *seed
		}
	})

	return cfg, cfg.Validate()
}

func trainCommand(ctx context.Context, args []string, stdout io.Writer) error {
	cfg, err := parseTrainFlags(args, stdout)
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, "Born trainer - CIFAR-10 classification")
	fmt.Fprintf(stdout, "Host: %s\n", device.Describe())

	kind := device.Select(cfg.GPU)
	fmt.Fprintf(stdout, "Device: %s\n\n", kind)
	fmt.Fprintln(stdout, "Configuration:")
	fmt.Fprint(stdout, cfg.YAML())
	fmt.Fprintln(stdout)

	if kind == device.WebGPU {
		return trainOnGPU(ctx, cfg, stdout)
	}
	return trainOn(ctx, cfg, cpu.New(), stdout)
}

func trainOn[B tensor.Backend](ctx context.Context, cfg config.Run, base B, stdout io.Writer) error {
	backend := autodiff.New(base)

	model, err := models.NewCIFARNet(transform.CIFARSize, cifar10.NumClasses, backend)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s\n", model)
	fmt.Fprintf(stdout, "Model has %d trainable parameters\n\n", model.NumParameters())

	opt := newOptimizer(cfg, model.Parameters(), backend)

	res, err := cifar.TrainCIFAR(ctx, model, cfg.Epochs, opt, backend, cifar.Options{
		Root:         cfg.DataDir,
		BatchSize:    cfg.BatchSize,
		SkipDownload: !cfg.Download,
		MaxSamples:   cfg.MaxSamples,
		Seed:         cfg.Seed,
		Verbose:      cfg.Verbose,
		Output:       stdout,
		Downloader:   &cifar10.Downloader{Output: stdout},
	})
	if err != nil {
		return err
	}

	printHistory(stdout, res)
	return nil
}

func newOptimizer[B tensor.Backend](cfg config.Run, params []*nn.Parameter[B], backend B) optim.Optimizer {
	if cfg.Optimizer == config.Adam {
		return optim.NewAdam(params, optim.AdamConfig{
			LR:    float32(cfg.LR),
			Betas: [2]float32{0.9, 0.999},
			Eps:   1e-8,
		}, backend)
	}
	return optim.NewSGD(params, optim.SGDConfig{
		LR:       float32(cfg.LR),
		Momentum: float32(cfg.Momentum),
	}, backend)
}

func printHistory(w io.Writer, res *train.Result) {
	fmt.Fprintln(w, "\nEpoch  Train Loss  Train Top1  Test Loss  Test Top1")
	for _, e := range res.Epochs {
		testLoss, testTop1 := "-", "-"
		if e.Test != nil {
			testLoss = fmt.Sprintf("%.4f", e.Test.Loss)
			testTop1 = fmt.Sprintf("%.2f%%", e.Test.Top1*100)
		}
		fmt.Fprintf(w, "%5d  %10.4f  %9.2f%%  %9s  %9s\n",
			e.Epoch, e.Train.Loss, e.Train.Top1*100, testLoss, testTop1)
	}
}
