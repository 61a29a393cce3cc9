package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"

	"github.com/ahmedtd/polyfit/experiment"
	"github.com/ahmedtd/polyfit/render"
	"github.com/google/subcommands"
)

type RunCommand struct {
	cfg experiment.Config

	// flag has no float32 support; these are copied into cfg.
	learningRate  float64
	noiseVariance float64

	pageFile string
	npzFile  string

	cpuProfileFile string
}

var _ subcommands.Command = (*RunCommand)(nil)

func (*RunCommand) Name() string {
	return "run"
}

func (*RunCommand) Synopsis() string {
	return "Train the unnoised, best-fit, and overfit models and plot them"
}

func (*RunCommand) Usage() string {
	return ``
}

func (c *RunCommand) SetFlags(f *flag.FlagSet) {
	def := experiment.DefaultConfig()

	f.IntVar(&c.cfg.Samples, "samples", def.Samples, "Number of generated samples; half are used for training")
	f.IntVar(&c.cfg.HiddenLayers, "hidden-layers", def.HiddenLayers, "Number of hidden dense layers")
	f.IntVar(&c.cfg.HiddenUnits, "hidden-units", def.HiddenUnits, "Units in each hidden layer")
	f.StringVar(&c.cfg.HiddenActivation, "activation", def.HiddenActivation, "Hidden layer activation (relu, linear, sigmoid, tanh)")
	f.StringVar(&c.cfg.Loss, "loss", def.Loss, "Loss function (meanSquaredError, meanAbsoluteError)")
	f.StringVar(&c.cfg.Optimizer, "optimizer", def.Optimizer, "Optimizer (adam, sgd)")
	f.Float64Var(&c.learningRate, "learning-rate", float64(def.LearningRate), "Optimizer learning rate")
	f.IntVar(&c.cfg.BatchSize, "batch-size", def.BatchSize, "Mini-batch size")
	f.IntVar(&c.cfg.Epochs, "epochs", def.Epochs, "Epochs for the unnoised and best-fit runs")
	f.IntVar(&c.cfg.OverfitFactor, "overfit-factor", def.OverfitFactor, "Epoch multiplier for the overfit run")
	f.Float64Var(&c.noiseVariance, "noise-variance", float64(def.NoiseVariance), "Variance of the Gaussian noise added to the targets")
	f.Int64Var(&c.cfg.Seed, "seed", def.Seed, "Random seed for data, initialization, and shuffling")

	f.StringVar(&c.pageFile, "page", "polyfit.html", "Path to write the HTML page with all plots")
	f.StringVar(&c.npzFile, "npz", "", "Optional path to also write the plotted arrays (npz format)")

	f.StringVar(&c.cpuProfileFile, "cpu-profile", "", "Write a CPU profile")
}

func (c *RunCommand) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.executeErr(ctx); err != nil {
		log.Printf("Error: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *RunCommand) executeErr(ctx context.Context) error {
	if c.cpuProfileFile != "" {
		f, err := os.Create(c.cpuProfileFile)
		if err != nil {
			return fmt.Errorf("while creating CPU profile file: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("while starting CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	cfg := c.cfg
	cfg.LearningRate = float32(c.learningRate)
	cfg.NoiseVariance = float32(c.noiseVariance)

	page := render.NewPage("Polynomial regression: noise and overfitting")
	sinks := render.Tee{page}

	var npzSink *render.NPZ
	if c.npzFile != "" {
		var err error
		npzSink, err = render.CreateNPZ(c.npzFile)
		if err != nil {
			return err
		}
		sinks = append(sinks, npzSink)
	}

	result, err := experiment.Run(ctx, cfg, sinks)
	if err != nil {
		if npzSink != nil {
			npzSink.Close()
		}
		return fmt.Errorf("while running experiment: %w", err)
	}

	if npzSink != nil {
		if err := npzSink.Close(); err != nil {
			return err
		}
		log.Printf("Wrote plotted arrays to %s", c.npzFile)
	}

	if err := page.WriteFile(c.pageFile); err != nil {
		return fmt.Errorf("while writing page: %w", err)
	}
	log.Printf("Wrote %d plots to %s", len(page.Containers()), c.pageFile)

	for _, run := range result.Runs {
		log.Printf("%-15s epochs=%-4d final-loss=%f train-mse=%f test-mse=%f",
			run.Name, run.Epochs, run.History[len(run.History)-1], run.TrainMSE, run.TestMSE)
	}

	return nil
}
