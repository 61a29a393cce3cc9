package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"

	"github.com/ahmedtd/polyfit/experiment"
	"github.com/ahmedtd/polyfit/polydata"
	"github.com/google/subcommands"
	"github.com/sbinet/npyio/npz"
)

// DatasetCommand writes the dataset and split that `run` would use for the
// same seed.
type DatasetCommand struct {
	samples       int
	noiseVariance float64
	seed          int64

	outputFile string
}

var _ subcommands.Command = (*DatasetCommand)(nil)

func (*DatasetCommand) Name() string {
	return "dataset"
}

func (*DatasetCommand) Synopsis() string {
	return "Generate and split the dataset without training"
}

func (*DatasetCommand) Usage() string {
	return ``
}

func (c *DatasetCommand) SetFlags(f *flag.FlagSet) {
	def := experiment.DefaultConfig()

	f.IntVar(&c.samples, "samples", def.Samples, "Number of generated samples")
	f.Float64Var(&c.noiseVariance, "noise-variance", float64(def.NoiseVariance), "Variance of the Gaussian noise added to the targets")
	f.Int64Var(&c.seed, "seed", def.Seed, "Random seed")
	f.StringVar(&c.outputFile, "out", "polyfit-data.npz", "Path to write x, y, y_noisy, train_idx, test_idx (npz format)")
}

func (c *DatasetCommand) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.executeErr(ctx); err != nil {
		log.Printf("Error: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *DatasetCommand) executeErr(ctx context.Context) error {
	if c.samples < 2 {
		return fmt.Errorf("samples must be at least 2, got %d", c.samples)
	}
	if c.noiseVariance < 0 {
		return fmt.Errorf("noise variance must be non-negative, got %v", c.noiseVariance)
	}

	r := rand.New(rand.NewSource(c.seed))
	ds := polydata.Generate(r, c.samples, float32(c.noiseVariance))
	train, test := polydata.Split(r, c.samples)

	f, err := os.Create(c.outputFile)
	if err != nil {
		return fmt.Errorf("while creating output file: %w", err)
	}
	defer f.Close()

	w := npz.NewWriter(f)
	arrays := []struct {
		name  string
		value any
	}{
		{"x.npy", ds.X},
		{"y.npy", ds.Y},
		{"y_noisy.npy", ds.YNoisy},
		{"train_idx.npy", toInt64(train)},
		{"test_idx.npy", toInt64(test)},
	}
	for _, a := range arrays {
		if err := w.Write(a.name, a.value); err != nil {
			return fmt.Errorf("while writing %s: %w", a.name, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("while finishing npz archive: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("while closing output file: %w", err)
	}

	mean, variance := ds.NoiseStats()
	log.Printf("Wrote %d samples (%d train, %d test) to %s noise-mean=%.4f noise-variance=%.4f",
		ds.Len(), len(train), len(test), c.outputFile, mean, variance)
	return nil
}

func toInt64(idx []int) []int64 {
	out := make([]int64, len(idx))
	for i, v := range idx {
		out[i] = int64(v)
	}
	return out
}
