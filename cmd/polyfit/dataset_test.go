package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ahmedtd/polyfit/experiment"
	"github.com/google/go-cmp/cmp"
	"github.com/sbinet/npyio/npz"
)

func TestDatasetMatchesExperiment(t *testing.T) {
	cfg := experiment.DefaultConfig()
	cfg.Samples = 12
	cfg.HiddenUnits = 4
	cfg.Epochs = 1

	out := filepath.Join(t.TempDir(), "data.npz")
	cmd := &DatasetCommand{
		samples:       cfg.Samples,
		noiseVariance: float64(cfg.NoiseVariance),
		seed:          cfg.Seed,
		outputFile:    out,
	}
	if err := cmd.executeErr(context.Background()); err != nil {
		t.Fatalf("dataset: %v", err)
	}

	result, err := experiment.Run(context.Background(), cfg, discardSink{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	r, err := npz.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	var x, yNoisy []float32
	var train []int64
	if err := r.Read("x.npy", &x); err != nil {
		t.Fatal(err)
	}
	if err := r.Read("y_noisy.npy", &yNoisy); err != nil {
		t.Fatal(err)
	}
	if err := r.Read("train_idx.npy", &train); err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(x, result.Data.X); diff != "" {
		t.Errorf("x diff (-dataset +run)\n%s", diff)
	}
	if diff := cmp.Diff(yNoisy, result.Data.YNoisy); diff != "" {
		t.Errorf("y_noisy diff (-dataset +run)\n%s", diff)
	}
	if diff := cmp.Diff(train, toInt64(result.TrainIndices)); diff != "" {
		t.Errorf("train_idx diff (-dataset +run)\n%s", diff)
	}
}

func TestDatasetRejectsBadFlags(t *testing.T) {
	out := filepath.Join(t.TempDir(), "data.npz")
	for _, cmd := range []*DatasetCommand{
		{samples: 1, outputFile: out},
		{samples: 10, noiseVariance: -1, outputFile: out},
	} {
		if err := cmd.executeErr(context.Background()); err == nil {
			t.Errorf("executeErr(%+v) succeeded, want error", *cmd)
		}
	}
}
