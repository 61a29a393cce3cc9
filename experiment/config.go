package experiment

import (
	"errors"
	"fmt"

	"github.com/ahmedtd/polyfit/toolbox"
)

// Config fully describes one experiment.  It is passed by value; nothing in
// this package keeps a reference to it.
type Config struct {
	// Samples is the number of generated points.  Half of them, rounded
	// down, form the training set.
	Samples int

	HiddenLayers     int
	HiddenUnits      int
	HiddenActivation string

	Loss         string
	Optimizer    string
	LearningRate float32
	BatchSize    int
	Epochs       int

	// OverfitFactor multiplies Epochs for the overfitting run.
	OverfitFactor int

	NoiseVariance float32

	// Seed drives data generation, the split, weight initialization, and
	// shuffling.
	Seed int64
}

func DefaultConfig() Config {
	return Config{
		Samples:          100,
		HiddenLayers:     2,
		HiddenUnits:      100,
		HiddenActivation: "relu",
		Loss:             "meanSquaredError",
		Optimizer:        "adam",
		LearningRate:     0.01,
		BatchSize:        32,
		Epochs:           50,
		OverfitFactor:    4,
		NoiseVariance:    0.05,
		Seed:             12345,
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.Samples < 2 {
		errs = append(errs, fmt.Errorf("samples must be at least 2, got %d", c.Samples))
	}
	if c.HiddenLayers <= 0 {
		errs = append(errs, fmt.Errorf("hidden layers must be positive, got %d", c.HiddenLayers))
	}
	if c.HiddenUnits <= 0 {
		errs = append(errs, fmt.Errorf("hidden units must be positive, got %d", c.HiddenUnits))
	}
	if !(c.LearningRate > 0) {
		errs = append(errs, fmt.Errorf("learning rate must be positive, got %v", c.LearningRate))
	}
	if c.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("batch size must be positive, got %d", c.BatchSize))
	}
	if c.Epochs <= 0 {
		errs = append(errs, fmt.Errorf("epochs must be positive, got %d", c.Epochs))
	}
	if c.OverfitFactor <= 0 {
		errs = append(errs, fmt.Errorf("overfit factor must be positive, got %d", c.OverfitFactor))
	}
	if !(c.NoiseVariance >= 0) {
		errs = append(errs, fmt.Errorf("noise variance must be non-negative, got %v", c.NoiseVariance))
	}
	if _, err := toolbox.ParseActivation(c.HiddenActivation); err != nil {
		errs = append(errs, err)
	}
	if _, err := toolbox.ParseLossFunction(c.Loss); err != nil {
		errs = append(errs, err)
	}
	if _, err := toolbox.ParseOptimizer(c.Optimizer, 1); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
