// Package experiment trains three regression networks on the noisy quintic
// dataset: one on clean targets, one on noisy targets, and one on noisy
// targets for many more epochs so that it overfits.
package experiment

import (
	"context"
	"fmt"
	"log"
	"math/rand"

	"github.com/ahmedtd/polyfit/polydata"
	"github.com/ahmedtd/polyfit/render"
	"github.com/ahmedtd/polyfit/toolbox"
)

const plotHeight = 300

// RunResult is the outcome of one training run.
type RunResult struct {
	// Name is the container prefix, e.g. "best-fit-model".
	Name  string
	Title string

	Noisy  bool
	Epochs int

	History toolbox.History

	TrainPredictions []float32
	TestPredictions  []float32

	// Mean squared error against the targets the run was trained on, over
	// each split.
	TrainMSE float32
	TestMSE  float32
}

type Result struct {
	Config Config
	Data   *polydata.Dataset

	TrainIndices []int
	TestIndices  []int

	// Unnoised, BestFit, Overfit, in that order.
	Runs []RunResult
}

type runPlan struct {
	name   string
	title  string
	noisy  bool
	epochs int
}

// Run executes the whole experiment and sends every plot to sink.  Errors
// from training or from the sink end the run; nothing is retried.
func Run(ctx context.Context, cfg Config, sink render.Sink) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("while validating config: %w", err)
	}
	activation, err := toolbox.ParseActivation(cfg.HiddenActivation)
	if err != nil {
		return nil, err
	}

	r := rand.New(rand.NewSource(cfg.Seed))

	data := polydata.Generate(r, cfg.Samples, cfg.NoiseVariance)
	trainIdx, testIdx := polydata.Split(r, cfg.Samples)
	train, test := data.Subset(trainIdx), data.Subset(testIdx)

	noiseMean, noiseVariance := data.NoiseStats()
	log.Printf("generated %d samples (%d train, %d test) noise-mean=%.4f noise-variance=%.4f",
		data.Len(), len(trainIdx), len(testIdx), noiseMean, noiseVariance)

	plans := []runPlan{
		{name: "unnoised-model", title: "Unnoised Model", noisy: false, epochs: cfg.Epochs},
		{name: "best-fit-model", title: "Best Fit Model", noisy: true, epochs: cfg.Epochs},
		{name: "overfit-model", title: "Overfit Model", noisy: true, epochs: cfg.OverfitFactor * cfg.Epochs},
	}

	// All three models are initialized before any training starts.
	models := make([]*toolbox.Network, len(plans))
	for i := range plans {
		models[i], err = CreateModel(r, cfg.HiddenLayers, cfg.HiddenUnits, activation)
		if err != nil {
			return nil, fmt.Errorf("while creating %s: %w", plans[i].name, err)
		}
	}

	result := &Result{
		Config:       cfg,
		Data:         data,
		TrainIndices: trainIdx,
		TestIndices:  testIdx,
	}

	for i, plan := range plans {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("while starting %s: %w", plan.name, err)
		}

		trainTargets, testTargets := train.Y, test.Y
		if plan.noisy {
			trainTargets, testTargets = train.YNoisy, test.YNoisy
		}

		history, err := Train(r, models[i], train.X, trainTargets, TrainOptions{
			Epochs:       plan.epochs,
			BatchSize:    cfg.BatchSize,
			LearningRate: cfg.LearningRate,
			Loss:         cfg.Loss,
			Optimizer:    cfg.Optimizer,
			Name:         plan.name,
		})
		if err != nil {
			return nil, fmt.Errorf("while training %s: %w", plan.name, err)
		}

		run := RunResult{
			Name:             plan.name,
			Title:            plan.title,
			Noisy:            plan.noisy,
			Epochs:           plan.epochs,
			History:          history,
			TrainPredictions: models[i].Predict(train.X),
			TestPredictions:  models[i].Predict(test.X),
		}
		run.TrainMSE = meanSquaredError(trainTargets, run.TrainPredictions)
		run.TestMSE = meanSquaredError(testTargets, run.TestPredictions)
		log.Printf("%s: train-mse=%f test-mse=%f", plan.name, run.TrainMSE, run.TestMSE)

		result.Runs = append(result.Runs, run)
	}

	if err := plot(ctx, sink, result, train, test); err != nil {
		return nil, err
	}

	return result, nil
}

func meanSquaredError(targets, predictions []float32) float32 {
	if len(targets) == 0 {
		return 0
	}
	return toolbox.MeanSquaredErrorLoss(
		toolbox.MakeColumnAF32(targets),
		toolbox.MakeColumnAF32(predictions),
		len(targets),
	)
}

// plot sends the two raw-data scatterplots, one scatterplot per run and
// split, and one loss curve per run.
func plot(ctx context.Context, sink render.Sink, result *Result, train, test *polydata.Dataset) error {
	data := result.Data

	raw := []render.Scatterplot{
		{
			Container: "original-data",
			Title:     "Original Data",
			Series:    []render.Series{{Name: "Original", X: data.X, Y: data.Y}},
		},
		{
			Container: "noisy-data",
			Title:     "Noisy Data",
			Series:    []render.Series{{Name: "Noisy", X: data.X, Y: data.YNoisy}},
		},
	}
	for _, p := range raw {
		p.XLabel, p.YLabel, p.Height = "x", "y", plotHeight
		if err := sink.Scatter(ctx, p); err != nil {
			return fmt.Errorf("while plotting %s: %w", p.Container, err)
		}
	}

	for _, run := range result.Runs {
		splits := []struct {
			suffix, title string
			d             *polydata.Dataset
			pred          []float32
		}{
			{"train", "Train Data", train, run.TrainPredictions},
			{"test", "Test Data", test, run.TestPredictions},
		}
		for _, split := range splits {
			targets := split.d.Y
			if run.Noisy {
				targets = split.d.YNoisy
			}
			p := render.Scatterplot{
				Container: run.Name + "-" + split.suffix,
				Title:     run.Title + " - " + split.title,
				XLabel:    "x",
				YLabel:    "y",
				Height:    plotHeight,
				Series: []render.Series{
					{Name: "Original", X: split.d.X, Y: targets},
					{Name: "Predicted", X: split.d.X, Y: split.pred},
				},
			}
			if err := sink.Scatter(ctx, p); err != nil {
				return fmt.Errorf("while plotting %s: %w", p.Container, err)
			}
		}
	}

	for _, run := range result.Runs {
		p := render.HistoryPlot{
			Container: run.Name + "-hist",
			Title:     run.Title + " - Training Loss",
			Metrics:   []string{"loss"},
			Values:    map[string][]float32{"loss": run.History},
		}
		if err := sink.History(ctx, p); err != nil {
			return fmt.Errorf("while plotting %s: %w", p.Container, err)
		}
	}

	return nil
}
