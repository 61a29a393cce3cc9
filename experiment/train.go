package experiment

import (
	"fmt"
	"log"
	"math/rand"

	"github.com/ahmedtd/polyfit/toolbox"
)

type TrainOptions struct {
	Epochs       int
	BatchSize    int
	LearningRate float32
	Loss         string
	Optimizer    string

	// Name labels the run in log output.
	Name string
}

// Train compiles net with the named loss and optimizer and fits it to
// (x, y), shuffling with r before every epoch.  The network's weights are
// updated in place.  The history has exactly opts.Epochs entries.
func Train(r *rand.Rand, net *toolbox.Network, x, y []float32, opts TrainOptions) (toolbox.History, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("have %d inputs but %d targets", len(x), len(y))
	}
	if len(x) == 0 {
		return nil, fmt.Errorf("no training samples")
	}
	if opts.Epochs <= 0 || opts.BatchSize <= 0 {
		return nil, fmt.Errorf("invalid epochs %d / batch size %d", opts.Epochs, opts.BatchSize)
	}

	lossType, err := toolbox.ParseLossFunction(opts.Loss)
	if err != nil {
		return nil, fmt.Errorf("while compiling model: %w", err)
	}
	opt, err := toolbox.ParseOptimizer(opts.Optimizer, opts.LearningRate)
	if err != nil {
		return nil, fmt.Errorf("while compiling model: %w", err)
	}
	net.LossFunction = lossType

	history, timings := net.Fit(toolbox.MakeColumnAF32(x), toolbox.MakeColumnAF32(y), opt, toolbox.FitOptions{
		Epochs:    opts.Epochs,
		BatchSize: opts.BatchSize,
		Shuffle:   true,
		Rand:      r,
	})

	log.Printf("%s: trained %d epochs on %d samples final-loss=%f", opts.Name, opts.Epochs, len(x), history[len(history)-1])
	log.Printf("%s: timings overall=%.2fs forward=%.2fs loss=%.2fs backprop=%.2fs update=%.2fs",
		opts.Name,
		timings.Overall.Seconds(),
		timings.Forward.Seconds(),
		timings.Loss.Seconds(),
		timings.Backpropagation.Seconds(),
		timings.Update.Seconds(),
	)

	return history, nil
}
