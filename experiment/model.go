package experiment

import (
	"fmt"
	"math/rand"

	"github.com/ahmedtd/polyfit/toolbox"
)

// CreateModel builds an untrained regression network: one input,
// hiddenLayers dense layers of hiddenUnits units each, and one linear output.
// Every call draws fresh weights from r.
func CreateModel(r *rand.Rand, hiddenLayers, hiddenUnits int, activation toolbox.ActivationType) (*toolbox.Network, error) {
	if hiddenLayers <= 0 || hiddenUnits <= 0 {
		return nil, fmt.Errorf("invalid architecture: %d hidden layers of %d units", hiddenLayers, hiddenUnits)
	}

	net := &toolbox.Network{
		LossFunction: toolbox.MeanSquaredError,
	}

	inputSize := 1
	for l := 0; l < hiddenLayers; l++ {
		net.Layers = append(net.Layers, toolbox.MakeDense(activation, inputSize, hiddenUnits, r))
		inputSize = hiddenUnits
	}
	net.Layers = append(net.Layers, toolbox.MakeDense(toolbox.Linear, inputSize, 1, r))

	return net, nil
}
