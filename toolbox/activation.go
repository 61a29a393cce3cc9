package toolbox

import (
	"fmt"

	"github.com/chewxy/math32"
)

type ActivationType int

const (
	ReLU ActivationType = iota
	Linear
	Sigmoid
	Tanh
)

var activationNames = map[string]ActivationType{
	"relu":    ReLU,
	"linear":  Linear,
	"sigmoid": Sigmoid,
	"tanh":    Tanh,
}

// ParseActivation maps an activation name ("relu", "linear", "sigmoid",
// "tanh") to its ActivationType.
func ParseActivation(name string) (ActivationType, error) {
	act, ok := activationNames[name]
	if !ok {
		return 0, fmt.Errorf("unsupported activation %q", name)
	}
	return act, nil
}

func (t ActivationType) String() string {
	for name, act := range activationNames {
		if act == t {
			return name
		}
	}
	return fmt.Sprintf("ActivationType(%d)", int(t))
}

// z (input/output)
func reluActivation(z []float32) {
	for i := 0; i < len(z); i++ {
		if z[i] < 0 {
			z[i] = 0
		}
	}
}

// reluActivationGradient computes the derivative of the ReLU function.
//
// z (input) is the pre-activation linear output of a layer.
//
// dadz (output) is the derivative of ReLU(z)
func reluActivationGradient(z, dadz []float32) {
	if len(z) != len(dadz) {
		panic("len(z) != len(dadz)")
	}

	for i := 0; i < len(z); i++ {
		if z[i] <= 0 {
			dadz[i] = 0
		} else {
			dadz[i] = 1
		}
	}
}

func linearActivationGradient(dadz []float32) {
	for i := 0; i < len(dadz); i++ {
		dadz[i] = 1
	}
}

func sigmoidActivation(z []float32) {
	for i := 0; i < len(z); i++ {
		z[i] = 1 / (1 + math32.Exp(-z[i]))
	}
}

func sigmoidActivationGradient(z, dadz []float32) {
	for i := 0; i < len(z); i++ {
		s := 1 / (1 + math32.Exp(-z[i]))
		dadz[i] = s * (1 - s)
	}
}

func tanhActivation(z []float32) {
	for i := 0; i < len(z); i++ {
		z[i] = math32.Tanh(z[i])
	}
}

func tanhActivationGradient(z, dadz []float32) {
	for i := 0; i < len(z); i++ {
		t := math32.Tanh(z[i])
		dadz[i] = 1 - t*t
	}
}

// activate applies the activation to z in place, first storing the
// derivative in dadz when it is non-nil.
func activate(t ActivationType, z, dadz []float32) {
	switch t {
	case ReLU:
		if dadz != nil {
			reluActivationGradient(z, dadz)
		}
		reluActivation(z)
	case Linear:
		if dadz != nil {
			linearActivationGradient(dadz)
		}
		// linear activation is a no-op
	case Sigmoid:
		if dadz != nil {
			sigmoidActivationGradient(z, dadz)
		}
		sigmoidActivation(z)
	case Tanh:
		if dadz != nil {
			tanhActivationGradient(z, dadz)
		}
		tanhActivation(z)
	default:
		panic("unhandled activation function")
	}
}
