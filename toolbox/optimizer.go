package toolbox

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Optimizer applies one parameter update to net given the gradients of the
// current batch.
type Optimizer interface {
	Step(net *Network, g *Gradients)
}

// ParseOptimizer builds the optimizer called name ("adam" or "sgd").
func ParseOptimizer(name string, learningRate float32) (Optimizer, error) {
	switch name {
	case "adam":
		return NewAdam(learningRate), nil
	case "sgd":
		return &SGD{LearningRate: learningRate}, nil
	default:
		return nil, fmt.Errorf("unsupported optimizer %q", name)
	}
}

// SGD is plain stochastic gradient descent.
type SGD struct {
	LearningRate float32
}

func (o *SGD) Step(net *Network, g *Gradients) {
	for l, lay := range net.Layers {
		for i := range lay.W.V {
			lay.W.V[i] -= o.LearningRate * g.W[l].V[i]
		}
		for i := range lay.B.V {
			lay.B.V[i] -= o.LearningRate * g.B[l].V[i]
		}
	}
}

// Adam implements https://arxiv.org/abs/1412.6980 with the efficient
// bias-correction form of the step size from section 2.
//
// The moment vectors are allocated on the first Step, so an Adam value must
// only ever be used with one network.
type Adam struct {
	alpha, beta1, beta2, epsilon float32

	// Updated every step
	beta1T, beta2T float32

	step int

	// The first moment vectors for each layer
	mW, mB []*AF32

	// The second moment vectors for each layer
	vW, vB []*AF32
}

func NewAdam(alpha float32) *Adam {
	return &Adam{
		alpha:   alpha,
		beta1:   0.9,
		beta2:   0.999,
		epsilon: 1e-7,

		beta1T: 0.9,
		beta2T: 0.999,
	}
}

// Steps is the number of updates applied so far.
func (aep *Adam) Steps() int {
	return aep.step
}

func (aep *Adam) init(net *Network) {
	aep.mW = make([]*AF32, len(net.Layers))
	aep.vW = make([]*AF32, len(net.Layers))
	aep.mB = make([]*AF32, len(net.Layers))
	aep.vB = make([]*AF32, len(net.Layers))
	for l, lay := range net.Layers {
		aep.mW[l] = MakeAF32(lay.OutputSize, lay.InputSize)
		aep.vW[l] = MakeAF32(lay.OutputSize, lay.InputSize)
		aep.mB[l] = MakeAF32(lay.OutputSize)
		aep.vB[l] = MakeAF32(lay.OutputSize)
	}
}

func (aep *Adam) Step(net *Network, g *Gradients) {
	if aep.mW == nil {
		aep.init(net)
	}
	if len(aep.mW) != len(net.Layers) {
		panic("Adam state does not match the network")
	}

	beta1 := aep.beta1
	beta2 := aep.beta2
	alphaT := aep.alpha * math32.Sqrt(1-aep.beta2T) / (1 - aep.beta1T)

	for l, lay := range net.Layers {
		mW, vW, djdw := aep.mW[l].V, aep.vW[l].V, g.W[l].V
		for i := range lay.W.V {
			mW[i] = beta1*mW[i] + (1-beta1)*djdw[i]
			vW[i] = beta2*vW[i] + (1-beta2)*djdw[i]*djdw[i]
			lay.W.V[i] -= alphaT * mW[i] / (math32.Sqrt(vW[i]) + aep.epsilon)
		}

		mB, vB, djdb := aep.mB[l].V, aep.vB[l].V, g.B[l].V
		for i := range lay.B.V {
			mB[i] = beta1*mB[i] + (1-beta1)*djdb[i]
			vB[i] = beta2*vB[i] + (1-beta2)*djdb[i]*djdb[i]
			lay.B.V[i] -= alphaT * mB[i] / (math32.Sqrt(vB[i]) + aep.epsilon)
		}
	}

	aep.beta1T *= aep.beta1
	aep.beta2T *= aep.beta2

	aep.step++
}
