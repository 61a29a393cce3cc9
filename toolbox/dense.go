package toolbox

import (
	"fmt"
	"math/rand"
	"slices"

	"github.com/chewxy/math32"
)

type Layer struct {
	Activation ActivationType

	W *AF32 // Shape (OutputSize, InputSize)
	B *AF32 // Shape (OutputSize)

	InputSize  int
	OutputSize int
}

// MakeDense creates a fully-connected layer.  Weights are drawn from the
// Glorot uniform distribution U(-l, l), l = sqrt(6 / (in + out)); biases start
// at zero.
func MakeDense(activation ActivationType, inputSize, outputSize int, r *rand.Rand) *Layer {
	l := &Layer{
		Activation: activation,
		InputSize:  inputSize,
		OutputSize: outputSize,
		W:          MakeAF32(outputSize, inputSize),
		B:          MakeAF32(outputSize),
	}

	limit := math32.Sqrt(6 / float32(inputSize+outputSize))
	for i := 0; i < outputSize; i++ {
		for j := 0; j < inputSize; j++ {
			l.W.Set2(i, j, (2*r.Float32()-1)*limit)
		}
	}

	return l
}

// Apply the layer in the forward direction.
//
// x (input) is the layer input.  Shape (batchSize, lay.InputSize)
// a (output) is the layer's forward output.  Shape (batchSize, lay.OutputSize)
// dadz (output, optional) is the derivative of the activated output wrt the linear output.  Shape (batchSize, lay.OutputSize)
func (lay *Layer) Apply(x, a, dadz *AF32) {
	batchSize := x.Shape[0]
	inputSize := lay.InputSize
	outputSize := lay.OutputSize

	if x.Shape[1] != inputSize {
		panic("dimension mismatch")
	}
	if a.Shape[0] != batchSize || a.Shape[1] != outputSize {
		panic("dimension mismatch")
	}
	if dadz != nil {
		if dadz.Shape[0] != batchSize || dadz.Shape[1] != outputSize {
			panic("dimension mismatch")
		}
	}
	if lay.W.Shape[0] != outputSize || lay.W.Shape[1] != inputSize {
		panic("dimension mismatch")
	}
	if !slices.Equal(lay.B.Shape, []int{outputSize}) {
		panic(fmt.Sprintf("lay.B.Shape %v != {%d}", lay.B.Shape, outputSize))
	}

	// Write the linear activations into a.  Equivalent to
	//
	// for k := 0; k < batchSize; k++ {
	// 	for i := 0; i < outputSize; i++ {
	// 		var z float32
	// 		for j := 0; j < inputSize; j++ {
	// 			z += lay.W.At2(i, j) * x.At2(k, j)
	// 		}
	// 		z += lay.B.At1(i)
	// 		a.Set2(k, i, z)
	// 	}
	// }
	for k := 0; k < batchSize; k++ {
		for i := 0; i < outputSize; i++ {
			z := denseDot2(lay.W.V[i*inputSize:i*inputSize+inputSize], x.V[k*inputSize:k*inputSize+inputSize])
			z += lay.B.At1(i)
			a.Set2(k, i, z)
		}
	}

	// Apply activation function to a elementwise.  Store activation gradients
	// in dadz if provided.
	var dadzV []float32
	if dadz != nil {
		dadzV = dadz.V
	}
	activate(lay.Activation, a.V, dadzV)
}

// xT (input) is the layer input.  Shape (lay.InputSize, batchSize)
// djdaT (input) is the gradient of the loss wrt a.  Shape (lay.OutputSize, batchSize)
// dadzT (input) is the gradient of a_ik wrt z_ik.  Shape (lay.OutputSize, batchSize)
// dJdw (output) is the gradient of the loss wrt lay.W.  Shape (lay.OutputSize, lay.InputSize)
func (lay *Layer) BackpropDjdw(xT, djdaT, dadzT, djdw *AF32) {
	batchSize := xT.Shape[1]
	inputSize := lay.InputSize
	outputSize := lay.OutputSize

	// This function is equivalent to:
	//
	// for i := 0; i < outputSize; i++ {
	// 	for j := 0; j < inputSize; j++ {
	// 		var grad float32
	// 		for k := 0; k < batchSize; k++ {
	// 			grad += djdaT.At2(i, k) * dadzT.At2(i, k) * xT.At2(j, k)
	// 		}
	// 		djdw.Set2(i, j, grad)
	// 	}
	// }

	for i := 0; i < outputSize; i++ {
		for j := 0; j < inputSize; j++ {
			grad := denseDot3(
				djdaT.V[i*batchSize:i*batchSize+batchSize],
				dadzT.V[i*batchSize:i*batchSize+batchSize],
				xT.V[j*batchSize:j*batchSize+batchSize],
			)
			djdw.Set2(i, j, grad)
		}
	}
}

// djdaT (input) is the gradient of the loss wrt a.  Shape (lay.OutputSize, batchSize)
// dadzT (input) is the gradient of a_ik wrt z_ik.  Shape (lay.OutputSize, batchSize)
// dJdb (output) is the gradient of the loss wrt lay.B.  Shape (lay.OutputSize)
func (lay *Layer) BackpropDjdb(djdaT, dadzT, dJdb *AF32) {
	batchSize := djdaT.Shape[1]
	outputSize := lay.OutputSize

	iBase := 0
	for i := 0; i < outputSize; i++ {
		grad := denseDot2(djdaT.V[iBase:iBase+batchSize], dadzT.V[iBase:iBase+batchSize])
		dJdb.Set1(i, grad)

		iBase += batchSize
	}
}

// dJda (input) is the gradient of the loss wrt a.  Shape (batchSize, lay.OutputSize)
// dadz (input) is the gradient of a_ik wrt z_ik.  Shape (batchSize, lay.OutputSize)
// wT (input) is the layer weights, tranposed.  Shape (inputSize, outputSize)
// dJdx (output) is the gradient of the loss wrt x.  Shape (batchSize, lay.InputSize)
func (lay *Layer) BackpropDjdx(djda, dadz, wT, djdx *AF32) {
	batchSize := djda.Shape[0]
	inputSize := lay.InputSize
	outputSize := lay.OutputSize

	for k := 0; k < batchSize; k++ {
		for j := 0; j < inputSize; j++ {
			grad := denseDot3(
				djda.V[k*outputSize:k*outputSize+outputSize],
				dadz.V[k*outputSize:k*outputSize+outputSize],
				wT.V[j*outputSize:j*outputSize+outputSize],
			)
			djdx.Set2(k, j, grad)
		}
	}
}
