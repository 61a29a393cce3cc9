package toolbox

import (
	"fmt"
	"slices"

	"github.com/chewxy/math32"
)

type LossFunctionType int

const (
	MeanSquaredError LossFunctionType = iota
	MeanAbsoluteError
)

// ParseLossFunction accepts both the long camel-case names
// ("meanSquaredError") and the short aliases ("mse", "mae").
func ParseLossFunction(name string) (LossFunctionType, error) {
	switch name {
	case "meanSquaredError", "mse":
		return MeanSquaredError, nil
	case "meanAbsoluteError", "mae":
		return MeanAbsoluteError, nil
	default:
		return 0, fmt.Errorf("unsupported loss function %q", name)
	}
}

func (t LossFunctionType) String() string {
	switch t {
	case MeanSquaredError:
		return "meanSquaredError"
	case MeanAbsoluteError:
		return "meanAbsoluteError"
	default:
		return fmt.Sprintf("LossFunctionType(%d)", int(t))
	}
}

func checkLossShapes(y, a *AF32) {
	if len(y.Shape) != 2 {
		panic("len(y.Shape) != 2")
	}
	if len(a.Shape) != 2 {
		panic("len(a.Shape) != 2")
	}
	if !slices.Equal(y.Shape, a.Shape) {
		panic("y and a must have same shape")
	}
}

// y is the ground truth output.  Shape (batchSize, lay.OutputSize)
// a is the layer's forward output.  Shape (batchSize, lay.OutputSize)
// denom is the total number of samples we will calculate the loss over.  Useful for computing the loss over a set of batches.
func MeanSquaredErrorLoss(y, a *AF32, denom int) float32 {
	checkLossShapes(y, a)

	batchSize := y.Shape[0]
	outputSize := y.Shape[1]

	loss := float32(0)

	for k := 0; k < batchSize; k++ {
		for i := 0; i < outputSize; i++ {
			diff := a.At2(k, i) - y.At2(k, i)
			loss += diff * diff / float32(denom) / float32(outputSize)
		}
	}

	return loss
}

// y is the ground truth output.  Shape (batchSize, lay.OutputSize)
// a is the layer's forward output.  Shape (batchSize, lay.OutputSize)
// dJda (output) is storage for the gradient of the loss wrt a.  Shape (batchSize, lay.OutputSize)
func MeanSquaredErrorLossGradient(y, a, dJda *AF32) {
	checkLossShapes(y, a)
	if !slices.Equal(y.Shape, dJda.Shape) {
		panic("y and dJda must have same shape")
	}

	batchSize := a.Shape[0]
	outputSize := a.Shape[1]

	for k := 0; k < batchSize; k++ {
		for i := 0; i < outputSize; i++ {
			grad := 2 * (a.At2(k, i) - y.At2(k, i)) / float32(batchSize) / float32(outputSize)
			dJda.Set2(k, i, grad)
		}
	}
}

func MeanAbsoluteErrorLoss(y, a *AF32, denom int) float32 {
	checkLossShapes(y, a)

	batchSize := y.Shape[0]
	outputSize := y.Shape[1]

	loss := float32(0)
	for k := 0; k < batchSize; k++ {
		for i := 0; i < outputSize; i++ {
			loss += math32.Abs(a.At2(k, i)-y.At2(k, i)) / float32(denom) / float32(outputSize)
		}
	}
	return loss
}

// The subgradient at a == y is taken to be zero.
func MeanAbsoluteErrorLossGradient(y, a, dJda *AF32) {
	checkLossShapes(y, a)
	if !slices.Equal(y.Shape, dJda.Shape) {
		panic("y and dJda must have same shape")
	}

	batchSize := a.Shape[0]
	outputSize := a.Shape[1]

	for k := 0; k < batchSize; k++ {
		for i := 0; i < outputSize; i++ {
			var sign float32
			switch diff := a.At2(k, i) - y.At2(k, i); {
			case diff > 0:
				sign = 1
			case diff < 0:
				sign = -1
			}
			dJda.Set2(k, i, sign/float32(batchSize)/float32(outputSize))
		}
	}
}
