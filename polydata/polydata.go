// Package polydata generates the noisy quintic regression dataset and splits
// it into train and test halves.
package polydata

import (
	"math/rand"

	"github.com/chewxy/math32"
	"gonum.org/v1/gonum/stat"
)

// Domain of the generated inputs.
const (
	XMin = float32(-2)
	XMax = float32(2)
)

// Polynomial is the fixed fifth-degree curve the dataset samples:
//
//	0.5 (x+0.8)(x+1.8)(x-0.2)(x-0.3)(x-1.9) + 1
func Polynomial(x float32) float32 {
	return 0.5*(x+0.8)*(x+1.8)*(x-0.2)*(x-0.3)*(x-1.9) + 1
}

// Dataset stores the samples column-wise.  YNoisy[i] is Y[i] plus one
// independent Gaussian draw.
type Dataset struct {
	X      []float32
	Y      []float32
	YNoisy []float32
}

// Generate draws n inputs uniformly from [XMin, XMax) and then one noise
// sample per input with standard deviation sqrt(noiseVariance).
func Generate(r *rand.Rand, n int, noiseVariance float32) *Dataset {
	ds := &Dataset{
		X:      make([]float32, n),
		Y:      make([]float32, n),
		YNoisy: make([]float32, n),
	}

	for i := 0; i < n; i++ {
		ds.X[i] = XMin + (XMax-XMin)*r.Float32()
		ds.Y[i] = Polynomial(ds.X[i])
	}

	stddev := math32.Sqrt(noiseVariance)
	for i := 0; i < n; i++ {
		ds.YNoisy[i] = ds.Y[i] + stddev*float32(r.NormFloat64())
	}

	return ds
}

func (ds *Dataset) Len() int {
	return len(ds.X)
}

// Subset gathers the samples named by idx, in idx order.
func (ds *Dataset) Subset(idx []int) *Dataset {
	return &Dataset{
		X:      Gather(ds.X, idx),
		Y:      Gather(ds.Y, idx),
		YNoisy: Gather(ds.YNoisy, idx),
	}
}

// NoiseStats is the sample mean and unbiased variance of YNoisy - Y.
func (ds *Dataset) NoiseStats() (mean, variance float64) {
	noise := make([]float64, ds.Len())
	for i := range noise {
		noise[i] = float64(ds.YNoisy[i]) - float64(ds.Y[i])
	}
	return stat.MeanVariance(noise, nil)
}

// Split permutes [0, n) and returns the first n/2 indices as the training
// set and the rest as the test set.
func Split(r *rand.Rand, n int) (train, test []int) {
	perm := r.Perm(n)
	half := n / 2
	return perm[:half:half], perm[half:]
}

func Gather(values []float32, idx []int) []float32 {
	out := make([]float32, len(idx))
	for k, i := range idx {
		out[k] = values[i]
	}
	return out
}
