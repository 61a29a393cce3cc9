package toolbox

import (
	"fmt"
	"math/rand"
	"time"
)

type Network struct {
	LossFunction LossFunctionType
	Layers       []*Layer
}

// History is the per-epoch training loss recorded by Fit.
type History []float32

// Gradients holds the gradient of the loss wrt every parameter of a Network,
// laid out the same way as the layers' W and B.
type Gradients struct {
	W []*AF32
	B []*AF32
}

func (net *Network) MakeGradients() *Gradients {
	g := &Gradients{
		W: make([]*AF32, len(net.Layers)),
		B: make([]*AF32, len(net.Layers)),
	}
	for l, lay := range net.Layers {
		g.W[l] = MakeAF32(lay.OutputSize, lay.InputSize)
		g.B[l] = MakeAF32(lay.OutputSize)
	}
	return g
}

type Timings struct {
	Overall         time.Duration
	Forward         time.Duration
	Loss            time.Duration
	Backpropagation time.Duration
	Update          time.Duration
}

func (t *Timings) Reset() {
	*t = Timings{}
}

// x is the input.  Shape (batchSize, layers[0].InputSize)
func (net *Network) Apply(x *AF32) *AF32 {
	batchSize := x.Shape[0]

	// Collect max-sized layer output needed.
	maxOutputSize := x.Shape[1]
	for l := 0; l < len(net.Layers); l++ {
		if net.Layers[l].OutputSize > maxOutputSize {
			maxOutputSize = net.Layers[l].OutputSize
		}
	}

	// Make these in a weird way because we're going to keep resizing them as
	// we move forward through the layers.
	a0 := &AF32{
		V:     make([]float32, 0, batchSize*maxOutputSize),
		Shape: []int{0, 0},
	}
	a1 := &AF32{
		V:     make([]float32, 0, batchSize*maxOutputSize),
		Shape: []int{0, 0},
	}

	// Copy the input into a0
	a0.V = a0.V[:batchSize*x.Shape[1]]
	a0.Shape[0] = batchSize
	a0.Shape[1] = x.Shape[1]
	copy(a0.V, x.V)

	for l := 0; l < len(net.Layers); l++ {
		// Resize our output correctly for this layer.
		a1.V = a1.V[:batchSize*net.Layers[l].OutputSize]
		a1.Shape[0] = batchSize
		a1.Shape[1] = net.Layers[l].OutputSize

		net.Layers[l].Apply(a0, a1, nil) // no need to save activation gradients

		// This layer's output becomes the input for the next layer.
		a0, a1 = a1, a0
	}

	return a0
}

// Predict runs a network with a single input and a single output over every
// value in xs.
func (net *Network) Predict(xs []float32) []float32 {
	if len(xs) == 0 {
		return nil
	}
	if net.Layers[0].InputSize != 1 {
		panic(fmt.Sprintf("Predict needs a single-input network, got input size %d", net.Layers[0].InputSize))
	}

	out := net.Apply(MakeColumnAF32(xs))

	pred := make([]float32, len(xs))
	for k := range pred {
		pred[k] = out.At2(k, 0)
	}
	return pred
}

// ys is the ground truth output batches.  Shape (batchSize, outputSize)
// predictions is the network output.  Shape (batchSize, outputSize)
func (net *Network) Loss(ys, predictions *AF32, totalSamples int) float32 {
	switch net.LossFunction {
	case MeanSquaredError:
		return MeanSquaredErrorLoss(ys, predictions, totalSamples)
	case MeanAbsoluteError:
		return MeanAbsoluteErrorLoss(ys, predictions, totalSamples)
	default:
		panic("unimplemented loss function type")
	}
}

func (net *Network) lossGradient(y, a, djda *AF32) {
	switch net.LossFunction {
	case MeanSquaredError:
		MeanSquaredErrorLossGradient(y, a, djda)
	case MeanAbsoluteError:
		MeanAbsoluteErrorLossGradient(y, a, djda)
	default:
		panic("unimplemented loss function type")
	}
}

// backpropScratch is the working storage for one batch size.
type backpropScratch struct {
	x, y *AF32
	xT   *AF32

	wT []*AF32

	a, dadz, djda    []*AF32
	aT, dadzT, djdaT []*AF32
}

func (net *Network) makeBackpropScratch(batchSize, inputSize, outputSize int) *backpropScratch {
	s := &backpropScratch{
		x:  MakeAF32(batchSize, inputSize),
		y:  MakeAF32(batchSize, outputSize),
		xT: MakeAF32(inputSize, batchSize),
	}

	s.wT = make([]*AF32, len(net.Layers))
	s.a = make([]*AF32, len(net.Layers))
	s.aT = make([]*AF32, len(net.Layers))
	s.dadz = make([]*AF32, len(net.Layers))
	s.dadzT = make([]*AF32, len(net.Layers))
	s.djda = make([]*AF32, len(net.Layers))
	s.djdaT = make([]*AF32, len(net.Layers))
	for l, lay := range net.Layers {
		s.wT[l] = MakeAF32(lay.InputSize, lay.OutputSize)
		s.a[l] = MakeAF32(batchSize, lay.OutputSize)
		s.aT[l] = MakeAF32(lay.OutputSize, batchSize)
		s.dadz[l] = MakeAF32(batchSize, lay.OutputSize)
		s.dadzT[l] = MakeAF32(lay.OutputSize, batchSize)
		s.djda[l] = MakeAF32(batchSize, lay.OutputSize)
		s.djdaT[l] = MakeAF32(lay.OutputSize, batchSize)
	}
	return s
}

// backprop runs the batch in s.x, s.y forward and backward, writing the
// parameter gradients into g.  It returns the mean loss over the batch.
func (net *Network) backprop(s *backpropScratch, g *Gradients, t *Timings) float32 {
	batchSize := s.x.Shape[0]
	last := len(net.Layers) - 1

	forwardStart := time.Now()

	// Forward application, saving the activation gradients at each layer.
	net.Layers[0].Apply(s.x, s.a[0], s.dadz[0])
	for l := 1; l < len(net.Layers); l++ {
		net.Layers[l].Apply(s.a[l-1], s.a[l], s.dadz[l])
	}

	t.Forward += time.Since(forwardStart)

	lossStart := time.Now()

	loss := net.Loss(s.y, s.a[last], batchSize)
	net.lossGradient(s.y, s.a[last], s.djda[last])

	t.Loss += time.Since(lossStart)

	backpropStart := time.Now()

	// Create transposed copies of djda, dadz, and a/x.  Backprop calculations
	// of djdw and djdb are better with k being the inner dimension.
	//
	// djdx of layer l is the djda of layer l-1.
	AF32Transpose(s.x, s.xT)
	for l := last; l >= 0; l-- {
		AF32Transpose(s.djda[l], s.djdaT[l])
		AF32Transpose(s.dadz[l], s.dadzT[l])

		in := s.xT
		if l > 0 {
			AF32Transpose(s.a[l-1], s.aT[l-1])
			in = s.aT[l-1]
		}

		net.Layers[l].BackpropDjdw(in, s.djdaT[l], s.dadzT[l], g.W[l])
		net.Layers[l].BackpropDjdb(s.djdaT[l], s.dadzT[l], g.B[l])

		if l > 0 {
			AF32Transpose(net.Layers[l].W, s.wT[l])
			net.Layers[l].BackpropDjdx(s.djda[l], s.dadz[l], s.wT[l], s.djda[l-1])
		}
	}

	t.Backpropagation += time.Since(backpropStart)

	return loss
}

type FitOptions struct {
	Epochs int

	// BatchSize larger than the number of samples means a single batch per
	// epoch.
	BatchSize int

	// Shuffle reorders the samples before every epoch using Rand.
	Shuffle bool
	Rand    *rand.Rand
}

// Fit trains the network in place with mini-batch updates from opt.
//
// x is the input.  Shape (samples, layers[0].InputSize)
// y is the ground truth output.  Shape (samples, outputSize)
//
// The returned history holds one entry per epoch: the sample-weighted mean of
// the batch losses seen during that epoch, each measured before the batch's
// update was applied.
func (net *Network) Fit(x, y *AF32, opt Optimizer, fo FitOptions) (History, Timings) {
	if len(x.Shape) != 2 || len(y.Shape) != 2 {
		panic("Fit needs 2-dimensional inputs and targets")
	}
	n := x.Shape[0]
	if y.Shape[0] != n {
		panic(fmt.Sprintf("have %d inputs but %d targets", n, y.Shape[0]))
	}
	if fo.BatchSize <= 0 {
		panic(fmt.Sprintf("invalid batch size %d", fo.BatchSize))
	}
	if fo.Shuffle && fo.Rand == nil {
		panic("shuffling needs a random source")
	}
	batchSize := min(fo.BatchSize, n)

	g := net.MakeGradients()
	scratch := map[int]*backpropScratch{}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}

	var timings Timings
	history := make(History, 0, fo.Epochs)

	for epoch := 0; epoch < fo.Epochs; epoch++ {
		if fo.Shuffle {
			fo.Rand.Shuffle(n, func(i, j int) {
				order[i], order[j] = order[j], order[i]
			})
		}

		var epochLoss float32
		for start := 0; start < n; start += batchSize {
			end := min(start+batchSize, n)

			s, ok := scratch[end-start]
			if !ok {
				s = net.makeBackpropScratch(end-start, x.Shape[1], y.Shape[1])
				scratch[end-start] = s
			}

			stepStart := time.Now()

			gatherRows(x, order[start:end], s.x)
			gatherRows(y, order[start:end], s.y)

			batchLoss := net.backprop(s, g, &timings)

			updateStart := time.Now()
			opt.Step(net, g)
			timings.Update += time.Since(updateStart)

			timings.Overall += time.Since(stepStart)

			epochLoss += batchLoss * float32(end-start)
		}

		history = append(history, epochLoss/float32(n))
	}

	return history, timings
}
