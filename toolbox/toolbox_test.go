package toolbox

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/chewxy/math32"
)

func BenchmarkApply(b *testing.B) {
	r := rand.New(rand.NewSource(12345))

	net := &Network{
		LossFunction: MeanSquaredError,
		Layers: []*Layer{
			MakeDense(ReLU, 1, 100, r),
			MakeDense(ReLU, 100, 100, r),
			MakeDense(Linear, 100, 1, r),
		},
	}

	x := MakeAF32(50, 1)
	for k := range x.V {
		x.V[k] = 4*r.Float32() - 2
	}

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		_ = net.Apply(x)
	}
}

func BenchmarkFitEpoch(b *testing.B) {
	r := rand.New(rand.NewSource(12345))

	net := &Network{
		LossFunction: MeanSquaredError,
		Layers: []*Layer{
			MakeDense(ReLU, 1, 100, r),
			MakeDense(ReLU, 100, 100, r),
			MakeDense(Linear, 100, 1, r),
		},
	}

	x := MakeAF32(50, 1)
	y := MakeAF32(50, 1)
	for k := range x.V {
		x.V[k] = 4*r.Float32() - 2
		y.V[k] = x.V[k] * x.V[k]
	}

	opt := NewAdam(0.01)
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		net.Fit(x, y, opt, FitOptions{Epochs: 1, BatchSize: 32, Shuffle: true, Rand: r})
	}
}

func TestBackpropMatchesFiniteDifferences(t *testing.T) {
	r := rand.New(rand.NewSource(12345))

	for _, lossType := range []LossFunctionType{MeanSquaredError, MeanAbsoluteError} {
		t.Run(lossType.String(), func(t *testing.T) {
			net := &Network{
				LossFunction: lossType,
				Layers: []*Layer{
					MakeDense(Tanh, 2, 3, r),
					MakeDense(Sigmoid, 3, 3, r),
					MakeDense(Linear, 3, 2, r),
				},
			}
			for _, lay := range net.Layers {
				for i := range lay.B.V {
					lay.B.V[i] = r.Float32() - 0.5
				}
			}

			batchSize := 4
			x := MakeAF32(batchSize, 2)
			y := MakeAF32(batchSize, 2)
			for i := range x.V {
				x.V[i] = 2*r.Float32() - 1
				// Keep targets far from the outputs so the MAE kink is
				// never inside the finite difference interval.
				y.V[i] = 5 + r.Float32()
			}

			s := net.makeBackpropScratch(batchSize, 2, 2)
			copy(s.x.V, x.V)
			copy(s.y.V, y.V)
			g := net.MakeGradients()
			var timings Timings
			net.backprop(s, g, &timings)

			const h = 1e-2
			check := func(name string, params, grads []float32) {
				for i := range params {
					orig := params[i]
					params[i] = orig + h
					lossPlus := net.Loss(y, net.Apply(x), batchSize)
					params[i] = orig - h
					lossMinus := net.Loss(y, net.Apply(x), batchSize)
					params[i] = orig

					numeric := (lossPlus - lossMinus) / (2 * h)
					if math32.Abs(numeric-grads[i]) > 5e-3+1e-2*math32.Abs(numeric) {
						t.Errorf("%s[%d]: backprop gradient %v, finite difference %v", name, i, grads[i], numeric)
					}
				}
			}

			for l, lay := range net.Layers {
				check(fmt.Sprintf("W%d", l), lay.W.V, g.W[l].V)
				check(fmt.Sprintf("B%d", l), lay.B.V, g.B[l].V)
			}
		})
	}
}

func TestAdamFirstStepMovesByLearningRate(t *testing.T) {
	net := &Network{
		LossFunction: MeanSquaredError,
		Layers: []*Layer{
			{
				Activation: Linear,
				W:          MakeAF32(1, 2),
				B:          MakeAF32(1),
				InputSize:  2,
				OutputSize: 1,
			},
		},
	}

	g := net.MakeGradients()
	g.W[0].V[0] = 3
	g.W[0].V[1] = -0.5
	g.B[0].V[0] = 0.25

	opt := NewAdam(0.01)
	opt.Step(net, g)

	// The bias-corrected first Adam step is alpha * g / |g|.
	want := []float32{-0.01, 0.01}
	for i, w := range want {
		if got := net.Layers[0].W.V[i]; math32.Abs(got-w) > 1e-5 {
			t.Errorf("W[%d] after one step; got %v, want %v", i, got, w)
		}
	}
	if got := net.Layers[0].B.V[0]; math32.Abs(got+0.01) > 1e-5 {
		t.Errorf("B[0] after one step; got %v, want %v", got, -0.01)
	}
	if opt.Steps() != 1 {
		t.Errorf("Steps() = %d, want 1", opt.Steps())
	}
}

func TestFitHistory(t *testing.T) {
	testCases := []struct {
		name      string
		samples   int
		epochs    int
		batchSize int
	}{
		{name: "partial last batch", samples: 50, epochs: 7, batchSize: 32},
		{name: "exact batches", samples: 64, epochs: 3, batchSize: 32},
		{name: "batch larger than data", samples: 10, epochs: 4, batchSize: 32},
		{name: "single sample batches", samples: 5, epochs: 2, batchSize: 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := rand.New(rand.NewSource(12345))
			net := &Network{
				LossFunction: MeanSquaredError,
				Layers: []*Layer{
					MakeDense(ReLU, 1, 8, r),
					MakeDense(ReLU, 8, 8, r),
					MakeDense(Linear, 8, 1, r),
				},
			}

			x := MakeAF32(tc.samples, 1)
			y := MakeAF32(tc.samples, 1)
			for k := range x.V {
				x.V[k] = 4*r.Float32() - 2
				y.V[k] = x.V[k] * x.V[k]
			}

			history, _ := net.Fit(x, y, NewAdam(0.01), FitOptions{
				Epochs:    tc.epochs,
				BatchSize: tc.batchSize,
				Shuffle:   true,
				Rand:      r,
			})

			if len(history) != tc.epochs {
				t.Fatalf("len(history) = %d, want %d", len(history), tc.epochs)
			}
			for i, loss := range history {
				if math32.IsNaN(loss) || math32.IsInf(loss, 0) || loss < 0 {
					t.Errorf("history[%d] = %v, want finite non-negative", i, loss)
				}
			}
		})
	}
}

func TestFitSingleBatchWhenBatchExceedsSamples(t *testing.T) {
	r := rand.New(rand.NewSource(12345))
	net := &Network{
		LossFunction: MeanSquaredError,
		Layers: []*Layer{
			MakeDense(Linear, 1, 1, r),
		},
	}
	x := MakeColumnAF32([]float32{-1, 0, 1, 2})
	y := MakeColumnAF32([]float32{1, 2, 3, 4})

	opt := NewAdam(0.01)
	net.Fit(x, y, opt, FitOptions{Epochs: 3, BatchSize: 1000, Shuffle: true, Rand: r})

	if opt.Steps() != 3 {
		t.Errorf("optimizer steps = %d, want one per epoch (3)", opt.Steps())
	}
}

func TestFitReducesLoss(t *testing.T) {
	r := rand.New(rand.NewSource(12345))
	net := &Network{
		LossFunction: MeanSquaredError,
		Layers: []*Layer{
			MakeDense(ReLU, 1, 32, r),
			MakeDense(ReLU, 32, 32, r),
			MakeDense(Linear, 32, 1, r),
		},
	}

	x := MakeAF32(64, 1)
	y := MakeAF32(64, 1)
	for k := range x.V {
		x.V[k] = 4*r.Float32() - 2
		y.V[k] = x.V[k]*x.V[k] - 1
	}

	history, _ := net.Fit(x, y, NewAdam(0.01), FitOptions{Epochs: 100, BatchSize: 16, Shuffle: true, Rand: r})

	first, last := history[0], history[len(history)-1]
	if last >= first/4 {
		t.Errorf("loss did not drop enough; first epoch %v, last epoch %v", first, last)
	}
}

func TestPredictMatchesApply(t *testing.T) {
	r := rand.New(rand.NewSource(12345))
	net := &Network{
		Layers: []*Layer{
			MakeDense(ReLU, 1, 4, r),
			MakeDense(Linear, 4, 1, r),
		},
	}

	xs := []float32{-2, -0.5, 0, 1.25}
	pred := net.Predict(xs)
	out := net.Apply(MakeColumnAF32(xs))
	for k := range xs {
		if pred[k] != out.At2(k, 0) {
			t.Errorf("Predict()[%d] = %v, Apply gives %v", k, pred[k], out.At2(k, 0))
		}
	}

	if got := net.Predict(nil); got != nil {
		t.Errorf("Predict(nil) = %v, want nil", got)
	}
}

func TestParseNames(t *testing.T) {
	for name, want := range map[string]ActivationType{"relu": ReLU, "linear": Linear, "sigmoid": Sigmoid, "tanh": Tanh} {
		got, err := ParseActivation(name)
		if err != nil {
			t.Errorf("ParseActivation(%q): %v", name, err)
		}
		if got != want {
			t.Errorf("ParseActivation(%q) = %v, want %v", name, got, want)
		}
	}
	if _, err := ParseActivation("softplus"); err == nil {
		t.Errorf("ParseActivation(softplus) should fail")
	}

	for name, want := range map[string]LossFunctionType{"meanSquaredError": MeanSquaredError, "mse": MeanSquaredError, "meanAbsoluteError": MeanAbsoluteError, "mae": MeanAbsoluteError} {
		got, err := ParseLossFunction(name)
		if err != nil {
			t.Errorf("ParseLossFunction(%q): %v", name, err)
		}
		if got != want {
			t.Errorf("ParseLossFunction(%q) = %v, want %v", name, got, want)
		}
	}
	if _, err := ParseLossFunction("huber"); err == nil {
		t.Errorf("ParseLossFunction(huber) should fail")
	}

	if opt, err := ParseOptimizer("adam", 0.01); err != nil {
		t.Errorf("ParseOptimizer(adam): %v", err)
	} else if _, ok := opt.(*Adam); !ok {
		t.Errorf("ParseOptimizer(adam) returned %T", opt)
	}
	if opt, err := ParseOptimizer("sgd", 0.01); err != nil {
		t.Errorf("ParseOptimizer(sgd): %v", err)
	} else if _, ok := opt.(*SGD); !ok {
		t.Errorf("ParseOptimizer(sgd) returned %T", opt)
	}
	if _, err := ParseOptimizer("rmsprop", 0.01); err == nil {
		t.Errorf("ParseOptimizer(rmsprop) should fail")
	}
}
