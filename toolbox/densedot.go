package toolbox

// denseDot2 is the inner product of x and y.
//
// The loop is unrolled by four with independent accumulators, which lets the
// compiler keep the partial sums in registers.
func denseDot2(x []float32, y []float32) float32 {
	if len(x) != len(y) {
		panic("mismatched length")
	}

	var s0, s1, s2, s3 float32
	for len(x) >= 4 && len(y) >= 4 {
		s0 += x[0] * y[0]
		s1 += x[1] * y[1]
		s2 += x[2] * y[2]
		s3 += x[3] * y[3]
		x = x[4:]
		y = y[4:]
	}

	sum := (s0 + s1) + (s2 + s3)

	// Handle the tail.
	if len(x) == len(y) {
		for i := 0; i < len(x); i++ {
			sum += x[i] * y[i]
		}
	}

	return sum
}

// denseDot3 is sum_i x[i]*y[i]*z[i].
func denseDot3(x, y, z []float32) float32 {
	if len(x) != len(y) || len(x) != len(z) {
		panic("all input slices must have the same length")
	}

	var s0, s1 float32
	i := 0
	for ; i+2 <= len(x); i += 2 {
		s0 += x[i] * y[i] * z[i]
		s1 += x[i+1] * y[i+1] * z[i+1]
	}
	if i < len(x) {
		s0 += x[i] * y[i] * z[i]
	}
	return s0 + s1
}
