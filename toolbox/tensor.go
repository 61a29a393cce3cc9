package toolbox

import (
	"fmt"
)

// AF32 is a dense row-major float32 array.
type AF32 struct {
	V     []float32
	Shape []int
}

func MakeAF32(shape ...int) *AF32 {
	for _, s := range shape {
		if s <= 0 {
			panic(fmt.Sprintf("invalid shape: %v", shape))
		}
	}
	size := 1
	for _, s := range shape {
		size *= s
	}

	return &AF32{
		V:     make([]float32, size),
		Shape: shape,
	}
}

// MakeColumnAF32 wraps a copy of v as a (len(v), 1) tensor.
func MakeColumnAF32(v []float32) *AF32 {
	out := MakeAF32(len(v), 1)
	copy(out.V, v)
	return out
}

// AF32Copy allocates a tensor with the same shape as in.  Values are not
// copied.
func AF32Copy(in *AF32) *AF32 {
	shapeCopy := make([]int, len(in.Shape))
	copy(shapeCopy, in.Shape)
	return &AF32{
		V:     make([]float32, len(in.V)),
		Shape: shapeCopy,
	}
}

func AF32Transpose(in *AF32, out *AF32) {
	if len(in.Shape) != 2 {
		panic("cannot transpose if len(shape) != 2")
	}
	if len(in.V) != len(out.V) {
		panic("output storage is not correctly sized to store the transpose of the input")
	}
	out.Shape = []int{in.Shape[1], in.Shape[0]}

	rows, cols := in.Shape[0], in.Shape[1]
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.V[j*rows+i] = in.V[i*cols+j]
		}
	}
}

// AF32Reshape reshapes the input tensor.  The overall number of elements must
// be the same.  The returned tensor shares storage with the input tensor (no
// data is copied).
func AF32Reshape(a *AF32, shape ...int) *AF32 {
	newSize := 1
	for _, s := range shape {
		if s <= 0 {
			panic(fmt.Sprintf("invalid shape: %v", shape))
		}
		newSize *= s
	}

	if newSize != len(a.V) {
		panic("invalid reshape")
	}

	return &AF32{
		V:     a.V,
		Shape: shape,
	}
}

func (a *AF32) At1(idx int) float32 {
	return a.V[idx]
}

func (a *AF32) At2(idx0, idx1 int) float32 {
	if len(a.Shape) != 2 {
		panic("At2() invalid for len(shape) != 2")
	}
	return a.V[idx0*a.Shape[1]+idx1]
}

func (a *AF32) Set1(idx int, v float32) {
	a.V[idx] = v
}

func (a *AF32) Set2(idx0, idx1 int, v float32) {
	if len(a.Shape) != 2 {
		panic("Set2() invalid for len(shape) != 2")
	}
	a.V[idx0*a.Shape[1]+idx1] = v
}

// gatherRows copies the rows of src named by idx into dst.  dst must have
// shape (len(idx), src.Shape[1]).
func gatherRows(src *AF32, idx []int, dst *AF32) {
	cols := src.Shape[1]
	if dst.Shape[0] != len(idx) || dst.Shape[1] != cols {
		panic(fmt.Sprintf("gather destination has shape %v, want [%d %d]", dst.Shape, len(idx), cols))
	}
	for k, row := range idx {
		copy(dst.V[k*cols:k*cols+cols], src.V[row*cols:row*cols+cols])
	}
}
