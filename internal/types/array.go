package types

import (
	"fmt"
	"strings"
)

// Dimension is one array dimension's inclusive bounds.
type Dimension struct {
	Lower int
	Upper int
}

// Length returns the number of elements along this dimension.
func (d Dimension) Length() int { return d.Upper - d.Lower + 1 }

// ArrayType is a 1-3 dimensional array over an element type. Spec invariant:
// more than 3 dimensions is rejected by the parser before this type is ever
// constructed.
type ArrayType struct {
	Element Type
	Dims    []Dimension
}

// NewArrayType constructs an ArrayType, validating the dimension count.
func NewArrayType(element Type, dims []Dimension) (*ArrayType, error) {
	if len(dims) < 1 || len(dims) > 3 {
		return nil, fmt.Errorf("array dimension count must be 1-3, got %d", len(dims))
	}
	for _, d := range dims {
		if d.Upper < d.Lower {
			return nil, fmt.Errorf("array upper bound %d is less than lower bound %d", d.Upper, d.Lower)
		}
	}
	return &ArrayType{Element: element, Dims: dims}, nil
}

func (a *ArrayType) String() string {
	parts := make([]string, len(a.Dims))
	for i, d := range a.Dims {
		parts[i] = fmt.Sprintf("%d..%d", d.Lower, d.Upper)
	}
	return fmt.Sprintf("ARRAY[%s] OF %s", strings.Join(parts, ","), a.Element.String())
}

func (a *ArrayType) Size() int {
	total := a.Element.Size()
	for _, d := range a.Dims {
		total *= d.Length()
	}
	return total
}

// Strides returns, for each dimension, the number of elements spanned by one
// step of the preceding (more significant) dimension: Strides[k] = product of
// Length() for all dimensions after k. This is `s1*s2`/`s2`/`1` in spec.md's
// address formula `base + ((i0-l0)*s1*s2 + (i1-l1)*s2 + (i2-l2)) * element_size`.
func (a *ArrayType) Strides() []int {
	strides := make([]int, len(a.Dims))
	acc := 1
	for i := len(a.Dims) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= a.Dims[i].Length()
	}
	return strides
}

// Offset computes the byte offset of the element at the given indices,
// relative to the array's base address, per spec.md's address formula.
func (a *ArrayType) Offset(indices []int) (int, error) {
	if len(indices) != len(a.Dims) {
		return 0, fmt.Errorf("array access expects %d indices, got %d", len(a.Dims), len(indices))
	}
	strides := a.Strides()
	elem := 0
	for i, idx := range indices {
		d := a.Dims[i]
		if idx < d.Lower || idx > d.Upper {
			return 0, fmt.Errorf("array index %d out of bounds [%d..%d]", idx, d.Lower, d.Upper)
		}
		elem += (idx - d.Lower) * strides[i]
	}
	return elem * a.Element.Size(), nil
}
