package types

import "testing"

func TestElementarySizes(t *testing.T) {
	cases := []struct {
		typ  *ElementaryType
		size int
	}{
		{Bool, 1}, {Sint, 1}, {Usint, 1},
		{Int, 2}, {Uint, 2},
		{Dint, 4}, {Udint, 4}, {Real, 4}, {Time, 4}, {Date, 4}, {Tod, 4},
		{Lint, 8}, {Ulint, 8}, {Lreal, 8}, {Dt, 8},
	}
	for _, c := range cases {
		if got := c.typ.Size(); got != c.size {
			t.Errorf("%s: got size %d, want %d", c.typ, got, c.size)
		}
	}
}

func TestIsFloatIsInteger(t *testing.T) {
	if !Real.IsFloat() || Real.IsInteger() {
		t.Error("REAL should be float, not integer")
	}
	if !Dint.IsInteger() || Dint.IsFloat() {
		t.Error("DINT should be integer, not float")
	}
	if Bool.IsFloat() || Bool.IsInteger() {
		t.Error("BOOL should be neither float nor integer")
	}
}

func TestByKindRoundTrip(t *testing.T) {
	if ByKind(REAL) != Real {
		t.Error("ByKind(REAL) did not return the Real singleton")
	}
}

func TestStringTypeSize(t *testing.T) {
	s := NewStringType(false)
	// 2 (len) + 2 (cap) + (80+1) bytes
	want := 2 + 2 + 81
	if got := s.Size(); got != want {
		t.Errorf("got size %d, want %d", got, want)
	}
	w := NewStringType(true)
	wantWide := 2 + 2 + 81*2
	if got := w.Size(); got != wantWide {
		t.Errorf("wide: got size %d, want %d", got, wantWide)
	}
}

func TestArrayTypeRejectsTooManyDimensions(t *testing.T) {
	_, err := NewArrayType(Int, []Dimension{{0, 1}, {0, 1}, {0, 1}, {0, 1}})
	if err == nil {
		t.Fatal("expected error for 4 dimensions")
	}
}

func TestArrayTypeRejectsInvertedBounds(t *testing.T) {
	_, err := NewArrayType(Int, []Dimension{{5, 1}})
	if err == nil {
		t.Fatal("expected error for upper < lower")
	}
}

func TestArrayTypeSize(t *testing.T) {
	arr, err := NewArrayType(Dint, []Dimension{{0, 9}}) // 10 elements * 4 bytes
	if err != nil {
		t.Fatal(err)
	}
	if got := arr.Size(); got != 40 {
		t.Errorf("got size %d, want 40", got)
	}
}

func TestArrayTypeOffsetFormula(t *testing.T) {
	// ARRAY[0..2,0..3,0..4] OF INT — mirrors spec.md's address formula example.
	arr, err := NewArrayType(Int, []Dimension{{0, 2}, {0, 3}, {0, 4}})
	if err != nil {
		t.Fatal(err)
	}
	// s1 = dims[1].Length()*dims[2].Length() = 4*5 = 20
	// s2 = dims[2].Length() = 5
	off, err := arr.Offset([]int{1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	want := ((1)*20 + (2)*5 + 3) * 2
	if off != want {
		t.Errorf("got offset %d, want %d", off, want)
	}
}

func TestArrayTypeOffsetOutOfBounds(t *testing.T) {
	arr, _ := NewArrayType(Int, []Dimension{{0, 2}})
	if _, err := arr.Offset([]int{5}); err == nil {
		t.Fatal("expected out-of-bounds error")
	}
}

func TestPointerTypeSize(t *testing.T) {
	p := &PointerType{Base: Dint}
	if p.Size() != PointerSize {
		t.Errorf("got %d, want %d", p.Size(), PointerSize)
	}
}
