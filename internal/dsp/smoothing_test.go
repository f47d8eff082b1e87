package dsp

import "testing"

func constantPlane(rows, cols int, v float64) Plane {
	p := NewPlane(rows, cols)
	for r := range p {
		for c := range p[r] {
			p[r][c] = v
		}
	}
	return p
}

func TestSmoothSeparablePreservesConstantField(t *testing.T) {
	in := constantPlane(10, 10, 42)
	out := SmoothSeparable(in, 5, 7)
	for r := 3; r < 7; r++ {
		for c := 4; c < 6; c++ {
			if out[r][c] != 42 {
				t.Fatalf("out[%d][%d] = %v, want 42 (constant field is its own blur)", r, c, out[r][c])
			}
		}
	}
}

func TestSmoothSeparableCopiesBorderUnchanged(t *testing.T) {
	in := constantPlane(10, 10, 0)
	in[0][0] = 99
	out := SmoothSeparable(in, 5, 7)
	if out[0][0] != 99 {
		t.Errorf("out[0][0] = %v, want 99 (border copied unchanged)", out[0][0])
	}
}

func TestSmoothFastPathsBitIdenticalToGeneral(t *testing.T) {
	in := NewPlane(20, 20)
	v := 1.0
	for r := range in {
		for c := range in[r] {
			in[r][c] = v
			v += 0.37
		}
	}

	fast57 := SmoothFast5x7(in)
	general57 := SmoothSeparable(in, 5, 7)
	for r := range in {
		for c := range in[r] {
			if fast57[r][c] != general57[r][c] {
				t.Fatalf("5x7 mismatch at (%d,%d): fast=%v general=%v", r, c, fast57[r][c], general57[r][c])
			}
		}
	}

	fast715 := SmoothFast7x15(in)
	general715 := SmoothSeparable(in, 7, 15)
	for r := range in {
		for c := range in[r] {
			if fast715[r][c] != general715[r][c] {
				t.Fatalf("7x15 mismatch at (%d,%d): fast=%v general=%v", r, c, fast715[r][c], general715[r][c])
			}
		}
	}
}
