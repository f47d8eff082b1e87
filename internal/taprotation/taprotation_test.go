package taprotation

import (
	"testing"

	"github.com/dinesh-mcw/m30-sub000/internal/roi"
)

func buildRaw(height, perms int, fill func(row, col, tr, freq, perm int) uint16) roi.Raw {
	r := roi.Raw{Height: height, Perms: perms}
	r.Samples = make([][][][][]uint16, height)
	for row := 0; row < height; row++ {
		r.Samples[row] = make([][][][]uint16, roi.Width)
		for col := 0; col < roi.Width; col++ {
			r.Samples[row][col] = make([][][]uint16, roi.TripletSize)
			for tr := 0; tr < roi.TripletSize; tr++ {
				r.Samples[row][col][tr] = make([][]uint16, roi.Freqs)
				for f := 0; f < roi.Freqs; f++ {
					r.Samples[row][col][tr][f] = make([]uint16, perms)
					for p := 0; p < perms; p++ {
						r.Samples[row][col][tr][f][p] = fill(row, col, tr, f, p)
					}
				}
			}
		}
	}
	return r
}

func TestRotatePassthroughWhenSinglePerm(t *testing.T) {
	r := buildRaw(1, 1, func(row, col, tr, freq, perm int) uint16 {
		return uint16(tr + 1)
	})
	frame := Rotate(r)
	got := frame.Triplets[0][0][0]
	want := Triplet{1, 2, 3}
	if got != want {
		t.Errorf("Triplets[0][0][0] = %v, want %v", got, want)
	}
}

func TestRotateSumsThreePermutations(t *testing.T) {
	// Each permutation p contributes a constant value (p+1) on every tap.
	r := buildRaw(1, 3, func(row, col, tr, freq, perm int) uint16 {
		return uint16(perm + 1)
	})
	frame := Rotate(r)
	got := frame.Triplets[0][0][0]
	// Regardless of rotation, every output component sums 1+2+3=6 since all
	// taps within a permutation carry the same value.
	want := Triplet{6, 6, 6}
	if got != want {
		t.Errorf("Triplets[0][0][0] = %v, want %v", got, want)
	}
}

func TestRotateDistributesDistinctTapValues(t *testing.T) {
	// perm 0 untouched (A=10,B=20,C=30); perm 1 and 2 are zero, so output
	// should equal perm 0's triplet exactly.
	r := buildRaw(1, 3, func(row, col, tr, freq, perm int) uint16 {
		if perm != 0 {
			return 0
		}
		return uint16(10 * (tr + 1))
	})
	frame := Rotate(r)
	got := frame.Triplets[0][0][0]
	want := Triplet{10, 20, 30}
	if got != want {
		t.Errorf("Triplets[0][0][0] = %v, want %v", got, want)
	}
}
