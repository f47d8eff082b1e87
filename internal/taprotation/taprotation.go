// Package taprotation implements the tap rotation step (spec.md §4.4): it
// turns the wire ROI's A/B/C phase-tap triplet, possibly still split across
// three phase-permuted sub-acquisitions, into one float triplet per
// frequency ready for the phase DSP kernels.
//
// Grounded on the teacher's small, allocation-free per-point numeric
// transforms (internal/lidar/l2frames/geometry.go): a pure function over
// fixed-size arrays, no state, called once per pixel in a hot loop.
package taprotation

import "github.com/dinesh-mcw/m30-sub000/internal/roi"

// Triplet is one pixel's A, B, C phase-tap components for one frequency,
// in floating point.
type Triplet [3]float64

// Frame holds the rotated triplets for a whole ROI, one per pixel per
// frequency: Triplets[row][col][freq].
type Frame struct {
	Height   int
	Freqs    int
	Triplets [][][]Triplet
}

// Rotate produces a Frame from a raw ROI. When r.Perms == 1 this is a pure
// float conversion (the producer already accumulated the permutations).
// When r.Perms == 3, each of the three stacked permutations has its A/B/C
// components cyclically rotated by its own index (0, 1, 2) before the three
// are summed elementwise into the output triplet.
func Rotate(r roi.Raw) Frame {
	f := Frame{Height: r.Height, Freqs: roi.Freqs}
	f.Triplets = make([][][]Triplet, r.Height)
	for row := 0; row < r.Height; row++ {
		f.Triplets[row] = make([][]Triplet, roi.Width)
		for col := 0; col < roi.Width; col++ {
			f.Triplets[row][col] = make([]Triplet, roi.Freqs)
			for freq := 0; freq < roi.Freqs; freq++ {
				f.Triplets[row][col][freq] = rotatePixel(r, row, col, freq)
			}
		}
	}
	return f
}

func rotatePixel(r roi.Raw, row, col, freq int) Triplet {
	var out Triplet
	if r.Perms == 1 {
		for tr := 0; tr < roi.TripletSize; tr++ {
			out[tr] = float64(r.Samples[row][col][tr][freq][0])
		}
		return out
	}

	for perm := 0; perm < r.Perms; perm++ {
		for tr := 0; tr < roi.TripletSize; tr++ {
			dst := (tr + perm) % roi.TripletSize
			out[dst] += float64(r.Samples[row][col][tr][freq][perm])
		}
	}
	return out
}
