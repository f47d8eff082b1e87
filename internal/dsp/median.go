package dsp

import "sort"

// PlusMedian applies a 2D plus-shaped median filter to range, with
// independently configurable vertical and horizontal arm sizes. The plus at
// (r, c) is the union of the vertical strip of 2*vArm+1 rows at column c and
// the horizontal strip of 2*hArm+1 columns at row r (the center pixel
// counted once); the output is the middle element of that flattened,
// sorted set. Border rows/columns — within vArm of the top/bottom or hArm
// of the left/right edge — are copied unchanged.
func PlusMedian(in Plane, vArm, hArm int) Plane {
	rows := len(in)
	if rows == 0 {
		return in
	}
	cols := len(in[0])
	out := NewPlane(rows, cols)

	plusLen := 2*vArm + 2*hArm + 1
	buf := make([]float64, plusLen)

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if r < vArm || r >= rows-vArm || c < hArm || c >= cols-hArm {
				out[r][c] = in[r][c]
				continue
			}
			n := 0
			for dr := -vArm; dr <= vArm; dr++ {
				if dr == 0 {
					continue
				}
				buf[n] = in[r+dr][c]
				n++
			}
			for dc := -hArm; dc <= hArm; dc++ {
				buf[n] = in[r][c+dc]
				n++
			}
			window := buf[:n]
			sort.Float64s(window)
			out[r][c] = window[n/2]
		}
	}
	return out
}

// Median1D applies a 1D median filter of the given odd window size along a
// single row or column slice. Border samples — within half the window of
// either end — are copied unchanged.
func Median1D(in []float64, size int) []float64 {
	out := make([]float64, len(in))
	copy(out, in)
	if size <= 1 {
		return out
	}
	half := size / 2
	buf := make([]float64, size)
	for i := half; i < len(in)-half; i++ {
		copy(buf, in[i-half:i+half+1])
		sort.Float64s(buf)
		out[i] = buf[size/2]
	}
	return out
}
