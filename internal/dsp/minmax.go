package dsp

import "math"

// MinMaxGhostMask marks a pixel as masked (true) if the max-min spread
// across a vArm/hArm window (same plus-style arm sizing as PlusMedian,
// but over a full rectangular window, not a plus) exceeds threshold. It is
// computed once scanning forward and once scanning reversed, and the two
// boolean results are AND-combined to suppress edge bias from either scan
// direction alone.
//
// A window containing no valid (unmasked) input pixel degenerates to
// min==+Inf, max==-Inf; such a pixel is NOT flagged (this core matches the
// reference behavior exactly, not the more conservative "flag as ghost"
// reading a naive port might choose).
func MinMaxGhostMask(in Plane, valid [][]bool, vArm, hArm int, threshold float64) [][]bool {
	forward := minMaxScan(in, valid, vArm, hArm, threshold, false)
	reverse := minMaxScan(in, valid, vArm, hArm, threshold, true)

	rows := len(in)
	out := make([][]bool, rows)
	for r := 0; r < rows; r++ {
		cols := len(in[r])
		out[r] = make([]bool, cols)
		for c := 0; c < cols; c++ {
			out[r][c] = forward[r][c] && reverse[r][c]
		}
	}
	return out
}

func minMaxScan(in Plane, valid [][]bool, vArm, hArm int, threshold float64, reversed bool) [][]bool {
	rows := len(in)
	out := make([][]bool, rows)
	for r := 0; r < rows; r++ {
		out[r] = make([]bool, len(in[r]))
	}

	rowOrder := make([]int, rows)
	for i := range rowOrder {
		rowOrder[i] = i
	}
	if reversed {
		for i, j := 0, len(rowOrder)-1; i < j; i, j = i+1, j-1 {
			rowOrder[i], rowOrder[j] = rowOrder[j], rowOrder[i]
		}
	}

	for _, r := range rowOrder {
		cols := len(in[r])
		colOrder := make([]int, cols)
		for i := range colOrder {
			colOrder[i] = i
		}
		if reversed {
			for i, j := 0, len(colOrder)-1; i < j; i, j = i+1, j-1 {
				colOrder[i], colOrder[j] = colOrder[j], colOrder[i]
			}
		}

		for _, c := range colOrder {
			min := math.Inf(1)
			max := math.Inf(-1)
			for dr := -vArm; dr <= vArm; dr++ {
				rr := r + dr
				if rr < 0 || rr >= rows {
					continue
				}
				for dc := -hArm; dc <= hArm; dc++ {
					cc := c + dc
					if cc < 0 || cc >= len(in[rr]) {
						continue
					}
					if valid != nil && !valid[rr][cc] {
						continue
					}
					v := in[rr][cc]
					if v < min {
						min = v
					}
					if v > max {
						max = v
					}
				}
			}
			if math.IsInf(min, 1) || math.IsInf(max, -1) {
				out[r][c] = false
				continue
			}
			out[r][c] = (max - min) > threshold
		}
	}
	return out
}
