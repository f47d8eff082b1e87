package dsp

import "math"

// nnParams holds the window half-size, minimum-neighbor-count threshold and
// tolerance scale factor for one nearest-neighbor outlier rejection level.
// Level 0 is a no-op and carries no entry. These concrete values are not
// named in the reference contract beyond "looked up"; this core fixes a
// table in which the window size, the required neighbor count and the
// tolerance all grow as the level increases. Levels above 5 have no entry.
var nnParams = map[int]struct {
	halfWindow int
	minKeep    int
	tol        float64
}{
	1: {halfWindow: 1, minKeep: 4, tol: 0.01},
	2: {halfWindow: 2, minKeep: 8, tol: 0.02},
	3: {halfWindow: 2, minKeep: 12, tol: 0.03},
	4: {halfWindow: 3, minKeep: 20, tol: 0.04},
	5: {halfWindow: 3, minKeep: 30, tol: 0.05},
}

// NearestNeighborReject applies nearest-neighbor outlier rejection to
// range: a pixel is kept only if at least minKeep neighbors within its
// square window (excluding itself) lie within 1/1024 + value*tol of it.
// Rejected pixels are zeroed. Level 0 is the identity.
func NearestNeighborReject(in Plane, level int) Plane {
	if level <= 0 {
		out := NewPlane(len(in), colsOf(in))
		for r := range in {
			copy(out[r], in[r])
		}
		return out
	}

	p, ok := nnParams[level]
	if !ok {
		panic("dsp: unknown nearest-neighbor level")
	}

	rows := len(in)
	cols := colsOf(in)
	out := NewPlane(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := in[r][c]
			tol := 1.0/1024.0 + v*p.tol
			kept := 0
			for dr := -p.halfWindow; dr <= p.halfWindow; dr++ {
				rr := r + dr
				if rr < 0 || rr >= rows {
					continue
				}
				for dc := -p.halfWindow; dc <= p.halfWindow; dc++ {
					if dr == 0 && dc == 0 {
						continue
					}
					cc := c + dc
					if cc < 0 || cc >= cols {
						continue
					}
					if math.Abs(in[rr][cc]-v) <= tol {
						kept++
					}
				}
			}
			if kept >= p.minKeep {
				out[r][c] = v
			}
		}
	}
	return out
}

func colsOf(p Plane) int {
	if len(p) == 0 {
		return 0
	}
	return len(p[0])
}
