package dsp

// BinGrid reduces a plane by averaging square blocks of the given factor,
// one of 1 (identity), 2 or 4. A factor of 4 is computed as two successive
// factor-2 passes rather than a single 4x4 average, matching how the
// 2x2 accumulator is reused for both steps.
func BinGrid(in Plane, factor int) Plane {
	switch factor {
	case 1:
		out := NewPlane(len(in), colsOf(in))
		for r := range in {
			copy(out[r], in[r])
		}
		return out
	case 2:
		return bin2x2(in)
	case 4:
		return bin2x2(bin2x2(in))
	default:
		panic("dsp: unsupported grid binning factor")
	}
}

// BinStripe reduces a single-row plane horizontally by the given factor,
// one of 1 (identity), 2 or 4.
func BinStripe(in Plane, factor int) Plane {
	switch factor {
	case 1:
		out := NewPlane(len(in), colsOf(in))
		for r := range in {
			copy(out[r], in[r])
		}
		return out
	case 2:
		return binHorizontal(in, 2)
	case 4:
		return binHorizontal(in, 4)
	default:
		panic("dsp: unsupported stripe binning factor")
	}
}

func bin2x2(in Plane) Plane {
	rows := len(in) / 2
	cols := colsOf(in) / 2
	out := NewPlane(rows, cols)
	for r := 0; r < rows; r++ {
		sr := r * 2
		for c := 0; c < cols; c++ {
			sc := c * 2
			out[r][c] = (in[sr][sc] + in[sr][sc+1] + in[sr+1][sc] + in[sr+1][sc+1]) / 4
		}
	}
	return out
}

func binHorizontal(in Plane, factor int) Plane {
	rows := len(in)
	cols := colsOf(in) / factor
	out := NewPlane(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			var sum float64
			for k := 0; k < factor; k++ {
				sum += in[r][c*factor+k]
			}
			out[r][c] = sum / float64(factor)
		}
	}
	return out
}
