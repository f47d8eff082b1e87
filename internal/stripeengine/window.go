package stripeengine

import (
	"github.com/dinesh-mcw/m30-sub000/internal/dsp"
	"github.com/dinesh-mcw/m30-sub000/internal/metadata"
	"github.com/dinesh-mcw/m30-sub000/internal/roi"
	"github.com/dinesh-mcw/m30-sub000/internal/taprotation"
)

// windowMode selects the Stripe Engine's vertical aggregation window, in
// the priority order spec.md §4.7 names them.
type windowMode int

const (
	windowRectSum windowMode = iota
	windowSNRWeighted
	windowGaussian
)

func selectWindow(fov metadata.FOVBlock, height int) windowMode {
	if fov.RectSumEnabled() && fov.RectKernelSize() == height {
		return windowRectSum
	}
	if fov.SNRWeightedEnabled() {
		return windowSNRWeighted
	}
	return windowGaussian
}

// collapseRows reduces a tap-rotated H-row ROI to a single row per
// frequency by summing each column through the selected vertical window.
// Rect-sum and SNR-weighted windows are an un-normalized sum (rect-sum's
// weights are all 1; SNR-weighted's are normalized only to peak 1, per
// spec.md §4.7), while the Gaussian window sums to 1 by construction —
// this core leaves that scale difference as-is rather than renormalizing,
// since nothing in the reference material calls for matching the three
// windows' output scale.
func collapseRows(frame taprotation.Frame, fov metadata.FOVBlock, height int) [2][]taprotation.Triplet {
	mode := selectWindow(fov, height)

	var gaussian []float64
	if mode == windowGaussian {
		gaussian = dsp.GaussianWindow1D(height)
	}
	rect := onesWeights(height)

	var out [2][]taprotation.Triplet
	out[0] = make([]taprotation.Triplet, roi.Width)
	out[1] = make([]taprotation.Triplet, roi.Width)

	for col := 0; col < roi.Width; col++ {
		weights := rect
		switch mode {
		case windowGaussian:
			weights = gaussian
		case windowSNRWeighted:
			weights = snrWeightsForColumn(frame, col, height)
		}

		for freq := 0; freq < roi.Freqs; freq++ {
			var sum taprotation.Triplet
			for row := 0; row < height; row++ {
				t := frame.Triplets[row][col][freq]
				w := weights[row]
				sum[0] += w * t[0]
				sum[1] += w * t[1]
				sum[2] += w * t[2]
			}
			out[freq][col] = sum
		}
	}
	return out
}

func onesWeights(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1.0
	}
	return w
}

// snrWeightsForColumn computes one column's per-row weight from the
// combined two-frequency SNR at that row, normalized so the largest weight
// in the column is 1.0, as spec.md §4.7 specifies.
func snrWeightsForColumn(frame taprotation.Frame, col, height int) []float64 {
	w := make([]float64, height)
	peak := 0.0
	for row := 0; row < height; row++ {
		var snr float64
		for freq := 0; freq < roi.Freqs; freq++ {
			t := frame.Triplets[row][col][freq]
			ps := dsp.PhaseFromTriplet(t)
			snr += ps.SNR
		}
		w[row] = snr
		if snr > peak {
			peak = snr
		}
	}
	if peak > 0 {
		for row := range w {
			w[row] /= peak
		}
	}
	return w
}

// binCollapsed applies the FOV's horizontal binning factor to the
// collapsed single row, reusing dsp.BinStripe (one plane per tap component
// per frequency) so stripe binning is bit-identical in method to the grid
// engine's horizontal binning mode.
func binCollapsed(collapsed [2][]taprotation.Triplet, factor int) [2][]taprotation.Triplet {
	var out [2][]taprotation.Triplet
	for freq := 0; freq < roi.Freqs; freq++ {
		var binned [3]dsp.Plane
		for k := 0; k < 3; k++ {
			row := make([]float64, len(collapsed[freq]))
			for c, t := range collapsed[freq] {
				row[c] = t[k]
			}
			binned[k] = dsp.BinStripe(dsp.Plane{row}, factor)
		}
		cols := len(binned[0][0])
		row := make([]taprotation.Triplet, cols)
		for c := 0; c < cols; c++ {
			row[c] = taprotation.Triplet{binned[0][0][c], binned[1][0][c], binned[2][0][c]}
		}
		out[freq] = row
	}
	return out
}
