package dsp

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/dinesh-mcw/m30-sub000/internal/scratch"
)

// gaussianKernelSizes enumerates the odd kernel sizes selectable by the
// integer kernel index 0..6 (spec.md §4.5).
var gaussianKernelSizes = [7]int{1, 3, 5, 7, 9, 11, 15}

// KernelSizeForIndex maps a kernel index 0..6 to its odd window size.
func KernelSizeForIndex(idx int) int {
	if idx < 0 || idx >= len(gaussianKernelSizes) {
		panic("dsp: kernel index out of range")
	}
	return gaussianKernelSizes[idx]
}

// gaussianKernel1D returns a normalized 1D Gaussian kernel of the given odd
// size, using the same sigma-from-size relationship widely used for
// discrete Gaussian blur kernels: sigma = 0.3*((size-1)*0.5 - 1) + 0.8.
func gaussianKernel1D(size int) []float64 {
	if size == 1 {
		return []float64{1.0}
	}
	sigma := 0.3*((float64(size)-1)*0.5-1) + 0.8
	k := make([]float64, size)
	half := size / 2
	var sum float64
	for i := 0; i < size; i++ {
		x := float64(i - half)
		v := gaussianWeight(x, sigma)
		k[i] = v
		sum += v
	}
	floats.Scale(1/sum, k)
	return k
}

func gaussianWeight(x, sigma float64) float64 {
	return math.Exp(-(x * x) / (2 * sigma * sigma))
}

// GaussianWindow1D returns a normalized Gaussian window of the given size,
// the general form of gaussianKernel1D exposed for the Stripe Engine's
// vertical aggregation window, which must match an arbitrary ROI height
// rather than one of the fixed grid-engine kernel sizes.
func GaussianWindow1D(size int) []float64 {
	return gaussianKernel1D(size)
}

// Plane is a dense row-major 2D buffer used throughout the DSP kernels.
type Plane [][]float64

// NewPlane allocates a zeroed Plane of the given shape.
func NewPlane(rows, cols int) Plane {
	p := make(Plane, rows)
	for r := range p {
		p[r] = make([]float64, cols)
	}
	return p
}

// SmoothSeparable applies a separable 2D Gaussian blur using a vertical
// kernel of size vSize and a horizontal kernel of size hSize. Border pixels
// — those within the kernel's radius (half its size) of an edge in either
// direction —
// are copied unchanged rather than smoothed.
func SmoothSeparable(in Plane, vSize, hSize int) Plane {
	vKernel := gaussianKernel1D(vSize)
	hKernel := gaussianKernel1D(hSize)
	return smoothWithKernels(in, vKernel, hKernel)
}

// smoothWithKernels is the single convolution routine every smoothing entry
// point funnels through, so identically-sized kernels always produce
// bit-identical output regardless of call site.
func smoothWithKernels(in Plane, vKernel, hKernel []float64) Plane {
	rows := len(in)
	if rows == 0 {
		return in
	}
	cols := len(in[0])
	vHalf := len(vKernel) / 2
	hHalf := len(hKernel) / 2

	// Horizontal pass. mid is a purely local intermediate never returned to
	// the caller, so it comes from the scratch plane pool rather than a
	// fresh allocation per call.
	midPV := scratch.GetPlane(rows, cols)
	defer midPV.Release()
	mid := Plane(midPV.Buf)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if c < hHalf || c >= cols-hHalf {
				mid[r][c] = in[r][c]
				continue
			}
			var acc float64
			for k := 0; k < len(hKernel); k++ {
				acc += hKernel[k] * in[r][c-hHalf+k]
			}
			mid[r][c] = acc
		}
	}

	// Vertical pass.
	out := NewPlane(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if r < vHalf || r >= rows-vHalf || c < hHalf || c >= cols-hHalf {
				out[r][c] = in[r][c]
				continue
			}
			var acc float64
			for k := 0; k < len(vKernel); k++ {
				acc += vKernel[k] * mid[r-vHalf+k][c]
			}
			out[r][c] = acc
		}
	}
	return out
}

// SmoothFast5x7 and SmoothFast7x15 are the specialized fast paths spec.md
// §4.5 and §8 require: they precompute their kernel tables once and funnel
// through the identical smoothWithKernels routine as SmoothSeparable, so
// they are bit-identical to SmoothSeparable(in, 5, 7) / SmoothSeparable(in,
// 7, 15) by construction — not merely by test observation.
var (
	fastKernel5  = gaussianKernel1D(5)
	fastKernel7  = gaussianKernel1D(7)
	fastKernel15 = gaussianKernel1D(15)
)

func SmoothFast5x7(in Plane) Plane {
	return smoothWithKernels(in, fastKernel5, fastKernel7)
}

func SmoothFast7x15(in Plane) Plane {
	return smoothWithKernels(in, fastKernel7, fastKernel15)
}
