package fovengine

import (
	"math"

	"github.com/dinesh-mcw/m30-sub000/internal/dsp"
	"github.com/dinesh-mcw/m30-sub000/internal/roi"
	"github.com/dinesh-mcw/m30-sub000/internal/segment"
	"github.com/dinesh-mcw/m30-sub000/internal/taprotation"
)

// tripletPlanes holds one frequency's raw A/B/C components as three
// independently addressable planes, the shape RowFill, binning and
// smoothing all expect.
type tripletPlanes [3]dsp.Plane

func extractTriplets(src [][]taprotation.Triplet) tripletPlanes {
	rows := len(src)
	cols := 0
	if rows > 0 {
		cols = len(src[0])
	}
	var tp tripletPlanes
	for c := 0; c < 3; c++ {
		tp[c] = dsp.NewPlane(rows, cols)
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			t := src[r][c]
			tp[0][r][c] = t[0]
			tp[1][r][c] = t[1]
			tp[2][r][c] = t[2]
		}
	}
	return tp
}

func (tp tripletPlanes) rowFill(active []bool) tripletPlanes {
	var out tripletPlanes
	for c := range tp {
		out[c] = dsp.RowFill(tp[c], active)
	}
	return out
}

func (tp tripletPlanes) bin(factor int) tripletPlanes {
	var out tripletPlanes
	for c := range tp {
		out[c] = dsp.BinGrid(tp[c], factor)
	}
	return out
}

func (tp tripletPlanes) smooth(vSize, hSize int) tripletPlanes {
	var out tripletPlanes
	for c := range tp {
		out[c] = dsp.SmoothSeparable(tp[c], vSize, hSize)
	}
	return out
}

func (tp tripletPlanes) at(r, c int) [3]float64 {
	return [3]float64{tp[0][r][c], tp[1][r][c], tp[2][r][c]}
}

// complete runs the whole-frame DSP pipeline (spec.md §4.6 "complete") over
// a worker item's filled bank, returning nil if the frame never reached the
// expected ROI count.
func complete(item *workItem, fovIdx, headNum int, sensorID uint32) *segment.Segment {
	if item.incomplete {
		return nil
	}

	binning := item.shape.binning

	rawFreq := [2]tripletPlanes{
		extractTriplets(item.bank.triplets[0]),
		extractTriplets(item.bank.triplets[1]),
	}

	filledFreq := [2]tripletPlanes{
		rawFreq[0].rowFill(item.bank.activeRow),
		rawFreq[1].rowFill(item.bank.activeRow),
	}

	binnedFreq := [2]tripletPlanes{
		filledFreq[0].bin(binning),
		filledFreq[1].bin(binning),
	}

	rows := len(binnedFreq[0][0])
	cols := 0
	if rows > 0 {
		cols = len(binnedFreq[0][0][0])
	}

	smoothVSize, smoothHSize := smoothingKernelFor(rows, cols)
	smoothedFreq := [2]tripletPlanes{
		binnedFreq[0].smooth(smoothVSize, smoothHSize),
		binnedFreq[1].smooth(smoothVSize, smoothHSize),
	}

	rangePlane := dsp.NewPlane(rows, cols)
	mPlane := dsp.NewPlane(rows, cols)
	signalPlane := dsp.NewPlane(rows, cols)
	backgroundPlane := dsp.NewPlane(rows, cols)
	snrPlane := dsp.NewPlane(rows, cols)
	validPlane := make([][]bool, rows)

	for r := 0; r < rows; r++ {
		validPlane[r] = make([]bool, cols)
		for c := 0; c < cols; c++ {
			raw0 := binnedFreq[0].at(r, c)
			raw1 := binnedFreq[1].at(r, c)
			phiRaw0 := dsp.PhaseFromTriplet(raw0)
			phiRaw1 := dsp.PhaseFromTriplet(raw1)

			sm0 := smoothedFreq[0].at(r, c)
			sm1 := smoothedFreq[1].at(r, c)
			phiSmoothed0 := dsp.PhaseFromTriplet(sm0)
			phiSmoothed1 := dsp.PhaseFromTriplet(sm1)

			psi0 := correctedPhase(phiRaw0.Phase, phiSmoothed0.Phase)
			psi1 := correctedPhase(phiRaw1.Phase, phiSmoothed1.Phase)

			rng, m := dsp.RangeAndM(phiSmoothed0.Phase, phiSmoothed1.Phase, psi0, psi1,
				item.n[0], item.n[1], item.fs[0], item.fs[1])

			rangePlane[r][c] = rng
			mPlane[r][c] = m
			signalPlane[r][c] = phiRaw0.Signal + phiRaw1.Signal
			backgroundPlane[r][c] = (phiRaw0.Background + phiRaw1.Background) / 2
			snrPlane[r][c] = phiRaw0.SNR + phiRaw1.SNR
			validPlane[r][c] = true
		}
	}

	if item.ghostMinMax {
		mask := dsp.MinMaxGhostMask(mPlane, validPlane, 1, 1, 1.5)
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				if mask[r][c] {
					rangePlane[r][c] = 0
				}
			}
		}
	}

	if item.ghostMedian {
		rangePlane = dsp.PlusMedian(rangePlane, 1, 1)
	}

	rangePlane = dsp.NearestNeighborReject(rangePlane, item.nnLevel)

	tempOffsetM := item.tempOffsetMM / 1000.0

	mask := item.store.PixelMask()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := rangePlane[r][c] - tempOffsetM
			if v < 0 {
				v = 0
			}
			v = math.Mod(v, item.maxUnambiguousM)
			rangePlane[r][c] = v
		}
	}

	if !item.disableMasking {
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				srcRow, srcCol := r*binning, c*binning
				masked := snrPlane[r][c] < 2*item.snrThreshold
				if mask.Valid() && srcRow < roi.Width && srcCol < roi.Width && !mask.Mask().At(srcRow, srcCol) {
					masked = true
				}
				if rangePlane[r][c] > item.maxUnambiguousM {
					masked = true
				}
				if masked {
					rangePlane[r][c] = 0
				}
			}
		}
	}

	seg := &segment.Segment{
		FOVIndex:        fovIdx,
		HeadNum:         headNum,
		SensorID:        sensorID,
		FrameCompleted:  true,
		GCFHz:           item.gcf,
		MaxUnambiguousM: item.maxUnambiguousM,
		ImageSize:       segment.Size{Rows: rows, Cols: cols},
		Range:           toU16RangeMeters(rangePlane),
		Signal:          toU16Clamped(signalPlane),
		Background:      toU16Clamped(backgroundPlane),
		SNR:             toU16Halved(snrPlane),
		SourceROIIndex:  downsampleSourceROI(item.bank.sourceROI, binning, rows, cols),
		ROITimestamps:   item.roiTimestamps,
		FOVStep:         segment.Coord2D{Row: binning, Col: binning},
		MappingStep:     segment.Coord2D{Row: 2 * binning, Col: 2 * binning},
		MappingTopLeft:  segment.Coord2D{Row: item.shape.startRow, Col: 0},
		Mapping:         item.store.Mapping(),
		NewMapping:      item.newMapping,
	}
	if len(item.roiTimestamps) > 0 {
		seg.Timestamp = item.roiTimestamps[len(item.roiTimestamps)-1]
	}
	return seg
}

// correctedPhase snaps phiRaw to within 0.5 of phiSmoothed by adding or
// subtracting a whole cycle, the phase-unwrapping step spec.md calls
// "corrected phase".
func correctedPhase(phiRaw, phiSmoothed float64) float64 {
	diff := phiRaw - phiSmoothed
	switch {
	case diff > 0.5:
		return phiRaw - 1
	case diff < -0.5:
		return phiRaw + 1
	default:
		return phiRaw
	}
}

// smoothingKernelFor picks the fixed-size smoothing pass sized closest to
// the binned FOV's shape, since the reference kernels only cover a small
// discrete set of sizes (5x7, 7x15) rather than one per possible binned
// shape.
func smoothingKernelFor(rows, cols int) (vSize, hSize int) {
	if rows >= 15 && cols >= 15 {
		return 7, 15
	}
	return 5, 7
}

func toU16RangeMeters(p dsp.Plane) []uint16 {
	out := make([]uint16, 0, len(p)*colsOf(p))
	for _, row := range p {
		for _, v := range row {
			out = append(out, clampU16(math.Round(v*1024)))
		}
	}
	return out
}

func toU16Clamped(p dsp.Plane) []uint16 {
	out := make([]uint16, 0, len(p)*colsOf(p))
	for _, row := range p {
		for _, v := range row {
			out = append(out, clampU16(math.Round(v)))
		}
	}
	return out
}

func toU16Halved(p dsp.Plane) []uint16 {
	out := make([]uint16, 0, len(p)*colsOf(p))
	for _, row := range p {
		for _, v := range row {
			out = append(out, clampU16(math.Round(v/2)))
		}
	}
	return out
}

func clampU16(v float64) uint16 {
	if v < 0 {
		return 0
	}
	if v > 65535 {
		return 65535
	}
	return uint16(v)
}

func colsOf(p dsp.Plane) int {
	if len(p) == 0 {
		return 0
	}
	return len(p[0])
}

func downsampleSourceROI(src [][]int32, binning, rows, cols int) []uint16 {
	out := make([]uint16, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			sr, sc := r*binning, c*binning
			if sr < len(src) && sc < len(src[sr]) {
				v := src[sr][sc]
				if v < 0 {
					out = append(out, 0xFFFF)
				} else {
					out = append(out, uint16(v))
				}
			} else {
				out = append(out, 0xFFFF)
			}
		}
	}
	return out
}
