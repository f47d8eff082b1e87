// Package stripeengine implements the Stripe Engine (spec.md §4.7): the
// synchronous, single-ROI sibling of internal/fovengine. It collapses a
// tall ROI into one row via a selectable vertical aggregation window, then
// runs the same phase/range DSP kernels as the grid engine's whole-frame
// completion with 1D (single-row) geometry, and emits a segment directly on
// the calling goroutine — there is no accumulation state machine and no
// worker handoff, since one ROI already is one complete frame.
//
// Grounded on the teacher's pattern of a lightweight variant exposing the
// same stage interface as its heavier counterpart
// (pipeline.ForegroundStage/PerceptionStage): Engine.Process takes the same
// arguments as fovengine.Engine.Process but returns the segment instead of
// passing it to a callback, so the FOV Router holds the two engine types in
// a tagged per-slot variant rather than behind one interface.
package stripeengine

import (
	"math"
	"time"

	"github.com/dinesh-mcw/m30-sub000/internal/calib"
	"github.com/dinesh-mcw/m30-sub000/internal/dsp"
	"github.com/dinesh-mcw/m30-sub000/internal/fovengine"
	"github.com/dinesh-mcw/m30-sub000/internal/metadata"
	"github.com/dinesh-mcw/m30-sub000/internal/roi"
	"github.com/dinesh-mcw/m30-sub000/internal/segment"
	"github.com/dinesh-mcw/m30-sub000/internal/taprotation"
	"github.com/dinesh-mcw/m30-sub000/internal/tempcomp"
)

// Engine drives one virtual FOV's single-ROI stripe reconstruction.
type Engine struct {
	fovIdx   int
	headNum  int
	sensorID uint32
	store    *calib.Store
	tempComp *tempcomp.Compensator

	lastMappingGen int64
}

// New returns a stripe Engine for the given FOV slot.
func New(fovIdx, headNum int, sensorID uint32, store *calib.Store) *Engine {
	return &Engine{
		fovIdx:   fovIdx,
		headNum:  headNum,
		sensorID: sensorID,
		store:    store,
		tempComp: tempcomp.New(),
	}
}

// Process runs one ROI through the full stripe pipeline and returns the
// resulting segment. It returns nil only if fov.LastROI() is false — a
// stripe-mode FOV is expected to carry both FirstROI and LastROI on every
// ROI, since each ROI is a complete frame on its own, but the flags are
// still honored rather than assumed.
func (e *Engine) Process(v metadata.View, fov metadata.FOVBlock, r roi.Raw) *segment.Segment {
	if fov.FirstROI() {
		e.tempComp.Reset()
	}

	rangeCal := v.RangeCal()
	e.tempComp.Observe(fovengine.VariantFor(v), fovengine.CoeffsFrom(rangeCal),
		v.ADC(fovengine.ThermistorADCIndex), v.ADC(fovengine.VLDAADCIndex))

	if !fov.LastROI() {
		return nil
	}

	frame := taprotation.Rotate(r)
	binning := fov.BinningFactor()

	collapsed := collapseRows(frame, fov, r.Height)
	binned := binCollapsed(collapsed, binning)
	cols := len(binned[0])

	fs := [2]float64{dsp.ModFrequencyHz(v.F0ModIdx()), dsp.ModFrequencyHz(v.F1ModIdx())}
	gcf := dsp.GCF(fs[0], fs[1])
	n := [2]int{dsp.FrequencyRatio(fs[0], gcf), dsp.FrequencyRatio(fs[1], gcf)}
	maxUnambiguousM := dsp.UnambiguousRangeM(gcf)

	smoothHSize := 7
	if cols >= 15 {
		smoothHSize = 15
	}
	smoothed := [2][3]dsp.Plane{
		smoothTripletRow(binned[0], smoothHSize),
		smoothTripletRow(binned[1], smoothHSize),
	}

	rangeRow := make([]float64, cols)
	signalRow := make([]float64, cols)
	backgroundRow := make([]float64, cols)
	snrRow := make([]float64, cols)

	for c := 0; c < cols; c++ {
		psRaw0 := dsp.PhaseFromTriplet(binned[0][c])
		psRaw1 := dsp.PhaseFromTriplet(binned[1][c])
		psSm0 := dsp.PhaseFromTriplet(tripletAt(smoothed[0], c))
		psSm1 := dsp.PhaseFromTriplet(tripletAt(smoothed[1], c))

		psi0 := correctedPhase(psRaw0.Phase, psSm0.Phase)
		psi1 := correctedPhase(psRaw1.Phase, psSm1.Phase)

		rng, _ := dsp.RangeAndM(psSm0.Phase, psSm1.Phase, psi0, psi1, n[0], n[1], fs[0], fs[1])
		rangeRow[c] = rng
		signalRow[c] = psRaw0.Signal + psRaw1.Signal
		backgroundRow[c] = (psRaw0.Background + psRaw1.Background) / 2
		snrRow[c] = psRaw0.SNR + psRaw1.SNR
	}

	rangePlane := dsp.Plane{rangeRow}
	rangePlane = dsp.NearestNeighborReject(rangePlane, fov.NNLevel())
	rangeRow = rangePlane[0]

	tempOffsetMM := 0.0
	if off, ok := e.tempComp.Reduce(rangeCal.ADCCalGain, rangeCal.ADCCalOffset); ok {
		tempOffsetMM = off
	}
	tempOffsetM := tempOffsetMM / 1000.0

	mask := e.store.PixelMask()
	centerRow := fov.StartRow() + r.Height/2

	for c := 0; c < cols; c++ {
		rv := rangeRow[c] - tempOffsetM
		if rv < 0 {
			rv = 0
		}
		rv = math.Mod(rv, maxUnambiguousM)
		rangeRow[c] = rv

		if fov.DisableRangeMasking() {
			continue
		}
		masked := snrRow[c] < 2*fov.SNRThreshold()
		srcCol := c * binning
		if mask.Valid() && centerRow < calib.PixelMaskHeight && srcCol < roi.Width && !mask.Mask().At(centerRow, srcCol) {
			masked = true
		}
		if rangeRow[c] > maxUnambiguousM {
			masked = true
		}
		if masked {
			rangeRow[c] = 0
		}
	}

	gen := e.store.Generation()
	newMapping := gen != e.lastMappingGen
	e.lastMappingGen = gen

	seg := &segment.Segment{
		FOVIndex:        e.fovIdx,
		HeadNum:         e.headNum,
		SensorID:        e.sensorID,
		UserTag:         fov.UserTag(),
		Timestamp:       timestampFrom(v),
		FrameCompleted:  true,
		GCFHz:           gcf,
		MaxUnambiguousM: maxUnambiguousM,
		ImageSize:       segment.Size{Rows: 1, Cols: cols},
		Range:           toU16RangeMeters(rangeRow),
		Signal:          toU16Clamped(signalRow),
		Background:      toU16Clamped(backgroundRow),
		SNR:             toU16Halved(snrRow),
		SourceROIIndex:  sourceROIRow(cols, v.ROIID()),
		ROITimestamps:   []time.Time{timestampFrom(v)},
		FOVTopLeft:      segment.Coord2D{Row: 0, Col: 0},
		FOVStep:         segment.Coord2D{Row: 0, Col: binning},
		MappingStep:     segment.Coord2D{Row: 0, Col: 2 * binning},
		MappingTopLeft:  segment.Coord2D{Row: centerRow, Col: 0},
		Mapping:         e.store.Mapping(),
		NewMapping:      newMapping,
	}
	return seg
}

// smoothTripletRow horizontally smooths a single row of triplets,
// component by component (A, B, C each its own one-row Plane), since
// SmoothSeparable operates on an independent scalar field.
func smoothTripletRow(row []taprotation.Triplet, hSize int) [3]dsp.Plane {
	var comps [3][]float64
	for k := 0; k < 3; k++ {
		comps[k] = make([]float64, len(row))
	}
	for c, t := range row {
		comps[0][c] = t[0]
		comps[1][c] = t[1]
		comps[2][c] = t[2]
	}
	var out [3]dsp.Plane
	for k := 0; k < 3; k++ {
		out[k] = dsp.SmoothSeparable(dsp.Plane{comps[k]}, 1, hSize)
	}
	return out
}

// tripletAt reads back column c's A/B/C triplet from the three
// per-component planes smoothTripletRow produces.
func tripletAt(p [3]dsp.Plane, c int) [3]float64 {
	return [3]float64{p[0][0][c], p[1][0][c], p[2][0][c]}
}

// correctedPhase snaps phiRaw to within 0.5 of phiSmoothed by adding or
// subtracting a whole cycle, mirroring fovengine's phase-unwrapping step.
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

func timestampFrom(v metadata.View) time.Time {
	return time.Unix(int64(v.SecondBits()), int64(v.NanosecondBits())).UTC()
}

func sourceROIRow(cols int, roiID uint16) []uint16 {
	out := make([]uint16, cols)
	for i := range out {
		out[i] = roiID
	}
	return out
}

func toU16RangeMeters(row []float64) []uint16 {
	out := make([]uint16, len(row))
	for i, v := range row {
		out[i] = clampU16(math.Round(v * 1024))
	}
	return out
}

func toU16Clamped(row []float64) []uint16 {
	out := make([]uint16, len(row))
	for i, v := range row {
		out[i] = clampU16(math.Round(v))
	}
	return out
}

func toU16Halved(row []float64) []uint16 {
	out := make([]uint16, len(row))
	for i, v := range row {
		out[i] = clampU16(math.Round(v / 2))
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
