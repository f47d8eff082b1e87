// Package fovengine implements the per-FOV grid accumulation and
// whole-frame DSP pipeline: ROIs are folded into a ping-pong raw buffer on
// the ingest goroutine, and the last ROI of a frame hands the filled bank
// off to a dedicated worker goroutine for phase/range reconstruction,
// mirroring l2frames.FrameBuilder's frameCh/frameDone handoff so frame
// assembly and frame processing never block each other.
package fovengine

import (
	"sync"
	"time"

	"github.com/dinesh-mcw/m30-sub000/internal/calib"
	"github.com/dinesh-mcw/m30-sub000/internal/dsp"
	"github.com/dinesh-mcw/m30-sub000/internal/metadata"
	"github.com/dinesh-mcw/m30-sub000/internal/monitoring"
	"github.com/dinesh-mcw/m30-sub000/internal/roi"
	"github.com/dinesh-mcw/m30-sub000/internal/segment"
	"github.com/dinesh-mcw/m30-sub000/internal/taprotation"
	"github.com/dinesh-mcw/m30-sub000/internal/tempcomp"
)

// State is the per-FOV accumulation state machine.
type State int8

const (
	Idle State = iota
	Accumulating
	PendingCompletion
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Accumulating:
		return "accumulating"
	case PendingCompletion:
		return "pending_completion"
	default:
		return "unknown"
	}
}

// shape captures the observable parameters that, if they change mid-FOV,
// force a full buffer reallocation on the next reset.
type shape struct {
	startRow, numRows, numROIs, binning, f0ModIdx, f1ModIdx int
}

// bank is one side of the ping-pong accumulation state for a single FOV.
type bank struct {
	rows      int
	triplets  [roi.Freqs][][]taprotation.Triplet // [freq][row][col]
	snr2      [][]float64
	activeRow []bool
	sourceROI [][]int32
}

func newBank(rows, cols int) *bank {
	b := &bank{rows: rows, activeRow: make([]bool, rows)}
	for f := range b.triplets {
		b.triplets[f] = make([][]taprotation.Triplet, rows)
		for r := range b.triplets[f] {
			b.triplets[f][r] = make([]taprotation.Triplet, cols)
		}
	}
	b.snr2 = dsp.NewPlane(rows, cols)
	b.sourceROI = make([][]int32, rows)
	for r := range b.sourceROI {
		b.sourceROI[r] = make([]int32, cols)
	}
	return b
}

func (b *bank) clear() {
	for r := 0; r < b.rows; r++ {
		b.activeRow[r] = false
		for c := range b.snr2[r] {
			b.snr2[r][c] = 0
			b.sourceROI[r][c] = -1
			b.triplets[0][r][c] = taprotation.Triplet{}
			b.triplets[1][r][c] = taprotation.Triplet{}
		}
	}
}

// workItem is what the ingest side hands to the worker goroutine once a
// frame's last ROI has been accumulated.
type workItem struct {
	bank            *bank
	shape           shape
	fs              [2]float64
	gcf             float64
	n               [2]int
	maxUnambiguousM float64
	snrThreshold    float64
	nnLevel         int
	ghostMinMax     bool
	ghostMedian     bool
	disableMasking  bool
	incomplete      bool
	roiTimestamps   []time.Time
	accumulatedIdx  int
	tempOffsetMM    float64
	newMapping      bool
	store           *calib.Store
}

// Engine drives one virtual FOV's accumulation and completion.
type Engine struct {
	mu sync.Mutex

	fovIdx  int
	headNum int

	state      State
	haveShape  bool
	curShape   shape
	incomplete bool

	banks    [2]*bank
	writeIdx int

	expectedRandomTag uint32
	seenStartRows     map[int]bool
	accumulatedIdx    int
	roiTimestamps     []time.Time

	tempComp *tempcomp.Compensator
	store    *calib.Store
	sensorID uint32

	workCh   chan *workItem
	doneCh   chan struct{}
	callback func(*segment.Segment)

	lastMappingGen int64
}

// New returns an Engine whose completed segments are delivered to callback.
// callback is invoked on the worker goroutine; it must not block.
func New(fovIdx, headNum int, sensorID uint32, store *calib.Store, callback func(*segment.Segment)) *Engine {
	e := &Engine{
		fovIdx:        fovIdx,
		headNum:       headNum,
		sensorID:      sensorID,
		store:         store,
		callback:      callback,
		tempComp:      tempcomp.New(),
		seenStartRows: make(map[int]bool),
		workCh:        make(chan *workItem, 2),
		doneCh:        make(chan struct{}),
	}
	go e.worker()
	return e
}

// Close stops the worker goroutine and waits for it to drain. Segments
// produced after Close is called are discarded.
func (e *Engine) Close() {
	e.mu.Lock()
	e.callback = nil
	e.mu.Unlock()
	close(e.workCh)
	<-e.doneCh
}

func (e *Engine) worker() {
	defer close(e.doneCh)
	for item := range e.workCh {
		seg := complete(item, e.fovIdx, e.headNum, e.sensorID)
		e.mu.Lock()
		e.state = Idle
		cb := e.callback
		e.mu.Unlock()
		if seg != nil && cb != nil {
			cb(seg)
		}
	}
}

func shapeFrom(fov metadata.FOVBlock, v metadata.View) shape {
	return shape{
		startRow: fov.StartRow(),
		numRows:  fov.NumRows(),
		numROIs:  fov.NumROIs(),
		binning:  fov.BinningFactor(),
		f0ModIdx: v.F0ModIdx(),
		f1ModIdx: v.F1ModIdx(),
	}
}

// Process ingests one ROI already routed to this FOV: it decodes the
// first/last-ROI transitions, validates the accumulation invariants, tap-
// rotates and SNR-votes the ROI into the write-side bank, and on the last
// ROI of the frame hands the bank to the worker goroutine.
func (e *Engine) Process(v metadata.View, fov metadata.FOVBlock, r roi.Raw) {
	e.mu.Lock()
	defer e.mu.Unlock()

	newShape := shapeFrom(fov, v)

	if fov.FirstROI() {
		e.reset(newShape, fov)
		e.state = Accumulating
	}

	if e.state != Accumulating {
		return
	}

	if !e.validate(v, fov, newShape) {
		e.incomplete = true
		monitoring.Log(monitoring.LevelWarning, "fovengine[%d]: validation failed, marking incomplete", e.fovIdx)
		return
	}

	e.accumulate(v, fov, r)

	if fov.LastROI() {
		e.dispatch(fov, v)
	}
}

func (e *Engine) reset(s shape, fov metadata.FOVBlock) {
	needsRealloc := !e.haveShape || s != e.curShape
	if needsRealloc {
		e.banks[0] = newBank(s.numRows, roi.Width)
		e.banks[1] = newBank(s.numRows, roi.Width)
		e.curShape = s
		e.haveShape = true
	} else {
		e.banks[e.writeIdx].clear()
	}
	e.incomplete = false
	e.accumulatedIdx = 0
	e.roiTimestamps = e.roiTimestamps[:0]
	e.expectedRandomTag = fov.RandomFOVTag()
	e.seenStartRows = make(map[int]bool)
	e.tempComp.Reset()
}

func (e *Engine) validate(v metadata.View, fov metadata.FOVBlock, s shape) bool {
	if s != e.curShape {
		return false
	}
	if fov.RandomFOVTag() != e.expectedRandomTag {
		return false
	}
	roiStart := int(v.ROIStartRow())
	if roiStart < e.curShape.startRow || roiStart >= e.curShape.startRow+e.curShape.numRows {
		return false
	}
	if e.seenStartRows[roiStart] && e.accumulatedIdx >= e.curShape.numROIs {
		return false
	}
	return true
}

func (e *Engine) accumulate(v metadata.View, fov metadata.FOVBlock, r roi.Raw) {
	frame := taprotation.Rotate(r)
	bk := e.banks[e.writeIdx]
	rowBase := int(v.ROIStartRow()) - e.curShape.startRow

	rangeCal := v.RangeCal()
	e.tempComp.Observe(VariantFor(v), CoeffsFrom(rangeCal), v.ADC(ThermistorADCIndex), v.ADC(VLDAADCIndex))

	for row := 0; row < frame.Height; row++ {
		destRow := rowBase + row
		if destRow < 0 || destRow >= bk.rows {
			continue
		}
		for col := 0; col < roi.Width; col++ {
			t0 := frame.Triplets[row][col][0]
			t1 := frame.Triplets[row][col][1]
			snr2 := tripletSNR2(t0) + tripletSNR2(t1)
			if snr2 > bk.snr2[destRow][col] {
				bk.triplets[0][destRow][col] = t0
				bk.triplets[1][destRow][col] = t1
				bk.snr2[destRow][col] = snr2
				bk.sourceROI[destRow][col] = int32(e.accumulatedIdx)
			}
		}
		bk.activeRow[destRow] = true
	}

	e.seenStartRows[int(v.ROIStartRow())] = true
	e.roiTimestamps = append(e.roiTimestamps, timestampFrom(v))
	e.accumulatedIdx++
}

// tripletSNR2 approximates a triplet's squared SNR contribution for voting
// purposes: the square of the SNR that dsp.PhaseFromTriplet reports for it.
func tripletSNR2(t taprotation.Triplet) float64 {
	ps := dsp.PhaseFromTriplet([3]float64{t[0], t[1], t[2]})
	return ps.SNR * ps.SNR
}

func timestampFrom(v metadata.View) time.Time {
	sec := v.SecondBits()
	ns := v.NanosecondBits()
	return time.Unix(int64(sec), int64(ns)).UTC()
}

func (e *Engine) dispatch(fov metadata.FOVBlock, v metadata.View) {
	e.state = PendingCompletion

	fs := [2]float64{dsp.ModFrequencyHz(v.F0ModIdx()), dsp.ModFrequencyHz(v.F1ModIdx())}
	gcf := dsp.GCF(fs[0], fs[1])

	rangeCal := v.RangeCal()
	tempOffsetMM := 0.0
	if off, ok := e.tempComp.Reduce(rangeCal.ADCCalGain, rangeCal.ADCCalOffset); ok {
		tempOffsetMM = off
	}

	gen := e.store.Generation()
	newMapping := gen != e.lastMappingGen
	e.lastMappingGen = gen

	item := &workItem{
		bank:            e.banks[e.writeIdx],
		shape:           e.curShape,
		fs:              fs,
		gcf:             gcf,
		n:               [2]int{dsp.FrequencyRatio(fs[0], gcf), dsp.FrequencyRatio(fs[1], gcf)},
		maxUnambiguousM: dsp.UnambiguousRangeM(gcf),
		snrThreshold:    fov.SNRThreshold(),
		nnLevel:         fov.NNLevel(),
		ghostMinMax:     fov.GhostMinMaxEnabled(),
		ghostMedian:     fov.GhostMedianEnabled(),
		disableMasking:  fov.DisableRangeMasking(),
		incomplete:      e.incomplete || e.accumulatedIdx < e.curShape.numROIs,
		roiTimestamps:   append([]time.Time(nil), e.roiTimestamps...),
		accumulatedIdx:  e.accumulatedIdx,
		tempOffsetMM:    tempOffsetMM,
		newMapping:      newMapping,
		store:           e.store,
	}

	e.writeIdx = 1 - e.writeIdx

	select {
	case e.workCh <- item:
	default:
		monitoring.Log(monitoring.LevelWarning, "fovengine[%d]: worker busy, dropping frame", e.fovIdx)
	}
}
