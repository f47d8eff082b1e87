// Package hdr implements the one-ROI latency saturation-retake merge
// (spec.md §4.3), modeled as the explicit two-state machine the design notes
// call for rather than a sentinel bool — mirroring the teacher's preference
// for named states over flag soup (l3grid's cell-state modeling).
package hdr

import (
	"github.com/dinesh-mcw/m30-sub000/internal/metadata"
	"github.com/dinesh-mcw/m30-sub000/internal/roi"
)

// State names the two HDR pipeline stages.
type State int8

const (
	// Pristine means the next Submit is a normal roi, no pending merge.
	Pristine State = iota
	// PendingRetakeMerge means the buffered previous ROI was flagged
	// saturated and Submit is waiting for its retake.
	PendingRetakeMerge
)

func (s State) String() string {
	if s == PendingRetakeMerge {
		return "PendingRetakeMerge"
	}
	return "Pristine"
}

// Stage holds the one-ROI latency buffer. NewStage returns one in the
// "startup" condition (equivalent to Pristine with no buffered previous
// ROI); a zero Stage has that startup condition cleared.
type Stage struct {
	state   State
	startup bool

	prev     roi.Raw
	prevMeta []byte // owned copy of the metadata row backing prev
}

// NewStage returns a Stage ready to process the first ROI of a session.
func NewStage() *Stage {
	return &Stage{startup: true}
}

// Result is what Submit returns: either Skip is true (nothing to forward
// yet) or Out/OutMeta carry the ROI the caller should forward downstream.
type Result struct {
	Skip    bool
	Out     roi.Raw
	OutMeta []byte // owned copy of the metadata row to use with Out
}

// Submit feeds one newly-decoded ROI (its metadata row bytes and decoded
// raw samples) through the HDR state machine.
func (s *Stage) Submit(metaRow []byte, v metadata.View, cur roi.Raw) Result {
	if v.SaturationThreshold() == metadata.SaturationDisabled {
		return Result{Skip: false, Out: cur, OutMeta: cloneMeta(metaRow)}
	}

	if s.startup || s.state == PendingRetakeMerge {
		s.prev = cur
		s.prevMeta = cloneMeta(metaRow)
		s.startup = false
		s.state = Pristine
		return Result{Skip: true}
	}

	if !v.PreviousSaturated() {
		out := s.prev
		outMeta := s.prevMeta
		s.prev = cur
		s.prevMeta = cloneMeta(metaRow)
		return Result{Skip: false, Out: out, OutMeta: outMeta}
	}

	merged := mergeRetake(s.prev, cur, int(v.SaturationThreshold()))
	outMeta := s.prevMeta
	s.prev = merged
	s.prevMeta = cloneMeta(outMeta)
	s.state = PendingRetakeMerge
	return Result{Skip: false, Out: merged, OutMeta: outMeta}
}

func cloneMeta(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// mergeRetake implements the per-pixel saturation merge: for any pixel
// where the previous ROI has a component exceeding threshold, every
// component of that raw triplet becomes the elementwise max of previous and
// current; otherwise the pixel keeps its previous values unchanged.
func mergeRetake(prev, cur roi.Raw, threshold int) roi.Raw {
	out := roi.Raw{Height: prev.Height, Perms: prev.Perms}
	out.Samples = make([][][][][]uint16, prev.Height)
	for row := 0; row < prev.Height; row++ {
		out.Samples[row] = make([][][][]uint16, roi.Width)
		for col := 0; col < roi.Width; col++ {
			saturated := false
			for tr := 0; tr < roi.TripletSize && !saturated; tr++ {
				for f := 0; f < roi.Freqs && !saturated; f++ {
					for p := 0; p < prev.Perms; p++ {
						if int(prev.Samples[row][col][tr][f][p]) > threshold {
							saturated = true
							break
						}
					}
				}
			}
			out.Samples[row][col] = make([][][]uint16, roi.TripletSize)
			for tr := 0; tr < roi.TripletSize; tr++ {
				out.Samples[row][col][tr] = make([][]uint16, roi.Freqs)
				for f := 0; f < roi.Freqs; f++ {
					out.Samples[row][col][tr][f] = make([]uint16, prev.Perms)
					for p := 0; p < prev.Perms; p++ {
						pv := prev.Samples[row][col][tr][f][p]
						if !saturated {
							out.Samples[row][col][tr][f][p] = pv
							continue
						}
						cv := cur.Samples[row][col][tr][f][p]
						if cv > pv {
							out.Samples[row][col][tr][f][p] = cv
						} else {
							out.Samples[row][col][tr][f][p] = pv
						}
					}
				}
			}
		}
	}
	return out
}
