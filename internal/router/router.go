// Package router implements the FOV Router (spec.md §4.8): an 8-slot array
// of per-FOV engines, each lazily constructed on first activation and torn
// down and replaced if the FOV's mode (grid vs stripe) changes. Grounded on
// the teacher's pipeline package as composition root and on
// l2frames.RegisterFrameBuilder's lazy-registry idiom: a engine is created
// the first time its slot is seen active, not up front.
package router

import (
	"sync"

	"github.com/dinesh-mcw/m30-sub000/internal/calib"
	"github.com/dinesh-mcw/m30-sub000/internal/fovengine"
	"github.com/dinesh-mcw/m30-sub000/internal/metadata"
	"github.com/dinesh-mcw/m30-sub000/internal/roi"
	"github.com/dinesh-mcw/m30-sub000/internal/segment"
	"github.com/dinesh-mcw/m30-sub000/internal/stripeengine"
)

// NumSlots is the fixed number of virtual FOV slots a sensor head exposes.
const NumSlots = 8

type variant int8

const (
	variantNone variant = iota
	variantGrid
	variantStripe
)

type slot struct {
	variant   variant
	grid      *fovengine.Engine
	stripe    *stripeengine.Engine
	available bool
	segment   *segment.Segment
}

// Router owns the 8 FOV slots. ProcessROI runs on the ROI-ingest thread;
// FOVsAvailable and GetData are safe to call from any other thread.
type Router struct {
	mu sync.Mutex

	headNum  int
	sensorID uint32
	store    *calib.Store

	slots [NumSlots]slot
}

// New returns a Router with all slots empty.
func New(headNum int, sensorID uint32, store *calib.Store) *Router {
	return &Router{headNum: headNum, sensorID: sensorID, store: store}
}

// ProcessROI decodes no metadata itself (the caller already did); it walks
// every FOV slot the metadata marks active and dispatches raw to that
// slot's engine, creating or replacing the engine first if needed.
func (r *Router) ProcessROI(v metadata.View, raw roi.Raw) {
	for idx := 0; idx < NumSlots; idx++ {
		fov := metadata.FOVBlockAt(v, idx)
		if !fov.Active() {
			continue
		}
		r.dispatch(idx, fov, v, raw)
	}
}

func (r *Router) dispatch(idx int, fov metadata.FOVBlock, v metadata.View, raw roi.Raw) {
	want := variantGrid
	if fov.StripeMode() {
		want = variantStripe
	}

	r.mu.Lock()
	s := &r.slots[idx]
	if s.variant != variantNone && s.variant != want {
		if s.grid != nil {
			s.grid.Close()
			s.grid = nil
		}
		s.stripe = nil
		s.variant = variantNone
		s.available = false
		s.segment = nil
	}
	if s.variant == variantNone {
		s.variant = want
		if want == variantGrid {
			s.grid = fovengine.New(idx, r.headNum, r.sensorID, r.store, func(seg *segment.Segment) {
				r.deliver(idx, seg)
			})
		} else {
			s.stripe = stripeengine.New(idx, r.headNum, r.sensorID, r.store)
		}
	}
	grid, stripe := s.grid, s.stripe
	r.mu.Unlock()

	// Pixel mask and mapping table reloads reach every engine through the
	// shared calib.Store rather than an explicit push: both engines read
	// Store.PixelMask()/Store.Mapping() at completion time, so a Reload
	// takes effect on the next completed frame with no extra plumbing here.
	if want == variantGrid {
		grid.Process(v, fov, raw)
		return
	}
	if seg := stripe.Process(v, fov, raw); seg != nil {
		r.deliver(idx, seg)
	}
}

func (r *Router) deliver(idx int, seg *segment.Segment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slots[idx].segment = seg
	r.slots[idx].available = true
}

// FOVsAvailable returns the indices of every slot holding an unconsumed
// segment.
func (r *Router) FOVsAvailable() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []int
	for i := range r.slots {
		if r.slots[i].available {
			out = append(out, i)
		}
	}
	return out
}

// GetData returns idx's pending segment, if any, and atomically clears the
// slot's availability flag. A nil return means no segment is pending.
func (r *Router) GetData(idx int) *segment.Segment {
	r.mu.Lock()
	defer r.mu.Unlock()
	if idx < 0 || idx >= NumSlots || !r.slots[idx].available {
		return nil
	}
	r.slots[idx].available = false
	return r.slots[idx].segment
}

// Close shuts down every slot's grid engine worker goroutine. Stripe
// engines are synchronous and need no teardown.
func (r *Router) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.slots {
		if r.slots[i].grid != nil {
			r.slots[i].grid.Close()
		}
	}
}
