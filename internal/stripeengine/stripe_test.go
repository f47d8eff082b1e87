package stripeengine

import (
	"testing"

	"github.com/dinesh-mcw/m30-sub000/internal/calib"
	"github.com/dinesh-mcw/m30-sub000/internal/metadata"
	"github.com/dinesh-mcw/m30-sub000/internal/roi"
)

// stripeMeta builds one ROI's metadata row with a single active, stripe-mode
// FOV slot (0), since the metadata package exposes only a decoder.
func stripeMeta(t *testing.T, startRow, numRows, rectKernelSize int) (metadata.View, metadata.FOVBlock) {
	t.Helper()
	b := make([]byte, metadata.MetadataRowSize)
	set := func(idx int, v uint16) {
		off := idx * 2
		raw := uint16(v << 4)
		b[off] = byte(raw)
		b[off+1] = byte(raw >> 8)
	}
	set(0, metadata.SensorModeDualFreq)
	set(3, 7)
	set(4, 8)
	set(54, metadata.SaturationDisabled)

	const fovBase = 200
	set(fovBase+0, 1<<6|1) // active bit + stripe_mode bit
	set(fovBase+1, uint16(startRow))
	set(fovBase+2, uint16(numRows))
	set(fovBase+3, 1) // one ROI per frame
	set(fovBase+10, 1<<0|1<<1) // first + last ROI
	set(fovBase+11, uint16(rectKernelSize))

	v, err := metadata.Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return v, metadata.FOVBlockAt(v, 0)
}

func constantROI(height int, val uint16) roi.Raw {
	r := roi.Raw{Height: height, Perms: 1}
	r.Samples = make([][][][][]uint16, height)
	for row := 0; row < height; row++ {
		r.Samples[row] = make([][][][]uint16, roi.Width)
		for col := 0; col < roi.Width; col++ {
			r.Samples[row][col] = make([][][]uint16, roi.TripletSize)
			for tr := 0; tr < roi.TripletSize; tr++ {
				r.Samples[row][col][tr] = make([][]uint16, roi.Freqs)
				for f := 0; f < roi.Freqs; f++ {
					// Vary the tap components so the demodulated signal is
					// nonzero; a perfectly constant triplet has zero signal
					// and phase collapses to 0.
					base := val
					switch tr {
					case 0:
						base += 200
					case 1:
						base += 400
					}
					r.Samples[row][col][tr][f] = []uint16{base}
				}
			}
		}
	}
	return r
}

func TestStripeEngineEmitsSingleRowSegment(t *testing.T) {
	const height = 8
	v, fov := stripeMeta(t, 10, height, height) // kernel size matches height; rect-sum flag not set
	e := New(0, 0, 1, calib.NewStore())

	seg := e.Process(v, fov, constantROI(height, 1000))
	if seg == nil {
		t.Fatal("expected a segment, got nil")
	}
	if seg.ImageSize.Rows != 1 {
		t.Errorf("ImageSize.Rows = %d, want 1", seg.ImageSize.Rows)
	}
	if seg.ImageSize.Cols != roi.Width {
		t.Errorf("ImageSize.Cols = %d, want %d", seg.ImageSize.Cols, roi.Width)
	}
	if !seg.FrameCompleted {
		t.Error("FrameCompleted = false, want true")
	}
	wantCenter := 10 + height/2
	if seg.MappingTopLeft.Row != wantCenter {
		t.Errorf("MappingTopLeft.Row = %d, want %d (ROI vertical centerline)", seg.MappingTopLeft.Row, wantCenter)
	}
	if len(seg.Range) != roi.Width {
		t.Errorf("len(Range) = %d, want %d", len(seg.Range), roi.Width)
	}
}

func TestStripeEngineGaussianWindowWhenNoFlagsSet(t *testing.T) {
	const height = 6
	// rectKernelSize deliberately does not match height, and SNR-weighted
	// is not enabled, so the Gaussian fallback window applies.
	v, fov := stripeMeta(t, 0, height, height+1)
	e := New(1, 0, 1, calib.NewStore())

	seg := e.Process(v, fov, constantROI(height, 1500))
	if seg == nil {
		t.Fatal("expected a segment, got nil")
	}
	if seg.ImageSize.Rows != 1 {
		t.Errorf("ImageSize.Rows = %d, want 1", seg.ImageSize.Rows)
	}
}

func TestStripeEngineReturnsNilWhenNotLastROI(t *testing.T) {
	const height = 4
	b := make([]byte, metadata.MetadataRowSize)
	set := func(idx int, val uint16) {
		off := idx * 2
		raw := uint16(val << 4)
		b[off] = byte(raw)
		b[off+1] = byte(raw >> 8)
	}
	set(0, metadata.SensorModeDualFreq)
	set(3, 7)
	set(4, 8)
	set(54, metadata.SaturationDisabled)
	const fovBase = 200
	set(fovBase+0, 1<<6|1)
	set(fovBase+2, height)
	set(fovBase+3, 1)
	set(fovBase+10, 1<<0) // first ROI only, not last

	v, err := metadata.Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	fov := metadata.FOVBlockAt(v, 0)

	e := New(0, 0, 1, calib.NewStore())
	if seg := e.Process(v, fov, constantROI(height, 1000)); seg != nil {
		t.Fatal("expected nil segment when LastROI is not set")
	}
}
