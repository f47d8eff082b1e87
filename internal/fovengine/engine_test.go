package fovengine

import (
	"testing"
	"time"

	"github.com/dinesh-mcw/m30-sub000/internal/calib"
	"github.com/dinesh-mcw/m30-sub000/internal/metadata"
	"github.com/dinesh-mcw/m30-sub000/internal/roi"
	"github.com/dinesh-mcw/m30-sub000/internal/segment"
)

// fovMeta builds one ROI's metadata row with a single active FOV slot (0)
// and the given per-FOV and start-stop fields, since the metadata package
// exposes only a decoder, not an encoder.
func fovMeta(t *testing.T, startRow, numRows, numROIs, binning int, firstROI, lastROI bool) (metadata.View, metadata.FOVBlock) {
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

	fovBase := 200 // offFOVBlockBase, fovIdx 0
	binCode := map[int]uint16{1: 0, 2: 1, 4: 2}[binning]
	set(fovBase+0, binCode<<1|1) // active bit + binning code
	set(1, uint16(startRow))     // top-level roi_start_row
	set(fovBase+2, uint16(numRows))
	set(fovBase+3, uint16(numROIs))
	var startStop uint16
	if firstROI {
		startStop |= 1 << 0
	}
	if lastROI {
		startStop |= 1 << 1
	}
	set(fovBase+10, startStop)

	v, err := metadata.Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	fov := metadata.FOVBlockAt(v, 0)
	return v, fov
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
					r.Samples[row][col][tr][f] = []uint16{val}
				}
			}
		}
	}
	return r
}

func TestEngineEmitsSegmentOnLastROI(t *testing.T) {
	segments := make(chan *segment.Segment, 1)
	e := New(0, 0, 1, calib.NewStore(), func(seg *segment.Segment) {
		segments <- seg
	})
	defer e.Close()

	const rows = 4
	const numROIs = 2
	v0, fov0 := fovMeta(t, 0, rows, numROIs, 1, true, false)
	e.Process(v0, fov0, constantROI(2, 1000))

	v1, fov1 := fovMeta(t, 2, rows, numROIs, 1, false, true)
	e.Process(v1, fov1, constantROI(2, 1000))

	select {
	case seg := <-segments:
		if seg.ImageSize.Rows != rows || seg.ImageSize.Cols != roi.Width {
			t.Errorf("ImageSize = %+v, want (%d,%d)", seg.ImageSize, rows, roi.Width)
		}
		if !seg.FrameCompleted {
			t.Error("FrameCompleted = false, want true")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for segment")
	}
}

func TestEngineMarksIncompleteOnShapeChange(t *testing.T) {
	segments := make(chan *segment.Segment, 1)
	e := New(1, 0, 1, calib.NewStore(), func(seg *segment.Segment) {
		segments <- seg
	})
	defer e.Close()

	v0, fov0 := fovMeta(t, 0, 8, 4, 1, true, false)
	e.Process(v0, fov0, constantROI(2, 1000))

	// Shape change mid-FOV: different numRows.
	v1, fov1 := fovMeta(t, 2, 120, 4, 1, false, false)
	e.Process(v1, fov1, constantROI(2, 1000))

	v2, fov2 := fovMeta(t, 4, 8, 4, 1, false, true)
	e.Process(v2, fov2, constantROI(2, 1000))

	select {
	case <-segments:
		t.Fatal("expected no segment after shape change mid-FOV")
	case <-time.After(200 * time.Millisecond):
	}
}
