package hdr

import (
	"testing"

	"github.com/dinesh-mcw/m30-sub000/internal/metadata"
	"github.com/dinesh-mcw/m30-sub000/internal/roi"
)

func flatROI(height, perms int, val uint16) roi.Raw {
	r := roi.Raw{Height: height, Perms: perms}
	r.Samples = make([][][][][]uint16, height)
	for row := 0; row < height; row++ {
		r.Samples[row] = make([][][][]uint16, roi.Width)
		for col := 0; col < roi.Width; col++ {
			r.Samples[row][col] = make([][][]uint16, roi.TripletSize)
			for tr := 0; tr < roi.TripletSize; tr++ {
				r.Samples[row][col][tr] = make([][]uint16, roi.Freqs)
				for f := 0; f < roi.Freqs; f++ {
					r.Samples[row][col][tr][f] = make([]uint16, perms)
					for p := 0; p < perms; p++ {
						r.Samples[row][col][tr][f][p] = val
					}
				}
			}
		}
	}
	return r
}

func metaRow(t *testing.T, saturationThreshold uint16, previousSaturated bool) ([]byte, metadata.View) {
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
	set(54, saturationThreshold)
	if previousSaturated {
		set(51, 1)
	}
	v, err := metadata.Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return b, v
}

func TestHDRDisabledPassesThroughImmediately(t *testing.T) {
	s := NewStage()
	b, v := metaRow(t, metadata.SaturationDisabled, false)
	r := flatROI(4, 3, 100)

	res := s.Submit(b, v, r)
	if res.Skip {
		t.Fatal("expected no skip when HDR disabled")
	}
	if res.Out.Samples[0][0][0][0][0] != 100 {
		t.Errorf("Out sample = %d, want 100", res.Out.Samples[0][0][0][0][0])
	}
}

func TestHDRStartupBuffersFirstROI(t *testing.T) {
	s := NewStage()
	b, v := metaRow(t, 4000, false)
	r := flatROI(4, 3, 50)

	res := s.Submit(b, v, r)
	if !res.Skip {
		t.Fatal("expected skip=true on startup ROI")
	}
}

func TestHDRNormalSwapReturnsOlderROI(t *testing.T) {
	s := NewStage()
	b1, v1 := metaRow(t, 4000, false)
	r1 := flatROI(4, 3, 50)
	s.Submit(b1, v1, r1)

	b2, v2 := metaRow(t, 4000, false)
	r2 := flatROI(4, 3, 60)
	res := s.Submit(b2, v2, r2)
	if res.Skip {
		t.Fatal("expected skip=false on second submit")
	}
	if got := res.Out.Samples[0][0][0][0][0]; got != 50 {
		t.Errorf("Out = %d, want 50 (the older ROI)", got)
	}
}

func TestHDRRetakeMergesSaturatedComponents(t *testing.T) {
	s := NewStage()
	threshold := uint16(4000)
	b1, v1 := metaRow(t, threshold, false)
	r1 := flatROI(2, 1, 4090) // fully saturated
	s.Submit(b1, v1, r1)

	b2, v2 := metaRow(t, threshold, true) // retake bit set
	r2 := flatROI(2, 1, 800)
	res := s.Submit(b2, v2, r2)

	if res.Skip {
		t.Fatal("expected skip=false on retake merge")
	}
	if got := res.Out.Samples[0][0][0][0][0]; got != 4090 {
		t.Errorf("merged sample = %d, want max(4090,800)=4090", got)
	}

	// The next submit must reset (latch cleared state requires full
	// buffering again).
	b3, v3 := metaRow(t, threshold, false)
	r3 := flatROI(2, 1, 30)
	res3 := s.Submit(b3, v3, r3)
	if !res3.Skip {
		t.Fatal("expected skip=true immediately after a retake merge")
	}
}
