package dsp

import "testing"

func TestGCFAndRatiosForAdjacentPair(t *testing.T) {
	f0 := ModFrequencyHz(8)
	f1 := ModFrequencyHz(9)
	gcf := GCF(f0, f1)
	if gcf != 4_000_000 {
		t.Fatalf("GCF(8,9) = %v, want 4e6", gcf)
	}
	if n0 := FrequencyRatio(f0, gcf); n0 != 5 {
		t.Errorf("FrequencyRatio(f0) = %d, want 5", n0)
	}
	if n1 := FrequencyRatio(f1, gcf); n1 != 6 {
		t.Errorf("FrequencyRatio(f1) = %d, want 6", n1)
	}
}

func TestUnambiguousRangePositive(t *testing.T) {
	r := UnambiguousRangeM(GCF(ModFrequencyHz(7), ModFrequencyHz(8)))
	if r <= 0 {
		t.Errorf("UnambiguousRangeM = %v, want > 0", r)
	}
}
