package dsp

import "testing"

func TestRangeFromPhasePairClipsNegative(t *testing.T) {
	got := RangeFromPhasePair(0.9, 0.1, -5, -5, 1, 1, 1e7, 1.1e7)
	if got < 0 {
		t.Errorf("RangeFromPhasePair() = %v, want clipped to >= 0", got)
	}
}

func TestRangeFromPhasePairZeroPhasesIsZero(t *testing.T) {
	got := RangeFromPhasePair(0, 0, 0, 0, 1, 1, 1e7, 1.1e7)
	if got != 0 {
		t.Errorf("RangeFromPhasePair() = %v, want 0", got)
	}
}
