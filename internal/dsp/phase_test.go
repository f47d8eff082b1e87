package dsp

import "testing"

func TestPhaseFromTripletZeroSignal(t *testing.T) {
	p := PhaseFromTriplet([3]float64{1000, 1000, 1000})
	if p.Phase != 0 || p.SNR != 0 || p.Background != 0 {
		t.Errorf("constant field: got %+v, want all zero", p)
	}
}

func TestPhaseFromTripletInRange(t *testing.T) {
	p := PhaseFromTriplet([3]float64{200, 600, 50})
	if p.Phase < 0 || p.Phase >= 1 {
		t.Errorf("Phase = %v, want in [0, 1)", p.Phase)
	}
	if p.Signal <= 0 {
		t.Errorf("Signal = %v, want > 0", p.Signal)
	}
}

func TestPhaseFromTripletRotationPicksMinimum(t *testing.T) {
	// c should always be the minimum of the triplet, used as Background.
	p := PhaseFromTriplet([3]float64{900, 50, 700})
	if p.Background != 50 {
		t.Errorf("Background = %v, want 50 (the minimum)", p.Background)
	}
}
