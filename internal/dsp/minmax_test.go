package dsp

import "testing"

func TestMinMaxGhostMaskFlagsSharpEdge(t *testing.T) {
	in := constantPlane(10, 10, 0)
	for c := 5; c < 10; c++ {
		in[4][c] = 1000
	}
	mask := MinMaxGhostMask(in, nil, 2, 2, 50)
	if !mask[4][6] {
		t.Error("expected the sharp edge neighborhood to be flagged")
	}
	if mask[8][8] {
		t.Error("expected a flat region far from the edge to be unflagged")
	}
}

func TestMinMaxGhostMaskUnflagsWhenAllNeighborsMasked(t *testing.T) {
	in := constantPlane(5, 5, 0)
	in[2][2] = 1000
	valid := make([][]bool, 5)
	for r := range valid {
		valid[r] = make([]bool, 5)
	}
	// Every neighbor masked invalid; the center pixel's own validity is
	// irrelevant to this scan (it inspects its window, not itself alone).
	mask := MinMaxGhostMask(in, valid, 2, 2, 1)
	if mask[2][2] {
		t.Error("a window with every neighbor masked must not be flagged")
	}
}
