package dsp

import "testing"

func TestBinGridIdentityFactor1(t *testing.T) {
	in := constantPlane(4, 4, 7)
	out := BinGrid(in, 1)
	if len(out) != 4 || len(out[0]) != 4 || out[2][2] != 7 {
		t.Fatalf("BinGrid(1) should be identity, got %v", out)
	}
}

func TestBinGridAverages2x2(t *testing.T) {
	in := Plane{
		row(1, 2, 10, 20),
		row(3, 4, 30, 40),
	}
	out := BinGrid(in, 2)
	if len(out) != 1 || len(out[0]) != 2 {
		t.Fatalf("BinGrid(2) shape = %dx%d, want 1x2", len(out), len(out[0]))
	}
	if out[0][0] != 2.5 {
		t.Errorf("BinGrid(2) block 0 = %v, want 2.5", out[0][0])
	}
	if out[0][1] != 25 {
		t.Errorf("BinGrid(2) block 1 = %v, want 25", out[0][1])
	}
}

func TestBinGridFactor4IsTwoFactor2Passes(t *testing.T) {
	in := constantPlane(4, 4, 8)
	got := BinGrid(in, 4)
	want := bin2x2(bin2x2(in))
	if len(got) != len(want) || len(got[0]) != len(want[0]) || got[0][0] != want[0][0] {
		t.Errorf("BinGrid(4) = %v, want %v", got, want)
	}
}

func TestBinStripeAveragesRow(t *testing.T) {
	in := Plane{row(1, 3, 5, 7)}
	out := BinStripe(in, 2)
	if out[0][0] != 2 || out[0][1] != 6 {
		t.Errorf("BinStripe(2) = %v, want [2 6]", out[0])
	}
}
