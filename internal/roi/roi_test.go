package roi

import (
	"encoding/binary"
	"testing"
)

func TestDecodeRoundTrip(t *testing.T) {
	height, perms := 2, 3
	payload := make([]byte, Width*height*TripletSize*Freqs*perms*2)
	off := 0
	want := uint16(0)
	for row := 0; row < height; row++ {
		for col := 0; col < Width; col++ {
			for tr := 0; tr < TripletSize; tr++ {
				for f := 0; f < Freqs; f++ {
					for p := 0; p < perms; p++ {
						binary.LittleEndian.PutUint16(payload[off:off+2], want)
						off += 2
						want++
					}
				}
			}
		}
	}

	r, err := Decode(payload, height, perms)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	// Spot-check a known sample: row 0, col 0, triplet 0, freq 1, perm 0
	// should be perms (the 4th 16-bit word written, 0-indexed).
	if got := r.Samples[0][0][0][1][0]; got != uint16(perms) {
		t.Errorf("Samples[0][0][0][1][0] = %d, want %d", got, perms)
	}
}

func TestDecodeRejectsShortPayload(t *testing.T) {
	_, err := Decode(make([]byte, 4), 2, 3)
	if err == nil {
		t.Fatal("expected error for short payload")
	}
}

func TestDecodeRejectsBadPermCount(t *testing.T) {
	_, err := Decode(make([]byte, Width*2*TripletSize*Freqs*2*2), 2, 2)
	if err == nil {
		t.Fatal("expected error for permutation count 2")
	}
}
