// Package roi defines the raw ROI sample buffer and its wire decode: the
// IMAGE_WIDTH x H x 3 x 2 x P array of 16-bit samples that follows the
// metadata row (spec.md §3). The "3" is the A/B/C phase-tap triplet always
// present per pixel per frequency; P is 1 when the producer already summed
// the three phase-permuted sub-ROIs into that triplet, or 3 when
// internal/taprotation must still do so.
package roi

import (
	"encoding/binary"
	"fmt"

	"github.com/dinesh-mcw/m30-sub000/internal/metadata"
)

// Width matches metadata.ImageWidth; every row is this many columns wide.
const Width = metadata.ImageWidth

// TripletSize is the fixed number of phase-tap components (A, B, C) per
// pixel per frequency.
const TripletSize = 3

// Freqs is the fixed number of modulation frequencies per ROI.
const Freqs = 2

// Raw is one ROI's decoded sample cube, row-major:
// Samples[row][col][triplet 0..2][freq 0..1][perm 0..Perms-1].
type Raw struct {
	Height int
	Perms  int // 1 or 3

	Samples [][][][][]uint16
}

// Decode parses the raw payload that follows the metadata row, given the
// ROI height (from the metadata view) and the permutation count (P), which
// the caller supplies because the metadata row does not carry it.
// Callers pass b[metadata.MetadataRowSize:] of the full wire buffer.
func Decode(payload []byte, height, perms int) (Raw, error) {
	if perms != 1 && perms != 3 {
		return Raw{}, fmt.Errorf("roi: unsupported permutation count %d", perms)
	}
	if height <= 0 {
		return Raw{}, fmt.Errorf("roi: invalid height %d", height)
	}
	want := Width * height * TripletSize * Freqs * perms * 2
	if len(payload) < want {
		return Raw{}, fmt.Errorf("roi: payload is %d bytes, want at least %d", len(payload), want)
	}

	r := Raw{Height: height, Perms: perms}
	r.Samples = make([][][][][]uint16, height)
	off := 0
	for row := 0; row < height; row++ {
		r.Samples[row] = make([][][][]uint16, Width)
		for col := 0; col < Width; col++ {
			r.Samples[row][col] = make([][][]uint16, TripletSize)
			for tr := 0; tr < TripletSize; tr++ {
				r.Samples[row][col][tr] = make([][]uint16, Freqs)
				for f := 0; f < Freqs; f++ {
					r.Samples[row][col][tr][f] = make([]uint16, perms)
					for p := 0; p < perms; p++ {
						r.Samples[row][col][tr][f][p] = binary.LittleEndian.Uint16(payload[off : off+2])
						off += 2
					}
				}
			}
		}
	}
	return r, nil
}

// DecodeFull decodes a full ROI buffer (metadata row followed by raw
// payload).
func DecodeFull(b []byte, height, perms int) (Raw, error) {
	if len(b) < metadata.MetadataRowSize {
		return Raw{}, fmt.Errorf("roi: buffer shorter than metadata row")
	}
	return Decode(b[metadata.MetadataRowSize:], height, perms)
}
