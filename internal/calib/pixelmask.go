package calib

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
)

// PixelMaskWidth and PixelMaskHeight match the sensor's full native frame;
// FOV geometry is always a sub-region of this mask.
const (
	PixelMaskWidth  = 640
	PixelMaskHeight = 480
)

// PixelMask is the immutable IMAGE_WIDTH x MAX_IMAGE_HEIGHT mask: 0 means
// masked, nonzero means passthrough.
type PixelMask struct {
	Values [PixelMaskHeight][PixelMaskWidth]uint16
}

// At reports whether the given sensor coordinate passes the mask.
func (m *PixelMask) At(row, col int) bool {
	if m == nil {
		return true
	}
	if row < 0 || row >= PixelMaskHeight || col < 0 || col >= PixelMaskWidth {
		return false
	}
	return m.Values[row][col] != 0
}

// PixelMaskHandle is a reference-counted, read-only handle to a PixelMask,
// mirroring MappingHandle.
type PixelMaskHandle struct {
	mask *PixelMask
	refs *int64
}

func (h PixelMaskHandle) Mask() *PixelMask { return h.mask }
func (h PixelMaskHandle) Valid() bool      { return h.mask != nil }

func newPixelMaskHandle(m *PixelMask) PixelMaskHandle {
	refs := new(int64)
	*refs = 1
	return PixelMaskHandle{mask: m, refs: refs}
}

const maxPixelMaskFileSize = 8 * 1024 * 1024

// LoadPixelMask reads a raw little-endian u16 pixel mask, row-major,
// PixelMaskHeight*PixelMaskWidth values.
func LoadPixelMask(path string) (PixelMaskHandle, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return PixelMaskHandle{}, fmt.Errorf("calib: stat pixel mask file: %w", err)
	}
	if fi.Size() > maxPixelMaskFileSize {
		return PixelMaskHandle{}, fmt.Errorf("calib: pixel mask file too large: %d bytes", fi.Size())
	}
	want := int64(PixelMaskHeight * PixelMaskWidth * 2)
	if fi.Size() != want {
		return PixelMaskHandle{}, fmt.Errorf("calib: pixel mask file is %d bytes, want %d", fi.Size(), want)
	}

	f, err := os.Open(path)
	if err != nil {
		return PixelMaskHandle{}, fmt.Errorf("calib: open pixel mask file: %w", err)
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, 1<<20)
	mask := &PixelMask{}
	var buf [2]byte
	for row := 0; row < PixelMaskHeight; row++ {
		for col := 0; col < PixelMaskWidth; col++ {
			if _, err := readFull(r, buf[:]); err != nil {
				return PixelMaskHandle{}, fmt.Errorf("calib: reading pixel mask (%d,%d): %w", row, col, err)
			}
			mask.Values[row][col] = binary.LittleEndian.Uint16(buf[:])
		}
	}
	return newPixelMaskHandle(mask), nil
}
