// Package segment defines the immutable data carrier produced once per
// completed FOV, following the same plain-struct shape l2frames uses for
// its completed-rotation LiDARFrame. There is no constructor: the engines
// build a Segment with a struct literal.
package segment

import (
	"time"

	"github.com/dinesh-mcw/m30-sub000/internal/calib"
)

// Size is the (rows, cols) shape of a segment's binned planes.
type Size struct {
	Rows int
	Cols int
}

// Coord2D is an integer 2D coordinate, used both for sensor-space mapping
// table indices and for binned-space FOV placement.
type Coord2D struct {
	Row int
	Col int
}

// Segment is the immutable output of one completed FOV. Every field is set
// once at construction and never mutated afterward; consumers read
// concurrently with no locking.
type Segment struct {
	FOVIndex        int
	HeadNum         int
	Timestamp       time.Time // representative timestamp for the frame
	SensorID        uint32
	UserTag         uint32
	FrameCompleted  bool // false when the FOV finished incomplete; carries no usable data
	GCFHz           float64
	MaxUnambiguousM float64
	ImageSize       Size

	// Binned planes, row-major, ImageSize.Rows * ImageSize.Cols elements.
	Range      []uint16 // 1/1024 m/LSB
	Signal     []uint16
	Background []uint16
	SNR        []uint16

	SourceROIIndex []uint16 // per binned pixel, index of the source ROI
	ROITimestamps  []time.Time

	MappingTopLeft Coord2D // sensor-space coordinate of the FOV's top-left pixel
	MappingStep    Coord2D // sensor-space stride per binned pixel: (2*binY, 2*binX)

	FOVTopLeft Coord2D // binned-space placement of this FOV within the full image
	FOVStep    Coord2D

	Mapping    calib.MappingHandle // zero value if unavailable
	NewMapping bool                // true if the mapping table changed since the consumer's last read
}

// At returns the flat index of (row, col) into the segment's row-major
// binned planes.
func (s *Segment) At(row, col int) int {
	return row*s.ImageSize.Cols + col
}
