package segment

import "testing"

func TestAtComputesRowMajorIndex(t *testing.T) {
	s := &Segment{ImageSize: Size{Rows: 4, Cols: 8}}
	if got := s.At(2, 3); got != 2*8+3 {
		t.Errorf("At(2,3) = %d, want %d", got, 2*8+3)
	}
}

func TestZeroValueMappingIsInvalid(t *testing.T) {
	s := &Segment{}
	if s.Mapping.Valid() {
		t.Errorf("zero-value Segment.Mapping should be invalid")
	}
}
