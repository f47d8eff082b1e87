package metadata

import "fmt"

// Kind enumerates the ways a metadata row can fail validation.
type Kind int8

const (
	// TooSmall means the buffer is shorter than MetadataRowSize.
	TooSmall Kind = iota
	// UnsupportedSensorMode means sensor_mode is not the dual-frequency mode
	// this core implements.
	UnsupportedSensorMode
	// ModIdxOutOfRange means f0_mod_idx or f1_mod_idx fell outside [7, 9].
	ModIdxOutOfRange
	// NonAdjacentModIdx means f1_mod_idx != f0_mod_idx+1.
	NonAdjacentModIdx
)

func (k Kind) String() string {
	switch k {
	case TooSmall:
		return "buffer too small for metadata row"
	case UnsupportedSensorMode:
		return "unsupported sensor mode"
	case ModIdxOutOfRange:
		return "modulation index out of range"
	case NonAdjacentModIdx:
		return "modulation indices not adjacent"
	default:
		return "unknown metadata error"
	}
}

// DecodeError reports why Decode rejected a metadata row.
type DecodeError struct {
	Kind Kind
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("metadata: %s", e.Kind)
}
