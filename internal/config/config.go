// Package config holds the configuration options the outer program passes
// into the sensor head core (spec.md §6) plus the optional DSP tuning
// overrides the core consumes at startup.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// TimeSyncMode selects how the outer program has synchronised this head's
// clock. The core itself performs no synchronisation; it only consumes the
// policy flag and, separately, an integer second offset per session.
type TimeSyncMode int

const (
	TimeSyncNone TimeSyncMode = iota
	TimeSyncPTP
	TimeSyncPPS
)

func (m TimeSyncMode) String() string {
	switch m {
	case TimeSyncNone:
		return "none"
	case TimeSyncPTP:
		return "ptp"
	case TimeSyncPPS:
		return "pps"
	default:
		return "unknown"
	}
}

// Config provides the parameters relevant to one sensor head core instance.
// Field names and semantics follow spec.md §6 exactly; this is the struct
// the outer program (video-capture transport, TCP control surface, network
// encoders — all out of scope here) constructs and passes in.
type Config struct {
	// MappingPath is the location of the angle-to-angle mapping table, either
	// a .bin blob or a CSV file.
	MappingPath string

	// PixelMaskPath is the location of the IMAGE_WIDTH x MAX_IMAGE_HEIGHT
	// pixel mask file.
	PixelMaskPath string

	// StartupTimeSyncMode records how the outer program synchronised time
	// before this core instance was started.
	StartupTimeSyncMode TimeSyncMode

	// RawDumpPrefix, if non-empty, is the path prefix used for the raw-ROI
	// debug dump sideband (spec.md §9, START_STOP_FLAG_DUMP_RAW_ROI).
	RawDumpPrefix string

	// RawDumpMaxROIs caps the number of ROIs written per dump trigger.
	RawDumpMaxROIs uint

	// MaxNetFrames bounds the number of in-flight segments a downstream
	// encoder may hold; the core does not enforce this itself but carries
	// it through for the outer program's sender configuration.
	MaxNetFrames uint

	// BasePort is the first of a contiguous port range used by network
	// encoders (out of scope here; carried through for the outer program).
	BasePort uint16

	// HeadNum identifies this sensor head when the outer program
	// instantiates more than one core (spec.md Non-goals: the core itself
	// is single-head).
	HeadNum uint8

	// Tuning holds the optional DSP parameter overrides. Validate checks
	// them; the engines do not read them (see DSPTuning), so every DSP
	// kernel uses its fixed constant whether Tuning is nil or not.
	Tuning *DSPTuning
}

// Validate checks the config for internally-inconsistent values. It does not
// check that the referenced files exist — CalibrationUnavailable is a
// recoverable condition, not a validation failure (spec.md §7).
func (c *Config) Validate() error {
	if c.StartupTimeSyncMode < TimeSyncNone || c.StartupTimeSyncMode > TimeSyncPPS {
		return fmt.Errorf("config: invalid StartupTimeSyncMode %d", c.StartupTimeSyncMode)
	}
	if c.HeadNum > 7 {
		return fmt.Errorf("config: HeadNum %d out of range", c.HeadNum)
	}
	if c.Tuning != nil {
		if err := c.Tuning.Validate(); err != nil {
			return fmt.Errorf("config: invalid tuning: %w", err)
		}
	}
	return nil
}

// DSPTuning holds optional overrides for DSP kernel parameters that spec.md
// states as fixed constants. Every field is a pointer so that a partially
// populated JSON document leaves the rest at their spec-mandated default —
// the same optional-field-with-Get-accessor shape used throughout this
// repository's configuration layer.
//
// No engine reads DSPTuning. The grid engine calls dsp.MinMaxGhostMask
// (arms 1, 1, threshold 1.5) and dsp.PlusMedian (arms 1, 1) with fixed
// arguments and takes disable-masking from the FOV block's metadata bit;
// the Temperature Compensator keeps tempcomp.RingSize samples. The
// defaults below are what the Get* accessors return for unset fields.
type DSPTuning struct {
	// GhostMinMaxThreshold overrides the max-min threshold used by the
	// recursive min-max ghost mask (§4.5). Default: 200 (raw ADC counts).
	GhostMinMaxThreshold *int `json:"ghost_minmax_threshold,omitempty"`

	// GhostMinMaxWindow overrides the vertical/horizontal window size used
	// by the recursive min-max ghost mask. Default: 3.
	GhostMinMaxWindow *int `json:"ghost_minmax_window,omitempty"`

	// PlusMedianVerticalArm/HorizontalArm override the plus-median kernel
	// arm sizes. Defaults: 3, 3.
	PlusMedianVerticalArm   *int `json:"plus_median_vertical_arm,omitempty"`
	PlusMedianHorizontalArm *int `json:"plus_median_horizontal_arm,omitempty"`

	// RangeLimitM overrides the range_limit mask threshold (metres).
	// Default: 0, meaning no extra limit beyond max-unambiguous-range.
	RangeLimitM *float64 `json:"range_limit_m,omitempty"`

	// DisableRangeMasking, when true, skips all masking in §4.6 step 10.
	DisableRangeMasking *bool `json:"disable_range_masking,omitempty"`

	// TemperatureHistoryLength overrides the ADC sample ring length used
	// by the Temperature Compensator. Default: 100.
	TemperatureHistoryLength *int `json:"temperature_history_length,omitempty"`
}

// Validate checks that any set DSPTuning fields hold sane values.
func (t *DSPTuning) Validate() error {
	if t.GhostMinMaxWindow != nil && *t.GhostMinMaxWindow < 1 {
		return fmt.Errorf("ghost_minmax_window must be >= 1, got %d", *t.GhostMinMaxWindow)
	}
	if t.PlusMedianVerticalArm != nil && *t.PlusMedianVerticalArm < 0 {
		return fmt.Errorf("plus_median_vertical_arm must be >= 0, got %d", *t.PlusMedianVerticalArm)
	}
	if t.PlusMedianHorizontalArm != nil && *t.PlusMedianHorizontalArm < 0 {
		return fmt.Errorf("plus_median_horizontal_arm must be >= 0, got %d", *t.PlusMedianHorizontalArm)
	}
	if t.TemperatureHistoryLength != nil && *t.TemperatureHistoryLength < 1 {
		return fmt.Errorf("temperature_history_length must be >= 1, got %d", *t.TemperatureHistoryLength)
	}
	return nil
}

// GetGhostMinMaxThreshold returns the override or the spec default.
func (t *DSPTuning) GetGhostMinMaxThreshold() int {
	if t == nil || t.GhostMinMaxThreshold == nil {
		return 200
	}
	return *t.GhostMinMaxThreshold
}

// GetGhostMinMaxWindow returns the override or the spec default.
func (t *DSPTuning) GetGhostMinMaxWindow() int {
	if t == nil || t.GhostMinMaxWindow == nil {
		return 3
	}
	return *t.GhostMinMaxWindow
}

// GetPlusMedianArms returns the override or the spec defaults.
func (t *DSPTuning) GetPlusMedianArms() (vertical, horizontal int) {
	vertical, horizontal = 3, 3
	if t == nil {
		return
	}
	if t.PlusMedianVerticalArm != nil {
		vertical = *t.PlusMedianVerticalArm
	}
	if t.PlusMedianHorizontalArm != nil {
		horizontal = *t.PlusMedianHorizontalArm
	}
	return
}

// GetRangeLimitM returns the override or 0 (no extra limit).
func (t *DSPTuning) GetRangeLimitM() float64 {
	if t == nil || t.RangeLimitM == nil {
		return 0
	}
	return *t.RangeLimitM
}

// GetDisableRangeMasking returns the override or false.
func (t *DSPTuning) GetDisableRangeMasking() bool {
	if t == nil || t.DisableRangeMasking == nil {
		return false
	}
	return *t.DisableRangeMasking
}

// GetTemperatureHistoryLength returns the override or the spec default.
func (t *DSPTuning) GetTemperatureHistoryLength() int {
	if t == nil || t.TemperatureHistoryLength == nil {
		return 100
	}
	return *t.TemperatureHistoryLength
}

// LoadDSPTuning loads a DSPTuning override document from a JSON file. Fields
// omitted from the file retain their spec-mandated defaults via the Get*
// accessors, so partial override files are safe.
func LoadDSPTuning(path string) (*DSPTuning, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("tuning file must have .json extension, got %q", ext)
	}

	fi, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat tuning file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fi.Size() > maxFileSize {
		return nil, fmt.Errorf("tuning file too large: %d bytes (max %d)", fi.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read tuning file: %w", err)
	}

	t := &DSPTuning{}
	if err := json.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("failed to parse tuning JSON: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tuning: %w", err)
	}
	return t, nil
}
