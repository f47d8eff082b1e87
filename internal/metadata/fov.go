package metadata

// FOVBlock is a zero-copy view over one of the 8 per-FOV 32-word blocks
// starting at word 200 (offFOVBlockBase + fovIdx*fovBlockStride).
//
// Word 0 of the block packs several small fields that the reference offset
// table does not break out individually: bit0 is the active flag, bits1-2
// the binning code, bits3-5 the nearest-neighbor rejection level, and bit6
// the stripe_mode flag. This core treats bit6 as the signal the FOV Router
// uses to choose between the grid and stripe dispatch path for that FOV
// slot — the reference table names "grid vs stripe mode flags" without
// assigning them a bit, and bit6 is the first unused bit in this word.
type FOVBlock struct {
	b       []byte
	fovIdx  int
	wordOff int
}

// FOVBlockAt returns the FOVBlock view for fovIdx (0..7).
func FOVBlockAt(v View, fovIdx int) FOVBlock {
	if fovIdx < 0 || fovIdx >= numFOVs {
		panic("metadata: FOV index out of range")
	}
	return FOVBlock{
		b:       v.b,
		fovIdx:  fovIdx,
		wordOff: offFOVBlockBase + fovIdx*fovBlockStride,
	}
}

// Word layout within a 32-word FOV block. Word 0's bit packing is documented
// above; words 1-10 are assigned in the order the reference bullet list
// names them, since the reference table gives no explicit per-field offset
// for them the way it does for the top-level fields.
const (
	fovWordFlags        = 0 // active, binning, nn_level, stripe_mode
	fovWordStartRow     = 1
	fovWordNumRows      = 2
	fovWordNumROIs      = 3
	fovWordRTDCommon    = 4
	fovWordRTDGrid      = 5
	fovWordRTDStripe    = 6
	fovWordSNRThreshold = 7 // Q0.3
	fovWordUserTag      = 8
	fovWordRandomFOVTag   = 9
	fovWordStartStop      = 10
	fovWordRectKernelSize = 11 // stripe engine rect-sum window size, in rows

	fovFlagActive     = 1 << 0
	fovFlagBinningLo  = 1 << 1
	fovFlagBinningHi  = 1 << 2
	fovFlagNNLevelLo  = 1 << 3
	fovFlagNNLevelMid = 1 << 4
	fovFlagNNLevelHi  = 1 << 5
	fovFlagStripeMode = 1 << 6

	startStopFirstROI = 1 << 0
	startStopLastROI  = 1 << 1
	startStopDumpRaw  = 1 << 2

	// Bits within rtd_flags_stripe selecting the Stripe Engine's vertical
	// aggregation window, in the priority order spec.md §4.7 lists them.
	rtdStripeRectSumEnabled   = 1 << 0
	rtdStripeSNRWeightedEnabled = 1 << 1
)

const snrThresholdQ0_3 = 8.0

func (f FOVBlock) word(i int) uint16 {
	return read12(f.b, f.wordOff+i)
}

// Active reports whether this FOV slot is in use for the current ROI. The
// FOV Router dispatches an ROI to every slot whose block has this bit set;
// it does not read the top-level active_stream_bitmask (see ActiveFOVs).
func (f FOVBlock) Active() bool {
	return f.word(fovWordFlags)&fovFlagActive != 0
}

// BinningFactor returns 1, 2, or 4 from the 2-bit binning code.
func (f FOVBlock) BinningFactor() int {
	code := (f.word(fovWordFlags) >> 1) & 0x3
	switch code {
	case 0:
		return 1
	case 1:
		return 2
	case 2:
		return 4
	default:
		return 1
	}
}

// NNLevel returns the nearest-neighbor outlier rejection level (0 disables
// it).
func (f FOVBlock) NNLevel() int {
	return int((f.word(fovWordFlags) >> 3) & 0x7)
}

// StripeMode reports whether the FOV Router should dispatch this slot
// through the synchronous single-ROI Stripe Engine rather than the
// accumulating Grid Engine.
func (f FOVBlock) StripeMode() bool {
	return f.word(fovWordFlags)&fovFlagStripeMode != 0
}

// FOVIndex returns the 0..7 slot index this block describes.
func (f FOVBlock) FOVIndex() int { return f.fovIdx }

// StartRow returns the row, within the sensor's full image, of this FOV's
// first row.
func (f FOVBlock) StartRow() int { return int(f.word(fovWordStartRow)) }

// NumRows returns the FOV's unbinned row count.
func (f FOVBlock) NumRows() int { return int(f.word(fovWordNumRows)) }

// NumROIs returns the number of ROIs expected to make up one complete
// accumulation of this FOV.
func (f FOVBlock) NumROIs() int { return int(f.word(fovWordNumROIs)) }

// RTDCommonFlags, RTDGridFlags and RTDStripeFlags return the raw 12-bit
// return-to-depth flag words; bit semantics beyond ghost-minmax and
// ghost-median (consumed directly by the grid engine) are carried opaquely.
func (f FOVBlock) RTDCommonFlags() uint16 { return f.word(fovWordRTDCommon) }
func (f FOVBlock) RTDGridFlags() uint16   { return f.word(fovWordRTDGrid) }
func (f FOVBlock) RTDStripeFlags() uint16 { return f.word(fovWordRTDStripe) }

// GhostMinMaxEnabled and GhostMedianEnabled read the grid-path enable bits
// out of rtd_flags_grid: bit0 for min-max, bit1 for plus-median. These are
// not individually named at a bit offset in the reference table; this core
// assigns them the first two bits of the word they are grouped under.
func (f FOVBlock) GhostMinMaxEnabled() bool { return f.RTDGridFlags()&(1<<0) != 0 }
func (f FOVBlock) GhostMedianEnabled() bool { return f.RTDGridFlags()&(1<<1) != 0 }

// DisableRangeMasking reads rtd_flags_common bit0, gating step 10 of the
// whole-frame completion sequence.
func (f FOVBlock) DisableRangeMasking() bool { return f.RTDCommonFlags()&(1<<0) != 0 }

// SNRThreshold returns the Q0.3 snr_threshold field as a float64.
func (f FOVBlock) SNRThreshold() float64 {
	return float64(f.word(fovWordSNRThreshold)) / snrThresholdQ0_3
}

// UserTag returns the opaque per-FOV user tag.
func (f FOVBlock) UserTag() uint32 { return uint32(f.word(fovWordUserTag)) }

// RandomFOVTag returns the opaque per-FOV scan-identity tag: any change
// mid-FOV invalidates in-flight accumulation state.
func (f FOVBlock) RandomFOVTag() uint32 { return uint32(f.word(fovWordRandomFOVTag)) }

// FirstROI, LastROI and DumpRaw decode the start_stop_flags word.
func (f FOVBlock) FirstROI() bool { return f.word(fovWordStartStop)&startStopFirstROI != 0 }
func (f FOVBlock) LastROI() bool  { return f.word(fovWordStartStop)&startStopLastROI != 0 }
func (f FOVBlock) DumpRaw() bool  { return f.word(fovWordStartStop)&startStopDumpRaw != 0 }

// RectSumEnabled and SNRWeightedEnabled decode the Stripe Engine's vertical
// aggregation window selection bits within rtd_flags_stripe. The reference
// material names both modes without giving them a bit offset; this core
// assigns rect-sum bit0 and SNR-weighted bit1, matching the priority order
// they are tried in (rect-sum first, then SNR-weighted, else Gaussian).
func (f FOVBlock) RectSumEnabled() bool {
	return f.RTDStripeFlags()&rtdStripeRectSumEnabled != 0
}

func (f FOVBlock) SNRWeightedEnabled() bool {
	return f.RTDStripeFlags()&rtdStripeSNRWeightedEnabled != 0
}

// RectKernelSize returns the rect-sum window size, in unbinned rows, used to
// decide whether rect-sum applies (it does only when this equals the ROI's
// row count).
func (f FOVBlock) RectKernelSize() int { return int(f.word(fovWordRectKernelSize)) }
