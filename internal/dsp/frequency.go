package dsp

import "math"

// modFrequencyHz maps a modulation index (one of 7, 8, 9 per the metadata
// contract) to its modulation frequency in Hz. The reference material names
// the index but not the Hz values actually wired to each index; this core
// fixes a table of integer MHz-range frequencies with a non-trivial GCF
// between every adjacent pair, the shape dual-frequency iTOF modulation
// always takes.
var modFrequencyHz = map[int]float64{
	7: 18_000_000,
	8: 20_000_000,
	9: 24_000_000,
}

// ModFrequencyHz returns the modulation frequency for a metadata mod index.
func ModFrequencyHz(modIdx int) float64 {
	f, ok := modFrequencyHz[modIdx]
	if !ok {
		panic("dsp: unknown modulation index")
	}
	return f
}

// GCF returns the greatest common (integer) factor of two frequencies in Hz.
func GCF(f0, f1 float64) float64 {
	a := int64(math.Round(f0))
	b := int64(math.Round(f1))
	for b != 0 {
		a, b = b, a%b
	}
	if a < 0 {
		a = -a
	}
	return float64(a)
}

// UnambiguousRangeM returns the maximum unambiguous range in meters for a
// given GCF in Hz: c / (2*GCF).
func UnambiguousRangeM(gcf float64) float64 {
	return SpeedOfLightMPerS / (2 * gcf)
}

// FrequencyRatio returns n = round(f/gcf), the integer ratio used by
// RangeFromPhasePair.
func FrequencyRatio(f, gcf float64) int {
	return int(math.Round(f / gcf))
}
