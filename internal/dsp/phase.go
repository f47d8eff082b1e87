// Package dsp implements the two-frequency iTOF phase-to-range pipeline's
// numeric kernels (spec.md §4.5): phase extraction, smoothing, masking,
// outlier rejection, and range reconstruction. Grounded on
// gonum.org/v1/gonum for vector and statistical primitives, plus the
// teacher's own hand-rolled numeric kernels (internal/lidar/l3grid) for the
// pieces gonum has no ready primitive for.
package dsp

import "math"

// PhaseSample is one pixel's extracted phase, signal-to-noise ratio and
// background level for a single frequency.
type PhaseSample struct {
	Phase      float64 // turns, [0, 1)
	SNR        float64
	Background float64
	Signal     float64
}

// minSNRDivisor floors the denominator of the SNR computation so a
// perfectly zero minimum component never produces a division by zero.
const minSNRDivisor = 1.0 / 65535.0

// PhaseFromTriplet computes phase, SNR and background from one pixel's raw
// (A, B, C) triplet for one frequency. The triplet is rotated so its
// minimum component becomes c; the other two keep their original cyclic
// order. frac encodes which original position became the minimum (0, 1/3,
// 2/3).
func PhaseFromTriplet(t [3]float64) PhaseSample {
	idx := 0
	if t[1] < t[idx] {
		idx = 1
	}
	if t[2] < t[idx] {
		idx = 2
	}

	c := t[idx]
	a := t[(idx+1)%3]
	b := t[(idx+2)%3]
	frac := float64(idx) / 3.0

	signal := a + b - 2*c
	if signal <= 0 {
		return PhaseSample{Phase: 0, SNR: 0, Background: 0, Signal: signal}
	}

	phase := (1.0/3.0)*((b-c)/signal) + frac
	snr := signal / math.Sqrt(2*math.Max(c, minSNRDivisor))

	return PhaseSample{Phase: phase, SNR: snr, Background: c, Signal: signal}
}
