// Package tempcomp converts laser-thermistor and VLDA ADC samples into a
// range offset correction, following the same fixed-point-in / float-out
// conversion style the metadata package uses for its Q-format fields.
package tempcomp

import (
	"math"
	"sort"
)

// Variant fixes the sensor-generation constants that determine how raw ADC
// counts are turned into volts and how the thermistor's resistance maps to
// temperature. M20 is the oldest variant; the compensator is a no-op for it.
type Variant struct {
	Name          string
	RefResistance float64 // Rref, ohms
	ExternalVref  float64 // volts
	VLDAScale     float64 // volts per raw VLDA ADC LSB (no gain/offset applied)
	ThermADCIndex int
	VLDAADCIndex  int
	IsM20         bool
}

// Steinhart-Hart coefficients, ohms-to-kelvin. Shared across variants; the
// thermistor part itself does not change between sensor generations.
const (
	shA = 1.009249522e-03
	shB = 2.378405444e-04
	shC = 2.019202697e-07
)

// RingSize is the default number of ADC samples retained per FOV before
// reduction.
const RingSize = 100

// Coefficients holds the per-modulation-pair calibration values used to
// turn temperature and VLDA voltage into a range offset, mirroring
// metadata.RangeCal's fields.
type Coefficients struct {
	FixedOffsetMM float64
	MMPerVolt     float64
	MMPerC        float64
}

// Compensator accumulates ADC samples for one FOV across its ROIs and
// produces a single range offset on the last ROI.
type Compensator struct {
	variant      Variant
	coeffs       Coefficients
	thermSamples []uint16
	vldaSamples  []uint16
	disabled     bool
	captured     bool
}

// New returns a Compensator with no samples captured yet.
func New() *Compensator {
	return &Compensator{
		thermSamples: make([]uint16, 0, RingSize),
		vldaSamples:  make([]uint16, 0, RingSize),
	}
}

// Reset clears accumulated samples for a new FOV.
func (c *Compensator) Reset() {
	c.thermSamples = c.thermSamples[:0]
	c.vldaSamples = c.vldaSamples[:0]
	c.disabled = false
	c.captured = false
}

// CaptureFirstROI fixes the sensor variant and calibration coefficients for
// the FOV. Called once, on the first ROI. If the variant's IsM20 is true,
// Reduce returns 0.
func (c *Compensator) CaptureFirstROI(v Variant, coeffs Coefficients) {
	c.variant = v
	c.coeffs = coeffs
	c.captured = true
}

// Observe records one ROI's thermistor and VLDA ADC samples. If the
// variant or coefficients differ from what was captured on the first ROI,
// the compensator disables itself for the remainder of the FOV.
func (c *Compensator) Observe(v Variant, coeffs Coefficients, thermADC, vldaADC uint16) {
	if c.disabled {
		return
	}
	if !c.captured {
		c.CaptureFirstROI(v, coeffs)
	} else if v != c.variant || coeffs != c.coeffs {
		c.disabled = true
		return
	}
	if len(c.thermSamples) == cap(c.thermSamples) {
		copy(c.thermSamples, c.thermSamples[1:])
		c.thermSamples = c.thermSamples[:len(c.thermSamples)-1]
	}
	c.thermSamples = append(c.thermSamples, thermADC)
	if len(c.vldaSamples) == cap(c.vldaSamples) {
		copy(c.vldaSamples, c.vldaSamples[1:])
		c.vldaSamples = c.vldaSamples[:len(c.vldaSamples)-1]
	}
	c.vldaSamples = append(c.vldaSamples, vldaADC)
}

// VLDARange bounds the volts VLDA must fall within to be trusted.
var VLDARange = [2]float64{10, 25}

// Reduce computes the final range offset in millimeters for the FOV: median
// of the ring, converted through ADC-gain/offset to volts, volts to
// thermistor resistance through the Vref/Rref divider, resistance to
// temperature through Steinhart-Hart, and VLDA ADC to volts. Returns
// (offsetMM, ok); ok is false when the compensator was disabled mid-FOV,
// no samples were observed, or VLDA fell outside [10, 25] V. For the M20
// variant it always returns (0, true).
func (c *Compensator) Reduce(adcGain, adcOffset float64) (float64, bool) {
	if c.variant.IsM20 {
		return 0, true
	}
	if c.disabled || len(c.thermSamples) == 0 || len(c.vldaSamples) == 0 {
		return 0, false
	}

	thermADC := medianU16(c.thermSamples)
	vldaADC := medianU16(c.vldaSamples)

	thermVolts := float64(thermADC)*adcGain + adcOffset
	vldaVolts := float64(vldaADC) * c.variant.VLDAScale

	if vldaVolts < VLDARange[0] || vldaVolts > VLDARange[1] {
		return 0, false
	}

	tempC := steinhartHart(thermVolts, c.variant.RefResistance, c.variant.ExternalVref)

	offset := c.coeffs.FixedOffsetMM + c.coeffs.MMPerC*tempC - c.coeffs.MMPerVolt*vldaVolts
	return offset, true
}

// steinhartHart converts a thermistor divider voltage to degrees Celsius.
func steinhartHart(thermVolts, rref, vref float64) float64 {
	if thermVolts <= 0 || thermVolts >= vref {
		return 0
	}
	r := rref * thermVolts / (vref - thermVolts)
	lnR := math.Log(r)
	kelvinInv := shA + shB*lnR + shC*lnR*lnR*lnR
	return 1.0/kelvinInv - 273.15
}

func medianU16(samples []uint16) uint16 {
	sorted := make([]uint16, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return sorted[len(sorted)/2]
}
