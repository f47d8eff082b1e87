package tempcomp

import "testing"

var testVariant = Variant{
	Name:          "M30",
	RefResistance: 10000,
	ExternalVref:  3.3,
	VLDAScale:     0.01,
}

var testCoeffs = Coefficients{
	FixedOffsetMM: 5,
	MMPerVolt:     1.5,
	MMPerC:        0.2,
}

func TestM20VariantAlwaysZero(t *testing.T) {
	c := New()
	c.CaptureFirstROI(Variant{Name: "M20", IsM20: true}, testCoeffs)
	c.Observe(c.variant, testCoeffs, 2000, 1500)

	offset, ok := c.Reduce(1, 0)
	if !ok || offset != 0 {
		t.Errorf("Reduce() = (%v, %v), want (0, true) for M20", offset, ok)
	}
}

func TestReduceRejectsOutOfRangeVLDA(t *testing.T) {
	c := New()
	c.CaptureFirstROI(testVariant, testCoeffs)
	// VLDAScale 0.01, ADC 500 -> 5V, outside [10,25].
	c.Observe(testVariant, testCoeffs, 2000, 500)

	_, ok := c.Reduce(1, 0)
	if ok {
		t.Errorf("Reduce() should reject VLDA outside [10,25]V")
	}
}

func TestObserveDisablesOnVariantChange(t *testing.T) {
	c := New()
	c.CaptureFirstROI(testVariant, testCoeffs)
	c.Observe(testVariant, testCoeffs, 2000, 1500)

	changed := testVariant
	changed.RefResistance = 20000
	c.Observe(changed, testCoeffs, 2000, 1500)

	_, ok := c.Reduce(1, 0)
	if ok {
		t.Errorf("Reduce() should fail after mid-FOV variant change")
	}
}

func TestResetClearsSamplesAndDisabled(t *testing.T) {
	c := New()
	c.CaptureFirstROI(testVariant, testCoeffs)
	changed := testVariant
	changed.RefResistance = 20000
	c.Observe(changed, testCoeffs, 2000, 1500)

	c.Reset()
	if c.disabled || len(c.thermSamples) != 0 {
		t.Errorf("Reset() did not clear state")
	}
}

func TestReduceAcceptsInRangeVLDA(t *testing.T) {
	c := New()
	c.CaptureFirstROI(testVariant, testCoeffs)
	// VLDAScale 0.01, ADC 1800 -> 18V, inside [10,25].
	c.Observe(testVariant, testCoeffs, 2000, 1800)

	_, ok := c.Reduce(1, 0)
	if !ok {
		t.Errorf("Reduce() should accept VLDA within [10,25]V")
	}
}
