package fovengine

import (
	"github.com/dinesh-mcw/m30-sub000/internal/metadata"
	"github.com/dinesh-mcw/m30-sub000/internal/tempcomp"
)

// ADC channel assignment: the metadata contract exposes 9 raw ADC readings
// (offsets 31..39) without naming which carries the laser thermistor and
// which carries VLDA; this core fixes indices 0 and 1, the first two
// listed, as those two channels. Exported since both the grid and stripe
// engines read the same two channels.
const (
	ThermistorADCIndex = 0
	VLDAADCIndex       = 1
)

// m30Variant is the sensor-variant constants used for every SystemType
// other than the M20 (system_type 0), which the reference material singles
// out as always contributing a zero temperature offset.
var m30Variant = tempcomp.Variant{
	Name:          "M30",
	RefResistance: 10_000,
	ExternalVref:  3.3,
	VLDAScale:     0.01,
}

// VariantFor and CoeffsFrom are shared by the grid and stripe engines so the
// M20/M30 variant selection and calibration-field mapping are resolved in
// exactly one place.
func VariantFor(v metadata.View) tempcomp.Variant {
	if v.SystemType() == 0 {
		return tempcomp.Variant{Name: "M20", IsM20: true}
	}
	return m30Variant
}

func CoeffsFrom(rc metadata.RangeCal) tempcomp.Coefficients {
	return tempcomp.Coefficients{
		FixedOffsetMM: rc.OffsetMM,
		MMPerVolt:     rc.MMPerVolt,
		MMPerC:        rc.MMPerC,
	}
}
