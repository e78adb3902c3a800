package entity

import "strconv"

// SingleDistance is a length in a known unit
type SingleDistance struct {
	value float64
	unit  DistanceUnit
}

func (d SingleDistance) Value() float64     { return d.value }
func (d SingleDistance) Unit() DistanceUnit { return d.unit }

func (d SingleDistance) String() string {
	return strconv.FormatFloat(d.value, 'f', -1, 64) + " " + string(d.unit)
}

// DistanceValue is a single distance, or an interval above, below or between distances
type DistanceValue struct {
	interval[SingleDistance]
}

func (DistanceValue) isValue() {}

// Above returns the lower bound of an open interval ("over 5 inches")
func (v DistanceValue) Above() (SingleDistance, bool) { return v.fromOnly() }

// Below returns the upper bound of an open interval ("less than 4 cm")
func (v DistanceValue) Below() (SingleDistance, bool) { return v.toOnly() }

func (v DistanceValue) String() string {
	return v.describe(SingleDistance.String, "above", "below")
}

func decodeSingleDistance(_ decodeContext, o object) (SingleDistance, error) {
	value, err := o.Float("value")
	if err != nil {
		return SingleDistance{}, err
	}

	rawUnit, err := o.String("unit")
	if err != nil {
		return SingleDistance{}, err
	}
	unit, ok := ParseDistanceUnit(rawUnit)
	if !ok {
		return SingleDistance{}, invalidDistanceUnit(rawUnit)
	}

	return SingleDistance{value: value, unit: unit}, nil
}
