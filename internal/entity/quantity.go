package entity

import "strconv"

// SingleQuantity is an amount in a unit, optionally of a named product
// ("2 cups of sugar")
type SingleQuantity struct {
	value   float64
	unit    QuantityUnit
	product string
}

func (q SingleQuantity) Value() float64     { return q.value }
func (q SingleQuantity) Unit() QuantityUnit { return q.unit }

// Product returns what is being measured, when the service reported it
func (q SingleQuantity) Product() (string, bool) { return q.product, q.product != "" }

func (q SingleQuantity) String() string {
	s := strconv.FormatFloat(q.value, 'f', -1, 64) + " " + q.unit.String()
	if q.product != "" {
		s += " of " + q.product
	}
	return s
}

// QuantityValue is a single quantity, or an interval above, under or between quantities
type QuantityValue struct {
	interval[SingleQuantity]
}

func (QuantityValue) isValue() {}

// Above returns the lower bound of an open interval
func (v QuantityValue) Above() (SingleQuantity, bool) { return v.fromOnly() }

// Under returns the upper bound of an open interval
func (v QuantityValue) Under() (SingleQuantity, bool) { return v.toOnly() }

func (v QuantityValue) String() string {
	return v.describe(SingleQuantity.String, "above", "under")
}

func decodeSingleQuantity(_ decodeContext, o object) (SingleQuantity, error) {
	value, err := o.Float("value")
	if err != nil {
		return SingleQuantity{}, err
	}

	rawUnit, err := o.String("unit")
	if err != nil {
		return SingleQuantity{}, err
	}

	var product string
	if o.Has("product") {
		if product, err = o.String("product"); err != nil {
			return SingleQuantity{}, err
		}
	}

	return SingleQuantity{value: value, unit: ParseQuantityUnit(rawUnit), product: product}, nil
}
