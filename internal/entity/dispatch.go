package entity

// valueType is the inner tag of ranged dimensions
type valueType string

const (
	valueTypeValue    valueType = "value"
	valueTypeInterval valueType = "interval"
)

// readValueType returns the "type" tag when it is present and recognised
func readValueType(o object) (valueType, bool) {
	if !o.Has("type") {
		return "", false
	}
	raw, err := o.String("type")
	if err != nil {
		return "", false
	}
	switch vt := valueType(raw); vt {
	case valueTypeValue, valueTypeInterval:
		return vt, true
	}
	return "", false
}

// decodeValue dispatches on the dimension first and, for ranged dimensions,
// on the value type second
func decodeValue(dc decodeContext, o object, dim Dimension) (Value, error) {
	switch dim {
	case DimensionTime:
		return decodeRanged(dc, o, dim, decodeSingleTime, func(i interval[SingleTime]) Value {
			return TimeValue{i}
		})
	case DimensionDistance:
		return decodeRanged(dc, o, dim, decodeSingleDistance, func(i interval[SingleDistance]) Value {
			return DistanceValue{i}
		})
	case DimensionQuantity:
		return decodeRanged(dc, o, dim, decodeSingleQuantity, func(i interval[SingleQuantity]) Value {
			return QuantityValue{i}
		})
	case DimensionNumeral:
		v, err := o.Float("value")
		if err != nil {
			return nil, err
		}
		return Numeral(v), nil
	case DimensionOrdinal:
		v, err := o.Int("value")
		if err != nil {
			return nil, err
		}
		return Ordinal(v), nil
	case DimensionEmail:
		v, err := o.String("value")
		if err != nil {
			return nil, err
		}
		return Email(v), nil
	case DimensionURL:
		v, err := o.String("value")
		if err != nil {
			return nil, err
		}
		return URL(v), nil
	default:
		return nil, invalidValue(o, dim)
	}
}

// decodeRanged handles dimensions whose values are a single or an interval
func decodeRanged[S any](dc decodeContext, o object, dim Dimension, leaf leafDecoder[S], wrap func(interval[S]) Value) (Value, error) {
	vt, ok := readValueType(o)
	if !ok {
		return nil, invalidValue(o, dim)
	}

	switch vt {
	case valueTypeValue:
		s, err := leaf(dc, o)
		if err != nil {
			return nil, err
		}
		return wrap(singleOf(s)), nil
	case valueTypeInterval:
		i, err := decodeInterval(dc, o, leaf)
		if err != nil {
			return nil, err
		}
		return wrap(i), nil
	}

	return nil, invalidValue(o, dim)
}
