package entity

// Shape identifies which variant a time, distance or quantity value holds
type Shape int

const (
	ShapeSingle  Shape = iota + 1 // a point value
	ShapeFrom                     // lower bound only: after / above
	ShapeTo                       // upper bound only: before / below / under
	ShapeBetween                  // both bounds
)

func (s Shape) String() string {
	switch s {
	case ShapeSingle:
		return "single"
	case ShapeFrom:
		return "from"
	case ShapeTo:
		return "to"
	case ShapeBetween:
		return "between"
	default:
		return "invalid"
	}
}

// interval is the shape shared by TimeValue, DistanceValue and QuantityValue.
// Bounds are always single values; no ordering between them is enforced.
type interval[S any] struct {
	shape Shape
	from  S
	to    S
}

func singleOf[S any](v S) interval[S] {
	return interval[S]{shape: ShapeSingle, from: v}
}

// Shape returns the variant held
func (i interval[S]) Shape() Shape {
	return i.shape
}

// Single returns the point value of a ShapeSingle value
func (i interval[S]) Single() (S, bool) {
	if i.shape != ShapeSingle {
		var zero S
		return zero, false
	}
	return i.from, true
}

// Between returns both bounds of a ShapeBetween value
func (i interval[S]) Between() (from, to S, ok bool) {
	if i.shape != ShapeBetween {
		var zero S
		return zero, zero, false
	}
	return i.from, i.to, true
}

// From returns the lower bound of a ShapeFrom or ShapeBetween value
func (i interval[S]) From() (S, bool) {
	if i.shape != ShapeFrom && i.shape != ShapeBetween {
		var zero S
		return zero, false
	}
	return i.from, true
}

// To returns the upper bound of a ShapeTo or ShapeBetween value
func (i interval[S]) To() (S, bool) {
	if i.shape != ShapeTo && i.shape != ShapeBetween {
		var zero S
		return zero, false
	}
	return i.to, true
}

func (i interval[S]) fromOnly() (S, bool) {
	if i.shape != ShapeFrom {
		var zero S
		return zero, false
	}
	return i.from, true
}

func (i interval[S]) toOnly() (S, bool) {
	if i.shape != ShapeTo {
		var zero S
		return zero, false
	}
	return i.to, true
}

// leafDecoder turns one value object into a single value of its domain
type leafDecoder[S any] func(dc decodeContext, o object) (S, error)

// decodeInterval rebuilds an interval from the presence of "from" and "to"
func decodeInterval[S any](dc decodeContext, o object, leaf leafDecoder[S]) (interval[S], error) {
	hasFrom, hasTo := o.Has("from"), o.Has("to")

	switch {
	case hasFrom && hasTo:
		from, err := decodeBound(dc, o, "from", leaf)
		if err != nil {
			return interval[S]{}, err
		}
		to, err := decodeBound(dc, o, "to", leaf)
		if err != nil {
			return interval[S]{}, err
		}
		return interval[S]{shape: ShapeBetween, from: from, to: to}, nil
	case hasFrom:
		from, err := decodeBound(dc, o, "from", leaf)
		if err != nil {
			return interval[S]{}, err
		}
		return interval[S]{shape: ShapeFrom, from: from}, nil
	case hasTo:
		to, err := decodeBound(dc, o, "to", leaf)
		if err != nil {
			return interval[S]{}, err
		}
		return interval[S]{shape: ShapeTo, to: to}, nil
	}

	return interval[S]{}, missingIntervalProperties(o)
}

func decodeBound[S any](dc decodeContext, o object, key string, leaf leafDecoder[S]) (S, error) {
	nested, ok := o.OptionalObject(key)
	if !ok {
		var zero S
		return zero, invalidField(o, key, "expected object")
	}
	return leaf(dc, nested)
}

// describe renders an interval with domain-specific words for the open shapes
func (i interval[S]) describe(show func(S) string, fromWord, toWord string) string {
	switch i.shape {
	case ShapeSingle:
		return show(i.from)
	case ShapeFrom:
		return fromWord + " " + show(i.from)
	case ShapeTo:
		return toWord + " " + show(i.to)
	case ShapeBetween:
		return "between " + show(i.from) + " and " + show(i.to)
	}
	return "invalid"
}
