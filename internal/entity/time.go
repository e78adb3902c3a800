package entity

// SingleTime is an instant resolved to a grain. Its components hold the time
// zone and every field down to the grain, nothing finer.
type SingleTime struct {
	grain      Grain
	components DateComponents
}

// Grain returns the resolution of the value
func (t SingleTime) Grain() Grain { return t.grain }

// Components returns the calendar fields of the value
func (t SingleTime) Components() DateComponents { return t.components }

// Equal compares grain and components
func (t SingleTime) Equal(o SingleTime) bool {
	return t.grain == o.grain && t.components.Equal(o.components)
}

func (t SingleTime) String() string {
	return t.components.String()
}

// TimeValue is a single instant, or an interval after, before or between instants
type TimeValue struct {
	interval[SingleTime]
}

func (TimeValue) isValue() {}

// After returns the lower bound of an open interval ("since 2016")
func (v TimeValue) After() (SingleTime, bool) { return v.fromOnly() }

// Before returns the upper bound of an open interval ("until 2016")
func (v TimeValue) Before() (SingleTime, bool) { return v.toOnly() }

// Equal compares shape and bounds
func (v TimeValue) Equal(o TimeValue) bool {
	return v.shape == o.shape && v.from.Equal(o.from) && v.to.Equal(o.to)
}

func (v TimeValue) String() string {
	return v.describe(SingleTime.String, "after", "before")
}

// decodeSingleTime reads "grain" then materializes "value" at that grain
func decodeSingleTime(dc decodeContext, o object) (SingleTime, error) {
	rawGrain, err := o.String("grain")
	if err != nil {
		return SingleTime{}, err
	}
	grain, ok := ParseGrain(rawGrain)
	if !ok {
		return SingleTime{}, invalidTimeGrain(rawGrain)
	}

	raw, err := o.String("value")
	if err != nil {
		return SingleTime{}, err
	}
	components, err := materialize(raw, dc.location, grain.Components())
	if err != nil {
		return SingleTime{}, err
	}

	return SingleTime{grain: grain, components: components}, nil
}
