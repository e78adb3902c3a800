package entity

// DistanceUnit is the closed set of units the service reports for distances
type DistanceUnit string

const (
	DistanceCentimetre DistanceUnit = "centimetre"
	DistanceFoot       DistanceUnit = "foot"
	DistanceInch       DistanceUnit = "inch"
	DistanceKilometre  DistanceUnit = "kilometre"
	DistanceM          DistanceUnit = "m" // ambiguous between metre and mile
	DistanceMetre      DistanceUnit = "metre"
	DistanceMile       DistanceUnit = "mile"
	DistanceMillimetre DistanceUnit = "millimetre"
	DistanceYard       DistanceUnit = "yard"
)

// ParseDistanceUnit maps a wire token to a DistanceUnit. Unknown tokens are rejected.
func ParseDistanceUnit(s string) (DistanceUnit, bool) {
	switch u := DistanceUnit(s); u {
	case DistanceCentimetre, DistanceFoot, DistanceInch, DistanceKilometre, DistanceM,
		DistanceMetre, DistanceMile, DistanceMillimetre, DistanceYard:
		return u, true
	}
	return "", false
}

// DefinedQuantityUnit is a quantity unit the decoder recognises
type DefinedQuantityUnit string

const (
	QuantityBowl       DefinedQuantityUnit = "bowl"
	QuantityCup        DefinedQuantityUnit = "cup"
	QuantityDish       DefinedQuantityUnit = "dish"
	QuantityGram       DefinedQuantityUnit = "gram"
	QuantityOunce      DefinedQuantityUnit = "ounce"
	QuantityPint       DefinedQuantityUnit = "pint"
	QuantityPound      DefinedQuantityUnit = "pound"
	QuantityQuart      DefinedQuantityUnit = "quart"
	QuantityTablespoon DefinedQuantityUnit = "tablespoon"
	QuantityTeaspoon   DefinedQuantityUnit = "teaspoon"
	QuantityUnnamed    DefinedQuantityUnit = "unnamed"
)

func parseDefinedQuantityUnit(s string) (DefinedQuantityUnit, bool) {
	switch u := DefinedQuantityUnit(s); u {
	case QuantityBowl, QuantityCup, QuantityDish, QuantityGram, QuantityOunce, QuantityPint,
		QuantityPound, QuantityQuart, QuantityTablespoon, QuantityTeaspoon, QuantityUnnamed:
		return u, true
	}
	return "", false
}

// QuantityUnit is either a DefinedQuantityUnit or the raw token the service
// sent. Its zero value is Custom("").
type QuantityUnit struct {
	defined DefinedQuantityUnit
	custom  string
}

// ParseQuantityUnit never fails: unrecognised tokens are kept verbatim
func ParseQuantityUnit(s string) QuantityUnit {
	if d, ok := parseDefinedQuantityUnit(s); ok {
		return QuantityUnit{defined: d}
	}
	return QuantityUnit{custom: s}
}

// Defined returns the recognised unit, if any
func (u QuantityUnit) Defined() (DefinedQuantityUnit, bool) {
	return u.defined, u.defined != ""
}

// Custom returns the raw token of an unrecognised unit
func (u QuantityUnit) Custom() (string, bool) {
	return u.custom, u.defined == ""
}

// String returns the wire token
func (u QuantityUnit) String() string {
	if u.defined != "" {
		return string(u.defined)
	}
	return u.custom
}
