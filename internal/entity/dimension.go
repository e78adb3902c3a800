package entity

// Dimension tags which domain an extracted entity belongs to
type Dimension string

const (
	DimensionTime     Dimension = "time"
	DimensionNumeral  Dimension = "number"
	DimensionOrdinal  Dimension = "ordinal"
	DimensionDistance Dimension = "distance"
	DimensionEmail    Dimension = "email"
	DimensionURL      Dimension = "url"
	DimensionQuantity Dimension = "quantity"

	// Declared by the service but without a value decoder yet
	DimensionRegexMatch    Dimension = "regex"
	DimensionDuration      Dimension = "duration"
	DimensionAmountOfMoney Dimension = "amount-of-money"
	DimensionPhoneNumber   Dimension = "phone-number"
	DimensionTemperature   Dimension = "temperature"
	DimensionTimeGrain     Dimension = "time-grain"
	DimensionVolume        Dimension = "volume"
)

var dimensions = []Dimension{
	DimensionTime,
	DimensionNumeral,
	DimensionOrdinal,
	DimensionDistance,
	DimensionEmail,
	DimensionURL,
	DimensionQuantity,
	DimensionRegexMatch,
	DimensionDuration,
	DimensionAmountOfMoney,
	DimensionPhoneNumber,
	DimensionTemperature,
	DimensionTimeGrain,
	DimensionVolume,
}

// Dimensions returns every dimension the service can tag an entity with
func Dimensions() []Dimension {
	out := make([]Dimension, len(dimensions))
	copy(out, dimensions)
	return out
}

// ParseDimension maps a wire tag to a Dimension
func ParseDimension(s string) (Dimension, bool) {
	for _, d := range dimensions {
		if string(d) == s {
			return d, true
		}
	}
	return "", false
}

// Decodable reports whether entities of this dimension carry a value the
// decoder understands
func (d Dimension) Decodable() bool {
	switch d {
	case DimensionTime, DimensionNumeral, DimensionOrdinal, DimensionDistance,
		DimensionEmail, DimensionURL, DimensionQuantity:
		return true
	default:
		return false
	}
}
