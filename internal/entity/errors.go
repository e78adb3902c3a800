package entity

import (
	"errors"
	"fmt"
)

// Decode failure kinds. A *DecodeError unwraps to exactly one of these.
var (
	ErrInvalidDate               = errors.New("invalid date")
	ErrInvalidTimeGrain          = errors.New("invalid time grain")
	ErrInvalidDistanceUnit       = errors.New("invalid distance unit")
	ErrInvalidQuantityUnit       = errors.New("invalid quantity unit") // never produced: quantity units fall back to Custom
	ErrMissingIntervalProperties = errors.New("missing interval properties")
	ErrInvalidValue              = errors.New("invalid value")
	ErrInvalidField              = errors.New("invalid field")
	ErrUnknownDimension          = errors.New("unknown dimension")
	ErrMalformedJSON             = errors.New("malformed JSON")
)

var reasons = map[error]string{
	ErrInvalidDate:               "invalid_date",
	ErrInvalidTimeGrain:          "invalid_time_grain",
	ErrInvalidDistanceUnit:       "invalid_distance_unit",
	ErrInvalidQuantityUnit:       "invalid_quantity_unit",
	ErrMissingIntervalProperties: "missing_interval_properties",
	ErrInvalidValue:              "invalid_value",
	ErrInvalidField:              "invalid_field",
	ErrUnknownDimension:          "unknown_dimension",
	ErrMalformedJSON:             "malformed_json",
}

// DecodeError describes why a payload could not be decoded
type DecodeError struct {
	Kind      error     // one of the Err* sentinels above
	Raw       string    // offending token: date string, grain, unit or dimension tag
	Field     string    // field name, for ErrInvalidField
	Detail    string    // what was wrong with Field
	Container string    // raw JSON of the object being decoded
	Dimension Dimension // set for ErrInvalidValue
}

func (e *DecodeError) Error() string {
	switch e.Kind {
	case ErrInvalidDate, ErrInvalidTimeGrain, ErrInvalidDistanceUnit, ErrInvalidQuantityUnit, ErrUnknownDimension:
		return fmt.Sprintf("%v: %q", e.Kind, e.Raw)
	case ErrInvalidField:
		return fmt.Sprintf("%v %q: %s", e.Kind, e.Field, e.Detail)
	case ErrInvalidValue:
		return fmt.Sprintf("%v for dimension %q: %s", e.Kind, e.Dimension, e.Container)
	case ErrMissingIntervalProperties:
		return fmt.Sprintf("%v: %s", e.Kind, e.Container)
	case ErrMalformedJSON:
		if e.Detail != "" {
			return fmt.Sprintf("%v: %s", e.Kind, e.Detail)
		}
	}
	return e.Kind.Error()
}

// Unwrap exposes the kind so callers can use errors.Is
func (e *DecodeError) Unwrap() error {
	return e.Kind
}

// Reason returns a short snake_case label for the kind
func (e *DecodeError) Reason() string {
	if r, ok := reasons[e.Kind]; ok {
		return r
	}
	return "unknown"
}

// Reason returns the DecodeError label found in err's chain, or "" if there is none
func Reason(err error) string {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Reason()
	}
	return ""
}

func invalidDate(raw string) error {
	return &DecodeError{Kind: ErrInvalidDate, Raw: raw}
}

func invalidTimeGrain(raw string) error {
	return &DecodeError{Kind: ErrInvalidTimeGrain, Raw: raw}
}

func invalidDistanceUnit(raw string) error {
	return &DecodeError{Kind: ErrInvalidDistanceUnit, Raw: raw}
}

func unknownDimension(raw string) error {
	return &DecodeError{Kind: ErrUnknownDimension, Raw: raw}
}

func missingIntervalProperties(o object) error {
	return &DecodeError{Kind: ErrMissingIntervalProperties, Container: o.Raw()}
}

func invalidValue(o object, dim Dimension) error {
	return &DecodeError{Kind: ErrInvalidValue, Container: o.Raw(), Dimension: dim}
}

func invalidField(o object, field, detail string) error {
	return &DecodeError{Kind: ErrInvalidField, Field: field, Detail: detail, Container: o.Raw()}
}

func malformed(detail string) error {
	return &DecodeError{Kind: ErrMalformedJSON, Detail: detail}
}
