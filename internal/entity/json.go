package entity

import (
	"encoding/json"
	"time"
)

// Decoded values render to a normalised JSON shape that differs from the wire
// format: every value carries a "kind" tag and time values list their
// populated calendar fields.

type entityJSON struct {
	Dimension Dimension `json:"dim"`
	Body      string    `json:"body"`
	Start     int       `json:"start"`
	End       int       `json:"end"`
	Value     Value     `json:"value"`
	Latent    bool      `json:"latent,omitempty"`
}

// MarshalJSON renders the entity with its normalised value
func (e Entity) MarshalJSON() ([]byte, error) {
	return json.Marshal(entityJSON{
		Dimension: e.dimension,
		Body:      e.body,
		Start:     e.start,
		End:       e.end,
		Value:     e.value,
		Latent:    e.latent,
	})
}

type rangeJSON struct {
	Kind  string `json:"kind"`
	Value any    `json:"value,omitempty"`
	From  any    `json:"from,omitempty"`
	To    any    `json:"to,omitempty"`
}

func marshalInterval[S any](i interval[S], fromKind, toKind string) ([]byte, error) {
	out := rangeJSON{}
	switch i.shape {
	case ShapeSingle:
		out.Kind, out.Value = "single", i.from
	case ShapeFrom:
		out.Kind, out.From = fromKind, i.from
	case ShapeTo:
		out.Kind, out.To = toKind, i.to
	case ShapeBetween:
		out.Kind, out.From, out.To = "between", i.from, i.to
	default:
		out.Kind = "invalid"
	}
	return json.Marshal(out)
}

func (v TimeValue) MarshalJSON() ([]byte, error) {
	return marshalInterval(v.interval, "after", "before")
}

func (v DistanceValue) MarshalJSON() ([]byte, error) {
	return marshalInterval(v.interval, "above", "below")
}

func (v QuantityValue) MarshalJSON() ([]byte, error) {
	return marshalInterval(v.interval, "above", "under")
}

type singleTimeJSON struct {
	Grain    Grain       `json:"grain"`
	TimeZone string      `json:"timezone,omitempty"`
	Year     *int        `json:"year,omitempty"`
	Month    *time.Month `json:"month,omitempty"`
	Day      *int        `json:"day,omitempty"`
	Hour     *int        `json:"hour,omitempty"`
	Minute   *int        `json:"minute,omitempty"`
	Second   *int        `json:"second,omitempty"`
}

func (t SingleTime) MarshalJSON() ([]byte, error) {
	c := t.components
	out := singleTimeJSON{Grain: t.grain, TimeZone: locationName(c.loc)}
	if v, ok := c.Year(); ok {
		out.Year = &v
	}
	if v, ok := c.Month(); ok {
		out.Month = &v
	}
	if v, ok := c.Day(); ok {
		out.Day = &v
	}
	if v, ok := c.Hour(); ok {
		out.Hour = &v
	}
	if v, ok := c.Minute(); ok {
		out.Minute = &v
	}
	if v, ok := c.Second(); ok {
		out.Second = &v
	}
	return json.Marshal(out)
}

func (d SingleDistance) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Value float64      `json:"value"`
		Unit  DistanceUnit `json:"unit"`
	}{d.value, d.unit})
}

func (q SingleQuantity) MarshalJSON() ([]byte, error) {
	_, custom := q.unit.Custom()
	return json.Marshal(struct {
		Value      float64 `json:"value"`
		Unit       string  `json:"unit"`
		CustomUnit bool    `json:"custom_unit,omitempty"`
		Product    string  `json:"product,omitempty"`
	}{q.value, q.unit.String(), custom, q.product})
}

type scalarJSON struct {
	Kind  string `json:"kind"`
	Value any    `json:"value"`
}

func (v Ordinal) MarshalJSON() ([]byte, error) {
	return json.Marshal(scalarJSON{Kind: "ordinal", Value: int(v)})
}

func (v Numeral) MarshalJSON() ([]byte, error) {
	return json.Marshal(scalarJSON{Kind: "numeral", Value: float64(v)})
}

func (v Email) MarshalJSON() ([]byte, error) {
	return json.Marshal(scalarJSON{Kind: "email", Value: string(v)})
}

func (v URL) MarshalJSON() ([]byte, error) {
	return json.Marshal(scalarJSON{Kind: "url", Value: string(v)})
}
