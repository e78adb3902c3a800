// Package entity decodes Duckling parse responses into typed, immutable values.
//
// A response is a JSON array of entities. Each entity's value is decoded
// according to its dimension: time, distance and quantity values are a single
// point or an interval, the other supported dimensions carry one scalar.
// Decoding is pure and all-or-nothing: the first failure aborts the whole
// response and no partial list is returned.
package entity

import (
	"time"

	"github.com/tidwall/gjson"
)

// Entity is one span of the input text recognised by the service
type Entity struct {
	dimension Dimension
	body      string
	start     int
	end       int
	value     Value
	latent    bool
}

// Dimension returns the entity's domain tag
func (e Entity) Dimension() Dimension { return e.dimension }

// Body returns the matched substring of the input
func (e Entity) Body() string { return e.body }

// Start returns the offset of the first matched character
func (e Entity) Start() int { return e.start }

// End returns the offset one past the last matched character
func (e Entity) End() int { return e.end }

// Value returns the decoded value
func (e Entity) Value() Value { return e.value }

// Latent reports whether the service flagged the match as latent: a weak
// reading, such as a bare number taken as a time
func (e Entity) Latent() bool { return e.latent }

// decodeContext is threaded through every decode call
type decodeContext struct {
	location *time.Location
}

// Option configures a decode call
type Option func(*decodeContext)

// WithLocation sets the time zone time values are projected into.
// A nil location keeps the default, time.Local.
func WithLocation(loc *time.Location) Option {
	return func(dc *decodeContext) {
		if loc != nil {
			dc.location = loc
		}
	}
}

func newDecodeContext(opts []Option) decodeContext {
	dc := decodeContext{location: time.Local}
	for _, opt := range opts {
		opt(&dc)
	}
	return dc
}

// Decode decodes a full response body
func Decode(data []byte, opts ...Option) ([]Entity, error) {
	dc := newDecodeContext(opts)

	if !gjson.ValidBytes(data) {
		return nil, malformed("response is not valid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, malformed("response is not an array")
	}

	var (
		entities = []Entity{}
		err      error
	)
	root.ForEach(func(_, item gjson.Result) bool {
		var e Entity
		e, err = decodeEntityResult(dc, item)
		if err != nil {
			return false
		}
		entities = append(entities, e)
		return true
	})
	if err != nil {
		return nil, err
	}

	return entities, nil
}

// DecodeEntity decodes a single entity object
func DecodeEntity(data []byte, opts ...Option) (Entity, error) {
	if !gjson.ValidBytes(data) {
		return Entity{}, malformed("entity is not valid JSON")
	}
	return decodeEntityResult(newDecodeContext(opts), gjson.ParseBytes(data))
}

func decodeEntityResult(dc decodeContext, res gjson.Result) (Entity, error) {
	o, ok := asObject(res)
	if !ok {
		return Entity{}, malformed("entity is not an object: " + res.Raw)
	}
	return decodeEntity(dc, o)
}

// decodeEntity reads the envelope, then hands the nested value to the dispatcher
func decodeEntity(dc decodeContext, o object) (Entity, error) {
	rawDim, err := o.String("dim")
	if err != nil {
		return Entity{}, err
	}
	dim, ok := ParseDimension(rawDim)
	if !ok {
		return Entity{}, unknownDimension(rawDim)
	}

	body, err := o.String("body")
	if err != nil {
		return Entity{}, err
	}
	start, err := o.Int("start")
	if err != nil {
		return Entity{}, err
	}
	end, err := o.Int("end")
	if err != nil {
		return Entity{}, err
	}

	var latent bool
	if o.Has("latent") {
		if latent, err = o.Bool("latent"); err != nil {
			return Entity{}, err
		}
	}

	valueObj, err := o.Object("value")
	if err != nil {
		return Entity{}, err
	}
	value, err := decodeValue(dc, valueObj, dim)
	if err != nil {
		return Entity{}, err
	}

	return Entity{
		dimension: dim,
		body:      body,
		start:     start,
		end:       end,
		value:     value,
		latent:    latent,
	}, nil
}
