package entity

import (
	"math"

	"github.com/tidwall/gjson"
)

// object is a read-only view of one JSON object in the response tree
type object struct {
	res gjson.Result
}

func asObject(res gjson.Result) (object, bool) {
	if !res.IsObject() {
		return object{}, false
	}
	return object{res: res}, true
}

// Raw returns the object's JSON text
func (o object) Raw() string {
	return o.res.Raw
}

// Has reports whether key is present, whatever its type (null included)
func (o object) Has(key string) bool {
	return o.res.Get(key).Exists()
}

// String returns a string field
func (o object) String(key string) (string, error) {
	r, err := o.field(key)
	if err != nil {
		return "", err
	}
	if r.Type != gjson.String {
		return "", invalidField(o, key, "expected string, got "+r.Type.String())
	}
	return r.Str, nil
}

// Float returns a numeric field
func (o object) Float(key string) (float64, error) {
	r, err := o.field(key)
	if err != nil {
		return 0, err
	}
	if r.Type != gjson.Number {
		return 0, invalidField(o, key, "expected number, got "+r.Type.String())
	}
	return r.Num, nil
}

// Int returns a numeric field that must hold a whole number
func (o object) Int(key string) (int, error) {
	r, err := o.field(key)
	if err != nil {
		return 0, err
	}
	if r.Type != gjson.Number {
		return 0, invalidField(o, key, "expected number, got "+r.Type.String())
	}
	if r.Num != math.Trunc(r.Num) || math.Abs(r.Num) > 1<<53 {
		return 0, invalidField(o, key, "expected integer, got "+r.Raw)
	}
	return int(r.Int()), nil
}

// Bool returns a boolean field
func (o object) Bool(key string) (bool, error) {
	r, err := o.field(key)
	if err != nil {
		return false, err
	}
	if r.Type != gjson.True && r.Type != gjson.False {
		return false, invalidField(o, key, "expected bool, got "+r.Type.String())
	}
	return r.Bool(), nil
}

// Object returns a nested object that must be present
func (o object) Object(key string) (object, error) {
	r, err := o.field(key)
	if err != nil {
		return object{}, err
	}
	nested, ok := asObject(r)
	if !ok {
		return object{}, invalidField(o, key, "expected object")
	}
	return nested, nil
}

// OptionalObject returns the nested object at key, if there is one
func (o object) OptionalObject(key string) (object, bool) {
	return asObject(o.res.Get(key))
}

func (o object) field(key string) (gjson.Result, error) {
	r := o.res.Get(key)
	if !r.Exists() {
		return r, invalidField(o, key, "missing")
	}
	return r, nil
}
