package entity

import "strconv"

// Value is the decoded payload of an entity. It is one of TimeValue,
// DistanceValue, QuantityValue, Ordinal, Numeral, Email or URL.
type Value interface {
	isValue()
	String() string
}

// Ordinal is a rank such as "second"
type Ordinal int

// Numeral is a number such as "five million"
type Numeral float64

// Email is an email address found in the text
type Email string

// URL is a URL found in the text, as written
type URL string

func (Ordinal) isValue() {}
func (Numeral) isValue() {}
func (Email) isValue()   {}
func (URL) isValue()     {}

func (v Ordinal) String() string { return strconv.Itoa(int(v)) }
func (v Numeral) String() string { return strconv.FormatFloat(float64(v), 'f', -1, 64) }
func (v Email) String() string   { return string(v) }
func (v URL) String() string     { return string(v) }
