// Package model defines the wire types exchanged with the OpenMart search API:
// search filters, business records, matches and response envelopes.
package model

import (
	"bytes"
	"encoding/json"
)

type optState uint8

const (
	optOmitted optState = iota
	optNull
	optSet
)

var jsonNull = []byte("null")

// Opt is a request field with three states: omitted (the zero value), an
// explicit JSON null, or a value. Omitted fields are left out of request
// bodies through the `omitzero` tag; null and omitted both tell the service
// not to filter on that dimension.
type Opt[T any] struct {
	value T
	state optState
}

// Some returns an Opt carrying v.
func Some[T any](v T) Opt[T] {
	return Opt[T]{value: v, state: optSet}
}

// Null returns an Opt that is sent as JSON null.
func Null[T any]() Opt[T] {
	return Opt[T]{state: optNull}
}

// IsZero reports whether the field was omitted. encoding/json uses it for omitzero.
func (o Opt[T]) IsZero() bool {
	return o.state == optOmitted
}

// IsNull reports whether the field is an explicit null.
func (o Opt[T]) IsNull() bool {
	return o.state == optNull
}

// IsSet reports whether the field carries a value.
func (o Opt[T]) IsSet() bool {
	return o.state == optSet
}

// Get returns the value and whether one is set.
func (o Opt[T]) Get() (T, bool) {
	return o.value, o.state == optSet
}

// Or returns the value if set, otherwise def.
func (o Opt[T]) Or(def T) T {
	if o.state == optSet {
		return o.value
	}
	return def
}

// MarshalJSON implements json.Marshaler.
func (o Opt[T]) MarshalJSON() ([]byte, error) {
	if o.state != optSet {
		return jsonNull, nil
	}
	return json.Marshal(o.value)
}

// UnmarshalJSON implements json.Unmarshaler. A literal null yields Null.
func (o *Opt[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		var zero T
		o.value, o.state = zero, optNull
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.value, o.state = v, optSet
	return nil
}
