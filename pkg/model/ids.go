package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/google/uuid"
)

// ID is an identifier assigned by the service. The text is kept as sent;
// identifiers are usually UUIDs but are not checked on decode.
type ID string

// UUID parses the identifier.
func (id ID) UUID() (uuid.UUID, error) {
	return uuid.Parse(string(id))
}

func (id ID) String() string {
	return string(id)
}

// Count is a non-fractional quantity reported by the service. It decodes
// from integers, integral floats such as 12.0 and numeric strings. A
// fractional value is truncated toward zero.
type Count int

// Int returns c as an int.
func (c Count) Int() int {
	return int(c)
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Count) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(s)
	}
	if n, err := strconv.ParseInt(string(data), 10, 64); err == nil {
		*c = Count(n)
		return nil
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("count: %q is not a number", data)
	}
	*c = Count(math.Trunc(f))
	return nil
}
