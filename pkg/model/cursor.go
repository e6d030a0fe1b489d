package model

import "bytes"

// Cursor is the opaque continuation token attached to search results.
// It holds the raw JSON the service produced and is replayed verbatim;
// the client never inspects or builds one.
type Cursor []byte

// Valid reports whether the cursor carries a token.
func (c Cursor) Valid() bool {
	return len(c) > 0 && !bytes.Equal(c, jsonNull)
}

// IsZero lets omitzero drop empty cursors.
func (c Cursor) IsZero() bool {
	return !c.Valid()
}

// MarshalJSON implements json.Marshaler.
func (c Cursor) MarshalJSON() ([]byte, error) {
	if !c.Valid() {
		return jsonNull, nil
	}
	return c, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Cursor) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, jsonNull) {
		*c = nil
		return nil
	}
	*c = append(Cursor(nil), data...)
	return nil
}

// String returns the raw token, for logging.
func (c Cursor) String() string {
	if !c.Valid() {
		return ""
	}
	return string(c)
}
