package model

import "encoding/json"

// Shape tells which envelope a response came in. It is decided by the
// request's estimate_total flag, not by looking at the response.
type Shape int

const (
	// ShapeList is a bare array of results.
	ShapeList Shape = iota
	// ShapeCounted is {"data": [...], "total_count": n}.
	ShapeCounted
)

// String implements fmt.Stringer.
func (s Shape) String() string {
	switch s {
	case ShapeList:
		return "list"
	case ShapeCounted:
		return "counted"
	default:
		return "unknown"
	}
}

// Envelope is a search response of either shape.
type Envelope[T any] struct {
	Shape Shape
	Items []T
	// TotalCount is the approximate total; only meaningful for ShapeCounted
	// and may be nil when the service did not estimate one.
	TotalCount *int
}

// Counted reports whether the envelope carries a total count.
func (e Envelope[T]) Counted() bool {
	return e.Shape == ShapeCounted
}

// Total returns the approximate total count if one was returned.
func (e Envelope[T]) Total() (int, bool) {
	if e.Shape != ShapeCounted || e.TotalCount == nil {
		return 0, false
	}
	return *e.TotalCount, true
}

// Len returns the number of items.
func (e Envelope[T]) Len() int {
	return len(e.Items)
}

type countedBody[T any] struct {
	Data       []T  `json:"data"`
	TotalCount *int `json:"total_count"`
}

// MarshalJSON writes the envelope in the shape it was received in.
func (e Envelope[T]) MarshalJSON() ([]byte, error) {
	items := e.Items
	if items == nil {
		items = []T{}
	}
	if e.Shape == ShapeCounted {
		return json.Marshal(countedBody[T]{Data: items, TotalCount: e.TotalCount})
	}
	return json.Marshal(items)
}
