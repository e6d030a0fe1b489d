package search

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/Sternrassler/openmart-client/pkg/client"
	"github.com/Sternrassler/openmart-client/pkg/model"
)

type countedResponse[T any] struct {
	Data       *[]T `json:"data"`
	TotalCount *int `json:"total_count"`
}

// Resolve decodes a search response. counted is the estimate_total flag of
// the request: when set the body must be {"data": [...], "total_count": n},
// otherwise a bare array. A body of the other shape is INVALID_RESPONSE.
func Resolve[T any](counted bool, raw json.RawMessage) (model.Envelope[T], error) {
	body := bytes.TrimSpace(raw)

	if counted {
		if len(body) == 0 || body[0] != '{' {
			return model.Envelope[T]{}, invalidResponse("expected an object with data and total_count", nil)
		}
		var resp countedResponse[T]
		if err := json.Unmarshal(body, &resp); err != nil {
			return model.Envelope[T]{}, invalidResponse("decode counted response", err)
		}
		if resp.Data == nil {
			return model.Envelope[T]{}, invalidResponse("counted response has no data", nil)
		}
		return model.Envelope[T]{Shape: model.ShapeCounted, Items: *resp.Data, TotalCount: resp.TotalCount}, nil
	}

	if len(body) == 0 || body[0] != '[' {
		return model.Envelope[T]{}, invalidResponse("expected an array of results", nil)
	}
	var items []T
	if err := json.Unmarshal(body, &items); err != nil {
		return model.Envelope[T]{}, invalidResponse("decode response", err)
	}
	return model.Envelope[T]{Shape: model.ShapeList, Items: items}, nil
}

func invalidResponse(msg string, err error) *client.Error {
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return &client.Error{Code: client.CodeInvalidResponse, Message: msg, Err: err}
}
