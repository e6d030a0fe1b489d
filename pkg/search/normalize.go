package search

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Sternrassler/openmart-client/pkg/client"
	"github.com/Sternrassler/openmart-client/pkg/model"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// DefaultLimit is the page size used when the caller sets none.
const DefaultLimit = 50

//go:embed filter.schema.json
var filterSchemaJSON string

var filterSchema = jsonschema.MustCompileString("filter.schema.json", filterSchemaJSON)

// Request is a validated search request.
type Request struct {
	Endpoint Endpoint
	Filter   model.Filter
}

// Counted reports whether the response will carry a total count.
func (r Request) Counted() bool {
	return r.Filter.EstimateTotal.Or(false)
}

// Normalize fills request defaults and validates the result. The returned
// filter is a copy; every field the caller set is passed on unchanged.
// Validation failures are VALIDATION_ERROR errors.
func Normalize(endpoint Endpoint, filter model.Filter) (Request, error) {
	f := filter.Clone()
	if f.Limit.IsZero() {
		f.Limit = model.Some(DefaultLimit)
	}

	if _, ok := f.Extra["pagination"]; ok {
		return Request{}, client.NewError(client.CodeValidation,
			"the pagination object is not supported, use limit and cursor")
	}

	if err := validate(f); err != nil {
		return Request{}, err
	}

	if limit, _ := f.Limit.Get(); limit > endpoint.MaxLimit() {
		return Request{}, client.NewError(client.CodeValidation,
			fmt.Sprintf("limit %d exceeds the maximum of %d for %s", limit, endpoint.MaxLimit(), endpoint))
	}

	return Request{Endpoint: endpoint, Filter: f}, nil
}

func validate(f model.Filter) error {
	body, err := json.Marshal(f)
	if err != nil {
		return &client.Error{Code: client.CodeValidation, Message: "filter cannot be encoded", Err: err}
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return &client.Error{Code: client.CodeValidation, Message: "filter cannot be encoded", Err: err}
	}

	if err := filterSchema.Validate(doc); err != nil {
		msg := err.Error()
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			msg = validationMessage(verr)
		}
		return &client.Error{Code: client.CodeValidation, Message: msg, Err: err}
	}
	return nil
}

// validationMessage returns the most specific cause of a schema failure.
func validationMessage(verr *jsonschema.ValidationError) string {
	for len(verr.Causes) > 0 {
		verr = verr.Causes[0]
	}
	if verr.InstanceLocation == "" {
		return "invalid filter: " + verr.Message
	}
	return fmt.Sprintf("invalid filter at %s: %s", verr.InstanceLocation, verr.Message)
}
