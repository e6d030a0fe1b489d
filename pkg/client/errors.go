package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error codes produced by the client. Server-reported codes are passed
// through as-is, so the set is open.
const (
	CodeUnknown         = "UNKNOWN_ERROR"
	CodeNetwork         = "NETWORK_ERROR"
	CodeRequest         = "REQUEST_ERROR"
	CodeValidation      = "VALIDATION_ERROR"
	CodeInvalidResponse = "INVALID_RESPONSE"
	CodeRateLimited     = "RATE_LIMITED"
)

// Error is the single error type surfaced to callers. It is built once per
// failure and never modified afterwards.
type Error struct {
	Message string
	Code    string
	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int
	// Details is the server's structured payload, if any.
	Details json.RawMessage
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("openmart %s (status %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("openmart %s: %s", e.Code, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// HasStatus reports whether the error came with an HTTP response.
func (e *Error) HasStatus() bool {
	return e.StatusCode != 0
}

// Class returns the error class used for metrics and retry decisions.
func (e *Error) Class() ErrorClass {
	switch {
	case e.Code == CodeNetwork:
		return ErrorClassNetwork
	case e.StatusCode == http.StatusTooManyRequests || e.Code == CodeRateLimited:
		return ErrorClassRateLimit
	case e.StatusCode >= 500:
		return ErrorClassServer
	case e.StatusCode >= 400:
		return ErrorClassClient
	default:
		return ErrorClassLocal
	}
}

// NewError returns a classified error with the given code and message.
func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// AsError extracts an *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// ResponseFailure is a response with a non-2xx status.
type ResponseFailure struct {
	StatusCode int
	Body       []byte
}

func (f *ResponseFailure) Error() string {
	return fmt.Sprintf("Request failed with status code %d", f.StatusCode)
}

// NoResponseFailure is a request that was sent but got no response.
type NoResponseFailure struct {
	Err error
}

func (f *NoResponseFailure) Error() string {
	return fmt.Sprintf("no response: %v", f.Err)
}

func (f *NoResponseFailure) Unwrap() error {
	return f.Err
}

type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Error   json.RawMessage `json:"error"`
	Message json.RawMessage `json:"message"`
	Code    json.RawMessage `json:"code"`
	Details json.RawMessage `json:"details"`
}

// Classify maps a transport failure to an *Error. An error that already is
// an *Error is returned unchanged.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := AsError(err); ok {
		return e
	}

	var rf *ResponseFailure
	if errors.As(err, &rf) {
		return classifyResponse(rf)
	}

	var nf *NoResponseFailure
	if errors.As(err, &nf) {
		return &Error{
			Message: "No response received from server",
			Code:    CodeNetwork,
			Err:     nf.Err,
		}
	}

	msg := err.Error()
	if msg == "" {
		msg = "Request failed"
	}
	return &Error{Message: msg, Code: CodeRequest, Err: err}
}

func classifyResponse(rf *ResponseFailure) *Error {
	var body errorBody
	// A body that is not a JSON object leaves every field empty.
	_ = json.Unmarshal(rf.Body, &body)

	message := firstText(body.Detail, body.Error, body.Message)
	if message == "" {
		message = rf.Error()
	}

	code := jsonText(body.Code)
	if code == "" {
		code = CodeUnknown
	}

	var details json.RawMessage
	if present(body.Details) {
		details = body.Details
	}

	return &Error{
		Message:    message,
		Code:       code,
		StatusCode: rf.StatusCode,
		Details:    details,
		Err:        rf,
	}
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}

// jsonText renders a JSON value as message text: strings unquoted, other
// values in their JSON form, null and "" as empty.
func jsonText(raw json.RawMessage) string {
	if !present(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func firstText(candidates ...json.RawMessage) string {
	for _, c := range candidates {
		if t := jsonText(c); t != "" {
			return t
		}
	}
	return ""
}
