// Package apierror defines the tagged error returned by every call to the
// EcoCollect backend and the user-facing messages derived from it.
package apierror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Kind classifies a failed API call.
type Kind int

const (
	KindUnknown Kind = iota
	// KindNetwork means the request was sent but no response arrived.
	KindNetwork
	KindUnauthorized
	KindForbidden
	KindNotFound
	// KindValidation covers 400 and 422 responses and local form checks.
	KindValidation
	// KindServer covers 5xx responses.
	KindServer
	// KindClient covers every other 4xx response.
	KindClient
	// KindDecode means the response body could not be parsed.
	KindDecode
	// KindRequest means the request could not be built.
	KindRequest
)

var kindNames = map[Kind]string{
	KindUnknown:      "unknown",
	KindNetwork:      "network",
	KindUnauthorized: "unauthorized",
	KindForbidden:    "forbidden",
	KindNotFound:     "not_found",
	KindValidation:   "validation",
	KindServer:       "server",
	KindClient:       "client",
	KindDecode:       "decode",
	KindRequest:      "request",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// DefaultMessage is used when the server supplied no message.
const DefaultMessage = "An error occurred"

// User-facing messages for well-known statuses.
const (
	MsgUnauthorized = "Unauthorized. Please log in again."
	MsgForbidden    = "Access denied. You don't have permission to perform this action."
	MsgNotFound     = "Resource not found."
	MsgServer       = "Internal server error. Please try again later."
	MsgUnavailable  = "Service temporarily unavailable. Please try again later."
	MsgNetwork      = "Network error. Please check your connection."
)

// Error is a failed API call.
type Error struct {
	Kind   Kind
	Status int
	// Code is the machine-readable code from the error payload, if any.
	Code string
	// Message is the user-facing text.
	Message string
	// ServerMessage is the raw message extracted from the payload.
	ServerMessage string
	// Op names the call, e.g. "POST /auth/login/".
	Op  string
	Err error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by kind so that errors.Is(err,
// &Error{Kind: KindNotFound}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Status == 0 || t.Status == e.Status)
}

// Sentinels for errors.Is.
var (
	ErrUnauthorized = &Error{Kind: KindUnauthorized}
	ErrForbidden    = &Error{Kind: KindForbidden}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrValidation   = &Error{Kind: KindValidation}
	ErrNetwork      = &Error{Kind: KindNetwork}
)

// KindOf returns the kind of err, or KindUnknown.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// payload is the union of error shapes the backend emits.
type payload struct {
	Message string          `json:"message"`
	Detail  string          `json:"detail"`
	Error   json.RawMessage `json:"error"`
}

type nestedError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ParseBody extracts the server message and code from an error payload.
// Lookup order is message, error.message, error (string), detail.
func ParseBody(body []byte) (message, code string) {
	var p payload
	if len(body) == 0 || json.Unmarshal(body, &p) != nil {
		return "", ""
	}

	var nested nestedError
	var flat string
	if len(p.Error) > 0 {
		if json.Unmarshal(p.Error, &nested) != nil {
			_ = json.Unmarshal(p.Error, &flat)
		}
	}

	switch {
	case p.Message != "":
		return p.Message, nested.Code
	case nested.Message != "":
		return nested.Message, nested.Code
	case flat != "":
		return flat, ""
	default:
		return p.Detail, nested.Code
	}
}

// FromResponse builds the error for a non-2xx response.
func FromResponse(op string, status int, body []byte) *Error {
	serverMsg, code := ParseBody(body)
	base := serverMsg
	if base == "" {
		base = DefaultMessage
	}

	e := &Error{
		Status:        status,
		Code:          code,
		ServerMessage: serverMsg,
		Op:            op,
	}
	e.Kind, e.Message = classify(status, base)
	return e
}

func classify(status int, msg string) (Kind, string) {
	switch {
	case status == http.StatusBadRequest:
		if strings.Contains(msg, "400") {
			return KindValidation, msg
		}
		return KindValidation, "Bad Request: " + msg
	case status == http.StatusUnauthorized:
		return KindUnauthorized, MsgUnauthorized
	case status == http.StatusForbidden:
		return KindForbidden, MsgForbidden
	case status == http.StatusNotFound:
		return KindNotFound, MsgNotFound
	case status == http.StatusUnprocessableEntity:
		return KindValidation, "Validation Error: " + msg
	case status == http.StatusInternalServerError:
		return KindServer, MsgServer
	case status == http.StatusBadGateway, status == http.StatusServiceUnavailable, status == http.StatusGatewayTimeout:
		return KindServer, MsgUnavailable
	case status > 500:
		return KindServer, msg
	case status >= 400:
		return KindClient, msg
	default:
		return KindUnknown, msg
	}
}

// Network wraps a transport failure where no response was received.
func Network(op string, err error) *Error {
	return &Error{Kind: KindNetwork, Message: MsgNetwork, Op: op, Err: err}
}

// Request wraps a failure to build the request.
func Request(op string, err error) *Error {
	return &Error{Kind: KindRequest, Message: err.Error(), Op: op, Err: err}
}

// Decode wraps a failure to parse a successful response.
func Decode(op string, err error) *Error {
	return &Error{Kind: KindDecode, Message: "Unexpected response from server.", Op: op, Err: err}
}

// Validation builds a local validation failure.
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// Validationf is Validation with formatting.
func Validationf(format string, args ...any) *Error {
	return Validation(fmt.Sprintf(format, args...))
}

// ServiceError is the normalized shape shown to users.
type ServiceError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Status  int    `json:"status,omitempty"`
	Kind    Kind   `json:"-"`
}

func (e ServiceError) Error() string {
	return e.Message
}

// Normalize turns any error into a ServiceError. fallback is used when err
// carries no usable message.
func Normalize(err error, fallback string) ServiceError {
	if fallback == "" {
		fallback = DefaultMessage
	}
	if err == nil {
		return ServiceError{Message: fallback}
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = fallback
		}
		return ServiceError{Message: msg, Code: apiErr.Code, Status: apiErr.Status, Kind: apiErr.Kind}
	}

	var svcErr ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ServiceError{Message: MsgNetwork, Kind: KindNetwork}
	}

	if msg := err.Error(); msg != "" {
		return ServiceError{Message: msg}
	}
	return ServiceError{Message: fallback}
}

// Message returns the user-facing message for err.
func Message(err error, fallback string) string {
	return Normalize(err, fallback).Message
}
