package fastsync

import (
	"errors"
	"fmt"
)

// ErrTypeMismatch is returned by UnwrapAs when the envelope holds a value of a
// different type than the one requested.
var ErrTypeMismatch = errors.New("envelope type mismatch")

// Envelope carries exactly one value whose concrete type is only known to the
// strategy and the codec. The engine moves envelopes around without looking
// inside.
type Envelope struct {
	value interface{}
}

// Wrap puts value into an envelope.
func Wrap(value interface{}) Envelope {
	return Envelope{value: value}
}

// UnwrapAs extracts the value held by e as a T.
func UnwrapAs[T any](e Envelope) (T, error) {
	v, ok := e.value.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: holds %T, want %T", ErrTypeMismatch, e.value, zero)
	}
	return v, nil
}

func (e Envelope) String() string {
	return fmt.Sprintf("%v", e.value)
}

// OpaqueStateRequest is a state request produced by the strategy.
type OpaqueStateRequest struct {
	Envelope
}

// NewOpaqueStateRequest wraps a concrete state request.
func NewOpaqueStateRequest(request interface{}) OpaqueStateRequest {
	return OpaqueStateRequest{Envelope: Wrap(request)}
}

// OpaqueStateResponse is a decoded state response handed to the strategy.
type OpaqueStateResponse struct {
	Envelope
}

// NewOpaqueStateResponse wraps a concrete state response.
func NewOpaqueStateResponse(response interface{}) OpaqueStateResponse {
	return OpaqueStateResponse{Envelope: Wrap(response)}
}
