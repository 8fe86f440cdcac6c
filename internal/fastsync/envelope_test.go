package fastsync

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fsproto "github.com/tendermint/fastsync/proto/fastsync"
)

func TestEnvelopeUnwrap(t *testing.T) {
	req := &fsproto.StateRequest{Block: []byte{1}}
	env := Wrap(req)

	got, err := UnwrapAs[*fsproto.StateRequest](env)
	require.NoError(t, err)
	assert.Same(t, req, got)

	_, err = UnwrapAs[*fsproto.StateResponse](env)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTypeMismatch))
	assert.Contains(t, err.Error(), "*fastsync.StateRequest")

	// value and pointer types are distinct
	_, err = UnwrapAs[fsproto.StateRequest](env)
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestEnvelopeEmpty(t *testing.T) {
	_, err := UnwrapAs[*fsproto.StateRequest](Envelope{})
	assert.ErrorIs(t, err, ErrTypeMismatch)

	var opaque OpaqueStateResponse
	_, err = UnwrapAs[*fsproto.StateResponse](opaque.Envelope)
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestOpaqueConstructors(t *testing.T) {
	resp := &fsproto.StateResponse{Proof: []byte("p")}
	opaque := NewOpaqueStateResponse(resp)

	got, err := UnwrapAs[*fsproto.StateResponse](opaque.Envelope)
	require.NoError(t, err)
	assert.Equal(t, []byte("p"), got.Proof)

	req := NewOpaqueStateRequest("not a request")
	s, err := UnwrapAs[string](req.Envelope)
	require.NoError(t, err)
	assert.Equal(t, "not a request", s)
	assert.Equal(t, "not a request", req.String())
}
