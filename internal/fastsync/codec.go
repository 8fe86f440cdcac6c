package fastsync

import (
	"fmt"

	"github.com/gogo/protobuf/proto"

	fsproto "github.com/tendermint/fastsync/proto/fastsync"
)

// encodeStateRequest serializes the request held by an OpaqueStateRequest.
// It only fails if the envelope does not hold a *fsproto.StateRequest, which
// is a bug in the strategy.
func encodeStateRequest(request OpaqueStateRequest) ([]byte, error) {
	msg, err := UnwrapAs[*fsproto.StateRequest](request.Envelope)
	if err != nil {
		return nil, fmt.Errorf("failed to unwrap state request, this is an implementation bug: %w", err)
	}

	bz, err := proto.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode state request: %w", err)
	}
	return bz, nil
}

// decodeStateResponse parses the bytes returned by a peer.
func decodeStateResponse(bz []byte) (OpaqueStateResponse, error) {
	msg := new(fsproto.StateResponse)
	if err := proto.Unmarshal(bz, msg); err != nil {
		return OpaqueStateResponse{}, fmt.Errorf("failed to decode state response: %w", err)
	}
	return NewOpaqueStateResponse(msg), nil
}
