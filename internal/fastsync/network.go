package fastsync

import (
	"github.com/tendermint/fastsync/types"
)

// IfDisconnected tells the network what to do with a request to a peer that
// is not connected.
type IfDisconnected uint8

const (
	// IfDisconnectedImmediateError fails the request at once.
	IfDisconnectedImmediateError IfDisconnected = iota
	// IfDisconnectedTryConnect dials the peer first.
	IfDisconnectedTryConnect
)

// PeerRequestKind is the kind of request a pending response belongs to.
type PeerRequestKind uint8

const (
	PeerRequestBlock PeerRequestKind = iota + 1
	PeerRequestState
	PeerRequestWarpProof
)

func (k PeerRequestKind) String() string {
	switch k {
	case PeerRequestBlock:
		return "block"
	case PeerRequestState:
		return "state"
	case PeerRequestWarpProof:
		return "warp_proof"
	default:
		return "unknown"
	}
}

// RequestResult is what the network delivers for a request. Err is nil when
// Response holds the peer's answer; otherwise it is usually a Failure.
type RequestResult struct {
	Response []byte
	Protocol string
	Err      error
}

// NetworkService is the transport used by the engine. Implementations must
// not block.
//
//go:generate ../../scripts/mockery_generate.sh NetworkService
type NetworkService interface {
	// StartRequest sends request to the peer on protocol. The outcome is
	// delivered on resultCh exactly once; closing resultCh without sending
	// means the request was canceled.
	StartRequest(
		peerID types.NodeID,
		protocol string,
		request []byte,
		resultCh chan<- RequestResult,
		connect IfDisconnected,
	)

	// DisconnectPeer closes the protocol with the peer.
	DisconnectPeer(peerID types.NodeID, protocol string)

	// ReportPeer applies a reputation change to the peer.
	ReportPeer(peerID types.NodeID, change ReputationChange)
}

// PeerStatus is a peer status.
type PeerStatus string

const (
	PeerStatusUp   PeerStatus = "up"   // connected and ready
	PeerStatusDown PeerStatus = "down" // disconnected
)

// PeerUpdate is a peer update event sent via PeerUpdates.
type PeerUpdate struct {
	NodeID types.NodeID
	Status PeerStatus
	Info   types.PeerInfo
}
