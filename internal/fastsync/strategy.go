package fastsync

import (
	"github.com/tendermint/fastsync/types"
)

// Strategy decides what state to request from whom and when the sync is
// complete. The engine owns its strategy and only calls it from the loop
// goroutine.
type Strategy interface {
	// Actions returns every action currently available, in the order they
	// must be applied. Each call drains the available actions. An empty
	// result means no further progress is possible.
	Actions() []Action

	// OnStateResponse hands a decoded response from peerID to the strategy.
	OnStateResponse(peerID types.NodeID, response OpaqueStateResponse)

	// Status reports the progress of the sync.
	Status() SyncStatus
}

// Action is an instruction from the strategy to the engine. It is one of
// SendStateRequest, DropPeer, ImportBlocks or Finished.
type Action interface {
	isAction()
}

// SendStateRequest asks the engine to send Request to PeerID.
type SendStateRequest struct {
	PeerID  types.NodeID
	Request OpaqueStateRequest
}

// DropPeer asks the engine to disconnect PeerID and report Reputation.
type DropPeer struct {
	PeerID     types.NodeID
	Reputation ReputationChange
}

// ImportBlocks hands the synced blocks to the import pipeline. Blocks holds
// the target block first.
type ImportBlocks struct {
	Origin types.BlockOrigin
	Blocks []types.IncomingBlock
}

// Finished reports that the strategy has nothing left to do.
type Finished struct{}

func (SendStateRequest) isAction() {}
func (DropPeer) isAction()         {}
func (ImportBlocks) isAction()     {}
func (Finished) isAction()         {}

// SyncState is the coarse state of the sync.
type SyncState uint8

const (
	SyncStateIdle SyncState = iota
	SyncStateDownloading
	SyncStateImporting
)

func (s SyncState) String() string {
	switch s {
	case SyncStateIdle:
		return "idle"
	case SyncStateDownloading:
		return "downloading"
	case SyncStateImporting:
		return "importing"
	default:
		return "unknown"
	}
}

// StateSyncProgress is the progress of the state download.
type StateSyncProgress struct {
	PercentDone uint32 `json:"percent_done"`
	Size        uint64 `json:"size"`
}

// SyncStatus is reported by SyncingService.Status.
type SyncStatus struct {
	State             SyncState          `json:"state"`
	BestSeenBlock     *uint64            `json:"best_seen_block,omitempty"`
	NumPeers          uint32             `json:"num_peers"`
	NumConnectedPeers uint32             `json:"num_connected_peers"`
	QueuedBlocks      uint32             `json:"queued_blocks"`
	StateSync         *StateSyncProgress `json:"state_sync,omitempty"`
}
