package types

import (
	"fmt"

	tmbytes "github.com/tendermint/fastsync/libs/bytes"
)

// BlockOrigin tags an imported batch with the context it came from. The import
// pipeline uses it to decide how much to trust the blocks.
type BlockOrigin uint8

const (
	// BlockOriginGenesis is the genesis block, built into the client.
	BlockOriginGenesis BlockOrigin = iota
	// BlockOriginFile is a block imported from a file.
	BlockOriginFile
	// BlockOriginNetworkInitialSync is a block received while syncing from
	// the network.
	BlockOriginNetworkInitialSync
	// BlockOriginNetworkBroadcast is a block announced by a peer.
	BlockOriginNetworkBroadcast
	// BlockOriginConsensusBroadcast is a block produced by consensus.
	BlockOriginConsensusBroadcast
	// BlockOriginOwn is a block authored by this node.
	BlockOriginOwn
)

func (o BlockOrigin) String() string {
	switch o {
	case BlockOriginGenesis:
		return "genesis"
	case BlockOriginFile:
		return "file"
	case BlockOriginNetworkInitialSync:
		return "network-initial-sync"
	case BlockOriginNetworkBroadcast:
		return "network-broadcast"
	case BlockOriginConsensusBroadcast:
		return "consensus-broadcast"
	case BlockOriginOwn:
		return "own"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(o))
	}
}

// StateEntry is a single key/value pair of downloaded state.
type StateEntry struct {
	Key   []byte
	Value []byte
}

// ImportedState is the state of the target block collected by fast sync.
type ImportedState struct {
	Block   tmbytes.HexBytes
	Entries []StateEntry
}

// IncomingBlock is a block handed to the import pipeline.
type IncomingBlock struct {
	Hash           tmbytes.HexBytes
	Number         uint64
	Header         []byte
	Body           [][]byte
	Justifications [][]byte

	// Origin is the peer the block was received from, if any.
	Origin *NodeID

	AllowMissingState bool
	SkipExecution     bool
	ImportExisting    bool

	// StateSnapshot is set when the block is imported together with its
	// state, which is always the case for fast sync.
	StateSnapshot *ImportedState
}

func (b IncomingBlock) String() string {
	return fmt.Sprintf("IncomingBlock{#%d %v}", b.Number, b.Hash)
}
