package fastsync

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"

	tmbytes "github.com/tendermint/fastsync/libs/bytes"
	"github.com/tendermint/fastsync/types"
)

// Peer is a connected peer as seen by the engine.
type Peer struct {
	Info types.PeerInfo

	// knownBlocks holds the hashes the peer is known to have, oldest evicted
	// first.
	knownBlocks *lru.Cache
}

// NewPeer returns a Peer remembering at most capacity block hashes. The peer's
// best hash, if any, is marked known.
func NewPeer(info types.PeerInfo, capacity int) (*Peer, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("known blocks capacity must be positive, got %d", capacity)
	}
	cache, err := lru.New(capacity)
	if err != nil {
		return nil, err
	}
	p := &Peer{Info: info, knownBlocks: cache}
	p.MarkKnownBlock(info.BestHash)
	return p, nil
}

// MarkKnownBlock records that the peer has the block with the given hash.
// Empty hashes are ignored.
func (p *Peer) MarkKnownBlock(hash tmbytes.HexBytes) {
	if len(hash) == 0 {
		return
	}
	p.knownBlocks.Add(string(hash), struct{}{})
}

// KnowsBlock reports whether the peer is known to have the block.
func (p *Peer) KnowsBlock(hash tmbytes.HexBytes) bool {
	return p.knownBlocks.Contains(string(hash))
}

// NumKnownBlocks returns the number of remembered block hashes.
func (p *Peer) NumKnownBlocks() int {
	return p.knownBlocks.Len()
}
