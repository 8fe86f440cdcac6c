package types

import (
	"strings"

	tmbytes "github.com/tendermint/fastsync/libs/bytes"
)

// Roles is the set of roles a peer announces during the handshake.
type Roles uint8

const (
	RoleFull Roles = 1 << iota
	RoleLight
	RoleAuthority
)

// IsFull reports whether the peer keeps the full chain state.
func (r Roles) IsFull() bool { return r&RoleFull != 0 }

func (r Roles) String() string {
	var parts []string
	if r&RoleFull != 0 {
		parts = append(parts, "full")
	}
	if r&RoleLight != 0 {
		parts = append(parts, "light")
	}
	if r&RoleAuthority != 0 {
		parts = append(parts, "authority")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// PeerInfo is the chain metadata the transport layer has on a connected peer.
type PeerInfo struct {
	Roles      Roles            `json:"roles"`
	BestHash   tmbytes.HexBytes `json:"best_hash"`
	BestNumber uint64           `json:"best_number"`
}
