package fastsync

import (
	"encoding/hex"
	"fmt"

	"github.com/tendermint/fastsync/version"
)

// GenerateProtocolName returns the name of the state request protocol for the
// chain with the given genesis hash and, optionally, fork id.
func GenerateProtocolName(genesisHash []byte, forkID string) string {
	genesis := hex.EncodeToString(genesisHash)
	if forkID != "" {
		return fmt.Sprintf("/%s/%s/state/%s", genesis, forkID, version.StateProtocol)
	}
	return fmt.Sprintf("/%s/state/%s", genesis, version.StateProtocol)
}
