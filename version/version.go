package version

import "fmt"

var (
	// GitCommit is the current HEAD set using ldflags.
	GitCommit string

	// Version is the built softwares version.
	Version = FSSemVer
)

func init() {
	if GitCommit != "" {
		Version += "-" + GitCommit
	}
}

const (
	// FSSemVer is the current version of the fast sync node.
	// It's the Semantic Version of the software.
	FSSemVer = "0.1.0"
)

// Protocol is used for implementation agnostic versioning.
type Protocol uint64

// Uint64 returns the Protocol version as a uint64.
func (p Protocol) Uint64() uint64 {
	return uint64(p)
}

func (p Protocol) String() string {
	return fmt.Sprintf("%d", uint64(p))
}

// StateProtocol versions the state request/response messages. It is the
// last element of the state request protocol name.
const StateProtocol Protocol = 2
