package fastsync

import (
	"fmt"
	"math"
)

// ReputationChange is a signed adjustment of a peer's standing. The network
// layer aggregates them to decide whether a peer ends up banned.
type ReputationChange struct {
	Value  int32
	Reason string
}

// NewReputationChange returns a change of value with the given reason.
func NewReputationChange(value int32, reason string) ReputationChange {
	return ReputationChange{Value: value, Reason: reason}
}

// NewFatalReputationChange returns a change that bans the peer outright.
func NewFatalReputationChange(reason string) ReputationChange {
	return ReputationChange{Value: math.MinInt32, Reason: reason}
}

// IsFatal reports whether the change bans the peer.
func (r ReputationChange) IsFatal() bool { return r.Value == math.MinInt32 }

func (r ReputationChange) String() string {
	return fmt.Sprintf("%d (%s)", r.Value, r.Reason)
}

var (
	// repBadMessage is applied when a peer's response fails to decode.
	repBadMessage = NewReputationChange(-(1 << 12), "Bad message")
	// repBadProtocol is applied to peers on an unsupported protocol version.
	repBadProtocol = NewFatalReputationChange("Unsupported protocol")
	// repRefused is applied when a peer refuses a request.
	repRefused = NewReputationChange(-(1 << 10), "Request refused")
	// repTimeout is applied when a peer doesn't respond in time.
	repTimeout = NewReputationChange(-(1 << 10), "Request timeout")
)

// Failure classifies why a state request did not produce a usable response.
// The network layer reports transport failures as Failure values; the engine
// adds FailureBadMessage and FailureCanceled itself.
type Failure uint8

const (
	// FailureBadMessage means the response bytes did not decode.
	FailureBadMessage Failure = iota + 1
	// FailureUnsupportedProtocols means the peer does not speak the protocol.
	FailureUnsupportedProtocols
	// FailureTimeout means no response arrived in time.
	FailureTimeout
	// FailureRefused means the peer explicitly refused the request.
	FailureRefused
	// FailureDialFailure means the peer could not be reached.
	FailureDialFailure
	// FailureConnectionClosed means the connection closed before a response.
	FailureConnectionClosed
	// FailureNotConnected means there was no connection to send on.
	FailureNotConnected
	// FailureCanceled means the network dropped the request without an outcome.
	FailureCanceled
	// FailureUnknownProtocol means the network does not know the protocol name.
	FailureUnknownProtocol
	// FailureObsolete means the request was superseded.
	FailureObsolete
)

var failureNames = map[Failure]string{
	FailureBadMessage:           "bad_message",
	FailureUnsupportedProtocols: "unsupported_protocols",
	FailureTimeout:              "timeout",
	FailureRefused:              "refused",
	FailureDialFailure:          "dial_failure",
	FailureConnectionClosed:     "connection_closed",
	FailureNotConnected:         "not_connected",
	FailureCanceled:             "canceled",
	FailureUnknownProtocol:      "unknown_protocol",
	FailureObsolete:             "obsolete",
}

func (f Failure) String() string {
	if name, ok := failureNames[f]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint8(f))
}

// Error implements error so the network layer can report a Failure directly.
func (f Failure) Error() string {
	return "request failure: " + f.String()
}

// Policy is what the engine does to a peer after a failure.
type Policy struct {
	// Reputation is reported to the network when set.
	Reputation *ReputationChange
	// Disconnect closes the state request protocol with the peer.
	Disconnect bool
	// InvariantViolation marks failures that cannot happen in correct
	// operation. They are logged and otherwise ignored.
	InvariantViolation bool
}

func reputation(r ReputationChange) *ReputationChange { return &r }

// PolicyFor returns the reputation change and disconnect decision for f.
func PolicyFor(f Failure) Policy {
	switch f {
	case FailureBadMessage:
		return Policy{Reputation: reputation(repBadMessage), Disconnect: true}
	case FailureUnsupportedProtocols:
		return Policy{Reputation: reputation(repBadProtocol), Disconnect: true}
	case FailureTimeout:
		return Policy{Reputation: reputation(repTimeout), Disconnect: true}
	case FailureRefused:
		return Policy{Reputation: reputation(repRefused), Disconnect: true}
	case FailureDialFailure, FailureConnectionClosed, FailureNotConnected, FailureCanceled:
		return Policy{Disconnect: true}
	default:
		// FailureUnknownProtocol: we only ever send on our own protocol.
		// FailureObsolete: the engine never supersedes a request.
		return Policy{InvariantViolation: true}
	}
}
