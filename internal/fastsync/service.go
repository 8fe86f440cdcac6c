package fastsync

import (
	"context"
	"errors"

	"github.com/tendermint/fastsync/types"
)

// ErrEngineStopped is returned by SyncingService calls made after the engine
// has exited.
var ErrEngineStopped = errors.New("fast sync engine stopped")

type serviceCommand interface {
	isServiceCommand()
}

type statusCommand struct {
	replyCh chan<- SyncStatus
}

type peersInfoCommand struct {
	replyCh chan<- map[types.NodeID]types.PeerInfo
}

type startCommand struct {
	replyCh chan<- struct{}
}

func (statusCommand) isServiceCommand()    {}
func (peersInfoCommand) isServiceCommand() {}
func (startCommand) isServiceCommand()     {}

// SyncingService is the control handle of an Engine. It is safe for
// concurrent use.
type SyncingService struct {
	commands chan<- serviceCommand
	done     <-chan struct{}
}

// Status returns the strategy's status with the number of connected peers
// filled in.
func (s *SyncingService) Status(ctx context.Context) (SyncStatus, error) {
	replyCh := make(chan SyncStatus, 1)
	if err := s.send(ctx, statusCommand{replyCh: replyCh}); err != nil {
		return SyncStatus{}, err
	}
	return awaitReply(ctx, s.done, replyCh)
}

// PeersInfo returns a snapshot of the connected peers.
func (s *SyncingService) PeersInfo(ctx context.Context) (map[types.NodeID]types.PeerInfo, error) {
	replyCh := make(chan map[types.NodeID]types.PeerInfo, 1)
	if err := s.send(ctx, peersInfoCommand{replyCh: replyCh}); err != nil {
		return nil, err
	}
	return awaitReply(ctx, s.done, replyCh)
}

// Start wakes the engine so it polls the strategy. It returns once the engine
// has acknowledged the command.
func (s *SyncingService) Start(ctx context.Context) error {
	replyCh := make(chan struct{}, 1)
	if err := s.send(ctx, startCommand{replyCh: replyCh}); err != nil {
		return err
	}
	_, err := awaitReply(ctx, s.done, replyCh)
	return err
}

func (s *SyncingService) send(ctx context.Context, cmd serviceCommand) error {
	select {
	case <-s.done:
		return ErrEngineStopped
	default:
	}

	select {
	case s.commands <- cmd:
		return nil
	case <-s.done:
		return ErrEngineStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// awaitReply waits for the engine to answer. A reply sent right before the
// engine stopped is still returned.
func awaitReply[T any](ctx context.Context, done <-chan struct{}, replyCh <-chan T) (T, error) {
	var zero T
	select {
	case v := <-replyCh:
		return v, nil
	case <-done:
		select {
		case v := <-replyCh:
			return v, nil
		default:
			return zero, ErrEngineStopped
		}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
