package fastsync

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/tendermint/fastsync/config"
	"github.com/tendermint/fastsync/libs/log"
	"github.com/tendermint/fastsync/types"
)

var (
	// ErrNoFurtherActions is returned by Run when the strategy has no actions
	// left and the sync cannot make progress.
	ErrNoFurtherActions = errors.New("fast sync failed: no further actions")
	// ErrAlreadyRunning is returned by a second call to Run.
	ErrAlreadyRunning = errors.New("fast sync engine already running")
)

// Engine drives a fast sync to completion. See the package documentation.
type Engine struct {
	logger  log.Logger
	metrics *Metrics

	strategy    Strategy
	network     NetworkService
	importQueue *SharedImportQueue
	peerUpdates <-chan PeerUpdate

	protocolName        string
	knownBlocksCapacity int

	// Owned by the Run goroutine.
	peers     map[types.NodeID]*Peer
	pending   *PendingResponses
	lastBlock *types.IncomingBlock
	startTime time.Time

	commands chan serviceCommand
	done     chan struct{}
	running  uint32
}

// NewEngine returns an engine and the SyncingService controlling it.
// peerUpdates may be nil if peers are only added with AddPeer before Run.
// A nil metrics is built from cfg.Instrumentation.
func NewEngine(
	logger log.Logger,
	cfg *config.Config,
	strategy Strategy,
	network NetworkService,
	importQueue *SharedImportQueue,
	peerUpdates <-chan PeerUpdate,
	metrics *Metrics,
) (*Engine, *SyncingService, error) {
	if err := cfg.FastSync.ValidateBasic(); err != nil {
		return nil, nil, fmt.Errorf("error in [fastsync] section: %w", err)
	}
	genesisHash, err := cfg.FastSync.GenesisHashBytes()
	if err != nil {
		return nil, nil, err
	}
	if metrics == nil {
		metrics = NewMetrics(cfg.Instrumentation)
	}

	protocolName := GenerateProtocolName(genesisHash, cfg.FastSync.ForkID)
	logger = logger.With("module", "fastsync")

	e := &Engine{
		logger:              logger,
		metrics:             metrics,
		strategy:            strategy,
		network:             network,
		importQueue:         importQueue,
		peerUpdates:         peerUpdates,
		protocolName:        protocolName,
		knownBlocksCapacity: cfg.FastSync.KnownBlocksCapacity,
		peers:               make(map[types.NodeID]*Peer),
		pending:             NewPendingResponses(logger),
		commands:            make(chan serviceCommand, cfg.FastSync.CommandBufferSize),
		done:                make(chan struct{}),
	}

	return e, &SyncingService{commands: e.commands, done: e.done}, nil
}

// ProtocolName is the name of the protocol state requests are sent on.
func (e *Engine) ProtocolName() string { return e.protocolName }

// Run processes events until the state has been handed to the import queue,
// the strategy runs out of actions, or ctx is canceled. On success it returns
// the first imported block, or nil if the batch was empty.
func (e *Engine) Run(ctx context.Context) (*types.IncomingBlock, error) {
	if !atomic.CompareAndSwapUint32(&e.running, 0, 1) {
		return nil, ErrAlreadyRunning
	}
	defer close(e.done)
	defer e.pending.Close()

	e.startTime = time.Now()
	peerUpdates := e.peerUpdates

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case cmd := <-e.commands:
			e.processServiceCommand(cmd)

		case c := <-e.pending.completions():
			ev, ok := e.pending.resolve(c)
			if !ok {
				continue
			}
			e.metrics.PendingRequests.Set(float64(e.pending.Len()))
			e.processResponseEvent(ev)

		case update, ok := <-peerUpdates:
			if !ok {
				peerUpdates = nil
				continue
			}
			e.processPeerUpdate(update)
			continue
		}

		done, err := e.processStrategyActions(ctx)
		if err != nil {
			e.logger.Error("terminating fast sync engine due to fatal error", "err", err)
			return nil, err
		}
		if done {
			elapsed := time.Since(e.startTime)
			e.metrics.SyncDuration.Set(elapsed.Seconds())
			e.logger.Info("state import finished", "duration", elapsed)
			return e.lastBlock, nil
		}
	}
}

// AddPeer registers a connected peer. It must not be called concurrently with
// Run; while the engine runs, peers arrive through the PeerUpdates channel.
func (e *Engine) AddPeer(peerID types.NodeID, info types.PeerInfo) error {
	if _, ok := e.peers[peerID]; ok {
		return fmt.Errorf("peer %v already added", peerID)
	}
	peer, err := NewPeer(info, e.knownBlocksCapacity)
	if err != nil {
		return err
	}
	e.peers[peerID] = peer
	e.metrics.ConnectedPeers.Set(float64(len(e.peers)))
	e.logger.Debug("peer connected", "peer", peerID, "roles", info.Roles, "best_number", info.BestNumber)
	return nil
}

// RemovePeer forgets a disconnected peer and its pending requests. Like
// AddPeer it must not be called concurrently with Run.
func (e *Engine) RemovePeer(peerID types.NodeID) {
	if _, ok := e.peers[peerID]; !ok {
		return
	}
	e.forgetPeer(peerID)
	e.logger.Debug("peer disconnected", "peer", peerID)
}

func (e *Engine) forgetPeer(peerID types.NodeID) {
	delete(e.peers, peerID)
	e.pending.Remove(peerID)
	e.metrics.ConnectedPeers.Set(float64(len(e.peers)))
	e.metrics.PendingRequests.Set(float64(e.pending.Len()))
}

func (e *Engine) processPeerUpdate(update PeerUpdate) {
	switch update.Status {
	case PeerStatusUp:
		if err := e.AddPeer(update.NodeID, update.Info); err != nil {
			e.logger.Error("failed to add peer", "peer", update.NodeID, "err", err)
		}
	case PeerStatusDown:
		e.RemovePeer(update.NodeID)
	default:
		e.logger.Error("unknown peer status", "peer", update.NodeID, "status", update.Status)
	}
}

func (e *Engine) processServiceCommand(cmd serviceCommand) {
	switch c := cmd.(type) {
	case statusCommand:
		status := e.strategy.Status()
		status.NumConnectedPeers = uint32(len(e.peers))
		c.replyCh <- status

	case peersInfoCommand:
		peers := make(map[types.NodeID]types.PeerInfo, len(e.peers))
		for id, peer := range e.peers {
			peers[id] = peer.Info
		}
		c.replyCh <- peers

	case startCommand:
		c.replyCh <- struct{}{}

	default:
		e.logger.Error("received unknown service command", "command", fmt.Sprintf("%T", cmd))
	}
}

// processStrategyActions applies every available action in order. It returns
// true once blocks have been handed to the import queue.
func (e *Engine) processStrategyActions(ctx context.Context) (bool, error) {
	actions := e.strategy.Actions()
	if len(actions) == 0 {
		return false, ErrNoFurtherActions
	}

	for _, action := range actions {
		switch a := action.(type) {
		case SendStateRequest:
			e.sendStateRequest(a.PeerID, a.Request)

		case DropPeer:
			e.forgetPeer(a.PeerID)
			e.network.DisconnectPeer(a.PeerID, e.protocolName)
			e.reportPeer(a.PeerID, a.Reputation)
			e.metrics.PeersDropped.Add(1)
			e.logger.Debug("peer dropped", "peer", a.PeerID, "reputation", a.Reputation)

		case ImportBlocks:
			if len(a.Blocks) > 0 {
				first := a.Blocks[0]
				e.lastBlock = &first
			}
			e.logger.Info("importing state", "origin", a.Origin, "blocks", len(a.Blocks))
			if err := e.importQueue.ImportBlocks(ctx, a.Origin, a.Blocks); err != nil {
				return false, fmt.Errorf("failed to import blocks: %w", err)
			}
			return true, nil

		case Finished:
			e.logger.Debug("state strategy finished")

		default:
			e.logger.Error("received unknown strategy action", "action", fmt.Sprintf("%T", action))
		}
	}

	return false, nil
}

func (e *Engine) sendStateRequest(peerID types.NodeID, request OpaqueStateRequest) {
	bz, err := encodeStateRequest(request)
	if err != nil {
		e.logger.Error("failed to encode state request", "peer", peerID, "request", request, "err", err)
		return
	}

	resultCh := make(chan RequestResult, 1)
	id := e.pending.Insert(peerID, PeerRequestState, resultCh)
	e.network.StartRequest(peerID, e.protocolName, bz, resultCh, IfDisconnectedImmediateError)

	e.metrics.RequestsSent.Add(1)
	e.metrics.PendingRequests.Set(float64(e.pending.Len()))
	e.logger.Debug("sent state request", "peer", peerID, "request_id", id, "bytes", len(bz))
}

func (e *Engine) processResponseEvent(ev ResponseEvent) {
	logger := e.logger.With("peer", ev.PeerID, "request_id", ev.RequestID)

	if ev.Canceled {
		logger.Debug("request canceled before a response arrived")
		e.applyFailure(ev.PeerID, FailureCanceled)
		return
	}

	if ev.Result.Err != nil {
		logger.Debug("request failed", "err", ev.Result.Err)
		e.applyFailure(ev.PeerID, classifyFailure(ev.Result.Err))
		return
	}

	switch ev.Request {
	case PeerRequestState:
		response, err := decodeStateResponse(ev.Result.Response)
		if err != nil {
			logger.Debug("failed to decode state response", "err", err)
			e.applyFailure(ev.PeerID, FailureBadMessage)
			return
		}
		e.metrics.ResponsesReceived.Add(1)
		e.strategy.OnStateResponse(ev.PeerID, response)

	default:
		logger.Error("unexpected response", "request", ev.Request)
	}
}

// applyFailure applies the policy for f to the peer: the reputation change is
// reported first, then the peer is disconnected.
func (e *Engine) applyFailure(peerID types.NodeID, f Failure) {
	e.metrics.Failures.With("failure", f.String()).Add(1)

	policy := PolicyFor(f)
	if policy.InvariantViolation {
		e.logger.Error("invariant violated by request failure", "peer", peerID, "failure", f)
		return
	}
	if policy.Reputation != nil {
		e.reportPeer(peerID, *policy.Reputation)
	}
	if policy.Disconnect {
		e.network.DisconnectPeer(peerID, e.protocolName)
	}
}

func (e *Engine) reportPeer(peerID types.NodeID, change ReputationChange) {
	e.network.ReportPeer(peerID, change)
	e.metrics.ReputationReports.Add(1)
}

// classifyFailure maps a transport error to a Failure. Errors that are not
// Failure values are treated as a closed connection.
func classifyFailure(err error) Failure {
	var f Failure
	if errors.As(err, &f) {
		return f
	}
	return FailureConnectionClosed
}
