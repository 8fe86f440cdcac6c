package fastsync

import (
	"context"

	"github.com/creachadair/taskgroup"
	"github.com/google/uuid"

	"github.com/tendermint/fastsync/libs/log"
	"github.com/tendermint/fastsync/types"
)

// ResponseEvent is the outcome of one in-flight request.
type ResponseEvent struct {
	PeerID    types.NodeID
	Request   PeerRequestKind
	RequestID uuid.UUID
	Result    RequestResult
	// Canceled is set when the network closed the result channel without
	// delivering a result.
	Canceled bool
}

type pendingEntry struct {
	id     uuid.UUID
	kind   PeerRequestKind
	cancel context.CancelFunc
}

type completion struct {
	peerID   types.NodeID
	seq      uint64
	result   RequestResult
	canceled bool
}

// PendingResponses tracks requests awaiting a response. Each entry is watched
// by its own goroutine and produces exactly one completion unless it is
// removed first. Insert and Remove must be called from a single goroutine.
type PendingResponses struct {
	logger log.Logger

	ctx    context.Context
	cancel context.CancelFunc

	nextSeq      uint64
	entries      map[types.NodeID]map[uint64]*pendingEntry
	completionCh chan completion
	tasks        *taskgroup.Group
}

// NewPendingResponses returns an empty tracker.
func NewPendingResponses(logger log.Logger) *PendingResponses {
	ctx, cancel := context.WithCancel(context.Background())
	return &PendingResponses{
		logger:       logger,
		ctx:          ctx,
		cancel:       cancel,
		entries:      make(map[types.NodeID]map[uint64]*pendingEntry),
		completionCh: make(chan completion),
		tasks:        taskgroup.New(nil),
	}
}

// Insert registers a request to peerID whose result will arrive on resultCh.
// It never blocks.
func (p *PendingResponses) Insert(peerID types.NodeID, kind PeerRequestKind, resultCh <-chan RequestResult) uuid.UUID {
	p.nextSeq++
	seq := p.nextSeq

	entryCtx, cancel := context.WithCancel(p.ctx)
	entry := &pendingEntry{id: uuid.New(), kind: kind, cancel: cancel}

	byPeer, ok := p.entries[peerID]
	if !ok {
		byPeer = make(map[uint64]*pendingEntry)
		p.entries[peerID] = byPeer
	}
	byPeer[seq] = entry

	p.tasks.Go(func() error {
		c := completion{peerID: peerID, seq: seq}
		select {
		case res, ok := <-resultCh:
			c.result, c.canceled = res, !ok
		case <-entryCtx.Done():
			return nil
		}

		select {
		case p.completionCh <- c:
		case <-entryCtx.Done():
		}
		return nil
	})

	p.logger.Debug("pending request registered",
		"peer", peerID, "request", kind, "request_id", entry.id)
	return entry.id
}

// Remove forgets every pending request of peerID without producing events.
// Removing an unknown peer is a no-op.
func (p *PendingResponses) Remove(peerID types.NodeID) bool {
	byPeer, ok := p.entries[peerID]
	if !ok {
		return false
	}
	for _, entry := range byPeer {
		entry.cancel()
	}
	delete(p.entries, peerID)
	return true
}

// Len returns the number of pending requests.
func (p *PendingResponses) Len() int {
	n := 0
	for _, byPeer := range p.entries {
		n += len(byPeer)
	}
	return n
}

// completions returns the channel on which raw completions arrive. Every
// value must be passed to resolve.
func (p *PendingResponses) completions() <-chan completion {
	return p.completionCh
}

// resolve consumes the entry c belongs to. It returns false if the entry was
// removed after it completed.
func (p *PendingResponses) resolve(c completion) (ResponseEvent, bool) {
	byPeer, ok := p.entries[c.peerID]
	if !ok {
		return ResponseEvent{}, false
	}
	entry, ok := byPeer[c.seq]
	if !ok {
		return ResponseEvent{}, false
	}
	entry.cancel()
	delete(byPeer, c.seq)
	if len(byPeer) == 0 {
		delete(p.entries, c.peerID)
	}

	return ResponseEvent{
		PeerID:    c.peerID,
		Request:   entry.kind,
		RequestID: entry.id,
		Result:    c.result,
		Canceled:  c.canceled,
	}, true
}

// Close drops every pending request and waits for their goroutines to exit.
func (p *PendingResponses) Close() {
	p.cancel()
	_ = p.tasks.Wait()
	p.entries = make(map[types.NodeID]map[uint64]*pendingEntry)
}
