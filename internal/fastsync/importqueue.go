package fastsync

import (
	"context"

	"golang.org/x/sync/semaphore"

	"github.com/tendermint/fastsync/types"
)

// ImportQueue accepts batches of blocks for import. ImportBlocks must not
// block on the import itself.
//
//go:generate ../../scripts/mockery_generate.sh ImportQueue|Strategy
type ImportQueue interface {
	ImportBlocks(origin types.BlockOrigin, blocks []types.IncomingBlock)
}

// SharedImportQueue serializes access to an ImportQueue that other
// components may also feed.
type SharedImportQueue struct {
	sem   *semaphore.Weighted
	queue ImportQueue
}

// NewSharedImportQueue wraps queue.
func NewSharedImportQueue(queue ImportQueue) *SharedImportQueue {
	return &SharedImportQueue{
		sem:   semaphore.NewWeighted(1),
		queue: queue,
	}
}

// ImportBlocks waits for exclusive access and enqueues blocks. It returns the
// context error if ctx ends first, in which case nothing is enqueued.
func (q *SharedImportQueue) ImportBlocks(
	ctx context.Context,
	origin types.BlockOrigin,
	blocks []types.IncomingBlock,
) error {
	unlock, err := q.Lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	q.queue.ImportBlocks(origin, blocks)
	return nil
}

// Lock takes exclusive access until the returned func is called. Components
// feeding the underlying queue directly hold it while they do so.
func (q *SharedImportQueue) Lock(ctx context.Context) (func(), error) {
	if err := q.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { q.sem.Release(1) }, nil
}
