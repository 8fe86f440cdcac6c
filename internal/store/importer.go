package store

import (
	"context"
	"sync"

	"github.com/tendermint/fastsync/libs/log"
	"github.com/tendermint/fastsync/libs/service"
	"github.com/tendermint/fastsync/types"
)

type importBatch struct {
	origin types.BlockOrigin
	blocks []types.IncomingBlock
}

// BlockImporter is an import queue that persists blocks to a BlockStore from
// a background goroutine. ImportBlocks never blocks on the store.
type BlockImporter struct {
	service.BaseService
	logger log.Logger

	store *BlockStore

	mtx     sync.Mutex
	queue   []importBatch
	notify  chan struct{}
	counter uint64
}

// NewBlockImporter returns an importer writing to store. It must be started
// before batches are persisted.
func NewBlockImporter(logger log.Logger, store *BlockStore) *BlockImporter {
	bi := &BlockImporter{
		logger: logger,
		store:  store,
		notify: make(chan struct{}, 1),
	}
	bi.BaseService = *service.NewBaseService(logger, "BlockImporter", bi)
	return bi
}

// ImportBlocks queues blocks for import.
func (bi *BlockImporter) ImportBlocks(origin types.BlockOrigin, blocks []types.IncomingBlock) {
	bi.mtx.Lock()
	bi.queue = append(bi.queue, importBatch{origin: origin, blocks: blocks})
	bi.mtx.Unlock()

	select {
	case bi.notify <- struct{}{}:
	default:
	}
}

// Imported returns the number of blocks persisted so far.
func (bi *BlockImporter) Imported() uint64 {
	bi.mtx.Lock()
	defer bi.mtx.Unlock()
	return bi.counter
}

// OnStart implements service.Service.
func (bi *BlockImporter) OnStart(ctx context.Context) error {
	go bi.importRoutine(ctx)
	return nil
}

// OnStop implements service.Service.
func (bi *BlockImporter) OnStop() {}

func (bi *BlockImporter) importRoutine(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-bi.Quit():
			return
		case <-bi.notify:
		}

		bi.mtx.Lock()
		batches := bi.queue
		bi.queue = nil
		bi.mtx.Unlock()

		for _, batch := range batches {
			bi.importBatch(batch)
		}
	}
}

func (bi *BlockImporter) importBatch(batch importBatch) {
	for _, block := range batch.blocks {
		if err := bi.store.SaveBlock(batch.origin, block); err != nil {
			bi.logger.Error("failed to import block", "block", block, "origin", batch.origin, "err", err)
			continue
		}

		bi.mtx.Lock()
		bi.counter++
		bi.mtx.Unlock()

		bi.logger.Info("imported block",
			"hash", block.Hash,
			"number", block.Number,
			"origin", batch.origin,
			"skip_execution", block.SkipExecution,
		)
	}
}
