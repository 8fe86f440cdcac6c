package store

import (
	"errors"
	"fmt"

	"github.com/gogo/protobuf/proto"
	"github.com/google/orderedcode"
	dbm "github.com/tendermint/tm-db"

	fsproto "github.com/tendermint/fastsync/proto/fastsync"
	"github.com/tendermint/fastsync/types"
)

/*
BlockStore is a simple low level store for imported blocks.

There are three types of information stored:
  - BlockRecord:  header, body, justifications and import metadata by hash
  - Block number: index from block number to hash
  - State entry:  the key/value state imported with a block

The latest imported hash is kept under its own key.
*/
type BlockStore struct {
	db dbm.DB
}

// NewBlockStore returns a new BlockStore with the given DB.
func NewBlockStore(db dbm.DB) *BlockStore {
	return &BlockStore{db}
}

// SaveBlock persists block and its state snapshot atomically.
func (bs *BlockStore) SaveBlock(origin types.BlockOrigin, block types.IncomingBlock) error {
	if len(block.Hash) == 0 {
		return errors.New("BlockStore can only save a block with a hash")
	}

	batch := bs.db.NewBatch()
	defer batch.Close()

	record := &fsproto.BlockRecord{
		Hash:           block.Hash,
		Number:         block.Number,
		Header:         block.Header,
		Body:           block.Body,
		Justifications: block.Justifications,
		Origin:         uint32(origin),
	}
	if block.Origin != nil {
		record.Peer = string(*block.Origin)
	}
	if snapshot := block.StateSnapshot; snapshot != nil {
		for _, entry := range snapshot.Entries {
			if err := batch.Set(stateEntryKey(block.Hash, entry.Key), entry.Value); err != nil {
				return err
			}
		}
		record.StateEntries = uint64(len(snapshot.Entries))
	}

	bz, err := proto.Marshal(record)
	if err != nil {
		return fmt.Errorf("unable to marshal block record: %w", err)
	}
	if err := batch.Set(blockKey(block.Hash), bz); err != nil {
		return err
	}
	if err := batch.Set(blockNumberKey(block.Number), block.Hash); err != nil {
		return err
	}
	if err := batch.Set(latestHashKey(), block.Hash); err != nil {
		return err
	}

	return batch.WriteSync()
}

// LoadBlock returns the block with the given hash.
// If no block is found for that hash, it returns nil.
func (bs *BlockStore) LoadBlock(hash []byte) (*fsproto.BlockRecord, error) {
	bz, err := bs.db.Get(blockKey(hash))
	if err != nil {
		return nil, err
	}
	if len(bz) == 0 {
		return nil, nil
	}

	record := new(fsproto.BlockRecord)
	if err := proto.Unmarshal(bz, record); err != nil {
		return nil, fmt.Errorf("error reading block record: %w", err)
	}
	return record, nil
}

// LoadStateEntry returns the value of key in the state imported with the
// block, or nil.
func (bs *BlockStore) LoadStateEntry(blockHash, key []byte) ([]byte, error) {
	return bs.db.Get(stateEntryKey(blockHash, key))
}

// LatestHash returns the hash of the most recently imported block, or nil
// for empty block stores.
func (bs *BlockStore) LatestHash() ([]byte, error) {
	return bs.db.Get(latestHashKey())
}

// Hashes returns the hashes of all imported blocks by ascending block number.
func (bs *BlockStore) Hashes() ([][]byte, error) {
	start, end := prefixRange(prefixBlockNumber)
	iter, err := bs.db.Iterator(start, end)
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var hashes [][]byte
	for ; iter.Valid(); iter.Next() {
		if _, err := decodeBlockNumberKey(iter.Key()); err != nil {
			return nil, err
		}
		hashes = append(hashes, append([]byte(nil), iter.Value()...))
	}
	return hashes, iter.Error()
}

func (bs *BlockStore) Close() error {
	return bs.db.Close()
}

//---------------------------------- KEY ENCODING -----------------------------------------

// key prefixes
const (
	prefixBlock       = int64(0)
	prefixBlockNumber = int64(1)
	prefixStateEntry  = int64(2)
	prefixLatestHash  = int64(3)
)

func blockKey(hash []byte) []byte {
	key, err := orderedcode.Append(nil, prefixBlock, string(hash))
	if err != nil {
		panic(err)
	}
	return key
}

func blockNumberKey(number uint64) []byte {
	key, err := orderedcode.Append(nil, prefixBlockNumber, number)
	if err != nil {
		panic(err)
	}
	return key
}

func decodeBlockNumberKey(key []byte) (number uint64, err error) {
	var prefix int64
	remaining, err := orderedcode.Parse(string(key), &prefix, &number)
	if err != nil {
		return
	}
	if len(remaining) != 0 {
		return 0, fmt.Errorf("expected complete key but got remainder: %s", remaining)
	}
	if prefix != prefixBlockNumber {
		return 0, fmt.Errorf("incorrect prefix. Expected %v, got %v", prefixBlockNumber, prefix)
	}
	return
}

func stateEntryKey(blockHash, key []byte) []byte {
	k, err := orderedcode.Append(nil, prefixStateEntry, string(blockHash), string(key))
	if err != nil {
		panic(err)
	}
	return k
}

func latestHashKey() []byte {
	key, err := orderedcode.Append(nil, prefixLatestHash)
	if err != nil {
		panic(err)
	}
	return key
}

// prefixRange returns the iterator bounds covering every key under prefix.
func prefixRange(prefix int64) (start, end []byte) {
	start, err := orderedcode.Append(nil, prefix)
	if err != nil {
		panic(err)
	}
	end, err = orderedcode.Append(nil, prefix+1)
	if err != nil {
		panic(err)
	}
	return start, end
}
