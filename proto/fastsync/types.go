package fastsync

import (
	"fmt"

	"github.com/gogo/protobuf/proto"
	"google.golang.org/protobuf/encoding/protowire"
)

var (
	_ proto.Message = (*StateRequest)(nil)
	_ proto.Message = (*StateResponse)(nil)
	_ proto.Message = (*KeyValueStateEntry)(nil)
	_ proto.Message = (*StateEntry)(nil)
)

// StateRequest asks a peer for the state of a block, starting at a key.
//
//	message StateRequest {
//	  bytes block = 1;
//	  repeated bytes start = 2;
//	  bool no_proof = 3;
//	}
type StateRequest struct {
	// Block header hash.
	Block []byte
	// Start from this key. Multiple keys are used for nested state start.
	Start [][]byte
	// NoProof asks for raw key/values rather than a proof.
	NoProof bool
}

func (m *StateRequest) Reset()         { *m = StateRequest{} }
func (m *StateRequest) String() string { return fmt.Sprintf("%+v", *m) }
func (*StateRequest) ProtoMessage()    {}

func (m *StateRequest) Marshal() ([]byte, error) {
	var b []byte
	if len(m.Block) > 0 {
		b = appendBytesField(b, 1, m.Block)
	}
	for _, start := range m.Start {
		b = appendBytesField(b, 2, start)
	}
	if m.NoProof {
		b = appendVarintField(b, 3, protowire.EncodeBool(m.NoProof))
	}
	return b, nil
}

func (m *StateRequest) Unmarshal(bz []byte) error {
	*m = StateRequest{}
	return unmarshalFields(bz, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeBytes(typ, b)
			m.Block = v
			return n, err
		case 2:
			v, n, err := consumeBytes(typ, b)
			if err == nil {
				m.Start = append(m.Start, v)
			}
			return n, err
		case 3:
			v, n, err := consumeVarint(typ, b)
			m.NoProof = protowire.DecodeBool(v)
			return n, err
		default:
			return skipField(num, typ, b)
		}
	})
}

// StateResponse carries either raw key/values or a proof.
//
//	message StateResponse {
//	  repeated KeyValueStateEntry entries = 1;
//	  bytes proof = 2;
//	}
type StateResponse struct {
	// Entries is only populated if no_proof was set in the request.
	Entries []*KeyValueStateEntry
	// Proof nodes, if no_proof was not set.
	Proof []byte
}

func (m *StateResponse) Reset()         { *m = StateResponse{} }
func (m *StateResponse) String() string { return fmt.Sprintf("%+v", *m) }
func (*StateResponse) ProtoMessage()    {}

func (m *StateResponse) Marshal() ([]byte, error) {
	var b []byte
	for _, entry := range m.Entries {
		bz, err := entry.Marshal()
		if err != nil {
			return nil, err
		}
		b = appendBytesField(b, 1, bz)
	}
	if len(m.Proof) > 0 {
		b = appendBytesField(b, 2, m.Proof)
	}
	return b, nil
}

func (m *StateResponse) Unmarshal(bz []byte) error {
	*m = StateResponse{}
	return unmarshalFields(bz, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeBytes(typ, b)
			if err != nil {
				return n, err
			}
			entry := new(KeyValueStateEntry)
			if err := entry.Unmarshal(v); err != nil {
				return n, err
			}
			m.Entries = append(m.Entries, entry)
			return n, nil
		case 2:
			v, n, err := consumeBytes(typ, b)
			m.Proof = v
			return n, err
		default:
			return skipField(num, typ, b)
		}
	})
}

// KeyValueStateEntry is one level of state: the top level or a child trie.
//
//	message KeyValueStateEntry {
//	  bytes state_root = 1;
//	  repeated StateEntry entries = 2;
//	  bool complete = 3;
//	}
type KeyValueStateEntry struct {
	// StateRoot of this level, empty for the top level.
	StateRoot []byte
	Entries   []*StateEntry
	// Complete is set when there are no more keys to return.
	Complete bool
}

func (m *KeyValueStateEntry) Reset()         { *m = KeyValueStateEntry{} }
func (m *KeyValueStateEntry) String() string { return fmt.Sprintf("%+v", *m) }
func (*KeyValueStateEntry) ProtoMessage()    {}

func (m *KeyValueStateEntry) Marshal() ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	var b []byte
	if len(m.StateRoot) > 0 {
		b = appendBytesField(b, 1, m.StateRoot)
	}
	for _, entry := range m.Entries {
		bz, err := entry.Marshal()
		if err != nil {
			return nil, err
		}
		b = appendBytesField(b, 2, bz)
	}
	if m.Complete {
		b = appendVarintField(b, 3, protowire.EncodeBool(m.Complete))
	}
	return b, nil
}

func (m *KeyValueStateEntry) Unmarshal(bz []byte) error {
	*m = KeyValueStateEntry{}
	return unmarshalFields(bz, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeBytes(typ, b)
			m.StateRoot = v
			return n, err
		case 2:
			v, n, err := consumeBytes(typ, b)
			if err != nil {
				return n, err
			}
			entry := new(StateEntry)
			if err := entry.Unmarshal(v); err != nil {
				return n, err
			}
			m.Entries = append(m.Entries, entry)
			return n, nil
		case 3:
			v, n, err := consumeVarint(typ, b)
			m.Complete = protowire.DecodeBool(v)
			return n, err
		default:
			return skipField(num, typ, b)
		}
	})
}

// StateEntry is a single key/value pair.
//
//	message StateEntry {
//	  bytes key = 1;
//	  bytes value = 2;
//	}
type StateEntry struct {
	Key   []byte
	Value []byte
}

func (m *StateEntry) Reset()         { *m = StateEntry{} }
func (m *StateEntry) String() string { return fmt.Sprintf("%+v", *m) }
func (*StateEntry) ProtoMessage()    {}

func (m *StateEntry) Marshal() ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	var b []byte
	if len(m.Key) > 0 {
		b = appendBytesField(b, 1, m.Key)
	}
	if len(m.Value) > 0 {
		b = appendBytesField(b, 2, m.Value)
	}
	return b, nil
}

func (m *StateEntry) Unmarshal(bz []byte) error {
	*m = StateEntry{}
	return unmarshalFields(bz, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeBytes(typ, b)
			m.Key = v
			return n, err
		case 2:
			v, n, err := consumeBytes(typ, b)
			m.Value = v
			return n, err
		default:
			return skipField(num, typ, b)
		}
	})
}
