package fastsync

import (
	"fmt"

	"github.com/gogo/protobuf/proto"
	"google.golang.org/protobuf/encoding/protowire"
)

var _ proto.Message = (*BlockRecord)(nil)

// BlockRecord is the on-disk form of a block persisted by the block importer.
//
//	message BlockRecord {
//	  bytes hash = 1;
//	  uint64 number = 2;
//	  bytes header = 3;
//	  repeated bytes body = 4;
//	  repeated bytes justifications = 5;
//	  uint32 origin = 6;
//	  string peer = 7;
//	  uint64 state_entries = 8;
//	}
type BlockRecord struct {
	Hash           []byte
	Number         uint64
	Header         []byte
	Body           [][]byte
	Justifications [][]byte
	Origin         uint32
	Peer           string
	StateEntries   uint64
}

func (m *BlockRecord) Reset()         { *m = BlockRecord{} }
func (m *BlockRecord) String() string { return fmt.Sprintf("%+v", *m) }
func (*BlockRecord) ProtoMessage()    {}

func (m *BlockRecord) Marshal() ([]byte, error) {
	var b []byte
	if len(m.Hash) > 0 {
		b = appendBytesField(b, 1, m.Hash)
	}
	if m.Number != 0 {
		b = appendVarintField(b, 2, m.Number)
	}
	if len(m.Header) > 0 {
		b = appendBytesField(b, 3, m.Header)
	}
	for _, ext := range m.Body {
		b = appendBytesField(b, 4, ext)
	}
	for _, j := range m.Justifications {
		b = appendBytesField(b, 5, j)
	}
	if m.Origin != 0 {
		b = appendVarintField(b, 6, uint64(m.Origin))
	}
	if m.Peer != "" {
		b = appendBytesField(b, 7, []byte(m.Peer))
	}
	if m.StateEntries != 0 {
		b = appendVarintField(b, 8, m.StateEntries)
	}
	return b, nil
}

func (m *BlockRecord) Unmarshal(bz []byte) error {
	*m = BlockRecord{}
	return unmarshalFields(bz, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeBytes(typ, b)
			m.Hash = v
			return n, err
		case 2:
			v, n, err := consumeVarint(typ, b)
			m.Number = v
			return n, err
		case 3:
			v, n, err := consumeBytes(typ, b)
			m.Header = v
			return n, err
		case 4:
			v, n, err := consumeBytes(typ, b)
			if err == nil {
				m.Body = append(m.Body, v)
			}
			return n, err
		case 5:
			v, n, err := consumeBytes(typ, b)
			if err == nil {
				m.Justifications = append(m.Justifications, v)
			}
			return n, err
		case 6:
			v, n, err := consumeVarint(typ, b)
			m.Origin = uint32(v)
			return n, err
		case 7:
			v, n, err := consumeBytes(typ, b)
			m.Peer = string(v)
			return n, err
		case 8:
			v, n, err := consumeVarint(typ, b)
			m.StateEntries = v
			return n, err
		default:
			return skipField(num, typ, b)
		}
	})
}
