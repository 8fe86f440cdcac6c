package bytes

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHexBytesText(t *testing.T) {
	testCases := []struct {
		input   string
		want    HexBytes
		wantErr bool
	}{
		{"", nil, false},
		{"0A0b", HexBytes{0x0a, 0x0b}, false},
		{"0xdeadbeef", HexBytes{0xde, 0xad, 0xbe, 0xef}, false},
		{"xyz", nil, true},
		{"abc", nil, true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.input, func(t *testing.T) {
			var bz HexBytes
			err := bz.UnmarshalText([]byte(tc.input))
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, bz)
		})
	}
}

func TestHexBytesJSON(t *testing.T) {
	type wrapper struct {
		Hash HexBytes `json:"hash"`
	}

	bz, err := json.Marshal(wrapper{Hash: HexBytes{0xab, 0x01}})
	require.NoError(t, err)
	assert.Equal(t, `{"hash":"AB01"}`, string(bz))

	var w wrapper
	require.NoError(t, json.Unmarshal(bz, &w))
	assert.Equal(t, HexBytes{0xab, 0x01}, w.Hash)
	assert.Equal(t, "AB01", w.Hash.ShortString())
	assert.True(t, w.Hash.Equal([]byte{0xab, 0x01}))
}
