package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tendermint/fastsync/config"
	"github.com/tendermint/fastsync/internal/store"
	tmbytes "github.com/tendermint/fastsync/libs/bytes"
	"github.com/tendermint/fastsync/types"
)

type importedBlock struct {
	Hash         tmbytes.HexBytes `json:"hash"`
	Number       uint64           `json:"number"`
	Origin       string           `json:"origin"`
	Peer         string           `json:"peer,omitempty"`
	StateEntries uint64           `json:"state_entries"`
}

// MakeImportedCommand returns the command that lists the blocks persisted by
// the block importer.
func MakeImportedCommand(conf *config.Config, dbProvider config.DBProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "imported",
		Short: "List imported blocks",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := dbProvider(&config.DBContext{ID: "blockstore", Config: conf})
			if err != nil {
				return err
			}
			bs := store.NewBlockStore(db)
			defer bs.Close()

			hashes, err := bs.Hashes()
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, hash := range hashes {
				record, err := bs.LoadBlock(hash)
				if err != nil {
					return err
				}
				if record == nil {
					return fmt.Errorf("missing block record for %X", hash)
				}
				if err := enc.Encode(importedBlock{
					Hash:         record.Hash,
					Number:       record.Number,
					Origin:       types.BlockOrigin(record.Origin).String(),
					Peer:         record.Peer,
					StateEntries: record.StateEntries,
				}); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
