package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tendermint/fastsync/config"
	"github.com/tendermint/fastsync/internal/fastsync"
)

// MakeProtocolNameCommand returns the command that prints the name of the
// state request protocol for the configured chain.
func MakeProtocolNameCommand(conf *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "protocol-name",
		Short: "Show the state request protocol name",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := conf.FastSync.ValidateBasic(); err != nil {
				return fmt.Errorf("error in [fastsync] section: %w", err)
			}
			genesisHash, err := conf.FastSync.GenesisHashBytes()
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), fastsync.GenerateProtocolName(genesisHash, conf.FastSync.ForkID))
			return nil
		},
	}
}
