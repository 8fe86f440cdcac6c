package commands

import (
	"github.com/spf13/cobra"

	"github.com/tendermint/fastsync/config"
	"github.com/tendermint/fastsync/libs/log"
	tmos "github.com/tendermint/fastsync/libs/os"
)

// MakeInitCommand returns the command that writes a default config file.
func MakeInitCommand(conf *config.Config, logger log.Logger) *cobra.Command {
	var genesisHash, forkID string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			configFile := config.ConfigFilePath(conf.RootDir)
			if tmos.FileExists(configFile) {
				logger.Info("found config file", "path", configFile)
				return nil
			}

			if genesisHash != "" {
				conf.FastSync.GenesisHash = genesisHash
			}
			if forkID != "" {
				conf.FastSync.ForkID = forkID
			}

			if err := config.WriteConfigFile(conf.RootDir, conf); err != nil {
				return err
			}
			logger.Info("generated config", "path", configFile)
			return nil
		},
	}
	cmd.Flags().StringVar(&genesisHash, "genesis-hash", "", "hex-encoded genesis block hash")
	cmd.Flags().StringVar(&forkID, "fork-id", "", "fork id of the chain")
	return cmd
}
