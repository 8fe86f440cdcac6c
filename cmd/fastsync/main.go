package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tendermint/fastsync/cmd/fastsync/commands"
	"github.com/tendermint/fastsync/config"
	"github.com/tendermint/fastsync/libs/cli"
	"github.com/tendermint/fastsync/libs/log"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	conf := config.DefaultConfig()

	logger, err := log.NewDefaultLogger(log.LogFormatPlain, log.LogLevelInfo)
	if err != nil {
		panic(err)
	}

	rcmd := commands.RootCommand(conf, logger)
	rcmd.AddCommand(
		commands.MakeInitCommand(conf, logger),
		commands.MakeProtocolNameCommand(conf),
		commands.MakeImportedCommand(conf, config.DefaultDBProvider),
		commands.VersionCmd,
	)

	if err := cli.RunWithTrace(ctx, rcmd); err != nil {
		os.Exit(2)
	}
}
