package main

import (
	"context"
	"os"

	"github.com/supdem/supdem/cmd/supdem/commands"
	"github.com/supdem/supdem/config"
	"github.com/supdem/supdem/libs/cli"
	"github.com/supdem/supdem/libs/log"
	"github.com/supdem/supdem/node"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conf := config.DefaultConfig()
	logger, err := log.NewDefaultLogger(conf.LogFormat, conf.LogLevel)
	if err != nil {
		panic(err)
	}

	rootCmd := commands.RootCommand(conf, logger)
	rootCmd.AddCommand(
		commands.MakeInitFilesCommand(conf, logger),
		commands.MakeClientCommand(logger),
		commands.MakeVersionCommand(),
		commands.NewCompletionCmd(rootCmd, true),
		commands.NewRunNodeCmd(node.DefaultNewNode, conf, logger),
	)

	if err := cli.RunWithTrace(ctx, rootCmd); err != nil {
		os.Exit(1)
	}
}
