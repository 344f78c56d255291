package commands

import (
	"github.com/spf13/cobra"

	"github.com/supdem/supdem/config"
	"github.com/supdem/supdem/libs/log"
	tmos "github.com/supdem/supdem/libs/os"
)

// MakeInitFilesCommand returns the command that writes config.toml into the
// home directory.
func MakeInitFilesCommand(conf *config.Config, logger log.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the supdem home directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return initFiles(conf, logger)
		},
	}
}

func initFiles(conf *config.Config, logger log.Logger) error {
	if err := config.EnsureRoot(conf.RootDir); err != nil {
		return err
	}

	cfgFile := conf.ConfigFile()
	if tmos.FileExists(cfgFile) {
		logger.Info("Found config file", "path", cfgFile)
		return nil
	}

	if err := config.WriteConfigFile(conf.RootDir, conf); err != nil {
		return err
	}
	logger.Info("Generated config file", "path", cfgFile)
	return nil
}
