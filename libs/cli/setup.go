// Package cli holds the cobra/viper glue shared by supdem commands: the
// --home and --trace flags, environment variable binding, and loading
// config.toml from the home directory.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	HomeFlag  = "home"
	TraceFlag = "trace"
)

// InitEnv makes viper consult environment variables with the given prefix,
// e.g. SD_LOG_LEVEL for log_level or SD_MARKET_MAX_CLIENTS for
// market.max_clients. Variables written without the separating underscore
// (SDHOME) are copied to the underscored form first.
func InitEnv(prefix string) {
	prefix = strings.ToUpper(prefix)
	ps := prefix + "_"
	for _, e := range os.Environ() {
		kv := strings.SplitN(e, "=", 2)
		if len(kv) == 2 {
			k, v := kv[0], kv[1]
			if strings.HasPrefix(k, prefix) && !strings.HasPrefix(k, ps) {
				k2 := strings.Replace(k, prefix, ps, 1)
				os.Setenv(k2, v)
			}
		}
	}

	viper.SetEnvPrefix(prefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
}

// BindFlagsLoadViper binds all flags of cmd and reads config.toml from the
// home directory, or from its config subdirectory. A missing config file is
// not an error.
func BindFlagsLoadViper(cmd *cobra.Command, args []string) error {
	// cmd.Flags() includes flags from this command and all persistent flags from the parent
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	homeDir := viper.GetString(HomeFlag)
	viper.Set(HomeFlag, homeDir)
	viper.SetConfigName("config")
	viper.SetConfigType("toml")
	viper.AddConfigPath(homeDir)
	viper.AddConfigPath(filepath.Join(homeDir, "config"))

	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err != nil && !errors.As(err, &notFound) {
		return err
	}
	return nil
}

// RunWithTrace executes cmd. On failure the error is printed to stderr, with
// its full %+v form when --trace was given, and returned.
func RunWithTrace(ctx context.Context, cmd *cobra.Command) error {
	return runWithTrace(ctx, cmd, os.Stderr)
}

func runWithTrace(ctx context.Context, cmd *cobra.Command, stderr io.Writer) error {
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	if viper.GetBool(TraceFlag) {
		fmt.Fprintf(stderr, "ERROR: %+v\n", err)
	} else {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
	}
	return err
}
