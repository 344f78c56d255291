package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/supdem/supdem/internal/client"
	"github.com/supdem/supdem/libs/log"
)

// MakeClientCommand returns the command that talks to a running server,
// interactively or by replaying a script from any number of clients.
func MakeClientCommand(logger log.Logger) *cobra.Command {
	var (
		script  string
		clients int
		delayMs int
		linger  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "client <conn>",
		Short: "Connect to a supdem server",
		Long: `Connect to a supdem server.

Without --script, lines typed on stdin are sent to the server and everything
the server sends is printed. With --script, every one of --clients sessions
sends the lines of the script file, --delay milliseconds apart.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := client.DefaultConfig()
			cfg.Conn = args[0]
			cfg.Clients = clients
			cfg.Delay = time.Duration(delayMs) * time.Millisecond
			cfg.Linger = linger

			if script == "" {
				return client.RunInteractive(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout(), logger)
			}

			lines, err := client.ReadScript(script)
			if err != nil {
				return err
			}
			return client.RunScript(cmd.Context(), cfg, lines, cmd.OutOrStdout(), logger)
		},
	}

	defaults := client.DefaultConfig()
	cmd.Flags().StringVarP(&script, "script", "s", "", "file with one command per line")
	cmd.Flags().IntVarP(&clients, "clients", "n", defaults.Clients, "number of concurrent clients running the script")
	cmd.Flags().IntVar(&delayMs, "delay", 0, "milliseconds to wait between two script lines")
	cmd.Flags().DurationVar(&linger, "linger", defaults.Linger, "how long to keep printing notifications after the script ends")
	return cmd
}
