package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/supdem/supdem/version"
)

const versionCmdName = "version"

// MakeVersionCommand returns the command printing the software version.
func MakeVersionCommand() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   versionCmdName,
		Short: "Show version info",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !verbose {
				fmt.Fprintln(cmd.OutOrStdout(), version.Version)
				return nil
			}

			values, err := json.MarshalIndent(struct {
				Supdem   string `json:"supdem"`
				Protocol uint64 `json:"protocol"`
			}{
				Supdem:   version.Version,
				Protocol: version.ProtocolVersion.Uint64(),
			}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(values))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show protocol version")
	return cmd
}
