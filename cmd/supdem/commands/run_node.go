package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/supdem/supdem/config"
	"github.com/supdem/supdem/libs/log"
	tmnet "github.com/supdem/supdem/libs/net"
	tmos "github.com/supdem/supdem/libs/os"
	"github.com/supdem/supdem/node"
)

// NodeProvider builds the node run by the start command.
type NodeProvider func(*config.Config, log.Logger) (*node.Node, error)

// AddNodeFlags exposes some common configuration options on the command-line
func AddNodeFlags(cmd *cobra.Command, conf *config.Config) {
	// server flags
	cmd.Flags().String("server.laddr", conf.Server.ListenAddress,
		"client listen address: host:port, tcp://host:port, @path or unix://path")
	cmd.Flags().Int("server.max_open_connections", conf.Server.MaxOpenConnections,
		"maximum number of simultaneous client connections (0 = unlimited)")

	// market flags
	cmd.Flags().Int("market.width", conf.Market.Width, "width of the map")
	cmd.Flags().Int("market.height", conf.Market.Height, "height of the map")
	cmd.Flags().Int("market.max_clients", conf.Market.MaxClients, "maximum number of connected clients")
	cmd.Flags().Int("market.max_supplies", conf.Market.MaxSupplies, "capacity of the supply table")
	cmd.Flags().Int("market.max_demands", conf.Market.MaxDemands, "capacity of the demand table")
	cmd.Flags().Int("market.max_watches", conf.Market.MaxWatches, "capacity of the watch table")
	cmd.Flags().Int("market.notification_capacity", conf.Market.NotificationCapacity,
		"pending notifications kept per client before new ones are dropped")

	// instrumentation flags
	cmd.Flags().Bool("instrumentation.prometheus", conf.Instrumentation.Prometheus, "serve Prometheus metrics")
	cmd.Flags().String("instrumentation.prometheus_listen_addr", conf.Instrumentation.PrometheusListenAddr,
		"Prometheus metrics listen address")
}

// NewRunNodeCmd returns the command that starts the server. The optional
// positional arguments <conn> <width> <height> take precedence over both
// flags and config file.
func NewRunNodeCmd(nodeProvider NodeProvider, conf *config.Config, logger log.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "start [conn width height]",
		Aliases: []string{"run"},
		Short:   "Run the supdem server",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 3 {
				return fmt.Errorf("expected either no arguments or <conn> <width> <height>, got %d arguments", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 3 {
				if err := applyPositionalArgs(conf, args); err != nil {
					return err
				}
			}

			n, err := nodeProvider(conf, logger)
			if err != nil {
				return fmt.Errorf("failed to create node: %w", err)
			}

			ctx := cmd.Context()
			if err := n.Start(ctx); err != nil {
				return fmt.Errorf("failed to start node: %w", err)
			}

			// Stop upon receiving SIGTERM or CTRL-C.
			tmos.TrapSignal(logger, func() {
				if n.IsRunning() {
					if err := n.Stop(); err != nil {
						logger.Error("unable to stop the node", "error", err)
					}
				}
			})

			// The node also stops once ctx is canceled.
			n.Wait()
			return nil
		},
	}

	AddNodeFlags(cmd, conf)
	return cmd
}

func applyPositionalArgs(conf *config.Config, args []string) error {
	if err := tmnet.Validate(args[0]); err != nil {
		return fmt.Errorf("invalid connection string %q: %w", args[0], err)
	}
	width, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid width %q: %w", args[1], err)
	}
	height, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("invalid height %q: %w", args[2], err)
	}

	conf.Server.ListenAddress = args[0]
	conf.Market.Width = width
	conf.Market.Height = height
	if err := conf.ValidateBasic(); err != nil {
		return fmt.Errorf("error in arguments: %w", err)
	}
	return nil
}
