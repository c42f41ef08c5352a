// Command lobby hosts and joins peer-to-peer rooms and runs the signaling
// server that makes room codes addressable.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dkeye/Lobby/internal/config"
)

var (
	// set by build flags
	version = "dev"
	commit  = "none"
	date    = "unknown"

	configPath string
	cfg        *config.Config

	rootCmd = &cobra.Command{
		Use:   "lobby",
		Short: "Peer-to-peer rooms with shared state",
		Long: `lobby runs small rooms of peers. One process hosts a room under a short
code, others join it, and every participant shares one JSON state.

Examples:
  # Run the signaling server
  lobby signal

  # Host a room and share its code
  lobby host

  # Join by code or link
  lobby join AB12CD`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default config/config.$CONFIG_ENV.yaml)")
	rootCmd.AddCommand(signalCmd, hostCmd, joinCmd, configCmd, versionCmd)
}

func setup(_ *cobra.Command, _ []string) error {
	initLogger()

	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	return setLevel(cfg.LogLevel)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("lobby")
		cancel()
		os.Exit(1)
	}
}
