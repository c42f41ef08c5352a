package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dkeye/Lobby/internal/adapters/rtc"
	"github.com/dkeye/Lobby/internal/app/console"
	"github.com/dkeye/Lobby/internal/config"
	"github.com/dkeye/Lobby/internal/domain"
	"github.com/dkeye/Lobby/internal/session"
)

var (
	hostCode string

	hostCmd = &cobra.Command{
		Use:   "host",
		Short: "Host a room",
		Long: `Create a room and print its code and join link, then read console
commands from stdin. Type help for the command list.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRoom(cmd.Context(), cfg, "host "+hostCode)
		},
	}

	joinCmd = &cobra.Command{
		Use:   "join CODE|URL",
		Short: "Join a room by code or link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoom(cmd.Context(), cfg, "join "+args[0])
		},
	}
)

func init() {
	hostCmd.Flags().StringVar(&hostCode, "code", "", "room code to claim (generated if empty)")
}

// runRoom starts a session over WebRTC, runs first and hands stdin to the
// console.
func runRoom(ctx context.Context, cfg *config.Config, first string) error {
	transport := rtc.NewTransport(cfg.SignalURL, rtc.WebRTCConfig(cfg.ICEServers))
	s := session.New(transport, cfg.Session())
	defer func() {
		if err := s.Close(); err != nil {
			log.Error().Err(err).Str("module", "main").Msg("close session")
		}
	}()

	con := console.New(s, os.Stdout, cfg.JoinTimeout)
	defer con.Close()

	if _, err := con.Execute(ctx, first); err != nil {
		return err
	}
	if st := s.Status(); st.State == session.StateHosting {
		link, err := domain.JoinURL(cfg.PublicURL, st.Room)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "join link %s\n", link)
	}
	fmt.Fprintln(os.Stdout, console.Help)
	return con.Run(ctx, os.Stdin)
}
