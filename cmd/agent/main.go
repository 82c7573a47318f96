// The agent is a headless conference member running the shared-media
// sync core: it joins a room, mirrors whatever is being shared and can
// itself share a URL passed via config or flag.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dverner/matinee/internal/adapters/channel"
	"github.com/dverner/matinee/internal/config"
	"github.com/dverner/matinee/internal/watch"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
	}

	serverURL := flag.String("server", cfg.Agent.ServerURL, "signal server base URL (ws:// or wss://)")
	room := flag.String("room", cfg.Agent.Room, "room to join")
	name := flag.String("name", cfg.Agent.Name, "display name")
	shareURL := flag.String("share", cfg.Agent.ShareURL, "media URL to share after joining")
	flag.Parse()

	ch, err := channel.Dial(ctx, *serverURL, *room, *name)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect")
	}
	defer ch.Close()

	mic := channel.NewMicGate(ch.SendMute)

	mgr := watch.NewManager(ch.LocalID(), ch, channel.NewLocalRoster(), channel.ConsoleDock{}, mic, watch.Config{
		UpdateInterval: cfg.Media.UpdateInterval,
		DriftThreshold: cfg.Media.DriftThreshold,
	})
	mic.OnChange(mgr.OnLocalAudioMuted)
	ch.OnCommand(mgr.HandleCommand)

	if *shareURL != "" {
		if err := mgr.Share(*shareURL); err != nil {
			log.Error().Err(err).Str("url", *shareURL).Msg("share failed")
		}
	}

	if err := ch.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("channel closed")
	}

	if mgr.OwnerID() == ch.LocalID() {
		_ = mgr.Unshare()
	}
	log.Info().Msg("Agent exited")
}
