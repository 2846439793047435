package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pixeldash/race-server/api"
	"github.com/pixeldash/race-server/race"
	"github.com/pixeldash/race-server/rooms"
	"github.com/pixeldash/race-server/state"
	"github.com/pixeldash/race-server/track"
	"github.com/pixeldash/race-server/util"
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger()

	util.InitValidator()

	config, err := util.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("loading config")
	}

	registry := rooms.NewRegistry()
	store := state.NewStore()
	arbiter := race.NewArbiter(track.Generate)

	server := api.NewServer(config, registry, store, arbiter)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go server.WSManager().RunBroadcaster(ctx)

	log.Info().Str("port", config.Port).Msg("starting race server")

	if err := server.Start(); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
