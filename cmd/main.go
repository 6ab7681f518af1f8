package main

import (
	"os"

	"event-trivia-service/internal/cli"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Error().Err(err).Msg("trivia-server failed")
		os.Exit(1)
	}
}
