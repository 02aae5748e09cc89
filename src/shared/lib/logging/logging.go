package logging

import (
	"os"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/apex/log/handlers/discard"
	"github.com/apex/log/handlers/json"
	"github.com/veedubyou/stem-remixer/src/shared/config/envvar"
	"github.com/veedubyou/stem-remixer/src/shared/lib/env"
)

// Setup points the package level apex logger at the handler for the environment.
// Production logs are JSON lines for the log shipper, dev logs are for humans.
func Setup(environment env.Environment) {
	switch environment {
	case env.Production:
		log.SetHandler(json.New(os.Stdout))
	case env.Development:
		log.SetHandler(cli.New(os.Stderr))
	case env.Test:
		log.SetHandler(discard.New())
	default:
		panic("Unexpected environment")
	}

	level, err := log.ParseLevel(envvar.GetOrDefault(envvar.LOG_LEVEL, "info"))
	if err != nil {
		log.WithError(err).Warn("Unrecognized log level, falling back to info")
		level = log.InfoLevel
	}

	log.SetLevel(level)
}
