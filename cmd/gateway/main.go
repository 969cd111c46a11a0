package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/textileio/cli"

	"github.com/chainindex/archive-gateway/buildinfo"
	"github.com/chainindex/archive-gateway/internal/gateway"
	"github.com/chainindex/archive-gateway/internal/httpapi"
	"github.com/chainindex/archive-gateway/pkg/loader"
	"github.com/chainindex/archive-gateway/pkg/logging"
	"github.com/chainindex/archive-gateway/pkg/metrics"
	"github.com/chainindex/archive-gateway/pkg/store/impl"
)

func main() {
	config, _ := setupConfig()

	logging.SetupLogger(buildinfo.GitCommit, config.Log.Debug, config.Log.Human)

	if err := metrics.SetupInstrumentation(":"+config.Metrics.Port, "archivegateway"); err != nil {
		log.Fatal().Err(err).Str("port", config.Metrics.Port).Msg("could not setup instrumentation")
	}

	ctx := context.Background()
	archiveStore, err := impl.New(ctx, config.Archive.PostgresURI)
	if err != nil {
		log.Fatal().Err(err).Msg("connecting to archive store")
	}

	partialBudget := time.Duration(0)
	if config.Partial.Budget != "" {
		d, err := time.ParseDuration(config.Partial.Budget)
		if err != nil {
			log.Fatal().Err(err).Str("budget", config.Partial.Budget).Msg("parsing partial budget")
		}
		partialBudget = d
	}

	batchLoader := loader.New(archiveStore)
	svc := gateway.New(batchLoader, archiveStore, partialBudget)

	instrumented, err := gateway.NewInstrumented(svc)
	if err != nil {
		log.Fatal().Err(err).Msg("instrumenting gateway")
	}

	handlers := httpapi.New(instrumented)

	cli.HandleInterrupt(func() {
		if err := archiveStore.Close(); err != nil {
			log.Error().Err(err).Msg("closing archive store")
		}
	})

	log.Info().Str("port", config.HTTP.Port).Msg("starting archive gateway")
	if err := httpapi.Serve(":"+config.HTTP.Port, handlers); err != nil {
		log.Fatal().Err(err).Msg("serving http")
	}
}
