package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"

	"github.com/rs/zerolog/log"

	catalogx "github.com/tanpawarit/driftdesk-agent/agent/catalog"
	vectorx "github.com/tanpawarit/driftdesk-agent/agent/vector"
	configx "github.com/tanpawarit/driftdesk-agent/pkg/config"
	_ "github.com/tanpawarit/driftdesk-agent/pkg/logger/autoload"
)

func main() {
	flag.Parse()
	catalogCfg := configx.MustNew[catalogx.Config]("CATALOG")
	vectorCfg := configx.MustNew[vectorx.Config]("QDRANT")

	catalog, err := catalogx.Load(catalogCfg.Dir)
	if err != nil {
		log.Fatal().Err(err).Msg("load catalog")
	}
	client, err := vectorx.NewClient(*vectorCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("qdrant client")
	}

	report, err := vectorx.SeedProducts(context.Background(), client, catalog.Products())
	if err != nil {
		log.Fatal().Err(err).Msg("seed products")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(report)
}
