package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	configx "github.com/tanpawarit/driftdesk-agent/pkg/config"
	"github.com/tanpawarit/driftdesk-agent/pkg/dummyapi"
	_ "github.com/tanpawarit/driftdesk-agent/pkg/logger/autoload"
)

func main() {
	flag.Parse()
	cfg := configx.MustNew[dummyapi.Config]("DUMMY_API")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gin.SetMode(gin.ReleaseMode)
	if err := dummyapi.Serve(ctx, *cfg, dummyapi.NewEngine(dummyapi.SampleDataset())); err != nil {
		log.Fatal().Err(err).Msg("dummy api stopped")
	}
}
