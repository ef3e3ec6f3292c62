package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/rs/zerolog/log"

	appx "github.com/tanpawarit/driftdesk-agent/agent/app"
	sessionx "github.com/tanpawarit/driftdesk-agent/agent/session"
	_ "github.com/tanpawarit/driftdesk-agent/pkg/logger/autoload"
)

var sampleQueries = []string{
	"I'm looking for a standing desk with a bamboo top.",
	"What's the price on DSK-100 for two units with BUNDLE10?",
	"Order ORD-1002 says it's late.",
}

type messageHandler interface {
	HandleMessage(ctx context.Context, text string) (sessionx.Reply, error)
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		log.Error().Err(err).Msg("replay failed")
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := appx.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	app, err := appx.Build(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build agent: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Error().Err(err).Msg("close agent")
		}
	}()

	replay(ctx, app.Session, sampleQueries, os.Stdout)
	return nil
}

func replay(ctx context.Context, h messageHandler, queries []string, out io.Writer) {
	for _, q := range queries {
		fmt.Fprintf(out, "User: %s\n", q)
		reply, err := h.HandleMessage(ctx, q)
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Str("query", q).Msg("replay turn failed")
			fmt.Fprintf(out, "Assistant (error): %v\n", err)
			continue
		}
		fmt.Fprintf(out, "Assistant (%s): %s\n", reply.Route, reply.Text)
	}
}
