package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/rs/zerolog/log"

	configx "github.com/tanpawarit/driftdesk-agent/pkg/config"
	"github.com/tanpawarit/driftdesk-agent/pkg/etl"
	_ "github.com/tanpawarit/driftdesk-agent/pkg/logger/autoload"
)

type ingestSink interface {
	etl.Sink
	EnsureSchema(ctx context.Context) error
	Close()
}

type sinkOpener func(ctx context.Context, databaseURL string) (ingestSink, error)

func openPgSink(ctx context.Context, databaseURL string) (ingestSink, error) {
	sink, err := etl.NewPgSink(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	return sink, nil
}

func main() {
	flag.Parse()
	cfg := configx.MustNew[etl.Config]("ETL")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, *cfg, openPgSink, os.Stdout)
	stop()
	if err != nil {
		log.Error().Err(err).Msg("etl failed")
		os.Exit(1)
	}
}

// run owns the sink for the whole ingest and closes it on every path.
func run(ctx context.Context, cfg etl.Config, open sinkOpener, out io.Writer) error {
	sink, err := open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open etl sink: %w", err)
	}
	defer sink.Close()

	if err := sink.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("prepare etl schema: %w", err)
	}

	report, err := etl.Run(ctx, etl.NewHTTPSource(cfg.SourceURL, cfg.Timeout), sink, nil)
	if err != nil {
		return fmt.Errorf("ingest %d: %w", report.IngestID, err)
	}
	fmt.Fprintf(out, "ETL completed from %s: %d records (ingest %d)\n", report.Source, report.Records, report.IngestID)
	return nil
}
