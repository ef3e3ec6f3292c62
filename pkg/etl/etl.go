package etl

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/driftdesk-agent/pkg/dummyapi"
)

const (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Sink persists one ingest run. Loads are upserts, so re-running the job
// over the same data leaves the target unchanged.
type Sink interface {
	BeginIngest(ctx context.Context, source string, startedAt time.Time) (int64, error)
	LoadCustomers(ctx context.Context, rows []dummyapi.Customer) (int, error)
	LoadOrders(ctx context.Context, rows []dummyapi.Order) (int, error)
	LoadTickets(ctx context.Context, rows []dummyapi.Ticket) (int, error)
	FinishIngest(ctx context.Context, ingestID int64, status string, records int, finishedAt time.Time) error
}

type Report struct {
	IngestID  int64  `json:"ingest_id"`
	Source    string `json:"source"`
	Status    string `json:"status"`
	Customers int    `json:"customers"`
	Orders    int    `json:"orders"`
	Tickets   int    `json:"tickets"`
	Records   int    `json:"records_loaded"`
}

type stage struct {
	name string
	load func(ctx context.Context) (int, error)
	dst  *int
}

// Run executes one ingest. Any failing stage marks the run failed in the
// ingest log and is returned together with the partial report.
func Run(ctx context.Context, src Source, sink Sink, now func() time.Time) (Report, error) {
	if now == nil {
		now = time.Now
	}
	report := Report{Source: src.Name(), Status: StatusRunning}

	id, err := sink.BeginIngest(ctx, report.Source, now().UTC())
	if err != nil {
		return report, fmt.Errorf("begin ingest: %w", err)
	}
	report.IngestID = id
	logger := log.With().Int64("ingest_id", id).Str("source", report.Source).Logger()

	fail := func(stageName string, cause error) (Report, error) {
		report.Status = StatusFailed
		if err := sink.FinishIngest(context.WithoutCancel(ctx), id, StatusFailed, report.Records, now().UTC()); err != nil {
			logger.Error().Err(err).Msg("record failed ingest")
		}
		logger.Error().Err(cause).Str("stage", stageName).Msg("etl run failed")
		return report, fmt.Errorf("%s: %w", stageName, cause)
	}

	data, err := src.Fetch(ctx)
	if err != nil {
		return fail("fetch", err)
	}

	stages := []stage{
		{name: "customers", dst: &report.Customers, load: func(ctx context.Context) (int, error) {
			return sink.LoadCustomers(ctx, data.Customers)
		}},
		{name: "orders", dst: &report.Orders, load: func(ctx context.Context) (int, error) {
			return sink.LoadOrders(ctx, data.Orders)
		}},
		{name: "tickets", dst: &report.Tickets, load: func(ctx context.Context) (int, error) {
			return sink.LoadTickets(ctx, data.Tickets)
		}},
	}
	for _, st := range stages {
		n, err := st.load(ctx)
		if err != nil {
			return fail(st.name, err)
		}
		*st.dst = n
		report.Records += n
		logger.Debug().Str("stage", st.name).Int("records", n).Msg("stage loaded")
	}

	if err := sink.FinishIngest(ctx, id, StatusSuccess, report.Records, now().UTC()); err != nil {
		return fail("finish", err)
	}
	report.Status = StatusSuccess
	logger.Info().Int("records_loaded", report.Records).Msg("etl run completed")
	return report, nil
}
