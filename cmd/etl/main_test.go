package main

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tanpawarit/driftdesk-agent/pkg/dummyapi"
	"github.com/tanpawarit/driftdesk-agent/pkg/etl"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeSink struct {
	schemaErr error
	closed    bool
	finished  string
}

func (s *fakeSink) EnsureSchema(context.Context) error { return s.schemaErr }
func (s *fakeSink) Close()                             { s.closed = true }

func (s *fakeSink) BeginIngest(context.Context, string, time.Time) (int64, error) { return 7, nil }

func (s *fakeSink) LoadCustomers(_ context.Context, rows []dummyapi.Customer) (int, error) {
	return len(rows), nil
}

func (s *fakeSink) LoadOrders(_ context.Context, rows []dummyapi.Order) (int, error) {
	return len(rows), nil
}

func (s *fakeSink) LoadTickets(_ context.Context, rows []dummyapi.Ticket) (int, error) {
	return len(rows), nil
}

func (s *fakeSink) FinishIngest(_ context.Context, _ int64, status string, _ int, _ time.Time) error {
	s.finished = status
	return nil
}

func openerFor(sink *fakeSink) sinkOpener {
	return func(context.Context, string) (ingestSink, error) { return sink, nil }
}

func TestRunClosesSinkWhenSchemaFails(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{schemaErr: errors.New("permission denied")}
	var out bytes.Buffer
	err := run(context.Background(), etl.Config{SourceURL: "http://127.0.0.1:1"}, openerFor(sink), &out)
	if err == nil || !strings.Contains(err.Error(), "prepare etl schema") {
		t.Fatalf("run() error = %v", err)
	}
	if !sink.closed {
		t.Fatal("sink was not closed")
	}
	if out.Len() != 0 {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestRunClosesSinkWhenIngestFails(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(gin.New())
	defer srv.Close()

	sink := &fakeSink{}
	err := run(context.Background(), etl.Config{SourceURL: srv.URL, Timeout: time.Second}, openerFor(sink), &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "ingest 7") {
		t.Fatalf("run() error = %v", err)
	}
	if !sink.closed || sink.finished != etl.StatusFailed {
		t.Fatalf("closed=%v finished=%q", sink.closed, sink.finished)
	}
}

func TestRunReportsLoadedRecords(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(dummyapi.NewEngine(dummyapi.SampleDataset()))
	defer srv.Close()

	sink := &fakeSink{}
	var out bytes.Buffer
	if err := run(context.Background(), etl.Config{SourceURL: srv.URL, Timeout: time.Second}, openerFor(sink), &out); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if !sink.closed {
		t.Fatal("sink was not closed")
	}
	if !strings.HasPrefix(out.String(), "ETL completed from ") || !strings.Contains(out.String(), "(ingest 7)") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestRunWrapsOpenFailure(t *testing.T) {
	t.Parallel()

	open := func(context.Context, string) (ingestSink, error) { return nil, etl.ErrNoDatabase }
	err := run(context.Background(), etl.Config{}, open, &bytes.Buffer{})
	if !errors.Is(err, etl.ErrNoDatabase) {
		t.Fatalf("run() error = %v", err)
	}
}
