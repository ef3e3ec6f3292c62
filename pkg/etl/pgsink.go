package etl

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tanpawarit/driftdesk-agent/pkg/dummyapi"
)

var ErrNoDatabase = errors.New("etl database url is not configured")

// schemaDDL matches the tables created by the ticket store, plus the ETL
// owned orders and etl_ingest_log tables.
var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS customers (
		customer_id BIGSERIAL PRIMARY KEY,
		email VARCHAR NOT NULL UNIQUE,
		full_name VARCHAR NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		order_id VARCHAR PRIMARY KEY,
		customer_id BIGINT NOT NULL REFERENCES customers (customer_id),
		status VARCHAR NOT NULL,
		order_total NUMERIC(12, 2) NOT NULL,
		ordered_at DATE
	)`,
	`CREATE TABLE IF NOT EXISTS support_tickets (
		ticket_id VARCHAR PRIMARY KEY,
		customer_id BIGINT NOT NULL REFERENCES customers (customer_id),
		order_id VARCHAR,
		subject VARCHAR NOT NULL,
		status VARCHAR NOT NULL,
		priority VARCHAR NOT NULL,
		channel VARCHAR NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		closed_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS ticket_updates (
		update_id BIGSERIAL PRIMARY KEY,
		ticket_id VARCHAR NOT NULL REFERENCES support_tickets (ticket_id),
		update_type VARCHAR NOT NULL,
		note VARCHAR NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS ticket_tags (
		ticket_id VARCHAR NOT NULL REFERENCES support_tickets (ticket_id),
		tag VARCHAR NOT NULL,
		UNIQUE (ticket_id, tag)
	)`,
	`CREATE TABLE IF NOT EXISTS etl_ingest_log (
		ingest_id BIGSERIAL PRIMARY KEY,
		source VARCHAR NOT NULL,
		status VARCHAR NOT NULL,
		records_loaded INTEGER NOT NULL DEFAULT 0,
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ
	)`,
}

// PgSink writes ingest runs into Postgres through a pgx pool. Each load
// stage runs in its own transaction.
type PgSink struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewPgSink(ctx context.Context, databaseURL string) (*PgSink, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, ErrNoDatabase
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect etl database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping etl database: %w", err)
	}
	return &PgSink{pool: pool, now: time.Now}, nil
}

func (s *PgSink) Close() {
	s.pool.Close()
}

func (s *PgSink) EnsureSchema(ctx context.Context) error {
	for _, ddl := range schemaDDL {
		if _, err := s.pool.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("ensure etl schema: %w", err)
		}
	}
	return nil
}

func (s *PgSink) BeginIngest(ctx context.Context, source string, startedAt time.Time) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO etl_ingest_log (source, status, started_at) VALUES ($1, $2, $3) RETURNING ingest_id`,
		source, StatusRunning, startedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert ingest log: %w", err)
	}
	return id, nil
}

func (s *PgSink) FinishIngest(ctx context.Context, ingestID int64, status string, records int, finishedAt time.Time) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE etl_ingest_log SET status = $1, records_loaded = $2, finished_at = $3 WHERE ingest_id = $4`,
		status, records, finishedAt, ingestID,
	)
	if err != nil {
		return fmt.Errorf("update ingest log: %w", err)
	}
	return nil
}

func (s *PgSink) LoadCustomers(ctx context.Context, rows []dummyapi.Customer) (int, error) {
	return s.inTx(ctx, func(tx pgx.Tx) (int, error) {
		for _, c := range rows {
			if _, err := upsertCustomer(ctx, tx, c.Email, c.FullName, true); err != nil {
				return 0, err
			}
		}
		return len(rows), nil
	})
}

func (s *PgSink) LoadOrders(ctx context.Context, rows []dummyapi.Order) (int, error) {
	return s.inTx(ctx, func(tx pgx.Tx) (int, error) {
		for _, o := range rows {
			customerID, err := upsertCustomer(ctx, tx, o.CustomerEmail, nameFromEmail(o.CustomerEmail), false)
			if err != nil {
				return 0, err
			}
			orderedAt, err := parseDate(o.OrderedAt)
			if err != nil {
				return 0, fmt.Errorf("order %s: %w", o.OrderID, err)
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO orders (order_id, customer_id, status, order_total, ordered_at)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (order_id) DO UPDATE SET
					status = EXCLUDED.status,
					order_total = EXCLUDED.order_total,
					ordered_at = EXCLUDED.ordered_at`,
				o.OrderID, customerID, o.Status, o.OrderTotal, orderedAt,
			); err != nil {
				return 0, fmt.Errorf("upsert order %s: %w", o.OrderID, err)
			}
		}
		return len(rows), nil
	})
}

func (s *PgSink) LoadTickets(ctx context.Context, rows []dummyapi.Ticket) (int, error) {
	return s.inTx(ctx, func(tx pgx.Tx) (int, error) {
		for _, t := range rows {
			customerID, err := upsertCustomer(ctx, tx, t.CustomerEmail, nameFromEmail(t.CustomerEmail), false)
			if err != nil {
				return 0, err
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO support_tickets (ticket_id, customer_id, subject, status, priority, channel, created_at)
				VALUES ($1, $2, $3, 'open', $4, $5, $6)
				ON CONFLICT (ticket_id) DO UPDATE SET
					priority = EXCLUDED.priority,
					channel = EXCLUDED.channel`,
				t.TicketID, customerID, t.Subject, orDefault(t.Priority, "normal"), orDefault(t.Channel, "chat"), s.now().UTC(),
			); err != nil {
				return 0, fmt.Errorf("upsert ticket %s: %w", t.TicketID, err)
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO ticket_updates (ticket_id, update_type, note, updated_at)
				SELECT $1, 'customer', $2, $3
				WHERE NOT EXISTS (
					SELECT 1 FROM ticket_updates
					WHERE ticket_id = $1 AND update_type = 'customer' AND note = $2
				)`,
				t.TicketID, t.Issue, s.now().UTC(),
			); err != nil {
				return 0, fmt.Errorf("insert ticket update %s: %w", t.TicketID, err)
			}
			for _, tag := range t.Tags {
				if _, err := tx.Exec(ctx,
					`INSERT INTO ticket_tags (ticket_id, tag) VALUES ($1, $2) ON CONFLICT (ticket_id, tag) DO NOTHING`,
					t.TicketID, tag,
				); err != nil {
					return 0, fmt.Errorf("insert ticket tag %s: %w", t.TicketID, err)
				}
			}
		}
		return len(rows), nil
	})
}

func (s *PgSink) inTx(ctx context.Context, fn func(tx pgx.Tx) (int, error)) (int, error) {
	var n int
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		n, err = fn(tx)
		return err
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// upsertCustomer resolves a customer id by email. A derived placeholder name
// never overwrites a name loaded from the customers feed.
func upsertCustomer(ctx context.Context, tx pgx.Tx, email, fullName string, overwrite bool) (int64, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return 0, errors.New("customer email is empty")
	}

	query := `INSERT INTO customers (email, full_name) VALUES ($1, $2)
		ON CONFLICT (email) DO UPDATE SET full_name = customers.full_name
		RETURNING customer_id`
	if overwrite {
		query = `INSERT INTO customers (email, full_name) VALUES ($1, $2)
		ON CONFLICT (email) DO UPDATE SET full_name = EXCLUDED.full_name
		RETURNING customer_id`
	}

	var id int64
	if err := tx.QueryRow(ctx, query, email, fullName).Scan(&id); err != nil {
		return 0, fmt.Errorf("upsert customer %s: %w", email, err)
	}
	return id, nil
}

// nameFromEmail title-cases the local part: "morgan.lee@x" -> "Morgan.lee".
func nameFromEmail(email string) string {
	local, _, _ := strings.Cut(strings.TrimSpace(email), "@")
	if local == "" {
		return email
	}
	return strings.ToUpper(local[:1]) + strings.ToLower(local[1:])
}

func parseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid date %q", raw)
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}
