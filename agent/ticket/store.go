package ticket

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
)

// idAttempts bounds how many fresh ids CreateTicket tries before giving up.
const idAttempts = 3

type Store struct {
	db     *bun.DB
	events Publisher
	now    func() time.Time
	newID  func() string
}

type Option func(*Store)

func WithPublisher(p Publisher) Option {
	return func(s *Store) {
		if p != nil {
			s.events = p
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

func NewStore(db *bun.DB, opts ...Option) *Store {
	s := &Store{
		db:     db,
		events: NopPublisher{},
		now:    func() time.Time { return time.Now().UTC() },
		newID:  RandomID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) CreateSchema(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().Model((*Customer)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("create customers table: %w", err)
	}
	if _, err := s.db.NewCreateTable().
		Model((*Ticket)(nil)).
		IfNotExists().
		ForeignKey(`("customer_id") REFERENCES "customers" ("customer_id")`).
		Exec(ctx); err != nil {
		return fmt.Errorf("create support_tickets table: %w", err)
	}
	if _, err := s.db.NewCreateTable().
		Model((*Update)(nil)).
		IfNotExists().
		ForeignKey(`("ticket_id") REFERENCES "support_tickets" ("ticket_id")`).
		Exec(ctx); err != nil {
		return fmt.Errorf("create ticket_updates table: %w", err)
	}
	if _, err := s.db.NewCreateTable().
		Model((*Tag)(nil)).
		IfNotExists().
		ForeignKey(`("ticket_id") REFERENCES "support_tickets" ("ticket_id")`).
		Exec(ctx); err != nil {
		return fmt.Errorf("create ticket_tags table: %w", err)
	}
	if _, err := s.db.NewCreateIndex().
		Model((*Update)(nil)).
		Index("ticket_updates_ticket_id_idx").
		IfNotExists().
		Column("ticket_id", "updated_at").
		Exec(ctx); err != nil {
		return fmt.Errorf("create ticket_updates index: %w", err)
	}
	return nil
}

// GetOrCreateCustomer resolves a customer by email in one statement. The
// stored full name is replaced by the latest one supplied.
func (s *Store) GetOrCreateCustomer(ctx context.Context, email, fullName string) (int64, error) {
	return getOrCreateCustomer(ctx, s.db, email, fullName)
}

func getOrCreateCustomer(ctx context.Context, db bun.IDB, email, fullName string) (int64, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return 0, fmt.Errorf("%w: email is required", ErrInvalidTicket)
	}

	customer := &Customer{Email: email, FullName: strings.TrimSpace(fullName)}
	var customerID int64
	if err := db.NewInsert().
		Model(customer).
		On("CONFLICT (email) DO UPDATE").
		Set("full_name = EXCLUDED.full_name").
		Returning("customer_id").
		Scan(ctx, &customerID); err != nil {
		return 0, fmt.Errorf("upsert customer %s: %w", email, err)
	}
	return customerID, nil
}

// CreateTicket opens a ticket together with its originating update and tags.
// A request matching an open or pending ticket of the same customer (subject,
// order and issue) returns that ticket without writing anything. Otherwise a
// new ticket is opened under a fresh id, even when an identical ticket was
// closed before.
func (s *Store) CreateTicket(ctx context.Context, in NewTicket) (Ticket, error) {
	in = normalizeNewTicket(in)
	if in.Subject == "" || in.Issue == "" {
		return Ticket{}, fmt.Errorf("%w: subject and issue are required", ErrInvalidTicket)
	}

	now := s.now()
	var (
		out     Ticket
		created bool
	)
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		customerID, err := getOrCreateCustomer(ctx, tx, in.Email, in.FullName)
		if err != nil {
			return err
		}

		existing, found, err := findActiveDuplicate(ctx, tx, customerID, in)
		if err != nil {
			return err
		}
		if found {
			out = existing
			return nil
		}

		t := &Ticket{
			CustomerID: customerID,
			Subject:    in.Subject,
			Status:     StatusOpen,
			Priority:   in.Priority,
			Channel:    in.Channel,
			CreatedAt:  now,
		}
		if in.OrderID != "" {
			orderID := in.OrderID
			t.OrderID = &orderID
		}
		if err := s.insertWithFreshID(ctx, tx, t); err != nil {
			return err
		}

		update := &Update{TicketID: t.TicketID, UpdateType: UpdateTypeCustomer, Note: in.Issue, UpdatedAt: now}
		if _, err := tx.NewInsert().Model(update).Exec(ctx); err != nil {
			return fmt.Errorf("insert initial update for %s: %w", t.TicketID, err)
		}

		if len(in.Tags) > 0 {
			tags := make([]Tag, 0, len(in.Tags))
			for _, tag := range in.Tags {
				tags = append(tags, Tag{TicketID: t.TicketID, Tag: tag})
			}
			if _, err := tx.NewInsert().Model(&tags).On("CONFLICT (ticket_id, tag) DO NOTHING").Exec(ctx); err != nil {
				return fmt.Errorf("insert tags for %s: %w", t.TicketID, err)
			}
		}

		out = *t
		created = true
		return nil
	})
	if err != nil {
		return Ticket{}, err
	}

	if created {
		s.publish(ctx, Event{Type: EventCreated, TicketID: out.TicketID, Status: StatusOpen, At: now})
	} else {
		log.Ctx(ctx).Debug().Str("ticket_id", out.TicketID).Msg("open ticket already exists")
	}
	return out, nil
}

// insertWithFreshID stores t under a newly generated id. An id already held
// by another ticket is never reused.
func (s *Store) insertWithFreshID(ctx context.Context, tx bun.Tx, t *Ticket) error {
	for attempt := 0; attempt < idAttempts; attempt++ {
		t.TicketID = s.newID()
		res, err := tx.NewInsert().Model(t).On("CONFLICT (ticket_id) DO NOTHING").Exec(ctx)
		if err != nil {
			return fmt.Errorf("insert ticket %s: %w", t.TicketID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			return nil
		}
		log.Ctx(ctx).Warn().Str("ticket_id", t.TicketID).Msg("ticket id collision, retrying")
	}
	return fmt.Errorf("%w: %s after %d attempts", ErrIDConflict, t.TicketID, idAttempts)
}

func findActiveDuplicate(ctx context.Context, tx bun.Tx, customerID int64, in NewTicket) (Ticket, bool, error) {
	issueNotes := tx.NewSelect().
		Model((*Update)(nil)).
		Column("ticket_id").
		Where("update_type = ?", UpdateTypeCustomer).
		Where("note = ?", in.Issue)

	var t Ticket
	q := tx.NewSelect().
		Model(&t).
		Where("?TableAlias.customer_id = ?", customerID).
		Where("?TableAlias.subject = ?", in.Subject).
		Where("?TableAlias.status IN (?)", bun.In([]string{StatusOpen, StatusPending})).
		Where("?TableAlias.ticket_id IN (?)", issueNotes).
		OrderExpr("?TableAlias.created_at DESC").
		Limit(1)
	if in.OrderID == "" {
		q = q.Where("?TableAlias.order_id IS NULL")
	} else {
		q = q.Where("?TableAlias.order_id = ?", in.OrderID)
	}

	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Ticket{}, false, nil
		}
		return Ticket{}, false, fmt.Errorf("lookup open duplicate: %w", err)
	}
	return t, true, nil
}

func (s *Store) AddUpdate(ctx context.Context, ticketID, updateType, note string) error {
	now := s.now()
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().Model((*Ticket)(nil)).Where("ticket_id = ?", ticketID).Exists(ctx)
		if err != nil {
			return fmt.Errorf("lookup ticket %s: %w", ticketID, err)
		}
		if !exists {
			return fmt.Errorf("%w: %s", ErrTicketNotFound, ticketID)
		}

		update := &Update{TicketID: ticketID, UpdateType: updateType, Note: note, UpdatedAt: now}
		if _, err := tx.NewInsert().Model(update).Exec(ctx); err != nil {
			return fmt.Errorf("insert update for %s: %w", ticketID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, Event{Type: EventUpdated, TicketID: ticketID, UpdateType: updateType, At: now})
	return nil
}

func (s *Store) GetTicket(ctx context.Context, ticketID string) (Detail, error) {
	var t Ticket
	if err := s.db.NewSelect().Model(&t).Where("ticket_id = ?", ticketID).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Detail{}, fmt.Errorf("%w: %s", ErrTicketNotFound, ticketID)
		}
		return Detail{}, fmt.Errorf("select ticket %s: %w", ticketID, err)
	}

	updates := make([]Update, 0, recentUpdateLimit)
	if err := s.db.NewSelect().
		Model(&updates).
		Where("ticket_id = ?", ticketID).
		OrderExpr("updated_at DESC, update_id DESC").
		Limit(recentUpdateLimit).
		Scan(ctx); err != nil {
		return Detail{}, fmt.Errorf("select updates for %s: %w", ticketID, err)
	}

	tags := make([]string, 0)
	if err := s.db.NewSelect().
		Model((*Tag)(nil)).
		Column("tag").
		Where("ticket_id = ?", ticketID).
		Order("tag").
		Scan(ctx, &tags); err != nil {
		return Detail{}, fmt.Errorf("select tags for %s: %w", ticketID, err)
	}

	return Detail{Ticket: t, RecentUpdates: updates, Tags: tags}, nil
}

// ListOpen returns open and pending tickets, newest first.
func (s *Store) ListOpen(ctx context.Context, limit int) ([]Summary, error) {
	var rows []Ticket
	if err := s.db.NewSelect().
		Model(&rows).
		Column("ticket_id", "subject", "status", "priority", "created_at").
		Where("status IN (?)", bun.In([]string{StatusOpen, StatusPending})).
		OrderExpr("created_at DESC").
		Limit(max(limit, 1)).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("list open tickets: %w", err)
	}

	out := make([]Summary, 0, len(rows))
	for _, t := range rows {
		out = append(out, Summary{
			TicketID:  t.TicketID,
			Subject:   t.Subject,
			Status:    t.Status,
			Priority:  t.Priority,
			CreatedAt: t.CreatedAt,
		})
	}
	return out, nil
}

// Close marks the ticket closed and records the resolution note. Nothing is
// written when the ticket does not exist.
func (s *Store) Close(ctx context.Context, ticketID, resolutionNote string) error {
	now := s.now()
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*Ticket)(nil)).
			Set("status = ?", StatusClosed).
			Set("closed_at = ?", now).
			Where("ticket_id = ?", ticketID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("close ticket %s: %w", ticketID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: %s", ErrTicketNotFound, ticketID)
		}

		update := &Update{TicketID: ticketID, UpdateType: UpdateTypeResolution, Note: resolutionNote, UpdatedAt: now}
		if _, err := tx.NewInsert().Model(update).Exec(ctx); err != nil {
			return fmt.Errorf("insert resolution for %s: %w", ticketID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, Event{Type: EventClosed, TicketID: ticketID, Status: StatusClosed, At: now})
	return nil
}

func (s *Store) publish(ctx context.Context, ev Event) {
	if err := s.events.Publish(ctx, ev); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("ticket_id", ev.TicketID).Str("event", ev.Type).Msg("publish ticket event failed")
	}
}

func normalizeNewTicket(in NewTicket) NewTicket {
	in.Email = strings.TrimSpace(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	in.Subject = strings.TrimSpace(in.Subject)
	in.Issue = strings.TrimSpace(in.Issue)
	in.OrderID = strings.TrimSpace(in.OrderID)
	in.Priority = strings.TrimSpace(in.Priority)
	if in.Priority == "" {
		in.Priority = DefaultPriority
	}
	in.Channel = strings.TrimSpace(in.Channel)
	if in.Channel == "" {
		in.Channel = DefaultChannel
	}

	seen := make(map[string]struct{}, len(in.Tags))
	tags := make([]string, 0, len(in.Tags))
	for _, tag := range in.Tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	in.Tags = tags
	return in
}
