package ticket

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

func steppingClock() func() time.Time {
	var mu sync.Mutex
	current := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Second)
		return current
	}
}

func newTestStore(t *testing.T, opts ...Option) (*Store, *bun.DB) {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	sqldb, err := sql.Open(sqliteshim.ShimName, fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	// One connection keeps the shared in-memory database usable; sqlite runs
	// the transactions one after another. TestPgConcurrentTicketsShareOneCustomer
	// covers truly parallel writers.
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	store := NewStore(db, append([]Option{WithClock(steppingClock())}, opts...)...)
	require.NoError(t, store.CreateSchema(context.Background()))
	return store, db
}

func sampleTicket() NewTicket {
	return NewTicket{
		Email:    "jane@example.com",
		FullName: "Jane Doe",
		Subject:  "Late delivery",
		Issue:    "Order has not arrived",
		OrderID:  "ORD-1001",
		Tags:     []string{"shipping", "shipping", " ", "vip"},
	}
}

func countUpdates(t *testing.T, db *bun.DB, ticketID string) int {
	t.Helper()
	n, err := db.NewSelect().Model((*Update)(nil)).Where("ticket_id = ?", ticketID).Count(context.Background())
	require.NoError(t, err)
	return n
}

func TestContentIDIsStable(t *testing.T) {
	t.Parallel()

	a := ContentID("issue", "a@b.c", "", "normal")
	b := ContentID("issue", "a@b.c", "", "normal")
	c := ContentID("issue", "a@b.c", "ORD-1", "normal")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Regexp(t, regexp.MustCompile(`^TCK-[0-9A-F]{8}$`), a)
}

func TestRandomIDIsFreshEachCall(t *testing.T) {
	t.Parallel()

	a, b := RandomID(), RandomID()
	assert.NotEqual(t, a, b)
	assert.Regexp(t, regexp.MustCompile(`^TCK-[0-9A-F]{12}$`), a)
}

func sequenceIDs(ids ...string) func() string {
	var mu sync.Mutex
	i := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		id := ids[min(i, len(ids)-1)]
		i++
		return id
	}
}

func countTickets(t *testing.T, db *bun.DB) int {
	t.Helper()
	n, err := db.NewSelect().Model((*Ticket)(nil)).Count(context.Background())
	require.NoError(t, err)
	return n
}

func TestCreateTicketWritesInitialUpdateAndTags(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, db := newTestStore(t)

	created, err := store.CreateTicket(ctx, sampleTicket())
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, created.Status)
	assert.Equal(t, DefaultPriority, created.Priority)
	assert.Equal(t, DefaultChannel, created.Channel)
	require.NotNil(t, created.OrderID)
	assert.Equal(t, "ORD-1001", *created.OrderID)

	detail, err := store.GetTicket(ctx, created.TicketID)
	require.NoError(t, err)
	assert.Equal(t, created.TicketID, detail.Ticket.TicketID)
	assert.Nil(t, detail.Ticket.ClosedAt)
	require.Len(t, detail.RecentUpdates, 1)
	assert.Equal(t, UpdateTypeCustomer, detail.RecentUpdates[0].UpdateType)
	assert.Equal(t, "Order has not arrived", detail.RecentUpdates[0].Note)
	assert.Equal(t, []string{"shipping", "vip"}, detail.Tags)
	assert.Equal(t, 1, countUpdates(t, db, created.TicketID))
}

func TestCreateTicketRepeatedRequestIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	pub := &recordingPublisher{}
	store, db := newTestStore(t, WithPublisher(pub))

	first, err := store.CreateTicket(ctx, sampleTicket())
	require.NoError(t, err)
	second, err := store.CreateTicket(ctx, sampleTicket())
	require.NoError(t, err)

	assert.Equal(t, first.TicketID, second.TicketID)
	assert.Equal(t, 1, countUpdates(t, db, first.TicketID))
	assert.Equal(t, []string{EventCreated}, pub.types())
}

func TestCreateTicketIDCollisionKeepsCustomersApart(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, db := newTestStore(t, WithIDGenerator(func() string { return "TCK-48341C37" }))

	first, err := store.CreateTicket(ctx, sampleTicket())
	require.NoError(t, err)

	other := sampleTicket()
	other.Email = "sam@example.com"
	other.FullName = "Sam"
	_, err = store.CreateTicket(ctx, other)
	require.ErrorIs(t, err, ErrIDConflict)

	assert.Equal(t, 1, countTickets(t, db))
	detail, err := store.GetTicket(ctx, first.TicketID)
	require.NoError(t, err)
	assert.Equal(t, first.CustomerID, detail.Ticket.CustomerID)
	assert.Equal(t, 1, countUpdates(t, db, first.TicketID))

	samCount, err := db.NewSelect().Model((*Customer)(nil)).Where("email = ?", "sam@example.com").Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, samCount)
}

func TestCreateTicketRetriesTakenID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, db := newTestStore(t, WithIDGenerator(sequenceIDs("TCK-AAAA", "TCK-AAAA", "TCK-BBBB")))

	first, err := store.CreateTicket(ctx, sampleTicket())
	require.NoError(t, err)
	assert.Equal(t, "TCK-AAAA", first.TicketID)

	other := sampleTicket()
	other.Email = "sam@example.com"
	second, err := store.CreateTicket(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, "TCK-BBBB", second.TicketID)
	assert.NotEqual(t, first.CustomerID, second.CustomerID)
	assert.Equal(t, 1, countUpdates(t, db, "TCK-AAAA"))
	assert.Equal(t, 1, countUpdates(t, db, "TCK-BBBB"))
}

func TestCreateTicketAfterCloseOpensFreshTicket(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	pub := &recordingPublisher{}
	store, db := newTestStore(t, WithPublisher(pub))

	first, err := store.CreateTicket(ctx, sampleTicket())
	require.NoError(t, err)
	require.NoError(t, store.Close(ctx, first.TicketID, "Delivered"))

	again, err := store.CreateTicket(ctx, sampleTicket())
	require.NoError(t, err)
	assert.NotEqual(t, first.TicketID, again.TicketID)
	assert.Equal(t, StatusOpen, again.Status)
	assert.Equal(t, 1, countUpdates(t, db, again.TicketID))
	assert.Equal(t, 2, countTickets(t, db))

	detail, err := store.GetTicket(ctx, again.TicketID)
	require.NoError(t, err)
	assert.Equal(t, []string{"shipping", "vip"}, detail.Tags)
	assert.Equal(t, []string{EventCreated, EventClosed, EventCreated}, pub.types())

	repeat, err := store.CreateTicket(ctx, sampleTicket())
	require.NoError(t, err)
	assert.Equal(t, again.TicketID, repeat.TicketID)
}

func TestCreateTicketDifferentIssueIsNotDuplicate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, db := newTestStore(t)

	first, err := store.CreateTicket(ctx, sampleTicket())
	require.NoError(t, err)

	in := sampleTicket()
	in.Issue = "Tracking page shows an error"
	second, err := store.CreateTicket(ctx, in)
	require.NoError(t, err)
	assert.NotEqual(t, first.TicketID, second.TicketID)

	in = sampleTicket()
	in.OrderID = ""
	third, err := store.CreateTicket(ctx, in)
	require.NoError(t, err)
	assert.NotEqual(t, first.TicketID, third.TicketID)
	assert.Equal(t, 3, countTickets(t, db))
}

func TestGetOrCreateCustomerLatestNameWins(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, db := newTestStore(t)

	id1, err := store.GetOrCreateCustomer(ctx, "sam@example.com", "Sam")
	require.NoError(t, err)
	id2, err := store.GetOrCreateCustomer(ctx, "sam@example.com", "Samuel Smith")
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	var c Customer
	require.NoError(t, db.NewSelect().Model(&c).Where("email = ?", "sam@example.com").Scan(ctx))
	assert.Equal(t, "Samuel Smith", c.FullName)

	_, err = store.GetOrCreateCustomer(ctx, "  ", "Nobody")
	require.ErrorIs(t, err, ErrInvalidTicket)
}

func TestConcurrentTicketsShareOneCustomer(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, db := newTestStore(t)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := sampleTicket()
			in.Subject = fmt.Sprintf("Issue %d", i)
			if _, err := store.CreateTicket(ctx, in); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	customers, err := db.NewSelect().Model((*Customer)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, customers)

	tickets, err := store.ListOpen(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, tickets, workers)
}

// Runs against a real Postgres when TICKET_TEST_DATABASE_DSN is set.
func TestPgConcurrentTicketsShareOneCustomer(t *testing.T) {
	dsn := os.Getenv("TICKET_TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TICKET_TEST_DATABASE_DSN not set")
	}

	ctx := context.Background()
	db, err := Open(Config{DSN: dsn, MaxOpenConns: 8, Timeout: 5 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := NewStore(db)
	require.NoError(t, store.CreateSchema(ctx))

	email := strings.ToLower(RandomID()) + "@example.com"
	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := sampleTicket()
			in.Email = email
			in.Subject = fmt.Sprintf("Issue %d", i)
			if _, err := store.CreateTicket(ctx, in); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	var customerIDs []int64
	require.NoError(t, db.NewSelect().Model((*Customer)(nil)).Column("customer_id").Where("email = ?", email).Scan(ctx, &customerIDs))
	require.Len(t, customerIDs, 1)

	tickets, err := db.NewSelect().Model((*Ticket)(nil)).Where("customer_id = ?", customerIDs[0]).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, workers, tickets)
}

func TestAddUpdateUnknownTicket(t *testing.T) {
	t.Parallel()
	store, _ := newTestStore(t)

	err := store.AddUpdate(context.Background(), "TCK-MISSING", "agent", "hello")
	require.ErrorIs(t, err, ErrTicketNotFound)
}

func TestGetTicketReturnsFiveNewestUpdates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, _ := newTestStore(t)

	created, err := store.CreateTicket(ctx, sampleTicket())
	require.NoError(t, err)
	for i := 1; i <= 6; i++ {
		require.NoError(t, store.AddUpdate(ctx, created.TicketID, "agent", fmt.Sprintf("note %d", i)))
	}

	detail, err := store.GetTicket(ctx, created.TicketID)
	require.NoError(t, err)
	require.Len(t, detail.RecentUpdates, 5)
	assert.Equal(t, "note 6", detail.RecentUpdates[0].Note)
	assert.Equal(t, "note 2", detail.RecentUpdates[4].Note)

	_, err = store.GetTicket(ctx, "TCK-MISSING")
	require.ErrorIs(t, err, ErrTicketNotFound)
}

func TestCloseTicket(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	pub := &recordingPublisher{}
	store, db := newTestStore(t, WithPublisher(pub))

	created, err := store.CreateTicket(ctx, sampleTicket())
	require.NoError(t, err)
	require.NoError(t, store.Close(ctx, created.TicketID, "Refund issued"))

	detail, err := store.GetTicket(ctx, created.TicketID)
	require.NoError(t, err)
	assert.Equal(t, StatusClosed, detail.Ticket.Status)
	require.NotNil(t, detail.Ticket.ClosedAt)
	assert.Equal(t, UpdateTypeResolution, detail.RecentUpdates[0].UpdateType)
	assert.Equal(t, "Refund issued", detail.RecentUpdates[0].Note)

	open, err := store.ListOpen(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, open)

	assert.Equal(t, []string{EventCreated, EventClosed}, pub.types())
	assert.Equal(t, 2, countUpdates(t, db, created.TicketID))
}

func TestCloseUnknownTicketWritesNothing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, db := newTestStore(t)

	err := store.Close(ctx, "TCK-MISSING", "done")
	require.ErrorIs(t, err, ErrTicketNotFound)
	assert.Equal(t, 0, countUpdates(t, db, "TCK-MISSING"))
}

func TestListOpenNewestFirstWithClampedLimit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, _ := newTestStore(t)

	var ids []string
	for i := 0; i < 3; i++ {
		in := sampleTicket()
		in.Subject = fmt.Sprintf("Subject %d", i)
		created, err := store.CreateTicket(ctx, in)
		require.NoError(t, err)
		ids = append(ids, created.TicketID)
	}

	all, err := store.ListOpen(ctx, 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ids[2], all[0].TicketID)
	assert.Equal(t, ids[0], all[2].TicketID)

	one, err := store.ListOpen(ctx, 0)
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, ids[2], one[0].TicketID)
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	pub := &recordingPublisher{err: errors.New("broker down")}
	store, _ := newTestStore(t, WithPublisher(pub))

	created, err := store.CreateTicket(ctx, sampleTicket())
	require.NoError(t, err)
	require.NoError(t, store.AddUpdate(ctx, created.TicketID, "agent", "looking into it"))
	assert.Equal(t, []string{EventCreated, EventUpdated}, pub.types())
}

func TestCreateTicketRequiresSubjectAndIssue(t *testing.T) {
	t.Parallel()
	store, _ := newTestStore(t)

	in := sampleTicket()
	in.Issue = " "
	_, err := store.CreateTicket(context.Background(), in)
	require.ErrorIs(t, err, ErrInvalidTicket)
}
