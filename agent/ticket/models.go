package ticket

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	StatusOpen    = "open"
	StatusPending = "pending"
	StatusClosed  = "closed"

	DefaultPriority = "normal"
	DefaultChannel  = "chat"

	UpdateTypeCustomer   = "customer"
	UpdateTypeResolution = "resolution"

	recentUpdateLimit = 5
)

type Customer struct {
	bun.BaseModel `bun:"table:customers"`

	CustomerID int64  `bun:"customer_id,pk,autoincrement" json:"customer_id"`
	Email      string `bun:"email,notnull,unique" json:"email"`
	FullName   string `bun:"full_name,notnull" json:"full_name"`
}

type Ticket struct {
	bun.BaseModel `bun:"table:support_tickets"`

	TicketID   string     `bun:"ticket_id,pk" json:"ticket_id"`
	CustomerID int64      `bun:"customer_id,notnull" json:"customer_id"`
	OrderID    *string    `bun:"order_id" json:"order_id"`
	Subject    string     `bun:"subject,notnull" json:"subject"`
	Status     string     `bun:"status,notnull" json:"status"`
	Priority   string     `bun:"priority,notnull" json:"priority"`
	Channel    string     `bun:"channel,notnull" json:"channel"`
	CreatedAt  time.Time  `bun:"created_at,notnull" json:"created_at"`
	ClosedAt   *time.Time `bun:"closed_at" json:"closed_at"`
}

type Update struct {
	bun.BaseModel `bun:"table:ticket_updates"`

	UpdateID   int64     `bun:"update_id,pk,autoincrement" json:"-"`
	TicketID   string    `bun:"ticket_id,notnull" json:"-"`
	UpdateType string    `bun:"update_type,notnull" json:"update_type"`
	Note       string    `bun:"note,notnull" json:"note"`
	UpdatedAt  time.Time `bun:"updated_at,notnull" json:"updated_at"`
}

type Tag struct {
	bun.BaseModel `bun:"table:ticket_tags"`

	TicketID string `bun:"ticket_id,notnull,unique:ticket_tag" json:"ticket_id"`
	Tag      string `bun:"tag,notnull,unique:ticket_tag" json:"tag"`
}

// Summary is the row shape returned by ListOpen.
type Summary struct {
	TicketID  string    `json:"ticket_id"`
	Subject   string    `json:"subject"`
	Status    string    `json:"status"`
	Priority  string    `json:"priority"`
	CreatedAt time.Time `json:"created_at"`
}

type Detail struct {
	Ticket        Ticket   `json:"ticket"`
	RecentUpdates []Update `json:"recent_updates"`
	Tags          []string `json:"tags"`
}

type NewTicket struct {
	Email    string
	FullName string
	Subject  string
	Issue    string
	OrderID  string
	Priority string
	Channel  string
	Tags     []string
}
