package tool

import (
	"context"
	"errors"

	"github.com/cloudwego/eino/schema"

	ticketx "github.com/tanpawarit/driftdesk-agent/agent/ticket"
)

type TicketStore interface {
	CreateTicket(ctx context.Context, in ticketx.NewTicket) (ticketx.Ticket, error)
	AddUpdate(ctx context.Context, ticketID, updateType, note string) error
	GetTicket(ctx context.Context, ticketID string) (ticketx.Detail, error)
	ListOpen(ctx context.Context, limit int) ([]ticketx.Summary, error)
	Close(ctx context.Context, ticketID, resolutionNote string) error
}

type ticketStatus struct {
	TicketID string `json:"ticket_id"`
	Status   string `json:"status"`
}

type openTickets struct {
	Tickets []ticketx.Summary `json:"tickets"`
	Count   int               `json:"count"`
}

func ticketError(err error, ticketID string) error {
	if errors.Is(err, ticketx.ErrTicketNotFound) {
		return failf("Ticket not found: %s", ticketID)
	}
	return err
}

type ticketTool struct {
	store TicketStore
}

func (t ticketTool) ready() error {
	if t.store == nil {
		return ticketx.ErrNotConfigured
	}
	return nil
}

type createSupportTicketTool struct{ ticketTool }

func (createSupportTicketTool) Spec() Spec {
	return Spec{
		Name: CreateSupportTicket,
		Desc: "Create a support ticket in the ticket database.",
		Params: map[string]*schema.ParameterInfo{
			"email":     str("Customer email address", true),
			"full_name": str("Customer full name", true),
			"subject":   str("Short ticket subject", true),
			"issue":     str("Description of the problem", true),
			"order_id":  str("Related order identifier", false),
			"priority":  str("low, normal, high or urgent (default normal)", false),
			"channel":   str("Contact channel (default chat)", false),
			"tags":      strList("Labels to attach to the ticket"),
		},
		Defaults: map[string]any{
			"priority": ticketx.DefaultPriority,
			"channel":  ticketx.DefaultChannel,
		},
	}
}

func (t createSupportTicketTool) Invoke(ctx context.Context, args Args) (any, error) {
	if err := t.ready(); err != nil {
		return nil, err
	}
	created, err := t.store.CreateTicket(ctx, ticketx.NewTicket{
		Email:    args.String("email"),
		FullName: args.String("full_name"),
		Subject:  args.String("subject"),
		Issue:    args.String("issue"),
		OrderID:  args.String("order_id"),
		Priority: args.String("priority"),
		Channel:  args.String("channel"),
		Tags:     args.Strings("tags"),
	})
	if err != nil {
		return nil, err
	}
	return ticketStatus{TicketID: created.TicketID, Status: created.Status}, nil
}

type addTicketUpdateTool struct{ ticketTool }

func (addTicketUpdateTool) Spec() Spec {
	return Spec{
		Name: AddTicketUpdate,
		Desc: "Append an update to a support ticket.",
		Params: map[string]*schema.ParameterInfo{
			"ticket_id":   str("Ticket identifier, e.g. TCK-1A2B3C4D", true),
			"update_type": str("Kind of update, e.g. agent, customer or internal", true),
			"note":        str("Update text", true),
		},
	}
}

func (t addTicketUpdateTool) Invoke(ctx context.Context, args Args) (any, error) {
	if err := t.ready(); err != nil {
		return nil, err
	}
	ticketID := args.String("ticket_id")
	if err := t.store.AddUpdate(ctx, ticketID, args.String("update_type"), args.String("note")); err != nil {
		return nil, ticketError(err, ticketID)
	}
	return ticketStatus{TicketID: ticketID, Status: "updated"}, nil
}

type getTicketTool struct{ ticketTool }

func (getTicketTool) Spec() Spec {
	return Spec{
		Name: GetTicket,
		Desc: "Fetch a support ticket with its recent updates and tags.",
		Params: map[string]*schema.ParameterInfo{
			"ticket_id": str("Ticket identifier", true),
		},
	}
}

func (t getTicketTool) Invoke(ctx context.Context, args Args) (any, error) {
	if err := t.ready(); err != nil {
		return nil, err
	}
	ticketID := args.String("ticket_id")
	detail, err := t.store.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, ticketError(err, ticketID)
	}
	return detail, nil
}

type listOpenTicketsTool struct{ ticketTool }

func (listOpenTicketsTool) Spec() Spec {
	return Spec{
		Name: ListOpenTickets,
		Desc: "List open or pending support tickets, newest first.",
		Params: map[string]*schema.ParameterInfo{
			"limit": integer("Maximum number of tickets (default 10)"),
		},
		Defaults: map[string]any{"limit": 10},
	}
}

func (t listOpenTicketsTool) Invoke(ctx context.Context, args Args) (any, error) {
	if err := t.ready(); err != nil {
		return nil, err
	}
	tickets, err := t.store.ListOpen(ctx, max(args.Int("limit"), 1))
	if err != nil {
		return nil, err
	}
	return openTickets{Tickets: tickets, Count: len(tickets)}, nil
}

type closeTicketTool struct{ ticketTool }

func (closeTicketTool) Spec() Spec {
	return Spec{
		Name: CloseTicket,
		Desc: "Close a support ticket with a resolution note.",
		Params: map[string]*schema.ParameterInfo{
			"ticket_id":       str("Ticket identifier", true),
			"resolution_note": str("How the issue was resolved", true),
		},
	}
}

func (t closeTicketTool) Invoke(ctx context.Context, args Args) (any, error) {
	if err := t.ready(); err != nil {
		return nil, err
	}
	ticketID := args.String("ticket_id")
	if err := t.store.Close(ctx, ticketID, args.String("resolution_note")); err != nil {
		return nil, ticketError(err, ticketID)
	}
	return ticketStatus{TicketID: ticketID, Status: ticketx.StatusClosed}, nil
}
