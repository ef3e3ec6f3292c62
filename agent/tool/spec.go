package tool

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/schema"
)

const (
	SearchProducts            = "search_products"
	SearchProductVectors      = "search_product_vectors"
	GetPricing                = "get_pricing"
	CheckOrderStatus          = "check_order_status"
	OpenSupportTicket         = "open_support_ticket"
	CreateSupportTicket       = "create_support_ticket"
	AddTicketUpdate           = "add_ticket_update"
	GetTicket                 = "get_ticket"
	ListOpenTickets           = "list_open_tickets"
	CloseTicket               = "close_ticket"
	EscalateSupportEmail      = "escalate_support_email"
	CheckCalendarAvailability = "check_calendar_availability"
	ScheduleCalendarEvent     = "schedule_calendar_event"
	CreateCRMContact          = "create_crm_contact"
)

// Tool is one named operation the agents may call. Invoke receives arguments
// that already passed validation against Spec.
type Tool interface {
	Spec() Spec
	Invoke(ctx context.Context, args Args) (any, error)
}

type Spec struct {
	Name     string
	Desc     string
	Params   map[string]*schema.ParameterInfo
	Defaults map[string]any
}

func (s Spec) Info() *schema.ToolInfo {
	info := &schema.ToolInfo{Name: s.Name, Desc: s.Desc}
	if len(s.Params) > 0 {
		info.ParamsOneOf = schema.NewParamsOneOfByParams(s.Params)
	}
	return info
}

// Failure is a tool error whose message is meant for the model verbatim.
type Failure struct {
	Msg string
}

func (f *Failure) Error() string { return f.Msg }

func failf(format string, args ...any) error {
	return &Failure{Msg: fmt.Sprintf(format, args...)}
}

func failureMessage(err error) string {
	var f *Failure
	if errors.As(err, &f) {
		return f.Msg
	}
	return err.Error()
}

func str(desc string, required bool) *schema.ParameterInfo {
	return &schema.ParameterInfo{Type: schema.String, Desc: desc, Required: required}
}

func integer(desc string) *schema.ParameterInfo {
	return &schema.ParameterInfo{Type: schema.Integer, Desc: desc}
}

func strList(desc string) *schema.ParameterInfo {
	return &schema.ParameterInfo{
		Type:     schema.Array,
		Desc:     desc,
		ElemInfo: &schema.ParameterInfo{Type: schema.String},
	}
}
