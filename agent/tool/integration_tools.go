package tool

import (
	"context"

	"github.com/cloudwego/eino/schema"

	integrationx "github.com/tanpawarit/driftdesk-agent/agent/integration"
)

type Escalator interface {
	Escalate(ctx context.Context, in integrationx.Escalation) (integrationx.EscalationResult, error)
}

type CalendarClient interface {
	CheckAvailability(ctx context.Context, req integrationx.AvailabilityRequest) (any, error)
	ScheduleEvent(ctx context.Context, req integrationx.EventRequest) (any, error)
}

type CRMClient interface {
	CreateContact(ctx context.Context, contact integrationx.Contact) (any, error)
}

type escalateSupportEmailTool struct {
	escalator Escalator
}

func (escalateSupportEmailTool) Spec() Spec {
	return Spec{
		Name: EscalateSupportEmail,
		Desc: "Send an escalation email to support staff. Markdown in the body is rendered as HTML.",
		Params: map[string]*schema.ParameterInfo{
			"customer_email": str("Customer email address", true),
			"subject":        str("Email subject", true),
			"body":           str("Email body, plain text or markdown", true),
			"priority":       str("low, normal, high or urgent (default normal)", false),
		},
		Defaults: map[string]any{"priority": "normal"},
	}
}

func (t escalateSupportEmailTool) Invoke(ctx context.Context, args Args) (any, error) {
	if t.escalator == nil {
		return nil, failf("email escalation is not configured")
	}
	return t.escalator.Escalate(ctx, integrationx.Escalation{
		CustomerEmail: args.String("customer_email"),
		Subject:       args.String("subject"),
		Body:          args.String("body"),
		Priority:      args.String("priority"),
	})
}

type checkCalendarAvailabilityTool struct {
	calendar CalendarClient
}

func (checkCalendarAvailabilityTool) Spec() Spec {
	return Spec{
		Name: CheckCalendarAvailability,
		Desc: "Check free/busy availability on a calendar between two ISO-8601 timestamps.",
		Params: map[string]*schema.ParameterInfo{
			"calendar_id": str("Calendar identifier", true),
			"start":       str("Window start, ISO-8601", true),
			"end":         str("Window end, ISO-8601", true),
			"timezone":    str("IANA timezone (default UTC)", false),
		},
		Defaults: map[string]any{"timezone": "UTC"},
	}
}

func (t checkCalendarAvailabilityTool) Invoke(ctx context.Context, args Args) (any, error) {
	if t.calendar == nil {
		return nil, failf("calendar integration is not configured")
	}
	return t.calendar.CheckAvailability(ctx, integrationx.AvailabilityRequest{
		CalendarID: args.String("calendar_id"),
		Start:      args.String("start"),
		End:        args.String("end"),
		Timezone:   args.String("timezone"),
	})
}

type scheduleCalendarEventTool struct {
	calendar CalendarClient
}

func (scheduleCalendarEventTool) Spec() Spec {
	return Spec{
		Name: ScheduleCalendarEvent,
		Desc: "Create a new event on a calendar.",
		Params: map[string]*schema.ParameterInfo{
			"calendar_id": str("Calendar identifier", true),
			"title":       str("Event title", true),
			"start":       str("Event start, ISO-8601", true),
			"end":         str("Event end, ISO-8601", true),
			"attendees":   strList("Attendee email addresses"),
			"timezone":    str("IANA timezone (default UTC)", false),
			"description": str("Event description", false),
			"location":    str("Event location", false),
		},
		Defaults: map[string]any{"timezone": "UTC"},
	}
}

func (t scheduleCalendarEventTool) Invoke(ctx context.Context, args Args) (any, error) {
	if t.calendar == nil {
		return nil, failf("calendar integration is not configured")
	}
	return t.calendar.ScheduleEvent(ctx, integrationx.EventRequest{
		CalendarID:  args.String("calendar_id"),
		Title:       args.String("title"),
		Start:       args.String("start"),
		End:         args.String("end"),
		Timezone:    args.String("timezone"),
		Attendees:   args.Strings("attendees"),
		Description: args.OptString("description"),
		Location:    args.OptString("location"),
	})
}

type createCRMContactTool struct {
	crm CRMClient
}

func (createCRMContactTool) Spec() Spec {
	return Spec{
		Name: CreateCRMContact,
		Desc: "Capture a prospect email and create a CRM contact.",
		Params: map[string]*schema.ParameterInfo{
			"email":      str("Prospect email address", true),
			"first_name": str("First name", false),
			"last_name":  str("Last name", false),
			"company":    str("Company name", false),
			"phone":      str("Phone number", false),
			"source":     str("Lead source (default sales_agent)", false),
		},
		Defaults: map[string]any{"source": integrationx.DefaultContactSource},
	}
}

func (t createCRMContactTool) Invoke(ctx context.Context, args Args) (any, error) {
	if t.crm == nil {
		return nil, failf("crm integration is not configured")
	}
	return t.crm.CreateContact(ctx, integrationx.Contact{
		Email:     args.String("email"),
		FirstName: args.OptString("first_name"),
		LastName:  args.OptString("last_name"),
		Company:   args.OptString("company"),
		Phone:     args.OptString("phone"),
		Source:    args.String("source"),
	})
}
