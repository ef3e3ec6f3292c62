package integration

import "context"

type AvailabilityRequest struct {
	CalendarID string `json:"calendar_id"`
	Start      string `json:"start"`
	End        string `json:"end"`
	Timezone   string `json:"timezone"`
}

type EventRequest struct {
	CalendarID  string   `json:"calendar_id"`
	Title       string   `json:"title"`
	Start       string   `json:"start"`
	End         string   `json:"end"`
	Timezone    string   `json:"timezone"`
	Attendees   []string `json:"attendees"`
	Description *string  `json:"description"`
	Location    *string  `json:"location"`
}

type Calendar struct {
	poster *jsonPoster
}

func NewCalendar(cfg Config) *Calendar {
	return &Calendar{poster: newJSONPoster(cfg.GcalBaseURL, "MCP_GCAL_BASE_URL", cfg.Timeout)}
}

func (c *Calendar) CheckAvailability(ctx context.Context, req AvailabilityRequest) (any, error) {
	if req.Timezone == "" {
		req.Timezone = "UTC"
	}
	return c.poster.post(ctx, "/calendar/availability", req)
}

func (c *Calendar) ScheduleEvent(ctx context.Context, req EventRequest) (any, error) {
	if req.Timezone == "" {
		req.Timezone = "UTC"
	}
	if req.Attendees == nil {
		req.Attendees = []string{}
	}
	return c.poster.post(ctx, "/calendar/events", req)
}
