package integration

import "context"

const DefaultContactSource = "sales_agent"

type Contact struct {
	Email     string  `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Company   *string `json:"company"`
	Phone     *string `json:"phone"`
	Source    string  `json:"source"`
}

type CRM struct {
	poster *jsonPoster
}

func NewCRM(cfg Config) *CRM {
	return &CRM{poster: newJSONPoster(cfg.HubspotBaseURL, "MCP_HUBSPOT_BASE_URL", cfg.Timeout)}
}

func (c *CRM) CreateContact(ctx context.Context, contact Contact) (any, error) {
	if contact.Source == "" {
		contact.Source = DefaultContactSource
	}
	return c.poster.post(ctx, "/crm/contacts", contact)
}
