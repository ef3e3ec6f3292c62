package integration

import (
	"errors"
	"time"
)

var (
	ErrNotConfigured = errors.New("integration not configured")
	ErrUpstream      = errors.New("integration upstream error")
)

// Config is loaded with the MCP prefix, e.g. MCP_GCAL_BASE_URL.
type Config struct {
	GcalBaseURL    string        `envconfig:"GCAL_BASE_URL" split_words:"true"`
	HubspotBaseURL string        `envconfig:"HUBSPOT_BASE_URL" split_words:"true"`
	Timeout        time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"15s"`
}

// EmailConfig is loaded with the SUPPORT_EMAIL prefix.
type EmailConfig struct {
	Address      string        `envconfig:"ADDRESS" split_words:"true"`
	Password     string        `envconfig:"PASSWORD" split_words:"true"`
	EscalationTo string        `envconfig:"ESCALATION_TO" split_words:"true"`
	Host         string        `envconfig:"HOST" split_words:"true" default:"smtp.gmail.com"`
	Port         int           `envconfig:"PORT" split_words:"true" default:"465"`
	FromName     string        `envconfig:"FROM_NAME" split_words:"true" default:"DriftDesk Support"`
	Timeout      time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"15s"`
}
