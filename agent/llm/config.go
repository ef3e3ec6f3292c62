package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/driftdesk-agent/agent/contract"
	openrouterx "github.com/tanpawarit/driftdesk-agent/pkg/openrouter"
)

type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.5"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`
	MaxToolRounds      int           `envconfig:"MAX_TOOL_ROUNDS" split_words:"true" default:"6"`

	RouterModel        string  `envconfig:"ROUTER_MODEL" split_words:"true"`
	SalesModel         string  `envconfig:"SALES_MODEL" split_words:"true"`
	SupportModel       string  `envconfig:"SUPPORT_MODEL" split_words:"true"`
	SalesTemperature   float32 `envconfig:"SALES_TEMPERATURE" split_words:"true" default:"-1"`
	SupportTemperature float32 `envconfig:"SUPPORT_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: llm api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	return nil
}

// OpenRouterFor resolves the model settings for one agent, falling back to
// the defaults when no per-agent override is set. The router always runs at
// temperature zero.
func (c Config) OpenRouterFor(agentType contractx.AgentType) openrouterx.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	switch agentType {
	case contractx.AgentTypeRouter:
		if v := strings.TrimSpace(c.RouterModel); v != "" {
			modelName = v
		}
		temp = 0
	case contractx.AgentTypeSales:
		if v := strings.TrimSpace(c.SalesModel); v != "" {
			modelName = v
		}
		if c.SalesTemperature >= 0 {
			temp = c.SalesTemperature
		}
	case contractx.AgentTypeSupport:
		if v := strings.TrimSpace(c.SupportModel); v != "" {
			modelName = v
		}
		if c.SupportTemperature >= 0 {
			temp = c.SupportTemperature
		}
	}

	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}
