package llm

import (
	"errors"
	"testing"

	contractx "github.com/tanpawarit/driftdesk-agent/agent/contract"
)

func TestOpenRouterForOverrides(t *testing.T) {
	t.Parallel()

	cfg := Config{
		APIKey:             " key ",
		Model:              "base-model",
		Temperature:        0.5,
		MaxCompletionToken: 800,
		RouterModel:        "router-model",
		SalesTemperature:   0.9,
		SupportTemperature: -1,
	}

	router := cfg.OpenRouterFor(contractx.AgentTypeRouter)
	if router.Model != "router-model" || router.Temperature != 0 {
		t.Fatalf("unexpected router config: %+v", router)
	}

	sales := cfg.OpenRouterFor(contractx.AgentTypeSales)
	if sales.Model != "base-model" || sales.Temperature != 0.9 || sales.APIKey != "key" {
		t.Fatalf("unexpected sales config: %+v", sales)
	}

	support := cfg.OpenRouterFor(contractx.AgentTypeSupport)
	if support.Temperature != 0.5 || support.MaxCompletionToken == nil || *support.MaxCompletionToken != 800 {
		t.Fatalf("unexpected support config: %+v", support)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	if err := (Config{Model: "m"}).Validate(); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := (Config{APIKey: "k", Model: "m"}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
