package specialist

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	contractx "github.com/tanpawarit/driftdesk-agent/agent/contract"
	llmx "github.com/tanpawarit/driftdesk-agent/agent/llm"
	promptx "github.com/tanpawarit/driftdesk-agent/agent/prompt"
)

type registryImpl struct {
	sales   contractx.Specialist
	support contractx.Specialist
}

func (r *registryImpl) Sales() contractx.Specialist {
	return r.sales
}

func (r *registryImpl) Support() contractx.Specialist {
	return r.support
}

// ModelFactory returns the chat model used by one agent type.
type ModelFactory func(ctx context.Context, agentType contractx.AgentType) (einomodel.ToolCallingChatModel, error)

// NewRegistry builds both specialists on OpenRouter models resolved from cfg.
func NewRegistry(ctx context.Context, cfg llmx.Config, sales, support contractx.ToolSet) (contractx.Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	factory := func(ctx context.Context, agentType contractx.AgentType) (einomodel.ToolCallingChatModel, error) {
		modelCfg := cfg.OpenRouterFor(agentType)
		return modelCfg.New(ctx)
	}
	return NewRegistryWithModels(ctx, factory, promptx.LoadPromptSet(), cfg.MaxToolRounds, sales, support)
}

func NewRegistryWithModels(
	ctx context.Context,
	factory ModelFactory,
	prompts promptx.PromptSet,
	maxRounds int,
	sales, support contractx.ToolSet,
) (contractx.Registry, error) {
	salesModel, err := factory(ctx, contractx.AgentTypeSales)
	if err != nil {
		return nil, fmt.Errorf("%w: create sales model: %v", contractx.ErrModelInvoke, err)
	}
	supportModel, err := factory(ctx, contractx.AgentTypeSupport)
	if err != nil {
		return nil, fmt.Errorf("%w: create support model: %v", contractx.ErrModelInvoke, err)
	}

	salesAgent, err := newSpecialist(ctx, contractx.AgentTypeSales, salesModel, prompts.Sales, sales, maxRounds)
	if err != nil {
		return nil, err
	}
	supportAgent, err := newSpecialist(ctx, contractx.AgentTypeSupport, supportModel, prompts.Support, support, maxRounds)
	if err != nil {
		return nil, err
	}

	return &registryImpl{
		sales:   salesAgent,
		support: supportAgent,
	}, nil
}
