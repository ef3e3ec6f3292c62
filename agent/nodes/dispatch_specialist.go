package sessionnode

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/driftdesk-agent/agent/contract"
)

func DispatchSpecialist(
	ctx context.Context,
	in *GraphState,
	models contractx.Registry,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	specialist, err := pickSpecialist(in.Route, models)
	if err != nil {
		return nil, err
	}

	resp, err := specialist.Run(ctx, contractx.SpecialistRequest{
		UserMessage: in.Text,
		History:     in.History,
	})
	if err != nil {
		return nil, err
	}

	for _, call := range resp.ToolCalls {
		ev := log.Ctx(ctx).Debug().Str("route", string(in.Route)).Str("tool", call.Tool)
		if call.Error != "" {
			ev = ev.Str("tool_error", call.Error)
		}
		ev.Msg("tool call")
	}

	in.Message = strings.TrimSpace(resp.Message)
	in.ToolCalls = resp.ToolCalls
	return in, nil
}

func pickSpecialist(route contractx.AgentType, models contractx.Registry) (contractx.Specialist, error) {
	switch route {
	case contractx.AgentTypeSales:
		return models.Sales(), nil
	case contractx.AgentTypeSupport:
		return models.Support(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRoute, route)
	}
}
