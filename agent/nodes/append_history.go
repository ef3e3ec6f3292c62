package sessionnode

import (
	"fmt"

	contractx "github.com/tanpawarit/driftdesk-agent/agent/contract"
	statex "github.com/tanpawarit/driftdesk-agent/agent/state"
)

// AppendHistory records the user turn and the reply under the turn's
// destination. Nothing is written when the specialist produced no reply.
func AppendHistory(in *GraphState, conv *statex.Conversation) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if in.Message == "" {
		return nil, fmt.Errorf("%w: specialist returned empty message", contractx.ErrValidation)
	}

	if err := conv.Append(string(in.Route), in.Now,
		statex.UserTurn(in.Text),
		statex.AssistantTurn(in.Message),
	); err != nil {
		return nil, fmt.Errorf("append history: %w", err)
	}
	return in, nil
}
