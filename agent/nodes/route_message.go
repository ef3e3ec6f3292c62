package sessionnode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/driftdesk-agent/agent/contract"
	statex "github.com/tanpawarit/driftdesk-agent/agent/state"
)

// RouteMessage tags the turn with its destination and loads that
// destination's history only.
func RouteMessage(
	ctx context.Context,
	in *GraphState,
	router contractx.Router,
	conv *statex.Conversation,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	in.Route = router.Route(ctx, in.Text)
	in.History = conv.History(string(in.Route))
	return in, nil
}
