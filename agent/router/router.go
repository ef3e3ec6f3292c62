package router

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/driftdesk-agent/agent/contract"
)

// Completer is the single-shot LLM call behind the router.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

var _ contractx.Router = (*Router)(nil)

// Router classifies a message as sales or support. It never fails: blank
// input, unexpected labels and transport errors all resolve to support.
type Router struct {
	completer Completer
	prompt    string
}

func New(completer Completer, prompt string) *Router {
	return &Router{completer: completer, prompt: prompt}
}

func (r *Router) Route(ctx context.Context, text string) contractx.AgentType {
	if strings.TrimSpace(text) == "" {
		return contractx.AgentTypeSupport
	}

	raw, err := r.completer.Complete(ctx, r.prompt, text)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("router completion failed, defaulting to support")
		return contractx.AgentTypeSupport
	}

	route := contractx.ParseRoute(raw)
	log.Ctx(ctx).Debug().Str("route", string(route)).Str("raw", raw).Msg("routed message")
	return route
}
