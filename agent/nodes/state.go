package sessionnode

import (
	"errors"
	"time"

	contractx "github.com/tanpawarit/driftdesk-agent/agent/contract"
	statex "github.com/tanpawarit/driftdesk-agent/agent/state"
)

var (
	ErrInvalidMessage = errors.New("message is empty")
	ErrUnknownRoute   = errors.New("no specialist for route")
)

type GraphInput struct {
	Text string
}

type GraphOutput struct {
	Route contractx.AgentType
	Reply string
}

type GraphState struct {
	Text string
	Now  time.Time

	Route   contractx.AgentType
	History []statex.Turn

	Message   string
	ToolCalls []contractx.ToolResult
}
