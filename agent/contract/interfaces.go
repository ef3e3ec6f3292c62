package contract

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

type Router interface {
	Route(ctx context.Context, text string) AgentType
}

type Specialist interface {
	Run(ctx context.Context, req SpecialistRequest) (SpecialistResponse, error)
}

type Registry interface {
	Sales() Specialist
	Support() Specialist
}

// ToolSet is the view of the tool registry an agent is allowed to use.
// Invoke never fails; failures are reported in ToolResult.Error.
type ToolSet interface {
	Infos() []*schema.ToolInfo
	Invoke(ctx context.Context, name string, args map[string]any) ToolResult
}
