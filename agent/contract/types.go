package contract

import (
	"encoding/json"
	"strings"

	statex "github.com/tanpawarit/driftdesk-agent/agent/state"
)

type AgentType string

const (
	AgentTypeRouter  AgentType = "router"
	AgentTypeSales   AgentType = "sales"
	AgentTypeSupport AgentType = "support"
)

// ParseRoute normalizes a classifier output into a destination.
// Anything other than "sales" or "support" falls back to support.
func ParseRoute(raw string) AgentType {
	if AgentType(strings.ToLower(strings.TrimSpace(raw))) == AgentTypeSales {
		return AgentTypeSales
	}
	return AgentTypeSupport
}

type SpecialistRequest struct {
	UserMessage string        `json:"user_message"`
	History     []statex.Turn `json:"history,omitempty"`
}

type SpecialistResponse struct {
	Message   string       `json:"message"`
	ToolCalls []ToolResult `json:"tool_calls,omitempty"`
}

type ToolRequest struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

type ToolResult struct {
	Tool   string `json:"tool"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Content renders the result the way it is handed back to the model:
// the raw result payload, or {"error": "..."} on failure.
func (r ToolResult) Content() string {
	var payload any = r.Result
	if r.Error != "" {
		payload = map[string]string{"error": r.Error}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		raw, _ = json.Marshal(map[string]string{"error": "encode tool result: " + err.Error()})
	}
	return string(raw)
}
