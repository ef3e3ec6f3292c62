package specialist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/driftdesk-agent/agent/contract"
	statex "github.com/tanpawarit/driftdesk-agent/agent/state"
)

const DefaultMaxToolRounds = 6

type specialistImpl struct {
	agentType contractx.AgentType
	runner    compose.Runnable[map[string]any, *schema.Message]
	tools     contractx.ToolSet
	maxRounds int
}

func newSpecialist(
	ctx context.Context,
	agentType contractx.AgentType,
	chatModel einomodel.ToolCallingChatModel,
	systemPrompt string,
	tools contractx.ToolSet,
	maxRounds int,
) (*specialistImpl, error) {
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: %s system prompt", contractx.ErrPromptMissing, agentType)
	}
	if tools == nil {
		return nil, fmt.Errorf("%w: tool set is required for specialist=%s", contractx.ErrValidation, agentType)
	}
	if maxRounds <= 0 {
		maxRounds = DefaultMaxToolRounds
	}

	toolModel, err := chatModel.WithTools(tools.Infos())
	if err != nil {
		return nil, fmt.Errorf("%w: bind tools for specialist=%s: %v", contractx.ErrModelInvoke, agentType, err)
	}
	runner, err := compileAgentGraph(ctx, toolModel, systemPrompt, "specialist."+string(agentType))
	if err != nil {
		return nil, fmt.Errorf("%w: compile specialist graph: %v", contractx.ErrModelInvoke, err)
	}

	return &specialistImpl{
		agentType: agentType,
		runner:    runner,
		tools:     tools,
		maxRounds: maxRounds,
	}, nil
}

// Run plays one user turn: the model is invoked until it answers without
// requesting tools, executing every requested tool in between.
func (s *specialistImpl) Run(ctx context.Context, req contractx.SpecialistRequest) (contractx.SpecialistResponse, error) {
	text := strings.TrimSpace(req.UserMessage)
	if text == "" {
		return contractx.SpecialistResponse{}, fmt.Errorf("%w: user message is empty", contractx.ErrValidation)
	}

	history := historyMessages(req.History)
	var (
		scratchpad []*schema.Message
		calls      []contractx.ToolResult
	)

	for round := 0; ; round++ {
		msg, err := s.runner.Invoke(ctx, map[string]any{
			historyKey:    history,
			inputKey:      text,
			scratchpadKey: scratchpad,
		})
		if err != nil {
			return contractx.SpecialistResponse{}, fmt.Errorf("%w: specialist=%s invoke: %v", contractx.ErrModelInvoke, s.agentType, err)
		}
		if msg == nil {
			return contractx.SpecialistResponse{}, fmt.Errorf("%w: empty model response", contractx.ErrSchemaViolation)
		}

		if len(msg.ToolCalls) == 0 {
			content := strings.TrimSpace(msg.Content)
			if content == "" {
				return contractx.SpecialistResponse{}, fmt.Errorf("%w: specialist message is empty", contractx.ErrSchemaViolation)
			}
			return contractx.SpecialistResponse{
				Message:   content,
				ToolCalls: calls,
			}, nil
		}

		if round >= s.maxRounds {
			return contractx.SpecialistResponse{}, fmt.Errorf("%w: specialist=%s exceeded %d tool rounds", contractx.ErrToolLoopExhausted, s.agentType, s.maxRounds)
		}

		scratchpad = append(scratchpad, schema.AssistantMessage(msg.Content, msg.ToolCalls))
		for _, call := range msg.ToolCalls {
			result := s.invokeTool(ctx, call)
			calls = append(calls, result)
			scratchpad = append(scratchpad, schema.ToolMessage(result.Content(), call.ID))
		}
	}
}

func (s *specialistImpl) invokeTool(ctx context.Context, call schema.ToolCall) contractx.ToolResult {
	name := strings.TrimSpace(call.Function.Name)
	args := map[string]any{}
	if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			log.Ctx(ctx).Warn().
				Str("agent", string(s.agentType)).
				Str("tool", name).
				Err(err).
				Msg("malformed tool arguments")
			return contractx.ToolResult{
				Tool:  name,
				Error: fmt.Sprintf("invalid arguments for %s: %v", name, err),
			}
		}
	}
	return s.tools.Invoke(ctx, name, args)
}

func historyMessages(turns []statex.Turn) []*schema.Message {
	out := make([]*schema.Message, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case statex.RoleUser:
			out = append(out, schema.UserMessage(t.Text))
		case statex.RoleAssistant:
			out = append(out, schema.AssistantMessage(t.Text, nil))
		}
	}
	return out
}
