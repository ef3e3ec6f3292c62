package specialist

import (
	"context"
	"errors"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/driftdesk-agent/agent/contract"
	promptx "github.com/tanpawarit/driftdesk-agent/agent/prompt"
	statex "github.com/tanpawarit/driftdesk-agent/agent/state"
)

type fakeToolCallingModel struct {
	responses []*schema.Message
	err       error
	idx       int
	inputs    [][]*schema.Message
	bound     []*schema.ToolInfo
}

func (f *fakeToolCallingModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return nil, f.err
	}
	if f.idx >= len(f.responses) {
		return nil, errors.New("no fake response left")
	}
	msg := f.responses[f.idx]
	f.idx++
	return msg, nil
}

func (f *fakeToolCallingModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not implemented in fake model")
}

func (f *fakeToolCallingModel) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	f.bound = tools
	return f, nil
}

type fakeToolSet struct {
	infos []*schema.ToolInfo
	calls []contractx.ToolRequest
	out   map[string]contractx.ToolResult
}

func (f *fakeToolSet) Infos() []*schema.ToolInfo {
	return f.infos
}

func (f *fakeToolSet) Invoke(ctx context.Context, name string, args map[string]any) contractx.ToolResult {
	f.calls = append(f.calls, contractx.ToolRequest{Tool: name, Args: args})
	if r, ok := f.out[name]; ok {
		return r
	}
	return contractx.ToolResult{Tool: name, Error: "Unknown tool: " + name}
}

func toolCall(id, name, args string) schema.ToolCall {
	return schema.ToolCall{
		ID:   id,
		Type: "function",
		Function: schema.FunctionCall{
			Name:      name,
			Arguments: args,
		},
	}
}

func TestSpecialistReplyWithoutTools(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{schema.AssistantMessage("  Happy to help!  ", nil)},
	}
	tools := &fakeToolSet{infos: []*schema.ToolInfo{{Name: "search_products", Desc: "search"}}}

	spec, err := newSpecialist(context.Background(), contractx.AgentTypeSales, fake, "sales prompt", tools, 3)
	if err != nil {
		t.Fatalf("newSpecialist() error = %v", err)
	}

	out, err := spec.Run(context.Background(), contractx.SpecialistRequest{
		UserMessage: "hello",
		History: []statex.Turn{
			statex.UserTurn("earlier question"),
			statex.AssistantTurn("earlier answer"),
		},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.Message != "Happy to help!" {
		t.Fatalf("unexpected message: %q", out.Message)
	}
	if len(out.ToolCalls) != 0 {
		t.Fatalf("expected no tool calls, got %#v", out.ToolCalls)
	}
	if len(fake.bound) != 1 || fake.bound[0].Name != "search_products" {
		t.Fatalf("tools not bound to model: %#v", fake.bound)
	}

	input := fake.inputs[0]
	if len(input) != 4 {
		t.Fatalf("expected system + 2 history + user messages, got %d", len(input))
	}
	if input[0].Role != schema.System || input[0].Content != "sales prompt" {
		t.Fatalf("unexpected system message: %#v", input[0])
	}
	if input[1].Content != "earlier question" || input[2].Role != schema.Assistant {
		t.Fatalf("history not forwarded in order: %#v", input[1:3])
	}
	if input[3].Role != schema.User || input[3].Content != "hello" {
		t.Fatalf("unexpected user message: %#v", input[3])
	}
}

func TestSpecialistExecutesToolCallsThenReplies(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{
			schema.AssistantMessage("", []schema.ToolCall{
				toolCall("call_1", "get_pricing", `{"sku":"DSK-100","quantity":2,"promo_code":"bundle10"}`),
			}),
			schema.AssistantMessage("Two desks cost $360.", nil),
		},
	}
	tools := &fakeToolSet{
		out: map[string]contractx.ToolResult{
			"get_pricing": {Tool: "get_pricing", Result: map[string]any{"total": 360.0}},
		},
	}

	spec, err := newSpecialist(context.Background(), contractx.AgentTypeSales, fake, "sales prompt", tools, 3)
	if err != nil {
		t.Fatalf("newSpecialist() error = %v", err)
	}

	out, err := spec.Run(context.Background(), contractx.SpecialistRequest{UserMessage: "price two desks"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.Message != "Two desks cost $360." {
		t.Fatalf("unexpected message: %q", out.Message)
	}
	if len(tools.calls) != 1 || tools.calls[0].Tool != "get_pricing" {
		t.Fatalf("unexpected tool calls: %#v", tools.calls)
	}
	if tools.calls[0].Args["sku"] != "DSK-100" {
		t.Fatalf("arguments not decoded: %#v", tools.calls[0].Args)
	}
	if len(out.ToolCalls) != 1 || out.ToolCalls[0].Error != "" {
		t.Fatalf("unexpected recorded tool results: %#v", out.ToolCalls)
	}

	second := fake.inputs[1]
	if len(second) != 4 {
		t.Fatalf("expected system + user + tool call + tool result, got %d", len(second))
	}
	toolMsg := second[3]
	if toolMsg.Role != schema.Tool || toolMsg.ToolCallID != "call_1" {
		t.Fatalf("unexpected tool message: %#v", toolMsg)
	}
	if toolMsg.Content != `{"total":360}` {
		t.Fatalf("unexpected tool message content: %s", toolMsg.Content)
	}
}

func TestSpecialistToolFailureIsFedBack(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{
			schema.AssistantMessage("", []schema.ToolCall{
				toolCall("call_1", "check_order_status", `{"order_id":"ORD-9"}`),
				toolCall("call_2", "get_pricing", `{not json`),
			}),
			schema.AssistantMessage("I could not find that order.", nil),
		},
	}
	tools := &fakeToolSet{
		out: map[string]contractx.ToolResult{
			"check_order_status": {Tool: "check_order_status", Error: "Order not found: ORD-9"},
		},
	}

	spec, err := newSpecialist(context.Background(), contractx.AgentTypeSupport, fake, "support prompt", tools, 3)
	if err != nil {
		t.Fatalf("newSpecialist() error = %v", err)
	}

	out, err := spec.Run(context.Background(), contractx.SpecialistRequest{UserMessage: "where is ORD-9"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(tools.calls) != 1 {
		t.Fatalf("malformed arguments must not reach the tool set: %#v", tools.calls)
	}
	if len(out.ToolCalls) != 2 || out.ToolCalls[1].Error == "" {
		t.Fatalf("expected argument error recorded, got %#v", out.ToolCalls)
	}

	second := fake.inputs[1]
	if second[3].Content != `{"error":"Order not found: ORD-9"}` {
		t.Fatalf("unexpected tool error content: %s", second[3].Content)
	}
}

func TestSpecialistToolLoopExhausted(t *testing.T) {
	t.Parallel()

	loop := schema.AssistantMessage("", []schema.ToolCall{toolCall("c", "search_products", `{"keywords":"desk"}`)})
	fake := &fakeToolCallingModel{
		responses: []*schema.Message{loop, loop, loop},
	}
	tools := &fakeToolSet{
		out: map[string]contractx.ToolResult{"search_products": {Tool: "search_products", Result: map[string]any{}}},
	}

	spec, err := newSpecialist(context.Background(), contractx.AgentTypeSales, fake, "sales prompt", tools, 2)
	if err != nil {
		t.Fatalf("newSpecialist() error = %v", err)
	}

	_, err = spec.Run(context.Background(), contractx.SpecialistRequest{UserMessage: "desk"})
	if !errors.Is(err, contractx.ErrToolLoopExhausted) {
		t.Fatalf("expected ErrToolLoopExhausted, got %v", err)
	}
	if len(tools.calls) != 2 {
		t.Fatalf("expected 2 tool rounds, got %d", len(tools.calls))
	}
}

func TestSpecialistEmptyReplyIsSchemaViolation(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{schema.AssistantMessage("   ", nil)},
	}
	spec, err := newSpecialist(context.Background(), contractx.AgentTypeSales, fake, "sales prompt", &fakeToolSet{}, 2)
	if err != nil {
		t.Fatalf("newSpecialist() error = %v", err)
	}

	_, err = spec.Run(context.Background(), contractx.SpecialistRequest{UserMessage: "hi"})
	if !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("expected ErrSchemaViolation, got %v", err)
	}
}

func TestSpecialistModelFailure(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{err: errors.New("upstream down")}
	spec, err := newSpecialist(context.Background(), contractx.AgentTypeSupport, fake, "support prompt", &fakeToolSet{}, 2)
	if err != nil {
		t.Fatalf("newSpecialist() error = %v", err)
	}

	_, err = spec.Run(context.Background(), contractx.SpecialistRequest{UserMessage: "hi"})
	if !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("expected ErrModelInvoke, got %v", err)
	}
}

func TestSpecialistRejectsBlankMessage(t *testing.T) {
	t.Parallel()

	spec, err := newSpecialist(context.Background(), contractx.AgentTypeSales, &fakeToolCallingModel{}, "sales prompt", &fakeToolSet{}, 2)
	if err != nil {
		t.Fatalf("newSpecialist() error = %v", err)
	}

	_, err = spec.Run(context.Background(), contractx.SpecialistRequest{UserMessage: "  "})
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestNewRegistryWithModels(t *testing.T) {
	t.Parallel()

	models := map[contractx.AgentType]*fakeToolCallingModel{
		contractx.AgentTypeSales:   {responses: []*schema.Message{schema.AssistantMessage("sales reply", nil)}},
		contractx.AgentTypeSupport: {responses: []*schema.Message{schema.AssistantMessage("support reply", nil)}},
	}
	factory := func(ctx context.Context, agentType contractx.AgentType) (einomodel.ToolCallingChatModel, error) {
		return models[agentType], nil
	}

	reg, err := NewRegistryWithModels(context.Background(), factory, promptx.LoadPromptSet(), 0, &fakeToolSet{}, &fakeToolSet{})
	if err != nil {
		t.Fatalf("NewRegistryWithModels() error = %v", err)
	}

	out, err := reg.Support().Run(context.Background(), contractx.SpecialistRequest{UserMessage: "broken desk"})
	if err != nil {
		t.Fatalf("Support().Run() error = %v", err)
	}
	if out.Message != "support reply" {
		t.Fatalf("unexpected support reply: %q", out.Message)
	}
	if models[contractx.AgentTypeSales].idx != 0 {
		t.Fatal("sales model must not be called for a support turn")
	}
}

func TestNewRegistryWithModelsRejectsMissingPrompt(t *testing.T) {
	t.Parallel()

	factory := func(ctx context.Context, agentType contractx.AgentType) (einomodel.ToolCallingChatModel, error) {
		return &fakeToolCallingModel{}, nil
	}
	_, err := NewRegistryWithModels(context.Background(), factory, promptx.PromptSet{Sales: "s"}, 2, &fakeToolSet{}, &fakeToolSet{})
	if !errors.Is(err, contractx.ErrPromptMissing) {
		t.Fatalf("expected ErrPromptMissing, got %v", err)
	}
}
