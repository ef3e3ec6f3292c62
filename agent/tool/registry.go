package tool

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	contractx "github.com/tanpawarit/driftdesk-agent/agent/contract"
)

const tracerName = "github.com/tanpawarit/driftdesk-agent/agent/tool"

var _ contractx.ToolSet = (*Registry)(nil)

// Registry is an ordered, immutable set of tools keyed by name.
type Registry struct {
	tools  map[string]Tool
	order  []string
	tracer trace.Tracer
}

func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{
		tools:  make(map[string]Tool, len(tools)),
		order:  make([]string, 0, len(tools)),
		tracer: otel.Tracer(tracerName),
	}
	for _, t := range tools {
		name := t.Spec().Name
		if name == "" {
			return nil, fmt.Errorf("%w: tool without name", contractx.ErrValidation)
		}
		if _, ok := r.tools[name]; ok {
			return nil, fmt.Errorf("%w: duplicate tool %q", contractx.ErrValidation, name)
		}
		r.tools[name] = t
		r.order = append(r.order, name)
	}
	return r, nil
}

func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Subset returns a view over the named tools, in the given order.
func (r *Registry) Subset(names ...string) (*Registry, error) {
	tools := make([]Tool, 0, len(names))
	for _, name := range names {
		t, ok := r.tools[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown tool %q", contractx.ErrValidation, name)
		}
		tools = append(tools, t)
	}
	return NewRegistry(tools...)
}

func (r *Registry) Infos() []*schema.ToolInfo {
	infos := make([]*schema.ToolInfo, 0, len(r.order))
	for _, name := range r.order {
		infos = append(infos, r.tools[name].Spec().Info())
	}
	return infos
}

// Invoke validates args and runs the named tool. It never returns a Go error
// or panics; every failure is reported through ToolResult.Error.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (out contractx.ToolResult) {
	ctx, span := r.tracer.Start(ctx, "tool.invoke", trace.WithAttributes(attribute.String("tool.name", name)))
	defer span.End()

	out.Tool = name
	defer func() {
		if rec := recover(); rec != nil {
			log.Ctx(ctx).Error().
				Str("tool", name).
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("tool panicked")
			out.Result = nil
			out.Error = fmt.Sprintf("tool %s failed: %v", name, rec)
		}
		if out.Error != "" {
			span.SetStatus(codes.Error, out.Error)
		}
	}()

	t, ok := r.tools[name]
	if !ok {
		out.Error = fmt.Sprintf("Unknown tool: %s", name)
		return out
	}

	normalized, err := NormalizeArgs(t.Spec(), args)
	if err != nil {
		out.Error = err.Error()
		return out
	}

	result, err := t.Invoke(ctx, normalized)
	if err != nil {
		span.RecordError(err)
		log.Ctx(ctx).Warn().Err(err).Str("tool", name).Msg("tool returned error")
		out.Error = failureMessage(err)
		return out
	}

	log.Ctx(ctx).Debug().Str("tool", name).Msg("tool invoked")
	out.Result = result
	return out
}
