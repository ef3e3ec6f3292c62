package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	specialistx "github.com/tanpawarit/driftdesk-agent/agent/agents/specialist"
	catalogx "github.com/tanpawarit/driftdesk-agent/agent/catalog"
	contractx "github.com/tanpawarit/driftdesk-agent/agent/contract"
	integrationx "github.com/tanpawarit/driftdesk-agent/agent/integration"
	llmx "github.com/tanpawarit/driftdesk-agent/agent/llm"
	promptx "github.com/tanpawarit/driftdesk-agent/agent/prompt"
	routerx "github.com/tanpawarit/driftdesk-agent/agent/router"
	sessionx "github.com/tanpawarit/driftdesk-agent/agent/session"
	ticketx "github.com/tanpawarit/driftdesk-agent/agent/ticket"
	toolx "github.com/tanpawarit/driftdesk-agent/agent/tool"
	vectorx "github.com/tanpawarit/driftdesk-agent/agent/vector"
	configx "github.com/tanpawarit/driftdesk-agent/pkg/config"
	openrouterx "github.com/tanpawarit/driftdesk-agent/pkg/openrouter"
	"github.com/tanpawarit/driftdesk-agent/pkg/telemetry"
)

// Config gathers every setting the agent binaries read from the environment.
type Config struct {
	LLM         llmx.Config
	Catalog     catalogx.Config
	Ticket      ticketx.Config
	Events      ticketx.KafkaConfig
	Vector      vectorx.Config
	Integration integrationx.Config
	Email       integrationx.EmailConfig
	Telemetry   telemetry.Config
}

func LoadConfig() (Config, error) {
	var (
		cfg  Config
		errs []error
	)
	loadInto("LLM", &cfg.LLM, &errs)
	loadInto("CATALOG", &cfg.Catalog, &errs)
	loadInto("TICKET_DB", &cfg.Ticket, &errs)
	loadInto("TICKET_EVENTS", &cfg.Events, &errs)
	loadInto("QDRANT", &cfg.Vector, &errs)
	loadInto("MCP", &cfg.Integration, &errs)
	loadInto("SUPPORT_EMAIL", &cfg.Email, &errs)
	loadInto("OTEL", &cfg.Telemetry, &errs)
	return cfg, errors.Join(errs...)
}

func loadInto[T any](prefix string, dst *T, errs *[]error) {
	v, err := configx.New[T](prefix)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", prefix, err))
		return
	}
	*dst = *v
}

// App is a fully wired agent: tools, specialists and the session on top.
type App struct {
	Session  *sessionx.Session
	Tools    *toolx.Registry
	TicketDB bool

	closers []func() error
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

func Build(ctx context.Context, cfg Config) (*App, error) {
	a := &App{}
	ok := false
	defer func() {
		if !ok {
			_ = a.Close()
		}
	}()

	shutdown, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		log.Warn().Err(err).Msg("tracing disabled")
	}
	a.closers = append(a.closers, func() error { return shutdown(context.Background()) })

	catalog, err := catalogx.Load(cfg.Catalog.Dir)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	backends := toolx.Backends{
		Catalog:   catalog,
		Escalator: integrationx.NewEscalator(cfg.Email, nil),
		Calendar:  integrationx.NewCalendar(cfg.Integration),
		CRM:       integrationx.NewCRM(cfg.Integration),
	}

	if vc, err := vectorx.NewClient(cfg.Vector); err == nil {
		backends.Vectors = vc
	} else {
		log.Info().Err(err).Msg("vector search unavailable")
	}

	if store, err := a.openTicketStore(ctx, cfg); err == nil {
		backends.Tickets = store
		a.TicketDB = true
	} else if !errors.Is(err, ticketx.ErrNotConfigured) {
		return nil, err
	}

	tools, err := toolx.Build(backends)
	if err != nil {
		return nil, err
	}
	a.Tools = tools

	sales, err := toolx.BuildForAgent(tools, contractx.AgentTypeSales, a.TicketDB)
	if err != nil {
		return nil, err
	}
	support, err := toolx.BuildForAgent(tools, contractx.AgentTypeSupport, a.TicketDB)
	if err != nil {
		return nil, err
	}

	models, err := specialistx.NewRegistry(ctx, cfg.LLM, sales, support)
	if err != nil {
		return nil, err
	}

	prompts := promptx.LoadPromptSet()
	completer, err := openrouterx.NewCompleter(cfg.LLM.OpenRouterFor(contractx.AgentTypeRouter))
	if err != nil {
		return nil, fmt.Errorf("%w: router completer: %v", contractx.ErrModelInvoke, err)
	}

	sess, err := sessionx.New(routerx.New(completer, prompts.Router), models)
	if err != nil {
		return nil, err
	}
	a.Session = sess

	log.Info().
		Bool("ticket_db", a.TicketDB).
		Bool("vector_search", backends.Vectors != nil).
		Strs("tools", tools.Names()).
		Msg("agent ready")

	ok = true
	return a, nil
}

func (a *App) openTicketStore(ctx context.Context, cfg Config) (*ticketx.Store, error) {
	db, err := ticketx.Open(cfg.Ticket)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, db.Close)

	var opts []ticketx.Option
	if cfg.Events.Enabled() {
		pub := ticketx.NewKafkaPublisher(cfg.Events)
		a.closers = append(a.closers, pub.Close)
		opts = append(opts, ticketx.WithPublisher(pub))
	}

	store := ticketx.NewStore(db, opts...)
	if err := store.CreateSchema(ctx); err != nil {
		log.Warn().Err(err).Msg("ticket schema check failed; ticket tools will report backend errors")
	}
	return store, nil
}
