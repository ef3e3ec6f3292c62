package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cloudwego/eino/compose"
	contractx "github.com/tanpawarit/driftdesk-agent/agent/contract"
	nodex "github.com/tanpawarit/driftdesk-agent/agent/nodes"
	statex "github.com/tanpawarit/driftdesk-agent/agent/state"
)

var (
	ErrInvalidMessage = nodex.ErrInvalidMessage
	ErrUnknownRoute   = nodex.ErrUnknownRoute
)

// Reply is the outcome of one turn.
type Reply struct {
	Route contractx.AgentType
	Text  string
}

// Session routes each message to a specialist and keeps one history per
// destination. Turns are processed one at a time.
type Session struct {
	router contractx.Router
	models contractx.Registry
	conv   *statex.Conversation

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	mu  sync.Mutex
	now func() time.Time
}

type Option func(*Session)

func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

func WithConversation(conv *statex.Conversation) Option {
	return func(s *Session) {
		if conv != nil {
			s.conv = conv
		}
	}
}

func New(router contractx.Router, models contractx.Registry, opts ...Option) (*Session, error) {
	if router == nil {
		return nil, errors.New("router is required")
	}
	if models == nil {
		return nil, errors.New("model registry is required")
	}

	s := &Session{
		router: router,
		models: models,
		conv:   statex.NewConversation(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	graphRunner, err := s.compileHandleMessageGraph(context.Background())
	if err != nil {
		return nil, err
	}
	s.graphRunner = graphRunner

	return s, nil
}

func (s *Session) HandleMessage(ctx context.Context, text string) (Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out, err := s.graphRunner.Invoke(ctx, nodex.GraphInput{Text: text})
	if err != nil {
		return Reply{}, err
	}
	return Reply{Route: out.Route, Text: out.Reply}, nil
}

// History returns a copy of one destination's turns.
func (s *Session) History(route contractx.AgentType) []statex.Turn {
	return s.conv.History(string(route))
}
