package state

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	ErrInvalidDestination = errors.New("destination is empty")
	ErrInvalidTurn        = errors.New("turn is invalid")
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

func UserTurn(text string) Turn {
	return Turn{Role: RoleUser, Text: text}
}

func AssistantTurn(text string) Turn {
	return Turn{Role: RoleAssistant, Text: text}
}

func (t Turn) Validate() error {
	switch t.Role {
	case RoleUser, RoleAssistant:
	default:
		return fmt.Errorf("%w: unknown role %q", ErrInvalidTurn, t.Role)
	}
	if strings.TrimSpace(t.Text) == "" {
		return fmt.Errorf("%w: text is empty", ErrInvalidTurn)
	}
	return nil
}

// Conversation holds one append-only history per destination.
// Histories of different destinations never merge; nothing is persisted.
type Conversation struct {
	mu        sync.RWMutex
	histories map[string][]Turn
	updatedAt time.Time
}

func NewConversation() *Conversation {
	return &Conversation{
		histories: make(map[string][]Turn, 2),
	}
}

// History returns a copy of the destination's turns, oldest first.
// An unused destination returns an empty history.
func (c *Conversation) History(destination string) []Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()

	turns := c.histories[strings.TrimSpace(destination)]
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

func (c *Conversation) Append(destination string, now time.Time, turns ...Turn) error {
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return ErrInvalidDestination
	}
	for _, t := range turns {
		if err := t.Validate(); err != nil {
			return err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.histories == nil {
		c.histories = make(map[string][]Turn, 2)
	}
	c.histories[destination] = append(c.histories[destination], turns...)
	c.updatedAt = now.UTC()
	return nil
}

func (c *Conversation) Len(destination string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.histories[strings.TrimSpace(destination)])
}

// Destinations lists destinations with at least one turn, sorted.
func (c *Conversation) Destinations() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(c.histories))
	for dest, turns := range c.histories {
		if len(turns) > 0 {
			out = append(out, dest)
		}
	}
	sort.Strings(out)
	return out
}

func (c *Conversation) UpdatedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updatedAt
}
