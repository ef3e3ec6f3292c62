package sessionnode

import (
	"strings"
	"time"
)

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	return &GraphState{
		Text: text,
		Now:  nowFn().UTC(),
	}, nil
}
