package ticket

import "errors"

var (
	ErrTicketNotFound = errors.New("ticket not found")
	ErrNotConfigured  = errors.New("ticket database not configured")
	ErrInvalidTicket  = errors.New("invalid ticket")
	ErrIDConflict     = errors.New("ticket id already taken")
)
