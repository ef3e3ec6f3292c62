package ticket

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

const idPrefix = "TCK-"

// ContentID derives a ticket id from its content so that repeating the same
// request yields the same ticket.
func ContentID(parts ...string) string {
	sum := sha1.Sum([]byte(strings.Join(parts, "|")))
	return idPrefix + strings.ToUpper(hex.EncodeToString(sum[:])[:8])
}

// RandomID returns a fresh id with 48 random bits.
func RandomID() string {
	u := uuid.New()
	return idPrefix + strings.ToUpper(hex.EncodeToString(u[10:]))
}
