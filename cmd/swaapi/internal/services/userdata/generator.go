// Package userdata derives the per-user record served by the protected data endpoint.
package userdata

import (
	"fmt"
	"unicode/utf16"

	"github.com/benbjohnson/clock"
)

// TimestampLayout renders UTC instants with millisecond precision and a "Z" suffix.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// userNumberModulus bounds UserNumber to [0, 1000).
const userNumberModulus = 1000

// Record is regenerated on every call and never stored.
type Record struct {
	UserID     string `json:"userId"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
	UserNumber int    `json:"userNumber"`
}

// Generator builds Records. It holds no per-user state and is safe for concurrent use.
type Generator struct {
	clock clock.Clock
}

// NewGenerator returns a Generator reading time from c, or the wall clock when c is nil.
func NewGenerator(c clock.Clock) *Generator {
	if c == nil {
		c = clock.New()
	}
	return &Generator{clock: c}
}

// Generate returns the record for userID stamped with the current instant.
func (g *Generator) Generate(userID string) Record {
	return Record{
		UserID:     userID,
		Message:    Message(userID),
		Timestamp:  g.clock.Now().UTC().Format(TimestampLayout),
		UserNumber: UserNumber(userID),
	}
}

// Message embeds userID verbatim in the greeting.
func Message(userID string) string {
	return fmt.Sprintf("Hello, user %s!", userID)
}

// UserNumber sums the UTF-16 code units of userID modulo 1000. Characters
// outside the Basic Multilingual Plane contribute both surrogate halves.
func UserNumber(userID string) int {
	sum := 0
	for _, unit := range utf16.Encode([]rune(userID)) {
		sum = (sum + int(unit)) % userNumberModulus
	}
	return sum
}
