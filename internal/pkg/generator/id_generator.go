package generator

import (
	"github.com/google/uuid"
)

// IDGenerator produces opaque identifiers for carts, sessions and events.
type IDGenerator interface {
	NewCartID() string
	NewSessionID() string
	NewEventID() string
}

type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) NewCartID() string {
	return "cart-" + uuid.NewString()
}

func (g *UUIDGenerator) NewSessionID() string {
	return uuid.NewString()
}

func (g *UUIDGenerator) NewEventID() string {
	return uuid.NewString()
}

// IsSessionID reports whether s looks like an id issued by NewSessionID.
func IsSessionID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
