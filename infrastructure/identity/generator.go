// Package identity mints ids for documents, contents and locations.
package identity

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/dnsosebee/methodable-sub000/domain/core/valueobjects"
)

// UUIDGenerator issues random UUIDs
type UUIDGenerator struct{}

// NewUUIDGenerator creates a UUID generator
func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (UUIDGenerator) NewDocumentID() string {
	return uuid.New().String()
}

func (UUIDGenerator) NewBlockContentID() valueobjects.BlockContentID {
	return valueobjects.MustBlockContentID(uuid.New().String())
}

func (UUIDGenerator) NewLocatedBlockID() valueobjects.LocatedBlockID {
	return valueobjects.MustLocatedBlockID(uuid.New().String())
}

// SequenceIDGenerator issues predictable ids (d1, c1, l1, ...) for tests and
// reproducible fixtures
type SequenceIDGenerator struct {
	mu        sync.Mutex
	documents int
	contents  int
	locations int
}

// NewSequenceIDGenerator creates a sequence generator starting at 1
func NewSequenceIDGenerator() *SequenceIDGenerator {
	return &SequenceIDGenerator{}
}

func (g *SequenceIDGenerator) NewDocumentID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.documents++
	return fmt.Sprintf("d%d", g.documents)
}

func (g *SequenceIDGenerator) NewBlockContentID() valueobjects.BlockContentID {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.contents++
	return valueobjects.MustBlockContentID(fmt.Sprintf("c%d", g.contents))
}

func (g *SequenceIDGenerator) NewLocatedBlockID() valueobjects.LocatedBlockID {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.locations++
	return valueobjects.MustLocatedBlockID(fmt.Sprintf("l%d", g.locations))
}
