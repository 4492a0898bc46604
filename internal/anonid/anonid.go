// ABOUTME: Stable pseudo-identity for visitors who vote without logging in
// ABOUTME: Generates an anon_ id on first use and persists it until cleared

package anonid

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Prefix marks ids generated locally for anonymous voters
const Prefix = "anon_"

// Storage persists the identifier between runs
type Storage interface {
	Load() (string, error)
	Save(string) error
	Clear() error
}

// Provider hands out the anonymous identifier
type Provider struct {
	storage Storage
	mu      sync.Mutex
}

// New creates a provider backed by storage
func New(storage Storage) *Provider {
	return &Provider{storage: storage}
}

// Generate returns a fresh random identifier
func Generate() string {
	return Prefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Get returns the persisted identifier, creating one on first use
func (p *Provider) Get() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	id, err := p.storage.Load()
	if err != nil {
		slog.Warn("Failed to load anonymous id", "error", err)
	}
	if id != "" {
		return id
	}

	id = Generate()
	if err := p.storage.Save(id); err != nil {
		slog.Warn("Failed to persist anonymous id", "error", err)
	}
	return id
}

// Clear forgets the identifier so the next Get yields a new one
func (p *Provider) Clear() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.storage.Clear()
}
