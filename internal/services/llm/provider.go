package llm

import (
	"context"
	"fmt"
	"sort"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/libris/internal/common"
)

// Provider generates text completions. Implementations wrap one upstream
// API behind the same call shape so callers never branch on the provider.
type Provider interface {
	Complete(ctx context.Context, prompt string, temperature float32) (string, error)
	Name() string
	Model() string
	Close() error
}

// Registry is the provider lookup table. Providers are registered at
// startup for each configured API key.
type Registry struct {
	providers   map[string]Provider
	defaultName string
	logger      arbor.ILogger
}

// NewRegistry builds an empty lookup table. Providers are added through
// Register, one per configured API key.
func NewRegistry(defaultName string, logger arbor.ILogger) *Registry {
	return &Registry{
		providers:   make(map[string]Provider),
		defaultName: defaultName,
		logger:      logger,
	}
}

// Get returns the provider for a name; an empty name selects the default.
// Unknown or unconfigured names are a configuration error.
func (r *Registry) Get(name string) (Provider, error) {
	if name == "" {
		name = r.defaultName
	}
	provider, ok := r.providers[name]
	if !ok {
		return nil, common.NewConfigError(fmt.Sprintf("provider %q is not configured (available: %v)", name, r.Names()), nil)
	}
	return provider, nil
}

// Names returns the configured provider names, sorted
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Register adds a provider to the table. Used by tests and custom wiring.
func (r *Registry) Register(provider Provider) {
	r.providers[provider.Name()] = provider
}

// Close closes all registered providers
func (r *Registry) Close() error {
	for _, provider := range r.providers {
		if err := provider.Close(); err != nil {
			r.logger.Warn().Err(err).Str("provider", provider.Name()).Msg("Failed to close provider")
		}
	}
	return nil
}
