package parser

import (
	"fmt"
	"sort"

	"facturas/internal/config"
	"facturas/internal/port"
)

// ProviderFactory creates a TextGenerator from a provider config.
type ProviderFactory func(cfg *config.ParserProviderConfig) (port.TextGenerator, error)

// registry of provider factories, populated via RegisterProvider at startup.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers a provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewGenerator creates a TextGenerator from a provider config using the registered factory.
func NewGenerator(cfg *config.ParserProviderConfig) (port.TextGenerator, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown parser provider: %s", cfg.Provider)
	}
	return factory(cfg)
}

// RegisteredProviders lists the registered provider names in order.
func RegisteredProviders() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewFromConfig builds the generator chain for cfg. Providers without an
// API key are skipped. A single provider is returned as is; several are
// wrapped in a FallbackGenerator.
func NewFromConfig(cfg *config.ParserConfig) (port.TextGenerator, error) {
	var (
		gens  []port.TextGenerator
		names []string
	)
	for _, pc := range cfg.Providers() {
		if pc.Provider == "" || pc.APIKey == "" {
			continue
		}
		g, err := NewGenerator(pc)
		if err != nil {
			return nil, err
		}
		gens = append(gens, g)
		names = append(names, pc.Provider)
	}
	if len(gens) == 0 {
		return nil, nil
	}
	if len(gens) == 1 {
		return gens[0], nil
	}
	return NewFallbackGenerator(gens, names), nil
}
