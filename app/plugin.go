package app

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrUnknownPlugin is returned for PLUGINS or PROVIDERS entries with no registered factory
var ErrUnknownPlugin = errors.New("unknown plugin")

// ProviderFactory attaches a platform backend to the context
// Providers run first, in PROVIDERS order; a failing provider is logged and skipped
type ProviderFactory func(c *Context) error

// PluginFactory installs commands and services once the core is assembled
// Plugins run in PLUGINS order; a failing plugin aborts startup
type PluginFactory func(c *Context) error

var (
	providersMu sync.RWMutex
	providers   = make(map[string]ProviderFactory)
	pluginsMu   sync.RWMutex
	plugins     = make(map[string]PluginFactory)
)

// RegisterProvider adds a provider factory by name
func RegisterProvider(name string, factory ProviderFactory) {
	providersMu.Lock()
	defer providersMu.Unlock()
	providers[name] = factory
}

// GetProvider retrieves a provider factory by name
func GetProvider(name string) (ProviderFactory, bool) {
	providersMu.RLock()
	defer providersMu.RUnlock()
	f, ok := providers[name]
	return f, ok
}

// ProviderNames returns all registered provider names, sorted
func ProviderNames() []string {
	providersMu.RLock()
	defer providersMu.RUnlock()
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// RegisterPlugin adds a plugin factory by name
func RegisterPlugin(name string, factory PluginFactory) {
	pluginsMu.Lock()
	defer pluginsMu.Unlock()
	plugins[name] = factory
}

// GetPlugin retrieves a plugin factory by name
func GetPlugin(name string) (PluginFactory, bool) {
	pluginsMu.RLock()
	defer pluginsMu.RUnlock()
	f, ok := plugins[name]
	return f, ok
}

// PluginNames returns all registered plugin names, sorted
func PluginNames() []string {
	pluginsMu.RLock()
	defer pluginsMu.RUnlock()
	names := make([]string, 0, len(plugins))
	for name := range plugins {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// startProviders runs the configured providers in order
func (c *Context) startProviders(names []string) error {
	for _, name := range names {
		f, ok := GetProvider(name)
		if !ok {
			return fmt.Errorf("%w: provider %q", ErrUnknownPlugin, name)
		}
		if err := f(c); err != nil {
			c.Log.Warnw("provider unavailable", "provider", name, "error", err)
			continue
		}
		c.Log.Debugw("provider started", "provider", name)
	}
	return nil
}

// startPlugins runs the configured plugins in order
func (c *Context) startPlugins(names []string) error {
	for _, name := range names {
		f, ok := GetPlugin(name)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownPlugin, name)
		}
		if err := f(c); err != nil {
			return fmt.Errorf("plugin %s: %w", name, err)
		}
		c.Log.Debugw("plugin started", "plugin", name)
	}
	return nil
}
