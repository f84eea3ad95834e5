package main

import (
	"slices"

	"github.com/bawdo/withbee/managers"
	"github.com/bawdo/withbee/plugins"
)

// pluginEntry is an enabled plugin. factory builds a fresh transformer for
// every manager the session assembles, expression bodies included.
type pluginEntry struct {
	name    string
	factory func() plugins.Transformer
	status  func() string
}

// pluginRegistry holds the enabled plugins in the order they apply.
type pluginRegistry struct {
	entries []pluginEntry
}

func (r *pluginRegistry) index(name string) int {
	return slices.IndexFunc(r.entries, func(e pluginEntry) bool { return e.name == name })
}

// register adds a plugin, replacing any enabled plugin of the same name
// in place.
func (r *pluginRegistry) register(entry pluginEntry) {
	if i := r.index(entry.name); i >= 0 {
		r.entries[i] = entry
		return
	}
	r.entries = append(r.entries, entry)
}

// deregister reports whether name was enabled.
func (r *pluginRegistry) deregister(name string) bool {
	i := r.index(name)
	if i < 0 {
		return false
	}
	r.entries = slices.Delete(r.entries, i, i+1)
	return true
}

func (r *pluginRegistry) deregisterAll() {
	r.entries = nil
}

func (r *pluginRegistry) get(name string) (pluginEntry, bool) {
	if i := r.index(name); i >= 0 {
		return r.entries[i], true
	}
	return pluginEntry{}, false
}

func (r *pluginRegistry) names() []string {
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.name
	}
	return out
}

// applyTo registers a fresh instance of every enabled plugin on m.
func (r *pluginRegistry) applyTo(m *managers.SelectManager) {
	for _, e := range r.entries {
		m.Use(e.factory())
	}
}

// pluginConfigurer is a known plugin that the plugin command can enable.
type pluginConfigurer struct {
	name      string
	configure func(s *Session, args string) error
}

// configurer looks up a known plugin by name.
func (s *Session) configurer(name string) (pluginConfigurer, bool) {
	i := slices.IndexFunc(s.configurers, func(c pluginConfigurer) bool { return c.name == name })
	if i < 0 {
		return pluginConfigurer{}, false
	}
	return s.configurers[i], true
}
