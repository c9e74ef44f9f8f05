package rulebook

import (
	"fmt"
	"sort"
	"strings"
)

// unnamedSource is the placeholder name for source declarations that carry
// no explicit name.
const unnamedSource = "<unnamed>"

// SourceConfig is a fully qualified event-source configuration produced by
// expanding a shorthand source declaration.
type SourceConfig struct {
	Name   string `json:"name"`
	Type   string `json:"type,omitempty"`
	Source string `json:"source,omitempty"`
	Config any    `json:"config,omitempty"`
}

// ExpandSources expands the shorthand source declarations of every ruleset
// entry into fully qualified source configurations, keyed by ruleset name.
// A ruleset without sources maps to an empty list.
//
// Duplicate ruleset names within one rulebook collapse to a single map key
// (the last entry wins); same-named rulesets therefore share one expanded
// value. This mirrors the lookup-by-name contract and is not guarded here.
func ExpandSources(entries []Entry) (map[string][]SourceConfig, error) {
	expanded := make(map[string][]SourceConfig, len(entries))
	for _, entry := range entries {
		name, err := entry.Name()
		if err != nil {
			return nil, err
		}

		sources, err := entrySources(entry)
		if err != nil {
			return nil, fmt.Errorf("ruleset %q: %w", name, err)
		}

		configs := make([]SourceConfig, 0, len(sources))
		for _, src := range sources {
			configs = append(configs, expandSource(src))
		}
		expanded[name] = configs
	}
	return expanded, nil
}

// expandSource turns one shorthand declaration into a SourceConfig. The
// "name" key names the source; any other key is the source reference whose
// last dot-segment is the source type and whose value is its config.
func expandSource(src map[string]any) SourceConfig {
	xp := SourceConfig{Name: unnamedSource}

	// Iterate deterministically; shorthand declarations carry at most one
	// key besides "name", so ordering does not change the result.
	keys := make([]string, 0, len(src))
	for k := range src {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if k == "name" {
			if s, ok := src[k].(string); ok {
				xp.Name = s
			}
			continue
		}
		segments := strings.Split(k, ".")
		xp.Type = segments[len(segments)-1]
		xp.Source = k
		xp.Config = src[k]
	}
	return xp
}

// entrySources returns the entry's raw source declarations. A missing or
// null sources key yields none; a non-sequence value is an error.
func entrySources(entry Entry) ([]map[string]any, error) {
	raw, ok := entry["sources"]
	if !ok || raw == nil {
		return nil, nil
	}
	seq, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("sources is not a sequence")
	}

	sources := make([]map[string]any, 0, len(seq))
	for i, item := range seq {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("source %d is not a mapping", i)
		}
		sources = append(sources, m)
	}
	return sources, nil
}
