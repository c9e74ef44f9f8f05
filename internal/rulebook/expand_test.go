package rulebook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandSources_NoSourcesYieldsEmptyList(t *testing.T) {
	entries := []Entry{
		{"name": "r1", "rules": []any{}},
	}

	expanded, err := ExpandSources(entries)
	require.NoError(t, err)

	configs, ok := expanded["r1"]
	require.True(t, ok)
	assert.Empty(t, configs)
}

func TestExpandSources_ShorthandDeclaration(t *testing.T) {
	entries := []Entry{
		{
			"name":  "r1",
			"rules": []any{},
			"sources": []any{
				map[string]any{
					"ansible.eda.range": map[string]any{"limit": 5},
				},
			},
		},
	}

	expanded, err := ExpandSources(entries)
	require.NoError(t, err)

	configs := expanded["r1"]
	require.Len(t, configs, 1)
	assert.Equal(t, "<unnamed>", configs[0].Name)
	assert.Equal(t, "range", configs[0].Type)
	assert.Equal(t, "ansible.eda.range", configs[0].Source)
	assert.Equal(t, map[string]any{"limit": 5}, configs[0].Config)
}

func TestExpandSources_NamedDeclaration(t *testing.T) {
	entries := []Entry{
		{
			"name":  "r1",
			"rules": []any{},
			"sources": []any{
				map[string]any{
					"name":    "incoming webhooks",
					"webhook": map[string]any{"port": 5000},
				},
			},
		},
	}

	expanded, err := ExpandSources(entries)
	require.NoError(t, err)

	configs := expanded["r1"]
	require.Len(t, configs, 1)
	assert.Equal(t, "incoming webhooks", configs[0].Name)
	assert.Equal(t, "webhook", configs[0].Type)
	assert.Equal(t, "webhook", configs[0].Source)
}

func TestExpandSources_MultipleSourcesKeepOrder(t *testing.T) {
	entries := []Entry{
		{
			"name":  "r1",
			"rules": []any{},
			"sources": []any{
				map[string]any{"first.kind": nil},
				map[string]any{"second.kind": nil},
			},
		},
	}

	expanded, err := ExpandSources(entries)
	require.NoError(t, err)

	configs := expanded["r1"]
	require.Len(t, configs, 2)
	assert.Equal(t, "first.kind", configs[0].Source)
	assert.Equal(t, "second.kind", configs[1].Source)
}

func TestExpandSources_DuplicateRulesetNamesCollapse(t *testing.T) {
	entries := []Entry{
		{
			"name":  "dup",
			"rules": []any{},
			"sources": []any{
				map[string]any{"first.kind": nil},
			},
		},
		{
			"name":  "dup",
			"rules": []any{},
			"sources": []any{
				map[string]any{"second.kind": nil},
			},
		},
	}

	expanded, err := ExpandSources(entries)
	require.NoError(t, err)

	// Lookup is by name; the last same-named entry wins.
	require.Len(t, expanded, 1)
	configs := expanded["dup"]
	require.Len(t, configs, 1)
	assert.Equal(t, "second.kind", configs[0].Source)
}

func TestExpandSources_MissingNameIsFatal(t *testing.T) {
	entries := []Entry{
		{"rules": []any{}},
	}

	_, err := ExpandSources(entries)
	assert.Error(t, err)
}

func TestExpandSources_MalformedSources(t *testing.T) {
	tests := []struct {
		name    string
		sources any
	}{
		{"not a sequence", "oops"},
		{"sequence of scalars", []any{"oops"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := []Entry{
				{"name": "r1", "rules": []any{}, "sources": tt.sources},
			}
			_, err := ExpandSources(entries)
			assert.Error(t, err)
		})
	}
}
