package rulebook

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulestack-labs/rulestack/internal/testutil"
)

const sampleRulebook = `- name: r1
  rules:
    - name: say hello
      action:
        debug:
          msg: hello
`

func writeFile(t *testing.T, root, relpath, content string) {
	t.Helper()
	path := filepath.Join(root, relpath)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestScan_MissingDirectory(t *testing.T) {
	s := NewScanner(testutil.NewTestLogger(t))

	_, err := s.Scan(t.TempDir())

	var missing *MissingDirectoryError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, DirName, missing.Dir)
}

func TestScan_RulebooksDirIsFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, DirName), []byte("x"), 0644))

	s := NewScanner(testutil.NewTestLogger(t))
	_, err := s.Scan(root)

	var missing *MissingDirectoryError
	require.ErrorAs(t, err, &missing)
}

func TestScan_IgnoresNonYAMLExtensions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "rulebooks/a.yml", sampleRulebook)
	writeFile(t, root, "rulebooks/notes.txt", sampleRulebook)
	writeFile(t, root, "rulebooks/data.json", `[{"name": "r1", "rules": []}]`)

	s := NewScanner(testutil.NewTestLogger(t))
	found, err := s.Scan(root)
	require.NoError(t, err)

	require.Len(t, found, 1)
	assert.Equal(t, filepath.Join(DirName, "a.yml"), found[0].Relpath)
}

func TestScan_SkipsInvalidYAML(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "rulebooks/bad.yml", "{{ not valid yaml\n\t- ]")
	writeFile(t, root, "rulebooks/good.yaml", sampleRulebook)

	s := NewScanner(testutil.NewTestLogger(t))
	found, err := s.Scan(root)
	require.NoError(t, err)

	require.Len(t, found, 1)
	assert.Equal(t, filepath.Join(DirName, "good.yaml"), found[0].Relpath)
}

func TestScan_SkipsNonRulebookDocuments(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"top-level mapping", "name: r1\nrules: []\n"},
		{"scalar", "just a string\n"},
		{"null document", "\n"},
		{"entry without rules key", "- name: r1\n- name: r2\n  rules: []\n"},
		{"sequence of scalars", "- one\n- two\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeFile(t, root, "rulebooks/x.yml", tt.content)

			// Skipped non-rulebooks log at debug only; keep this quiet.
			s := NewScanner(testutil.NewTestLoggerAt(t, slog.LevelWarn))
			found, err := s.Scan(root)
			require.NoError(t, err)
			assert.Empty(t, found)
		})
	}
}

func TestScan_EmptySequenceIsValidRulebook(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "rulebooks/empty.yml", "[]\n")

	s := NewScanner(testutil.NewTestLogger(t))
	found, err := s.Scan(root)
	require.NoError(t, err)

	require.Len(t, found, 1)
	assert.Empty(t, found[0].Content)
}

func TestScan_RecursesIntoSubdirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "rulebooks/a.yml", sampleRulebook)
	writeFile(t, root, "rulebooks/nested/deep/b.yaml", sampleRulebook)

	s := NewScanner(testutil.NewTestLogger(t))
	found, err := s.Scan(root)
	require.NoError(t, err)

	require.Len(t, found, 2)
	relpaths := []string{found[0].Relpath, found[1].Relpath}
	assert.Contains(t, relpaths, filepath.Join(DirName, "a.yml"))
	assert.Contains(t, relpaths, filepath.Join(DirName, "nested", "deep", "b.yaml"))
}

func TestScan_PreservesRawContentAndEntries(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "rulebooks/a.yml", sampleRulebook)

	s := NewScanner(testutil.NewTestLogger(t))
	found, err := s.Scan(root)
	require.NoError(t, err)
	require.Len(t, found, 1)

	rb := found[0]
	assert.Equal(t, sampleRulebook, rb.Raw)
	require.Len(t, rb.Content, 1)

	name, err := rb.Content[0].Name()
	require.NoError(t, err)
	assert.Equal(t, "r1", name)

	rules, err := rb.Content[0].Rules()
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "say hello", rules[0].Name)
}

func TestScan_OrderIsRepeatable(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"c.yml", "a.yml", "b.yml"} {
		writeFile(t, root, filepath.Join("rulebooks", name), sampleRulebook)
	}

	s := NewScanner(testutil.NewTestLogger(t))
	first, err := s.Scan(root)
	require.NoError(t, err)
	second, err := s.Scan(root)
	require.NoError(t, err)

	require.Len(t, first, 3)
	require.Len(t, second, 3)
	for i := range first {
		assert.Equal(t, first[i].Relpath, second[i].Relpath)
	}
}

func TestEntry_Rules(t *testing.T) {
	tests := []struct {
		name    string
		entry   Entry
		wantErr bool
		wantLen int
	}{
		{
			name:    "null rules",
			entry:   Entry{"name": "r1", "rules": nil},
			wantLen: 0,
		},
		{
			name:    "rules not a sequence",
			entry:   Entry{"name": "r1", "rules": "oops"},
			wantErr: true,
		},
		{
			name:    "rule missing action",
			entry:   Entry{"name": "r1", "rules": []any{map[string]any{"name": "x"}}},
			wantErr: true,
		},
		{
			name:    "rule missing name",
			entry:   Entry{"name": "r1", "rules": []any{map[string]any{"action": "x"}}},
			wantErr: true,
		},
		{
			name: "valid rules",
			entry: Entry{"name": "r1", "rules": []any{
				map[string]any{"name": "a", "action": map[string]any{"debug": nil}},
				map[string]any{"name": "b", "action": "noop"},
			}},
			wantLen: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules, err := tt.entry.Rules()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, rules, tt.wantLen)
		})
	}
}

func TestEntry_Name(t *testing.T) {
	_, err := Entry{"rules": []any{}}.Name()
	assert.Error(t, err)

	_, err = Entry{"name": 42, "rules": []any{}}.Name()
	assert.Error(t, err)

	name, err := Entry{"name": "r1", "rules": []any{}}.Name()
	require.NoError(t, err)
	assert.Equal(t, "r1", name)

	// An explicit empty string is a legal, if odd, ruleset name.
	name, err = Entry{"name": "", "rules": []any{}}.Name()
	require.NoError(t, err)
	assert.Equal(t, "", name)
}

func TestScan_WalkErrorIsNonFatal(t *testing.T) {
	// An unreadable file must be logged and skipped, not abort the scan.
	if os.Getuid() == 0 {
		t.Skip("permission checks are bypassed for root")
	}

	root := t.TempDir()
	writeFile(t, root, "rulebooks/a.yml", sampleRulebook)
	writeFile(t, root, "rulebooks/secret.yml", sampleRulebook)
	require.NoError(t, os.Chmod(filepath.Join(root, "rulebooks", "secret.yml"), 0000))

	s := NewScanner(testutil.NewTestLogger(t))
	found, err := s.Scan(root)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, filepath.Join(DirName, "a.yml"), found[0].Relpath)
}

func TestScan_ErrorTypeIsExported(t *testing.T) {
	s := NewScanner(testutil.NewTestLogger(t))
	_, err := s.Scan(filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
	assert.True(t, errors.As(err, new(*MissingDirectoryError)))
}
