// Package rulebook discovers and parses rulebook definition files in a
// cloned repository and expands their ruleset source declarations.
package rulebook

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DirName is the repository subdirectory that holds rulebook files.
const DirName = "rulebooks"

// yamlExtensions are the file extensions considered rulebook candidates.
var yamlExtensions = map[string]bool{
	".yml":  true,
	".yaml": true,
}

// Entry is one ruleset document within a parsed rulebook. Rulebooks are
// externally authored, so inner structure beyond the rulebook predicate is
// not validated here; accessors return errors for malformed entries.
type Entry map[string]any

// Name returns the ruleset name of the entry. An empty string is a legal
// name; only a missing or non-string name key is an error.
func (e Entry) Name() (string, error) {
	raw, ok := e["name"]
	if !ok {
		return "", fmt.Errorf("ruleset entry has no name")
	}
	name, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("ruleset name is not a string")
	}
	return name, nil
}

// Rules returns the entry's rule list. A present-but-null rules key yields
// an empty list; a non-sequence value is an error.
func (e Entry) Rules() ([]RuleDoc, error) {
	raw, ok := e["rules"]
	if !ok || raw == nil {
		return nil, nil
	}
	seq, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("rules is not a sequence")
	}

	rules := make([]RuleDoc, 0, len(seq))
	for i, item := range seq {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("rule %d is not a mapping", i)
		}
		name, ok := m["name"].(string)
		if !ok || name == "" {
			return nil, fmt.Errorf("rule %d has no name", i)
		}
		action, ok := m["action"]
		if !ok {
			return nil, fmt.Errorf("rule %q has no action", name)
		}
		rules = append(rules, RuleDoc{Name: name, Action: action})
	}
	return rules, nil
}

// RuleDoc is a single name/action pair from a ruleset's rule list.
// The action payload is opaque, domain-specific data.
type RuleDoc struct {
	Name   string
	Action any
}

// Info is a discovered rulebook file: its path relative to the repository
// root, the raw file text, and the parsed ruleset entries. It exists only
// for the duration of an import.
type Info struct {
	Relpath string
	Raw     string
	Content []Entry
}

// MissingDirectoryError is returned when the repository has no rulebooks
// directory. This is fatal to the whole import.
type MissingDirectoryError struct {
	Dir string
}

func (e *MissingDirectoryError) Error() string {
	return fmt.Sprintf("the %q directory doesn't exist within the project root", e.Dir)
}

// Scanner walks a repository's rulebook directory and yields every valid
// rulebook file. Per-file failures are logged and skipped; only a missing
// rulebooks directory aborts the scan.
type Scanner struct {
	logger *slog.Logger
}

// NewScanner returns a Scanner emitting diagnostics to logger.
func NewScanner(logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scanner{logger: logger}
}

// Scan walks <repoRoot>/rulebooks and returns every valid rulebook found,
// in traversal order. Files that fail to read or parse, or that are not
// rulebook-shaped, are skipped with a logged diagnostic.
func (s *Scanner) Scan(repoRoot string) ([]Info, error) {
	rulebooksDir := filepath.Join(repoRoot, DirName)
	fi, err := os.Stat(rulebooksDir)
	if err != nil || !fi.IsDir() {
		return nil, &MissingDirectoryError{Dir: DirName}
	}

	var found []Info
	err = filepath.Walk(rulebooksDir, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			s.logger.Error("unexpected error scanning file, skipping", "path", path, "error", walkErr)
			return nil
		}
		if info.IsDir() || !yamlExtensions[filepath.Ext(info.Name())] {
			return nil
		}

		rb, ok := s.tryLoad(repoRoot, path)
		if ok {
			found = append(found, rb)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// tryLoad reads and parses one candidate file. The bool result reports
// whether the file is a valid rulebook; all failure modes are non-fatal.
func (s *Scanner) tryLoad(repoRoot, path string) (Info, bool) {
	raw, err := os.ReadFile(path)
	if err != nil {
		s.logger.Error("unexpected error reading file, skipping", "path", path, "error", err)
		return Info{}, false
	}

	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		s.logger.Warn("invalid YAML file", "path", path, "error", err)
		return Info{}, false
	}

	entries, ok := asRulebook(doc)
	if !ok {
		s.logger.Debug("not a rulebook file", "path", path)
		return Info{}, false
	}

	relpath, err := filepath.Rel(repoRoot, path)
	if err != nil {
		s.logger.Error("unexpected error resolving path, skipping", "path", path, "error", err)
		return Info{}, false
	}

	return Info{Relpath: relpath, Raw: string(raw), Content: entries}, true
}

// asRulebook applies the rulebook predicate: the document must be a
// sequence whose every element is a mapping containing a "rules" key.
// An empty sequence is a valid (empty) rulebook.
func asRulebook(doc any) ([]Entry, bool) {
	seq, ok := doc.([]any)
	if !ok {
		return nil, false
	}

	entries := make([]Entry, 0, len(seq))
	for _, item := range seq {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, false
		}
		if _, ok := m["rules"]; !ok {
			return nil, false
		}
		entries = append(entries, Entry(m))
	}
	return entries, true
}
