// Package store provides the persistence gateway for imported projects
// using SQLite. Project, rulebook, ruleset, and rule rows for one import
// are written inside a single transaction.
package store

import (
	"context"
	"io"
	"time"
)

// Project is one imported source-control project. Created once per
// successful import; immutable except for archive attachment.
type Project struct {
	ID          int64
	Name        string
	Description string
	URL         string
	GitHash     string
	ArchiveName string
	CreatedAt   time.Time
}

// Rulebook is one rulebook file of a project, named by its path relative
// to the repository root.
type Rulebook struct {
	ID        int64
	ProjectID int64
	Name      string
	CreatedAt time.Time
}

// Ruleset is a named group of rules within a rulebook. Sources holds the
// JSON-encoded expanded source configurations, nil when absent.
type Ruleset struct {
	ID         int64
	RulebookID int64
	Name       string
	Sources    []byte
	CreatedAt  time.Time
}

// Rule is a name/action pair within a ruleset. Action is JSON-encoded
// opaque data.
type Rule struct {
	ID        int64
	RulesetID int64
	Name      string
	Action    []byte
	CreatedAt time.Time
}

// Archive is a stored repository snapshot blob attached to a project.
type Archive struct {
	ProjectID int64
	Filename  string
	Data      []byte
	Size      int64
	CreatedAt time.Time
}

// RulebookStats is a rulebook row with its ruleset and rule counts.
type RulebookStats struct {
	Rulebook
	Rulesets int64
	Rules    int64
}

// Gateway opens transactional import scopes.
type Gateway interface {
	Begin(ctx context.Context) (ImportTx, error)
}

// ImportTx is the write scope of one import. All writes either commit
// together or roll back together; bulk creates fill row IDs in place,
// preserving input order.
type ImportTx interface {
	CreateProject(ctx context.Context, name, description, url, gitHash string) (*Project, error)
	CreateRulebook(ctx context.Context, projectID int64, name string) (*Rulebook, error)
	CreateRulesets(ctx context.Context, rows []*Ruleset) error
	CreateRules(ctx context.Context, rows []*Rule) error
	AttachArchive(ctx context.Context, projectID int64, filename string, data io.Reader) error
	Commit() error
	Rollback() error
}
