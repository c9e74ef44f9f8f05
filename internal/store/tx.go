package store

import (
	"context"
	"database/sql"
	"fmt"
	"io"
)

// Tx implements ImportTx over one SQLite transaction.
type Tx struct {
	tx *sql.Tx
}

// Begin opens the transaction scope for one import.
func (s *SQLiteStore) Begin(ctx context.Context) (ImportTx, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// CreateProject persists a new project row and returns it with its id.
func (t *Tx) CreateProject(ctx context.Context, name, description, url, gitHash string) (*Project, error) {
	p := &Project{
		Name:        name,
		Description: description,
		URL:         url,
		GitHash:     gitHash,
		CreatedAt:   now(),
	}

	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO projects (name, description, url, git_hash, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		p.Name, p.Description, p.URL, p.GitHash, p.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	p.ID, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read project id: %w", err)
	}
	return p, nil
}

// CreateRulebook persists a new rulebook row for a project.
func (t *Tx) CreateRulebook(ctx context.Context, projectID int64, name string) (*Rulebook, error) {
	rb := &Rulebook{
		ProjectID: projectID,
		Name:      name,
		CreatedAt: now(),
	}

	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO rulebooks (project_id, name, created_at) VALUES (?, ?, ?)`,
		rb.ProjectID, rb.Name, rb.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rulebook: %w", err)
	}
	rb.ID, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read rulebook id: %w", err)
	}
	return rb, nil
}

// CreateRulesets bulk-inserts ruleset rows, filling IDs in place in input
// order.
func (t *Tx) CreateRulesets(ctx context.Context, rows []*Ruleset) error {
	stmt, err := t.tx.PrepareContext(ctx,
		`INSERT INTO rulesets (rulebook_id, name, sources, created_at) VALUES (?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("failed to prepare ruleset insert: %w", err)
	}
	defer stmt.Close()

	for _, rs := range rows {
		rs.CreatedAt = now()
		var sources any
		if rs.Sources != nil {
			sources = string(rs.Sources)
		}
		res, err := stmt.ExecContext(ctx, rs.RulebookID, rs.Name, sources, rs.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create ruleset %q: %w", rs.Name, err)
		}
		if rs.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to read ruleset id: %w", err)
		}
	}
	return nil
}

// CreateRules bulk-inserts rule rows, filling IDs in place in input order.
func (t *Tx) CreateRules(ctx context.Context, rows []*Rule) error {
	stmt, err := t.tx.PrepareContext(ctx,
		`INSERT INTO rules (ruleset_id, name, action, created_at) VALUES (?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("failed to prepare rule insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		r.CreatedAt = now()
		res, err := stmt.ExecContext(ctx, r.RulesetID, r.Name, string(r.Action), r.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create rule %q: %w", r.Name, err)
		}
		if r.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to read rule id: %w", err)
		}
	}
	return nil
}

// AttachArchive stores an archive blob for a project and records its
// filename on the project row.
func (t *Tx) AttachArchive(ctx context.Context, projectID int64, filename string, data io.Reader) error {
	blob, err := io.ReadAll(data)
	if err != nil {
		return fmt.Errorf("failed to read archive data: %w", err)
	}

	_, err = t.tx.ExecContext(ctx,
		`INSERT INTO archives (project_id, filename, data, size, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		projectID, filename, blob, int64(len(blob)), now(),
	)
	if err != nil {
		return fmt.Errorf("failed to store archive: %w", err)
	}

	res, err := t.tx.ExecContext(ctx,
		`UPDATE projects SET archive_name = ? WHERE id = ?`,
		filename, projectID,
	)
	if err != nil {
		return fmt.Errorf("failed to attach archive: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("project not found: %d", projectID)
	}
	return nil
}

// Commit commits the import transaction.
func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Rollback rolls back the import transaction. Calling it after Commit is
// a no-op, so it is safe to defer.
func (t *Tx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return fmt.Errorf("failed to roll back transaction: %w", err)
	}
	return nil
}

var _ ImportTx = (*Tx)(nil)
