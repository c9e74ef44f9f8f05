package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Gateway plus the read queries used by the CLI.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore creates a new, unopened SQLite store.
func NewSQLiteStore() *SQLiteStore {
	return &SQLiteStore{}
}

// Open opens a connection to the SQLite database.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := path + "?_pragma=foreign_keys(1)"
	if path != ":memory:" {
		dsn += "&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if path == ":memory:" {
		// In-memory databases are per-connection; keep the pool at one.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// GetProject retrieves a project by ID.
func (s *SQLiteStore) GetProject(ctx context.Context, id int64) (*Project, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	p := &Project{}
	var archiveName sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, url, git_hash, archive_name, created_at
		 FROM projects WHERE id = ?`,
		id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.URL, &p.GitHash, &archiveName, &p.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("project not found: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	if archiveName.Valid {
		p.ArchiveName = archiveName.String
	}
	return p, nil
}

// ListProjects retrieves all imported projects, oldest first.
func (s *SQLiteStore) ListProjects(ctx context.Context) ([]*Project, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, url, git_hash, archive_name, created_at
		 FROM projects ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		p := &Project{}
		var archiveName sql.NullString

		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.URL, &p.GitHash, &archiveName, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		if archiveName.Valid {
			p.ArchiveName = archiveName.String
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// ListRulebooks retrieves a project's rulebooks with ruleset and rule
// counts, ordered by name.
func (s *SQLiteStore) ListRulebooks(ctx context.Context, projectID int64) ([]*RulebookStats, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT rb.id, rb.project_id, rb.name, rb.created_at,
		        COUNT(DISTINCT rs.id), COUNT(r.id)
		 FROM rulebooks rb
		 LEFT JOIN rulesets rs ON rs.rulebook_id = rb.id
		 LEFT JOIN rules r ON r.ruleset_id = rs.id
		 WHERE rb.project_id = ?
		 GROUP BY rb.id
		 ORDER BY rb.name`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list rulebooks: %w", err)
	}
	defer rows.Close()

	var stats []*RulebookStats
	for rows.Next() {
		st := &RulebookStats{}
		if err := rows.Scan(&st.ID, &st.ProjectID, &st.Name, &st.CreatedAt, &st.Rulesets, &st.Rules); err != nil {
			return nil, fmt.Errorf("failed to scan rulebook: %w", err)
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// ListRulesets retrieves a rulebook's rulesets in creation order.
func (s *SQLiteStore) ListRulesets(ctx context.Context, rulebookID int64) ([]*Ruleset, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, rulebook_id, name, sources, created_at
		 FROM rulesets WHERE rulebook_id = ? ORDER BY id`,
		rulebookID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list rulesets: %w", err)
	}
	defer rows.Close()

	var rulesets []*Ruleset
	for rows.Next() {
		rs := &Ruleset{}
		if err := rows.Scan(&rs.ID, &rs.RulebookID, &rs.Name, &rs.Sources, &rs.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ruleset: %w", err)
		}
		rulesets = append(rulesets, rs)
	}
	return rulesets, rows.Err()
}

// ListRules retrieves a ruleset's rules in creation order.
func (s *SQLiteStore) ListRules(ctx context.Context, rulesetID int64) ([]*Rule, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ruleset_id, name, action, created_at
		 FROM rules WHERE ruleset_id = ? ORDER BY id`,
		rulesetID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer rows.Close()

	var rules []*Rule
	for rows.Next() {
		r := &Rule{}
		if err := rows.Scan(&r.ID, &r.RulesetID, &r.Name, &r.Action, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// GetArchive retrieves the archive blob attached to a project.
func (s *SQLiteStore) GetArchive(ctx context.Context, projectID int64) (*Archive, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	a := &Archive{}
	err := s.db.QueryRowContext(ctx,
		`SELECT project_id, filename, data, size, created_at
		 FROM archives WHERE project_id = ?`,
		projectID,
	).Scan(&a.ProjectID, &a.Filename, &a.Data, &a.Size, &a.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no archive for project: %d", projectID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get archive: %w", err)
	}
	return a, nil
}

func now() time.Time {
	return time.Now().UTC()
}

var _ Gateway = (*SQLiteStore)(nil)
