// Package importer orchestrates the project import pipeline: clone,
// rulebook discovery, source expansion, persistence, and archiving.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/rulestack-labs/rulestack/internal/gitrepo"
	"github.com/rulestack-labs/rulestack/internal/rulebook"
	"github.com/rulestack-labs/rulestack/internal/store"
)

const (
	tmpPrefix       = "rulestack-project-"
	defaultCloneRef = "HEAD"
	archiveFormat   = "tar.gz"
)

// Config holds importer dependencies and settings.
type Config struct {
	// Git obtains repository checkouts.
	Git gitrepo.Client
	// Store opens the transactional write scope.
	Store store.Gateway
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
	// CloneDepth is the shallow clone depth (default 1).
	CloneDepth int
}

// Service runs project imports. Each invocation is sequential and isolated:
// a scoped temporary directory plus one storage transaction.
type Service struct {
	git        gitrepo.Client
	store      store.Gateway
	scanner    *rulebook.Scanner
	logger     *slog.Logger
	cloneDepth int
}

// New creates an import service.
func New(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	git := cfg.Git
	if git == nil {
		git = gitrepo.NewCLI("", logger)
	}
	depth := cfg.CloneDepth
	if depth <= 0 {
		depth = 1
	}
	return &Service{
		git:        git,
		store:      cfg.Store,
		scanner:    rulebook.NewScanner(logger),
		logger:     logger,
		cloneDepth: depth,
	}
}

// ImportProject clones url, imports every rulebook found in the checkout,
// and attaches an archive snapshot of HEAD to the created project. The
// whole import is atomic: on any failure after project creation, no
// persisted trace remains. The caller receives either a fully populated
// project or the first fatal error.
func (s *Service) ImportProject(ctx context.Context, name, url, description string) (*store.Project, error) {
	logger := s.logger.With("import_id", uuid.NewString(), "url", url)

	tmpDir, err := os.MkdirTemp("", tmpPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to create working directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	repoDir := filepath.Join(tmpDir, "src")
	repo, err := s.git.Clone(ctx, url, repoDir, s.cloneDepth)
	if err != nil {
		return nil, err
	}

	commitID, err := repo.RevParse(ctx, defaultCloneRef)
	if err != nil {
		return nil, err
	}
	logger.Debug("resolved head commit", "git_hash", commitID)

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	project, err := tx.CreateProject(ctx, name, description, url, commitID)
	if err != nil {
		return nil, err
	}

	records, err := s.scanner.Scan(repoDir)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		if err := s.importRulebook(ctx, tx, project, rec); err != nil {
			return nil, fmt.Errorf("failed to import rulebook %s: %w", rec.Relpath, err)
		}
	}

	if err := s.attachArchive(ctx, tx, repo, project, tmpDir); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	logger.Info("imported project",
		"project_id", project.ID,
		"name", project.Name,
		"git_hash", project.GitHash,
		"rulebooks", len(records))
	return project, nil
}

// pendingRuleset carries one parsed ruleset entry together with the row
// being created for it, so rules attach to their parent without relying
// on positional re-derivation.
type pendingRuleset struct {
	row   *store.Ruleset
	rules []rulebook.RuleDoc
}

// importRulebook persists one rulebook record: the rulebook row, its
// rulesets in document order (one bulk insert), then their rules (one bulk
// insert). Malformed inner structure is a fatal error.
func (s *Service) importRulebook(ctx context.Context, tx store.ImportTx, project *store.Project, rec rulebook.Info) error {
	rb, err := tx.CreateRulebook(ctx, project.ID, rec.Relpath)
	if err != nil {
		return err
	}

	expanded, err := rulebook.ExpandSources(rec.Content)
	if err != nil {
		return err
	}

	pending := make([]*pendingRuleset, 0, len(rec.Content))
	for _, entry := range rec.Content {
		name, err := entry.Name()
		if err != nil {
			return err
		}

		var sources []byte
		if configs, ok := expanded[name]; ok {
			if sources, err = json.Marshal(configs); err != nil {
				return fmt.Errorf("failed to encode sources for ruleset %q: %w", name, err)
			}
		}

		rules, err := entry.Rules()
		if err != nil {
			return fmt.Errorf("ruleset %q: %w", name, err)
		}

		pending = append(pending, &pendingRuleset{
			row:   &store.Ruleset{RulebookID: rb.ID, Name: name, Sources: sources},
			rules: rules,
		})
	}

	rulesetRows := make([]*store.Ruleset, len(pending))
	for i, p := range pending {
		rulesetRows[i] = p.row
	}
	if err := tx.CreateRulesets(ctx, rulesetRows); err != nil {
		return err
	}

	var ruleRows []*store.Rule
	for _, p := range pending {
		for _, doc := range p.rules {
			action, err := json.Marshal(doc.Action)
			if err != nil {
				return fmt.Errorf("failed to encode action for rule %q: %w", doc.Name, err)
			}
			ruleRows = append(ruleRows, &store.Rule{
				RulesetID: p.row.ID,
				Name:      doc.Name,
				Action:    action,
			})
		}
	}
	if err := tx.CreateRules(ctx, ruleRows); err != nil {
		return err
	}

	s.logger.Debug("imported rulebook",
		"rulebook", rec.Relpath,
		"rulesets", len(pending),
		"rules", len(ruleRows))
	return nil
}

// attachArchive writes a tar.gz snapshot of the checkout's HEAD tree into
// the working directory and stores it as the project's archive blob.
func (s *Service) attachArchive(ctx context.Context, tx store.ImportTx, repo gitrepo.Repository, project *store.Project, tmpDir string) error {
	archivePath := filepath.Join(tmpDir, "archive.tar.gz")
	if err := repo.Archive(ctx, defaultCloneRef, archivePath, archiveFormat); err != nil {
		return err
	}

	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive file: %w", err)
	}
	defer f.Close()

	filename := ArchiveFilename(project.ID)
	if err := tx.AttachArchive(ctx, project.ID, filename, f); err != nil {
		return err
	}
	project.ArchiveName = filename
	return nil
}

// ArchiveFilename returns the archive blob name for a project id. The
// fixed-width zero padding keeps filenames lexicographically sortable.
func ArchiveFilename(projectID int64) string {
	return fmt.Sprintf("%010d.archive.tar.gz", projectID)
}
