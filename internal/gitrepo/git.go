// Package gitrepo provides a thin client for remote git repositories.
// It shells out to the git binary for clone, rev-parse, and archive
// operations; callers own the lifecycle of any filesystem artifacts.
package gitrepo

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
)

// Client is the capability interface for obtaining repository checkouts.
type Client interface {
	// Clone clones url into dest. A depth > 0 requests a shallow clone.
	Clone(ctx context.Context, url, dest string, depth int) (Repository, error)
}

// Repository is a local checkout produced by Clone.
type Repository interface {
	// RevParse resolves a ref (e.g. "HEAD") to a full commit id.
	RevParse(ctx context.Context, ref string) (string, error)

	// Archive writes an archive of the given ref's tree to outPath.
	// Format is passed through to git (e.g. "tar.gz").
	Archive(ctx context.Context, ref, outPath, format string) error
}

// CLI implements Client by executing the git binary.
type CLI struct {
	gitBin string
	logger *slog.Logger
}

// NewCLI returns a Client backed by the git binary at gitBin
// ("git" when empty).
func NewCLI(gitBin string, logger *slog.Logger) *CLI {
	if gitBin == "" {
		gitBin = "git"
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CLI{gitBin: gitBin, logger: logger}
}

// Clone clones url into dest with the given shallow depth.
func (c *CLI) Clone(ctx context.Context, url, dest string, depth int) (Repository, error) {
	args := []string{"clone", "--quiet"}
	if depth > 0 {
		args = append(args, "--depth", strconv.Itoa(depth))
	}
	args = append(args, "--", url, dest)

	c.logger.Debug("cloning repository", "url", url, "dest", dest, "depth", depth)
	if _, err := c.run(ctx, "", args...); err != nil {
		return nil, &TransferError{URL: url, Err: err}
	}
	return &checkout{cli: c, dir: dest}, nil
}

// checkout is a cloned working tree on the local filesystem.
type checkout struct {
	cli *CLI
	dir string
}

func (r *checkout) RevParse(ctx context.Context, ref string) (string, error) {
	out, err := r.cli.run(ctx, r.dir, "rev-parse", ref)
	if err != nil {
		return "", &ResolutionError{Ref: ref, Err: err}
	}
	return strings.TrimSpace(out), nil
}

func (r *checkout) Archive(ctx context.Context, ref, outPath, format string) error {
	_, err := r.cli.run(ctx, r.dir, "archive", "--format="+format, "--output="+outPath, ref)
	if err != nil {
		return &ArchiveError{Ref: ref, Err: err}
	}
	return nil
}

// run executes a git command, optionally inside dir, and returns stdout.
// Stderr is folded into the returned error for diagnostics.
func (c *CLI) run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, c.gitBin, args...)
	if dir != "" {
		cmd.Dir = dir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("git %s: %w: %s", args[0], err, msg)
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	return stdout.String(), nil
}

var _ Client = (*CLI)(nil)
