package gitrepo

import "fmt"

// TransferError indicates a failed clone: network failure, auth failure,
// or an invalid repository URL.
type TransferError struct {
	URL string
	Err error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("failed to clone %s: %v", e.URL, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

// ResolutionError indicates a ref that could not be resolved to a commit.
type ResolutionError struct {
	Ref string
	Err error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("failed to resolve ref %q: %v", e.Ref, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// ArchiveError indicates a failure producing an archive of a ref's tree.
type ArchiveError struct {
	Ref string
	Err error
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("failed to archive ref %q: %v", e.Ref, e.Err)
}

func (e *ArchiveError) Unwrap() error { return e.Err }
