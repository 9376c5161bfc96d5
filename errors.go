package flowver

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCommits is returned when HEAD does not resolve to a commit.
	ErrNoCommits = errors.New("repository has no commits")

	// ErrUndeterminedBranch is returned when HEAD is detached and no branch
	// name was forced.
	ErrUndeterminedBranch = errors.New("cannot determine branch: HEAD is detached, use --branch")
)

// NoApplicableStrategyError reports a branch name that matches no configured
// Gitflow convention.
type NoApplicableStrategyError struct {
	Branch string
}

func (e *NoApplicableStrategyError) Error() string {
	return fmt.Sprintf("no versioning strategy applies to branch %q", e.Branch)
}

// MalformedTagError reports a tag that could not be read as a version. The
// locator logs and skips these.
type MalformedTagError struct {
	Tag string
	Err error
}

func (e *MalformedTagError) Error() string {
	return fmt.Sprintf("tag %q is not a semantic version: %v", e.Tag, e.Err)
}

func (e *MalformedTagError) Unwrap() error {
	return e.Err
}
