// Package flowver infers semantic versions for Git repositories that follow
// the Gitflow branching convention.
package flowver

import (
	"github.com/blang/semver"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/jaxxstorm/flowver/internal/log"
)

// BranchKind identifies the Gitflow role of a branch.
type BranchKind int

const (
	Detached BranchKind = iota
	Trunk
	Develop
	Release
	Feature
	Hotfix
	Bugfix
	Support
)

var branchKindNames = map[BranchKind]string{
	Detached: "detached",
	Trunk:    "trunk",
	Develop:  "develop",
	Release:  "release",
	Feature:  "feature",
	Hotfix:   "hotfix",
	Bugfix:   "bugfix",
	Support:  "support",
}

func (k BranchKind) String() string {
	if name, ok := branchKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// MarshalText lets BranchKind appear as a lower-case name in JSON output.
func (k BranchKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// NearestVersion describes the closest version tags reachable from HEAD.
type NearestVersion struct {
	// Any is the closest tag that parses as a semantic version.
	Any semver.Version
	// DistanceFromAny is the number of ancestry edges from HEAD to Any.
	DistanceFromAny int

	// Normal is the closest tag that is a final release (no pre-release).
	Normal semver.Version
	// DistanceFromNormal is the number of ancestry edges from HEAD to Normal.
	DistanceFromNormal int
}

// Repository is the read-only view of version control that inference needs.
type Repository interface {
	// CurrentBranchName returns the short name of the checked out branch.
	// It fails with ErrUndeterminedBranch when HEAD is detached.
	CurrentBranchName() (string, error)

	// ResolveHead returns the commit HEAD points at, or ErrNoCommits.
	ResolveHead() (plumbing.Hash, error)

	// AncestorsBreadthFirst calls fn for from and each of its ancestors in
	// breadth-first order, passing the shortest edge count from from. Each
	// commit is visited once. Returning storer.ErrStop from fn ends the walk
	// without error.
	AncestorsBreadthFirst(from plumbing.Hash, fn func(hash plumbing.Hash, distance int) error) error

	// TagsPointingAt returns the short names of tags that resolve to hash.
	TagsPointingAt(hash plumbing.Hash) ([]string, error)

	// IsWorkingTreeClean reports whether there are no staged, unstaged or
	// untracked (non-ignored) changes.
	IsWorkingTreeClean() (bool, error)

	// HasFile reports whether name exists at the root of the work tree.
	HasFile(name string) (bool, error)
}

// Options configures a single inference run.
type Options struct {
	// Repository is the repository to analyze
	Repository Repository

	// Config holds naming overrides and output switches. A nil Config means
	// DefaultConfiguration().
	Config *Configuration

	// Logger receives diagnostics. A nil Logger discards them.
	Logger log.Logger
}

// Result is a rendered inference outcome.
type Result struct {
	Version string     `json:"version"`
	Kind    BranchKind `json:"kind"`
	Branch  string     `json:"branch"`
}
