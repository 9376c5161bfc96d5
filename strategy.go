package flowver

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/jaxxstorm/flowver/internal/log"
)

type bump int

const (
	bumpNone bump = iota
	bumpMinor
	bumpPatch
)

// strategy is one row of the dispatch table.
type strategy struct {
	kind BranchKind
	// prefix rules match the start of the branch name, others the whole name.
	prefix bool
	bump   bump
}

// strategies is evaluated in order and the first applicable row wins. Prefix
// rules come before exact ones.
var strategies = []strategy{
	{kind: Release, prefix: true},
	{kind: Feature, prefix: true, bump: bumpMinor},
	{kind: Hotfix, prefix: true, bump: bumpPatch},
	{kind: Bugfix, prefix: true, bump: bumpPatch},
	{kind: Support, prefix: true, bump: bumpPatch},
	{kind: Develop},
	{kind: Trunk},
}

// canInfer reports whether the strategy applies to branch. It has no side effects.
func (s strategy) canInfer(cfg *Configuration, branch string) bool {
	name := cfg.branch(s.kind)
	if s.prefix {
		return strings.HasPrefix(branch, name) && len(branch) > len(name)
	}
	if s.kind == Trunk && name == defaultTrunk && branch == trunkAlias {
		return true
	}
	return branch == name
}

// inference is the state shared by the strategies during one Infer call.
type inference struct {
	repo    Repository
	cfg     *Configuration
	logger  log.Logger
	head    plumbing.Hash
	branch  string
	locator *locator
}

func (s strategy) infer(in *inference) (InferredVersion, error) {
	nearest, err := in.locator.locate(in.head, s.bump != bumpNone)
	if err != nil {
		return InferredVersion{}, fmt.Errorf("locating nearest version: %w", err)
	}

	if s.kind == Trunk {
		return NewInferredVersion(nearest.Any).WithKind(Trunk), nil
	}

	normal, distance := nearest.Any, nearest.DistanceFromAny
	switch s.bump {
	case bumpMinor:
		normal, distance = incrementMinor(nearest.Normal), nearest.DistanceFromNormal
	case bumpPatch:
		normal, distance = incrementPatch(nearest.Normal), nearest.DistanceFromNormal
	}

	label := in.cfg.preReleaseID(s.kind)
	if s.prefix {
		if suffix := sanitizeSuffix(strings.TrimPrefix(in.branch, in.cfg.branch(s.kind))); suffix != "" {
			label += "." + suffix
		}
	}

	version := NewInferredVersion(normal).
		WithBranch(label).
		WithDistance(distance).
		WithKind(s.kind)

	if in.cfg.UseSnapshot {
		return version, nil
	}

	clean, err := in.repo.IsWorkingTreeClean()
	if err != nil {
		return InferredVersion{}, fmt.Errorf("checking if worktree is dirty: %w", err)
	}

	return version.WithSha(abbreviate(in.head)).WithDirty(!clean), nil
}

var invalidIdentifierChars = regexp.MustCompile(`[^0-9A-Za-z-]+`)

// sanitizeSuffix turns the part of a branch name after its prefix into
// dot-separated pre-release identifiers: "/" and "." separate identifiers,
// other invalid characters become "-", and numeric identifiers lose leading
// zeros.
func sanitizeSuffix(suffix string) string {
	fields := strings.FieldsFunc(suffix, func(r rune) bool {
		return r == '/' || r == '.'
	})

	ids := make([]string, 0, len(fields))
	for _, field := range fields {
		id := strings.Trim(invalidIdentifierChars.ReplaceAllString(field, "-"), "-")
		if id == "" {
			continue
		}
		if isNumeric(id) {
			id = strings.TrimLeft(id, "0")
			if id == "" {
				id = "0"
			}
		}
		ids = append(ids, id)
	}
	return strings.Join(ids, ".")
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
