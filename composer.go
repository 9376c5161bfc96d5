package flowver

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/blang/semver"
)

const snapshotID = "SNAPSHOT"

// InferredVersion accumulates the parts of an inferred version. Every With
// method returns a modified copy; Build turns the result into a semver.Version.
type InferredVersion struct {
	normal   semver.Version
	branch   string
	distance int
	sha      string
	dirty    bool
	kind     BranchKind
}

// NewInferredVersion starts from the major.minor.patch of normal.
func NewInferredVersion(normal semver.Version) InferredVersion {
	return InferredVersion{normal: core(normal)}
}

// WithBranch sets the dot-separated pre-release label, e.g. "feature.login".
func (v InferredVersion) WithBranch(label string) InferredVersion {
	v.branch = label
	return v
}

// WithDistance sets the commit count since the relevant release.
func (v InferredVersion) WithDistance(distance int) InferredVersion {
	v.distance = distance
	return v
}

// WithSha sets the abbreviated commit id.
func (v InferredVersion) WithSha(sha string) InferredVersion {
	v.sha = sha
	return v
}

func (v InferredVersion) WithDirty(dirty bool) InferredVersion {
	v.dirty = dirty
	return v
}

func (v InferredVersion) WithKind(kind BranchKind) InferredVersion {
	v.kind = kind
	return v
}

func (v InferredVersion) Kind() BranchKind {
	return v.kind
}

// Build composes normal, then pre-release <id>[.<suffix>], then build
// metadata <distance>.<shaId>.<sha>[.<dirtyId>]. Trunk versions carry neither
// part and snapshot mode replaces both with SNAPSHOT.
func (v InferredVersion) Build(cfg *Configuration) (semver.Version, error) {
	out := core(v.normal)
	if v.kind == Trunk {
		return out, nil
	}

	if cfg.UseSnapshot {
		out.Pre = []semver.PRVersion{{VersionStr: snapshotID}}
		return out, nil
	}

	if v.branch != "" {
		for _, id := range strings.Split(v.branch, ".") {
			pre, err := semver.NewPRVersion(id)
			if err != nil {
				return semver.Version{}, fmt.Errorf("pre-release %q: %w", v.branch, err)
			}
			out.Pre = append(out.Pre, pre)
		}
	}

	out.Build = []string{strconv.Itoa(v.distance)}
	if v.sha != "" {
		out.Build = append(out.Build, cfg.shaID(), v.sha)
	}
	if v.dirty {
		out.Build = append(out.Build, cfg.dirtyID())
	}

	if err := out.Validate(); err != nil {
		return semver.Version{}, fmt.Errorf("composing version: %w", err)
	}
	return out, nil
}

// Render formats v for output. Maven compatibility swaps the build metadata
// separator '+' for '.'.
func Render(v semver.Version, cfg *Configuration) string {
	rendered := v.String()
	if cfg != nil && cfg.MavenCompatibility.Enabled() {
		rendered = strings.ReplaceAll(rendered, "+", ".")
	}
	return rendered
}

func core(v semver.Version) semver.Version {
	return semver.Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch}
}

func incrementMinor(v semver.Version) semver.Version {
	return semver.Version{Major: v.Major, Minor: v.Minor + 1}
}

func incrementPatch(v semver.Version) semver.Version {
	return semver.Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch + 1}
}
