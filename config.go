package flowver

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-multierror"
)

// ConfigFileName is looked up at the repository root when no explicit
// configuration file is given.
const ConfigFileName = ".flowver.toml"

// MavenDescriptor is the build file whose presence enables Maven
// compatibility unless it was switched off explicitly.
const MavenDescriptor = "pom.xml"

// Toggle is a boolean setting that remembers whether it was set at all.
type Toggle int

const (
	Unset Toggle = iota
	On
	Off
)

// Enabled reports whether the toggle is On.
func (t Toggle) Enabled() bool {
	return t == On
}

// BuildMetadataIDs are the labels written into build metadata.
type BuildMetadataIDs struct {
	Sha   string
	Dirty string
}

// Configuration controls branch recognition and version rendering.
//
// Branches holds exact names for Trunk and Develop and prefixes for every
// other kind. A Configuration is read-only during inference except that an
// Unset MavenCompatibility becomes On when a Maven descriptor is detected, so
// concurrent callers need one Configuration each (see Clone).
type Configuration struct {
	// ForceBranch replaces the repository's branch name, e.g. for detached CI checkouts.
	ForceBranch string

	Branches      map[BranchKind]string
	PreReleaseIDs map[BranchKind]string

	BuildMetadataIDs BuildMetadataIDs

	// MavenCompatibility renders build metadata with '.' instead of '+'.
	MavenCompatibility Toggle

	// UseSnapshot replaces pre-release and build metadata with SNAPSHOT.
	UseSnapshot bool

	// TagPattern is a regex that tag names must match to be considered.
	TagPattern string

	RepositoryRoot string
}

const defaultTrunk = "master"

// trunkAlias also matches Trunk while the trunk name is the default.
const trunkAlias = "main"

var defaultBranches = map[BranchKind]string{
	Trunk:   defaultTrunk,
	Develop: "develop",
	Release: "release/",
	Feature: "feature/",
	Hotfix:  "hotfix/",
	Bugfix:  "bugfix/",
	Support: "support/",
}

var defaultPreReleaseIDs = map[BranchKind]string{
	Develop: "develop",
	Release: "release-candidate",
	Feature: "feature",
	Hotfix:  "hotfix",
	Bugfix:  "bugfix",
	Support: "support",
}

// DefaultConfiguration returns the stock git-flow naming.
func DefaultConfiguration() *Configuration {
	return &Configuration{
		Branches:      maps.Clone(defaultBranches),
		PreReleaseIDs: maps.Clone(defaultPreReleaseIDs),
		BuildMetadataIDs: BuildMetadataIDs{
			Sha:   "sha",
			Dirty: "dirty",
		},
	}
}

// Clone returns a deep copy.
func (c *Configuration) Clone() *Configuration {
	out := *c
	out.Branches = maps.Clone(c.Branches)
	out.PreReleaseIDs = maps.Clone(c.PreReleaseIDs)
	return &out
}

func (c *Configuration) branch(kind BranchKind) string {
	if name := c.Branches[kind]; name != "" {
		return name
	}
	return defaultBranches[kind]
}

func (c *Configuration) preReleaseID(kind BranchKind) string {
	if id := c.PreReleaseIDs[kind]; id != "" {
		return id
	}
	return defaultPreReleaseIDs[kind]
}

func (c *Configuration) shaID() string {
	if c.BuildMetadataIDs.Sha != "" {
		return c.BuildMetadataIDs.Sha
	}
	return "sha"
}

func (c *Configuration) dirtyID() string {
	if c.BuildMetadataIDs.Dirty != "" {
		return c.BuildMetadataIDs.Dirty
	}
	return "dirty"
}

// ApplyBranchOverrides sets branch names and prefixes, typically those read
// from the repository's gitflow.* git config keys. Empty values are ignored.
func (c *Configuration) ApplyBranchOverrides(overrides map[BranchKind]string) {
	if c.Branches == nil {
		c.Branches = map[BranchKind]string{}
	}
	for kind, value := range overrides {
		if value != "" {
			c.Branches[kind] = value
		}
	}
}

// ParseBranchKind maps a lower-case kind name to a BranchKind. "master" and
// "main" are accepted for Trunk.
func ParseBranchKind(name string) (BranchKind, error) {
	switch strings.ToLower(name) {
	case "master", "main":
		return Trunk, nil
	}
	for kind, kindName := range branchKindNames {
		if kind != Detached && kindName == strings.ToLower(name) {
			return kind, nil
		}
	}
	return Detached, fmt.Errorf("unknown branch kind %q", name)
}

type fileConfig struct {
	Branch        map[string]string `toml:"branch"`
	Prefix        map[string]string `toml:"prefix"`
	PreRelease    map[string]string `toml:"prerelease"`
	BuildMetadata struct {
		Sha   string `toml:"sha"`
		Dirty string `toml:"dirty"`
	} `toml:"buildmetadata"`
	Maven      *bool  `toml:"maven"`
	Snapshot   *bool  `toml:"snapshot"`
	TagPattern string `toml:"tag_pattern"`
}

// LoadFile merges the TOML file at path into c. A missing file is not an
// error. When path is empty, ConfigFileName under RepositoryRoot is used.
func (c *Configuration) LoadFile(path string) error {
	if path == "" {
		if c.RepositoryRoot == "" {
			return nil
		}
		path = filepath.Join(c.RepositoryRoot, ConfigFileName)
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	return c.decode(string(data))
}

func (c *Configuration) decode(data string) error {
	var file fileConfig
	if _, err := toml.Decode(data, &file); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	var result *multierror.Error
	overrides := map[BranchKind]string{}
	sections := []struct {
		name    string
		entries map[string]string
	}{
		{"branch", file.Branch},
		{"prefix", file.Prefix},
	}
	for _, section := range sections {
		for name, value := range section.entries {
			kind, err := ParseBranchKind(name)
			if err != nil {
				result = multierror.Append(result, fmt.Errorf("[%s]: %w", section.name, err))
				continue
			}
			overrides[kind] = value
		}
	}
	c.ApplyBranchOverrides(overrides)

	if c.PreReleaseIDs == nil {
		c.PreReleaseIDs = map[BranchKind]string{}
	}
	for name, id := range file.PreRelease {
		kind, err := ParseBranchKind(name)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("[prerelease]: %w", err))
			continue
		}
		c.PreReleaseIDs[kind] = id
	}

	if file.BuildMetadata.Sha != "" {
		c.BuildMetadataIDs.Sha = file.BuildMetadata.Sha
	}
	if file.BuildMetadata.Dirty != "" {
		c.BuildMetadataIDs.Dirty = file.BuildMetadata.Dirty
	}
	if file.Maven != nil && c.MavenCompatibility == Unset {
		if *file.Maven {
			c.MavenCompatibility = On
		} else {
			c.MavenCompatibility = Off
		}
	}
	if file.Snapshot != nil {
		c.UseSnapshot = *file.Snapshot
	}
	if file.TagPattern != "" {
		c.TagPattern = file.TagPattern
	}

	return result.ErrorOrNil()
}

var identifierRe = regexp.MustCompile(`^[0-9A-Za-z-]+$`)

// configurableKinds lists every kind that has a branch name, in report order.
var configurableKinds = []BranchKind{Trunk, Develop, Release, Feature, Hotfix, Bugfix, Support}

// validPreReleaseID rejects numeric identifiers with leading zeros, which
// build metadata allows but pre-release does not.
func validPreReleaseID(id string) bool {
	if !identifierRe.MatchString(id) {
		return false
	}
	return !(isNumeric(id) && len(id) > 1 && id[0] == '0')
}

// Validate reports every setting that would produce an invalid version.
func (c *Configuration) Validate() error {
	var result *multierror.Error

	for _, kind := range configurableKinds {
		if strings.TrimSpace(c.branch(kind)) == "" {
			result = multierror.Append(result, fmt.Errorf("%s branch name is empty", kind))
		}
	}
	for _, kind := range configurableKinds {
		if kind == Trunk {
			continue
		}
		if id := c.preReleaseID(kind); !validPreReleaseID(id) {
			result = multierror.Append(result, fmt.Errorf("%s pre-release id %q is not a valid identifier", kind, id))
		}
	}
	if !identifierRe.MatchString(c.shaID()) {
		result = multierror.Append(result, fmt.Errorf("sha build id %q is not a valid identifier", c.shaID()))
	}
	if !identifierRe.MatchString(c.dirtyID()) {
		result = multierror.Append(result, fmt.Errorf("dirty build id %q is not a valid identifier", c.dirtyID()))
	}
	if c.TagPattern != "" {
		if _, err := regexp.Compile(c.TagPattern); err != nil {
			result = multierror.Append(result, fmt.Errorf("invalid tag pattern: %w", err))
		}
	}

	return result.ErrorOrNil()
}
