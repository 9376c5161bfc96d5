package flowver

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/blang/semver"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"github.com/jaxxstorm/flowver/internal/log"
)

// LocateNearestVersion finds the version tag and the release tag closest to
// HEAD.
func LocateNearestVersion(repo Repository, cfg *Configuration, logger log.Logger) (NearestVersion, error) {
	if cfg == nil {
		cfg = DefaultConfiguration()
	}
	if logger == nil {
		logger = log.NewNoop()
	}

	head, err := repo.ResolveHead()
	if err != nil {
		return NearestVersion{}, err
	}

	l, err := newLocator(repo, cfg.TagPattern, logger)
	if err != nil {
		return NearestVersion{}, err
	}
	return l.locate(head, true)
}

type locator struct {
	repo   Repository
	filter *regexp.Regexp
	logger log.Logger
}

func newLocator(repo Repository, tagPattern string, logger log.Logger) (*locator, error) {
	l := &locator{repo: repo, logger: logger}
	if tagPattern != "" {
		re, err := regexp.Compile(tagPattern)
		if err != nil {
			return nil, fmt.Errorf("invalid tag pattern: %w", err)
		}
		l.filter = re
	}
	return l, nil
}

// locate walks the ancestry of head breadth-first. The first commit carrying a
// version tag fixes Any. Without needRelease the walk stops there and Normal
// is only set when that commit also carries a release tag; otherwise the walk
// continues to the first release tag, which fixes Normal. Missing results are
// 0.0.0 at a distance equal to the number of commits walked.
func (l *locator) locate(head plumbing.Hash, needRelease bool) (NearestVersion, error) {
	var (
		nearest     NearestVersion
		foundAny    bool
		foundNormal bool
		walked      int
	)

	err := l.repo.AncestorsBreadthFirst(head, func(hash plumbing.Hash, distance int) error {
		walked++
		l.logger.Trace("visiting commit", "commit", abbreviate(hash), "distance", distance)

		tags, err := l.repo.TagsPointingAt(hash)
		if err != nil {
			return fmt.Errorf("listing tags for %s: %w", abbreviate(hash), err)
		}
		if len(tags) == 0 {
			return nil
		}

		candidate, release, ok := l.highestVersion(tags)
		if !ok {
			return nil
		}
		if !foundAny {
			nearest.Any, nearest.DistanceFromAny, foundAny = candidate, distance, true
			l.logger.Debug("found nearest version", "version", candidate.String(), "distance", distance)
		}
		if release != nil {
			nearest.Normal, nearest.DistanceFromNormal, foundNormal = *release, distance, true
			l.logger.Debug("found nearest release", "version", release.String(), "distance", distance)
			return storer.ErrStop
		}
		if !needRelease {
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		return NearestVersion{}, err
	}

	if !foundAny {
		nearest.DistanceFromAny = walked
		l.logger.Debug("no version tag reachable", "commits", walked)
	}
	if !foundNormal {
		nearest.DistanceFromNormal = walked
	}
	return nearest, nil
}

// highestVersion picks the highest version among tags on one commit, and the
// highest final release if there is one. tags are sorted by name, so among
// versions of equal precedence the lexicographically first tag wins.
func (l *locator) highestVersion(tags []string) (semver.Version, *semver.Version, bool) {
	var (
		best    semver.Version
		found   bool
		release *semver.Version
	)

	for _, tag := range tags {
		if l.filter != nil && !l.filter.MatchString(tag) {
			continue
		}

		version, err := ParseTag(tag)
		if err != nil {
			l.logger.Debug("skipping tag", "error", err)
			continue
		}

		if !found || version.GT(best) {
			best, found = version, true
		}
		if len(version.Pre) == 0 && (release == nil || version.GT(*release)) {
			v := version
			release = &v
		}
	}
	return best, release, found
}

// ParseTag reads a tag name as a semantic version. Module path components
// ("sdk/v1.2.0") and a leading "v" are stripped first.
func ParseTag(tag string) (semver.Version, error) {
	version, err := semver.Parse(stripTagPrefixes(tag))
	if err != nil {
		return semver.Version{}, &MalformedTagError{Tag: tag, Err: err}
	}
	return version, nil
}

func stripTagPrefixes(tag string) string {
	_, versionComponent := path.Split(tag)
	return strings.TrimPrefix(versionComponent, "v")
}

func abbreviate(hash plumbing.Hash) string {
	return hash.String()[:7]
}
