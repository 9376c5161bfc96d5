// The dirty-tree check in this file is adapted from pulumictl
// (https://github.com/pulumi/pulumictl), licensed under the Apache License 2.0.

package flowver

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

// GitRepository implements Repository on top of go-git.
type GitRepository struct {
	repo *git.Repository

	// tags maps a commit to the tags that resolve to it, built on first use.
	tags map[plumbing.Hash][]string
}

// OpenRepository opens the Git repository containing path.
func OpenRepository(path string) (*GitRepository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		return nil, err
	}
	return NewGitRepository(repo), nil
}

// NewGitRepository wraps an already opened go-git repository.
func NewGitRepository(repo *git.Repository) *GitRepository {
	return &GitRepository{repo: repo}
}

// Root returns the work tree root, or "" for a bare repository.
func (r *GitRepository) Root() string {
	workTree, err := r.repo.Worktree()
	if err != nil {
		return ""
	}
	return workTree.Filesystem.Root()
}

func (r *GitRepository) CurrentBranchName() (string, error) {
	ref, err := r.repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return "", fmt.Errorf("reading HEAD: %w", err)
	}

	// An unborn branch is still a branch; ResolveHead reports the missing commit.
	if ref.Type() == plumbing.SymbolicReference && ref.Target().IsBranch() {
		return ref.Target().Short(), nil
	}

	return "", ErrUndeterminedBranch
}

func (r *GitRepository) ResolveHead() (plumbing.Hash, error) {
	ref, err := r.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return plumbing.ZeroHash, ErrNoCommits
	}
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("resolving HEAD: %w", err)
	}
	return ref.Hash(), nil
}

func (r *GitRepository) AncestorsBreadthFirst(from plumbing.Hash, fn func(hash plumbing.Hash, distance int) error) error {
	return walkBreadthFirst(from, r.parents, fn)
}

func (r *GitRepository) parents(hash plumbing.Hash) ([]plumbing.Hash, error) {
	commit, err := r.repo.CommitObject(hash)
	if err != nil {
		return nil, fmt.Errorf("getting commit object: %w", err)
	}
	return commit.ParentHashes, nil
}

func (r *GitRepository) TagsPointingAt(hash plumbing.Hash) ([]string, error) {
	if r.tags == nil {
		tags, err := r.indexTags()
		if err != nil {
			return nil, err
		}
		r.tags = tags
	}
	return r.tags[hash], nil
}

func (r *GitRepository) indexTags() (map[plumbing.Hash][]string, error) {
	refs, err := r.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}

	index := map[plumbing.Hash][]string{}
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			return nil
		}

		target, err := r.peelTag(ref.Hash())
		if err != nil {
			return fmt.Errorf("resolving tag %s: %w", ref.Name().Short(), err)
		}
		index[target] = append(index[target], ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, names := range index {
		sort.Strings(names)
	}
	return index, nil
}

// peelTag follows annotated tag objects down to the object they tag.
// Lightweight tags already point at their commit.
func (r *GitRepository) peelTag(hash plumbing.Hash) (plumbing.Hash, error) {
	for {
		obj, err := r.repo.TagObject(hash)
		switch {
		case errors.Is(err, plumbing.ErrObjectNotFound):
			return hash, nil
		case err != nil:
			return plumbing.ZeroHash, err
		}
		hash = obj.Target
	}
}

func (r *GitRepository) IsWorkingTreeClean() (bool, error) {
	workTree, err := r.repo.Worktree()
	if errors.Is(err, git.ErrIsBareRepository) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("getting worktree: %w", err)
	}

	// Fast path for filesystem storage when a git binary is available
	if _, ok := r.repo.Storer.(*filesystem.Storage); ok {
		if _, err := exec.LookPath("git"); err == nil {
			if dirty, err := checkDirtyWithGitCommand(workTree.Filesystem.Root()); err == nil {
				return !dirty, nil
			}
		}
	}

	// Fallback to go-git status check
	status, err := workTree.Status()
	if err != nil {
		return false, fmt.Errorf("getting git status: %w", err)
	}

	return status.IsClean(), nil
}

// checkDirtyWithGitCommand reports staged, unstaged and untracked changes,
// honouring every ignore source git itself knows about.
func checkDirtyWithGitCommand(repoPath string) (bool, error) {
	cmd := exec.Command("git", "status", "--porcelain", "--untracked-files=normal")
	cmd.Dir = repoPath
	output, err := cmd.Output()
	if err != nil {
		return false, fmt.Errorf("running git status: %w", err)
	}

	return len(output) > 0, nil
}

func (r *GitRepository) HasFile(name string) (bool, error) {
	workTree, err := r.repo.Worktree()
	if errors.Is(err, git.ErrIsBareRepository) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("getting worktree: %w", err)
	}

	info, err := workTree.Filesystem.Stat(name)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking for %s: %w", name, err)
	}
	return !info.IsDir(), nil
}

// gitflowKeys maps git-flow's config keys (gitflow.branch.*, gitflow.prefix.*)
// to branch kinds.
var gitflowKeys = []struct {
	subsection string
	option     string
	kind       BranchKind
}{
	{"branch", "master", Trunk},
	{"branch", "main", Trunk},
	{"branch", "develop", Develop},
	{"prefix", "release", Release},
	{"prefix", "feature", Feature},
	{"prefix", "hotfix", Hotfix},
	{"prefix", "bugfix", Bugfix},
	{"prefix", "support", Support},
}

// BranchOverrides reads branch names and prefixes configured by git-flow init.
func (r *GitRepository) BranchOverrides() (map[BranchKind]string, error) {
	cfg, err := r.repo.Config()
	if err != nil {
		return nil, fmt.Errorf("reading git config: %w", err)
	}

	overrides := map[BranchKind]string{}
	if cfg.Raw == nil || !cfg.Raw.HasSection("gitflow") {
		return overrides, nil
	}

	section := cfg.Raw.Section("gitflow")
	for _, key := range gitflowKeys {
		if !section.HasSubsection(key.subsection) {
			continue
		}
		if value := section.Subsection(key.subsection).Option(key.option); value != "" {
			overrides[key.kind] = value
		}
	}
	return overrides, nil
}
