package flowver

import (
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
)

// fakeRepository is a Repository over a hand-built commit graph.
type fakeRepository struct {
	head     plumbing.Hash
	branch   string
	detached bool
	parents  map[plumbing.Hash][]plumbing.Hash
	tags     map[plumbing.Hash][]string
	dirty    bool
	files    map[string]bool

	tagQueries int
}

// fakeHash maps n to a hash whose abbreviation is n as 7 hex digits.
func fakeHash(n int) plumbing.Hash {
	return plumbing.NewHash(fmt.Sprintf("%07x", n) + strings.Repeat("0", 33))
}

// newGraphFake builds a commit graph from edges (commit -> parents) with
// head checked out on branch.
func newGraphFake(branch string, head int, edges map[int][]int) *fakeRepository {
	repo := &fakeRepository{
		branch:  branch,
		head:    fakeHash(head),
		parents: map[plumbing.Hash][]plumbing.Hash{},
		tags:    map[plumbing.Hash][]string{},
		files:   map[string]bool{},
	}
	for commit, parents := range edges {
		for _, parent := range parents {
			repo.parents[fakeHash(commit)] = append(repo.parents[fakeHash(commit)], fakeHash(parent))
		}
	}
	return repo
}

// newLinearFake builds commits 1..n where n is HEAD and each commit's parent
// is the previous one.
func newLinearFake(branch string, n int) *fakeRepository {
	edges := map[int][]int{}
	for i := 2; i <= n; i++ {
		edges[i] = []int{i - 1}
	}
	return newGraphFake(branch, n, edges)
}

func (f *fakeRepository) tag(commit int, names ...string) *fakeRepository {
	f.tags[fakeHash(commit)] = append(f.tags[fakeHash(commit)], names...)
	return f
}

func (f *fakeRepository) CurrentBranchName() (string, error) {
	if f.detached {
		return "", ErrUndeterminedBranch
	}
	return f.branch, nil
}

func (f *fakeRepository) ResolveHead() (plumbing.Hash, error) {
	if f.head.IsZero() {
		return plumbing.ZeroHash, ErrNoCommits
	}
	return f.head, nil
}

func (f *fakeRepository) AncestorsBreadthFirst(from plumbing.Hash, fn func(hash plumbing.Hash, distance int) error) error {
	return walkBreadthFirst(from, func(hash plumbing.Hash) ([]plumbing.Hash, error) {
		return f.parents[hash], nil
	}, fn)
}

func (f *fakeRepository) TagsPointingAt(hash plumbing.Hash) ([]string, error) {
	f.tagQueries++
	return f.tags[hash], nil
}

func (f *fakeRepository) IsWorkingTreeClean() (bool, error) {
	return !f.dirty, nil
}

func (f *fakeRepository) HasFile(name string) (bool, error) {
	return f.files[name], nil
}
