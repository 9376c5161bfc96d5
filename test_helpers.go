package flowver

import (
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
)

var testSignature = &object.Signature{
	Name:  "test",
	Email: "test@example.com",
	When:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
}

// testRepoCreate creates a new in-memory git repository for testing
func testRepoCreate() (*git.Repository, error) {
	storage := memory.NewStorage()
	fs := memfs.New()
	return git.Init(storage, fs)
}

// testRepoFSCreate creates a new filesystem-based git repository for testing
func testRepoFSCreate(path string) (*git.Repository, error) {
	return git.PlainInit(path, false)
}

// testCommit writes filename and commits it on the current branch
func testCommit(repo *git.Repository, filename string) (plumbing.Hash, error) {
	workTree, err := repo.Worktree()
	if err != nil {
		return plumbing.ZeroHash, err
	}

	if err := writeFile(workTree.Filesystem, filename, "content of "+filename); err != nil {
		return plumbing.ZeroHash, err
	}

	if _, err := workTree.Add(filename); err != nil {
		return plumbing.ZeroHash, err
	}

	return workTree.Commit("Add "+filename, &git.CommitOptions{Author: testSignature})
}

// testRepoTaggedHistory commits once, tags that commit with tag and then
// adds commitsAfter further commits. It returns the tagged commit.
func testRepoTaggedHistory(repo *git.Repository, tag string, commitsAfter int) (plumbing.Hash, error) {
	tagged, err := testCommit(repo, "release.txt")
	if err != nil {
		return plumbing.ZeroHash, err
	}

	if _, err := repo.CreateTag(tag, tagged, nil); err != nil {
		return plumbing.ZeroHash, err
	}

	for i := 0; i < commitsAfter; i++ {
		if _, err := testCommit(repo, "work-"+string(rune('a'+i))+".txt"); err != nil {
			return plumbing.ZeroHash, err
		}
	}

	return tagged, nil
}

// testCheckoutBranch creates branch at HEAD and checks it out
func testCheckoutBranch(repo *git.Repository, branch string) error {
	workTree, err := repo.Worktree()
	if err != nil {
		return err
	}

	return workTree.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(branch),
		Create: true,
	})
}

// testDetachHead checks out hash directly
func testDetachHead(repo *git.Repository, hash plumbing.Hash) error {
	workTree, err := repo.Worktree()
	if err != nil {
		return err
	}

	return workTree.Checkout(&git.CheckoutOptions{Hash: hash})
}

// writeFile writes content to a file in the given filesystem
func writeFile(fs billy.Filesystem, filename, content string) error {
	file, err := fs.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.Write([]byte(content))
	return err
}
