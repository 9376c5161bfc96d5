package flowver

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// parentsFunc returns the direct parents of a commit.
type parentsFunc func(hash plumbing.Hash) ([]plumbing.Hash, error)

// walkBreadthFirst visits start and its ancestors in breadth-first order,
// reporting the shortest edge count from start for each commit. Commits are
// marked when enqueued, so one reachable through several merge parents is
// visited once at its minimum distance.
func walkBreadthFirst(start plumbing.Hash, parents parentsFunc, fn func(hash plumbing.Hash, distance int) error) error {
	type entry struct {
		hash     plumbing.Hash
		distance int
	}

	visited := map[plumbing.Hash]struct{}{start: {}}
	queue := []entry{{hash: start}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if err := fn(current.hash, current.distance); err != nil {
			if errors.Is(err, storer.ErrStop) {
				return nil
			}
			return err
		}

		next, err := parents(current.hash)
		if err != nil {
			return fmt.Errorf("reading parents of %s: %w", current.hash, err)
		}

		for _, parent := range next {
			if _, seen := visited[parent]; seen {
				continue
			}
			visited[parent] = struct{}{}
			queue = append(queue, entry{hash: parent, distance: current.distance + 1})
		}
	}

	return nil
}
