// Package revision describes the git revision of the tree being checked.
package revision

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Info identifies the checked-out revision. The zero value means the tree
// is not inside a git repository.
type Info struct {
	// Commit is the full HEAD hash, empty for a repository with no commits.
	Commit string

	// Branch is the short branch name, empty when HEAD is detached.
	Branch string
}

// Short returns the first 12 characters of the commit hash.
func (i Info) Short() string {
	if len(i.Commit) > 12 {
		return i.Commit[:12]
	}
	return i.Commit
}

// Describe opens the repository enclosing dir and reports its HEAD.
//
// A directory outside any repository, or a repository without commits,
// is not an error and yields a partial or zero Info.
func Describe(dir string) (Info, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return Info{}, nil
		}
		return Info{}, fmt.Errorf("opening repository at %s: %w", dir, err)
	}

	head, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return Info{}, nil
		}
		return Info{}, fmt.Errorf("resolving HEAD: %w", err)
	}

	info := Info{Commit: head.Hash().String()}
	if head.Name().IsBranch() {
		info.Branch = head.Name().Short()
	}
	return info, nil
}
