// Package git resolves the project revision stamped on build reports.
package git

import (
	"errors"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// ShortHashLen is the length of the abbreviated commit hash.
const ShortHashLen = 12

// ErrNotRepository is returned when dir is not inside a git work tree.
var ErrNotRepository = errors.New("not a git repository")

// HeadRevision returns the abbreviated commit hash of HEAD for the repository containing
// dir, searching parent directories. A repository without commits yields "".
func HeadRevision(dir string) (string, error) {
	repo, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return "", ErrNotRepository
		}
		return "", err
	}
	head, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", nil
		}
		return "", err
	}
	hash := head.Hash().String()
	if len(hash) > ShortHashLen {
		hash = hash[:ShortHashLen]
	}
	return hash, nil
}

// RevisionFunc returns a resolver suitable for stamping reports; lookup failures
// resolve to an empty revision.
func RevisionFunc(dir string) func() string {
	return func() string {
		rev, err := HeadRevision(dir)
		if err != nil {
			return ""
		}
		return rev
	}
}
