// Package gitinfo reads revision details from the repository enclosing a
// directory.
package gitinfo

import (
	"fmt"

	"github.com/go-git/go-git/v5"
)

func open(dir string) (*git.Repository, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository at %s: %w", dir, err)
	}
	return repo, nil
}

// Revision returns the commit hash HEAD points to.
func Revision(dir string) (string, error) {
	repo, err := open(dir)
	if err != nil {
		return "", err
	}
	ref, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD reference: %w", err)
	}
	return ref.Hash().String(), nil
}

// Branch returns the short name of the checked-out branch, or an error when
// HEAD is detached.
func Branch(dir string) (string, error) {
	repo, err := open(dir)
	if err != nil {
		return "", err
	}
	ref, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD reference: %w", err)
	}
	if !ref.Name().IsBranch() {
		return "", fmt.Errorf("HEAD is detached at %s", ref.Hash())
	}
	return ref.Name().Short(), nil
}
