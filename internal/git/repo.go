// Package git resolves revisions and extracts added lines using go-git.
package git

import (
	"errors"
	"fmt"
	"path/filepath"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

var (
	// ErrRepositoryNotFound means no repository root was found from the given path.
	ErrRepositoryNotFound = errors.New("repository not found")
	// ErrRevisionNotFound means a revision did not resolve to a commit.
	ErrRevisionNotFound = errors.New("revision not found")
	// ErrNoMergeBase means the two commits share no history.
	ErrNoMergeBase = errors.New("no merge base")
)

// Repository is an opened repository together with its working directory.
type Repository struct {
	repo    *gogit.Repository
	workdir string
}

// Open locates the repository containing path, searching parent directories.
func Open(path string) (*Repository, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	repo, err := gogit.PlainOpenWithOptions(abs, &gogit.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%w: %s", ErrRepositoryNotFound, abs)
		}
		return nil, fmt.Errorf("opening repository at %s: %w", abs, err)
	}

	workdir := abs
	wt, err := repo.Worktree()
	switch {
	case err == nil:
		workdir = wt.Filesystem.Root()
	case errors.Is(err, gogit.ErrIsBareRepository):
		// bare repositories have no checkout; findings are resolved against path
	default:
		return nil, fmt.Errorf("reading worktree: %w", err)
	}

	return &Repository{repo: repo, workdir: workdir}, nil
}

// Workdir returns the absolute root of the working tree.
func (r *Repository) Workdir() string {
	return r.workdir
}

// Resolve turns a revision (branch, tag, hash, HEAD~2, ...) into a commit.
func (r *Repository) Resolve(rev string) (*object.Commit, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRevisionNotFound, rev)
	}
	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not a commit: %v", ErrRevisionNotFound, rev, err)
	}
	return commit, nil
}

// MergeBase returns the lowest common ancestor of a and b.
func (r *Repository) MergeBase(a, b *object.Commit) (*object.Commit, error) {
	bases, err := a.MergeBase(b)
	if err != nil {
		return nil, fmt.Errorf("computing merge base of %s and %s: %w", short(a.Hash), short(b.Hash), err)
	}
	if len(bases) == 0 {
		return nil, fmt.Errorf("%w: %s and %s", ErrNoMergeBase, short(a.Hash), short(b.Hash))
	}
	return bases[0], nil
}

// RangeSpec names the two ends of the diff.
type RangeSpec struct {
	// Base is the base revision. Ignored when MergeBase is set.
	Base string
	// BaseFallbacks are tried in order when Base does not resolve.
	BaseFallbacks []string
	// MergeBase, when set, makes the base merge-base(MergeBase, Tip).
	MergeBase string
	// Tip is the tip revision.
	Tip string
}

// ResolveRange resolves spec into base and tip commits.
func (r *Repository) ResolveRange(spec RangeSpec) (base, tip *object.Commit, err error) {
	tip, err = r.Resolve(spec.Tip)
	if err != nil {
		return nil, nil, err
	}

	if spec.MergeBase != "" {
		other, err := r.Resolve(spec.MergeBase)
		if err != nil {
			return nil, nil, err
		}
		base, err = r.MergeBase(other, tip)
		if err != nil {
			return nil, nil, err
		}
		return base, tip, nil
	}

	base, err = r.Resolve(spec.Base)
	if err == nil {
		return base, tip, nil
	}
	for _, rev := range spec.BaseFallbacks {
		if fb, ferr := r.Resolve(rev); ferr == nil {
			return fb, tip, nil
		}
	}
	return nil, nil, err
}

func short(h plumbing.Hash) string {
	return h.String()[:7]
}
