// Package revision identifies the source revision a build runs against.
package revision

import (
	stderrors "errors"
	"log/slog"

	ggit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/assetbuilder/internal/logfields"
)

// Info describes HEAD of the repository enclosing a project.
type Info struct {
	Commit string
	Branch string
}

// Short returns the abbreviated commit hash.
func (i Info) Short() string {
	if len(i.Commit) > 8 {
		return i.Commit[:8]
	}
	return i.Commit
}

// Head resolves HEAD of the repository containing root, searching parent
// directories. A project outside a repository, or one without commits, yields
// a zero Info.
func Head(root string) Info {
	repo, err := ggit.PlainOpenWithOptions(root, &ggit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if !stderrors.Is(err, ggit.ErrRepositoryNotExists) {
			slog.Debug("Failed to open repository", logfields.Path(root), logfields.Error(err))
		}
		return Info{}
	}
	ref, err := repo.Head()
	if err != nil {
		if !stderrors.Is(err, plumbing.ErrReferenceNotFound) {
			slog.Debug("Failed to resolve HEAD", logfields.Path(root), logfields.Error(err))
		}
		return Info{}
	}
	info := Info{Commit: ref.Hash().String()}
	if ref.Name().IsBranch() {
		info.Branch = ref.Name().Short()
	}
	return info
}
