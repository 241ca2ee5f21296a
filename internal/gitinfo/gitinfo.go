// Package gitinfo stamps build records with the docs tree's HEAD commit.
package gitinfo

import (
	"log/slog"

	git "github.com/go-git/go-git/v5"
)

const shortHashLen = 12

// HeadCommit returns the abbreviated HEAD commit hash for the repository
// containing dir, walking upwards to find .git. Outside a repository, or
// on an unborn branch, it returns the empty string; build stamping is
// best-effort and never fails a build.
func HeadCommit(dir string) string {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		slog.Debug("No git repository for build stamp", "dir", dir, "error", err)
		return ""
	}

	head, err := repo.Head()
	if err != nil {
		slog.Debug("No HEAD for build stamp", "dir", dir, "error", err)
		return ""
	}

	hash := head.Hash().String()
	if len(hash) > shortHashLen {
		hash = hash[:shortHashLen]
	}
	return hash
}
