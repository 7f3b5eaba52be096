package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// ErrNotRepo is returned when the directory is not inside a git work tree.
var ErrNotRepo = errors.New("not inside a git repository")

// CommitFiles stages exactly paths and commits them. Other changes in the
// work tree are left alone. It returns committed=false when the files match
// HEAD already.
func CommitFiles(ctx context.Context, dir string, paths []string, message string) (committed bool, err error) {
	dir = filepath.Clean(dir)
	st, err := GetStatus(ctx, dir)
	if err != nil {
		return false, err
	}
	if !st.IsRepo {
		return false, ErrNotRepo
	}
	if st.Unmerged || st.InProgress {
		return false, errors.New("git repo has an in-progress merge/rebase; resolve first")
	}
	if len(paths) == 0 {
		return false, nil
	}

	rels := make([]string, 0, len(paths))
	for _, p := range paths {
		rel, err := relTo(st.Root, p)
		if err != nil {
			return false, err
		}
		rels = append(rels, rel)
	}

	if _, err := git(ctx, st.Root, append([]string{"add", "--"}, rels...)...); err != nil {
		return false, err
	}
	out, err := git(ctx, st.Root, append([]string{"diff", "--cached", "--name-only", "--"}, rels...)...)
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(out) == "" {
		return false, nil
	}

	msg := strings.TrimSpace(message)
	if msg == "" {
		msg = fmt.Sprintf("quibo: export post (%s)", time.Now().UTC().Format(time.RFC3339))
	}
	if _, err := git(ctx, st.Root, append([]string{"commit", "-m", msg, "--"}, rels...)...); err != nil {
		return false, err
	}
	return true, nil
}

// relTo makes path relative to the repo root. Both sides are resolved through
// symlinks since git reports a canonical root (/var vs /private/var on macOS).
func relTo(root, path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if v, err := filepath.EvalSymlinks(abs); err == nil {
		abs = v
	}
	if v, err := filepath.EvalSymlinks(root); err == nil {
		root = v
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside the repository at %s", path, root)
	}
	return filepath.ToSlash(rel), nil
}
