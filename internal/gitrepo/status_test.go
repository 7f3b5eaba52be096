package gitrepo

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestGetStatus_NonRepo(t *testing.T) {
	if !Available() {
		t.Skip("git not installed")
	}
	st, err := GetStatus(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if st.IsRepo {
		t.Fatalf("expected non-repo status")
	}
}

func TestGetStatus_DirtyAndUnmerged(t *testing.T) {
	if !Available() {
		t.Skip("git not installed")
	}
	ctx := context.Background()
	repo := newRepo(t)

	writeFile(t, filepath.Join(repo, "a.md"), "base\n")
	run(t, repo, "git", "add", ".")
	run(t, repo, "git", "commit", "-m", "base")
	defaultBranch := strings.TrimSpace(runOut(t, repo, "git", "rev-parse", "--abbrev-ref", "HEAD"))

	st, err := GetStatus(ctx, repo)
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if !st.IsRepo || st.Dirty || st.Unmerged || st.Head == "" {
		t.Fatalf("unexpected clean status: %+v", st)
	}

	writeFile(t, filepath.Join(repo, "draft.md"), "x\n")
	st, err = GetStatus(ctx, repo)
	if err != nil {
		t.Fatalf("GetStatus (dirty): %v", err)
	}
	if !st.Dirty {
		t.Fatalf("expected dirty=true: %+v", st)
	}

	run(t, repo, "git", "checkout", "-b", "feature")
	writeFile(t, filepath.Join(repo, "a.md"), "feature\n")
	run(t, repo, "git", "commit", "-am", "feature")
	run(t, repo, "git", "checkout", defaultBranch)
	writeFile(t, filepath.Join(repo, "a.md"), "main\n")
	run(t, repo, "git", "commit", "-am", "main")
	_ = exec.Command("git", "-C", repo, "merge", "feature").Run()

	st, err = GetStatus(ctx, repo)
	if err != nil {
		t.Fatalf("GetStatus (conflict): %v", err)
	}
	if !st.Unmerged || !st.InProgress || st.InProgressKind != "merge" {
		t.Fatalf("expected an unmerged merge: %+v", st)
	}
}

func TestParsePorcelain(t *testing.T) {
	dirty, unmerged := parsePorcelain(" M a.md\n?? b.md\n")
	if !dirty || unmerged {
		t.Fatalf("dirty=%v unmerged=%v", dirty, unmerged)
	}
	dirty, unmerged = parsePorcelain("UU a.md\n")
	if !dirty || !unmerged {
		t.Fatalf("dirty=%v unmerged=%v", dirty, unmerged)
	}
	if dirty, _ := parsePorcelain(""); dirty {
		t.Fatal("empty output is clean")
	}
}

func newRepo(t *testing.T) string {
	t.Helper()
	repo := t.TempDir()
	run(t, repo, "git", "init")
	run(t, repo, "git", "config", "user.email", "test@example.com")
	run(t, repo, "git", "config", "user.name", "Test")
	run(t, repo, "git", "config", "commit.gpgsign", "false")
	return repo
}

func run(t *testing.T, dir string, bin string, args ...string) {
	t.Helper()
	cmd := exec.Command(bin, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("%s %v: %v\n%s", bin, args, err, string(out))
	}
}

func runOut(t *testing.T, dir string, bin string, args ...string) string {
	t.Helper()
	cmd := exec.Command(bin, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("%s %v: %v\n%s", bin, args, err, string(out))
	}
	return string(out)
}

func writeFile(t *testing.T, path string, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
