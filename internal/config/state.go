package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

const stateFile = "state.json"

// State is small per-user CLI state that outlives a single command, such as
// the project most commands default to.
type State struct {
	CurrentProjectID   string    `json:"currentProjectId,omitempty"`
	CurrentProjectName string    `json:"currentProjectName,omitempty"`
	UpdatedAt          time.Time `json:"updatedAt,omitempty"`
}

func StatePath(dir string) string { return filepath.Join(dir, stateFile) }

// LoadState returns the zero State when no state file exists yet.
func LoadState(dir string) (State, error) {
	var st State
	b, err := os.ReadFile(StatePath(dir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return st, nil
		}
		return st, err
	}
	if err := json.Unmarshal(b, &st); err != nil {
		return State{}, err
	}
	return st, nil
}

func SaveState(dir string, st State) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = time.Now().UTC()
	}
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return WriteFileAtomic(StatePath(dir), append(b, '\n'), 0o644)
}

// WriteFileAtomic writes b to a unique temp file next to path and renames it
// into place, so concurrent quibo processes never observe a partial file.
func WriteFileAtomic(path string, b []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp, perm); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
