package download

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type ConflictStrategy string

const (
	ConflictRename    ConflictStrategy = "rename"
	ConflictOverwrite ConflictStrategy = "overwrite"
	ConflictSkip      ConflictStrategy = "skip"
)

// ErrSkipped is returned when a file already exists and the strategy is skip.
var ErrSkipped = errors.New("download skipped: file exists")

// maxRenames bounds the "name (n).ext" search.
const maxRenames = 999

// Options controls Save.
type Options struct {
	Dir      string
	Conflict ConflictStrategy
}

// Save writes data to Dir/name through a temp file and rename, so a reader
// never sees a half-written image. Name collisions follow opts.Conflict:
//   - rename: pick "name (1).ext", "name (2).ext", ... like a browser does
//   - overwrite: replace the existing file
//   - skip: leave the existing file and return ErrSkipped
func Save(name string, data []byte, opts Options) (destPath string, err error) {
	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) || strings.TrimSpace(base) == "" {
		return "", fmt.Errorf("download: invalid file name %q", name)
	}
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir dest: %w", err)
	}

	destPath, err = resolve(filepath.Join(dir, base), opts.Conflict)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		// best-effort cleanup of temp on failure
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return "", fmt.Errorf("write temp: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return "", fmt.Errorf("sync temp: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp: %w", err)
	}
	if err = os.Chmod(tmpPath, 0o644); err != nil {
		return "", fmt.Errorf("chmod temp: %w", err)
	}
	if err = os.Rename(tmpPath, destPath); err != nil {
		return "", fmt.Errorf("rename temp: %w", err)
	}
	return destPath, nil
}

func resolve(path string, conflict ConflictStrategy) (string, error) {
	_, statErr := os.Lstat(path)
	switch {
	case os.IsNotExist(statErr):
		return path, nil
	case statErr != nil:
		return "", fmt.Errorf("stat dest: %w", statErr)
	}
	switch conflict {
	case ConflictOverwrite:
		return path, nil
	case ConflictSkip:
		return "", ErrSkipped
	case ConflictRename, "":
		return numbered(path)
	default:
		return "", fmt.Errorf("download: unknown conflict strategy %q", conflict)
	}
}

func numbered(path string) (string, error) {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for i := 1; i <= maxRenames; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, i, ext))
		if _, err := os.Lstat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("download: no free name for %s", base)
}
