// Package hostfs manages the on-disk artifacts of hosted resources: extracted
// site trees, generated redirect pages and CNAME markers.
package hostfs

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	IndexDocument = "index.html"

	stagingDir = ".staging"
	trashDir   = ".trash"
)

var (
	ErrMissingIndex  = errors.New("archive has no root index.html")
	ErrExists        = errors.New("target directory already exists")
	ErrUnsafePath    = errors.New("archive entry escapes the extraction root")
	ErrArchiveTooBig = errors.New("archive expands beyond the allowed size")
)

// Tree keeps one directory per site under root. Work in progress lives in
// hidden subdirectories of root so that moves into place are renames.
type Tree struct {
	root string
}

func NewTree(root string) (*Tree, error) {
	for _, dir := range []string{root, filepath.Join(root, stagingDir), filepath.Join(root, trashDir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return &Tree{root: root}, nil
}

func (t *Tree) Root() string { return t.root }

// Dir is the live directory for name.
func (t *Tree) Dir(name string) string {
	return filepath.Join(t.root, name)
}

// Staged is an extracted archive ready to be moved into place.
type Staged struct {
	Path string
	Size int64
}

// Stage extracts the zip archive into a fresh staging directory, requires a
// root index.html and totals the extracted bytes. On error nothing is left
// behind. maxBytes bounds the extracted size; zero means unbounded.
func (t *Tree) Stage(archive io.ReaderAt, size, maxBytes int64) (*Staged, error) {
	zr, err := zip.NewReader(archive, size)
	if errors.Is(err, zip.ErrInsecurePath) {
		return nil, fmt.Errorf("%w: %v", ErrUnsafePath, err)
	}
	if err != nil {
		return nil, fmt.Errorf("open zip archive: %w", err)
	}

	dir := filepath.Join(t.root, stagingDir, uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}

	if err := extract(zr, dir, maxBytes); err != nil {
		os.RemoveAll(dir)
		return nil, err
	}
	if _, err := os.Stat(filepath.Join(dir, IndexDocument)); err != nil {
		os.RemoveAll(dir)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrMissingIndex
		}
		return nil, fmt.Errorf("check index document: %w", err)
	}

	total, err := DirSize(dir)
	if err != nil {
		os.RemoveAll(dir)
		return nil, err
	}
	return &Staged{Path: dir, Size: total}, nil
}

func extract(zr *zip.Reader, dir string, maxBytes int64) error {
	var written int64
	for _, f := range zr.File {
		name := filepath.FromSlash(f.Name)
		if filepath.IsAbs(name) || !filepath.IsLocal(name) {
			return fmt.Errorf("%w: %s", ErrUnsafePath, f.Name)
		}
		target := filepath.Join(dir, name)

		mode := f.Mode()
		switch {
		case mode.IsDir():
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create directory %s: %w", f.Name, err)
			}
			continue
		case !mode.IsRegular():
			// Symlinks and devices are dropped.
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("create directory for %s: %w", f.Name, err)
		}
		n, err := extractFile(f, target, remaining(maxBytes, written))
		if err != nil {
			return err
		}
		written += n
	}
	return nil
}

func remaining(maxBytes, written int64) int64 {
	if maxBytes <= 0 {
		return -1
	}
	return maxBytes - written
}

func extractFile(f *zip.File, target string, limit int64) (int64, error) {
	rc, err := f.Open()
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", f.Name, err)
	}
	defer out.Close()

	var src io.Reader = rc
	if limit >= 0 {
		src = io.LimitReader(rc, limit+1)
	}
	n, err := io.Copy(out, src)
	if err != nil {
		return n, fmt.Errorf("extract %s: %w", f.Name, err)
	}
	if limit >= 0 && n > limit {
		return n, ErrArchiveTooBig
	}
	return n, nil
}

// Install moves a staged tree into place as name. It fails with ErrExists
// when name is already present.
func (t *Tree) Install(s *Staged, name string) (string, error) {
	live := t.Dir(name)
	if _, err := os.Lstat(live); err == nil {
		os.RemoveAll(s.Path)
		return "", ErrExists
	}
	if err := os.Rename(s.Path, live); err != nil {
		os.RemoveAll(s.Path)
		if errors.Is(err, fs.ErrExist) {
			return "", ErrExists
		}
		return "", fmt.Errorf("install %s: %w", name, err)
	}
	return live, nil
}

// Replace swaps the live tree of name for a staged one. The previous tree is
// returned as a backup path, empty when there was none.
func (t *Tree) Replace(s *Staged, name string) (string, error) {
	backup, err := t.Trash(name)
	if err != nil {
		os.RemoveAll(s.Path)
		return "", err
	}
	if err := os.Rename(s.Path, t.Dir(name)); err != nil {
		os.RemoveAll(s.Path)
		if backup != "" {
			os.Rename(backup, t.Dir(name))
		}
		return "", fmt.Errorf("replace %s: %w", name, err)
	}
	return backup, nil
}

// Trash moves the live tree of name aside and returns where it went. A
// missing tree is not an error and yields an empty path.
func (t *Tree) Trash(name string) (string, error) {
	live := t.Dir(name)
	if _, err := os.Lstat(live); errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	aside := filepath.Join(t.root, trashDir, name+"-"+uuid.NewString())
	if err := os.Rename(live, aside); err != nil {
		return "", fmt.Errorf("move %s aside: %w", name, err)
	}
	// The reconciler ages trash by mtime, which rename keeps.
	now := time.Now()
	if err := os.Chtimes(aside, now, now); err != nil {
		os.Rename(aside, live)
		return "", fmt.Errorf("touch %s: %w", aside, err)
	}
	return aside, nil
}

// Restore puts a trashed tree back as the live tree of name, dropping
// whatever is live now.
func (t *Tree) Restore(aside, name string) error {
	live := t.Dir(name)
	if aside != "" {
		if _, err := os.Lstat(aside); err != nil {
			return fmt.Errorf("restore %s: %w", name, err)
		}
	}
	if err := os.RemoveAll(live); err != nil {
		return fmt.Errorf("clear %s: %w", name, err)
	}
	if aside == "" {
		return nil
	}
	if err := os.Rename(aside, live); err != nil {
		return fmt.Errorf("restore %s: %w", name, err)
	}
	return nil
}

// Remove deletes path if it lies inside the tree.
func (t *Tree) Remove(path string) error {
	if path == "" {
		return nil
	}
	if !Within(t.root, path) {
		return fmt.Errorf("%w: %s", ErrUnsafePath, path)
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

// DirSize totals the sizes of regular files below dir.
func DirSize(dir string) (int64, error) {
	var total int64
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("measure %s: %w", dir, err)
	}
	return total, nil
}

// Within reports whether path is root or lies below it.
func Within(root, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
