package hostfs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Files keeps one file per name in dir, named <name><ext>.
type Files struct {
	dir string
	ext string
}

func NewFiles(dir, ext string) (*Files, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}
	return &Files{dir: dir, ext: ext}, nil
}

func (f *Files) Dir() string { return f.dir }
func (f *Files) Ext() string { return f.ext }

func (f *Files) Path(name string) string {
	return filepath.Join(f.dir, name+f.ext)
}

// Write replaces the file for name atomically.
func (f *Files) Write(name string, data []byte) error {
	tmp := filepath.Join(f.dir, "."+name+"-"+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp, f.Path(name)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// Read returns the file for name, or nil when it does not exist.
func (f *Files) Read(name string) ([]byte, error) {
	data, err := os.ReadFile(f.Path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// Remove deletes the file for name. A missing file is not an error.
func (f *Files) Remove(name string) error {
	if err := os.Remove(f.Path(name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}

// Restore writes previous back for name, or removes the file when previous is nil.
func (f *Files) Restore(name string, previous []byte) error {
	if previous == nil {
		return f.Remove(name)
	}
	return f.Write(name, previous)
}
