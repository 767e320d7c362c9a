package stub

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

// Ext is the file extension of a stub inside a store.
const Ext = ".stub"

// Store looks templates up by name.
type Store interface {
	Load(name string) (string, error)
}

// FSStore reads "<name>.stub" files from a file system.
type FSStore struct {
	fsys fs.FS
	dir  string
}

// NewFSStore creates a store over the dir directory of fsys.
func NewFSStore(fsys fs.FS, dir string) *FSStore {
	return &FSStore{fsys: fsys, dir: dir}
}

// Load implements Store.
func (s *FSStore) Load(name string) (string, error) {
	data, err := fs.ReadFile(s.fsys, path.Join(s.dir, name+Ext))
	if errors.Is(err, fs.ErrNotExist) {
		return "", &NotFoundError{Name: name}
	}
	if err != nil {
		return "", fmt.Errorf("load stub %s: %w", name, err)
	}
	return string(data), nil
}

// Names lists the stubs available in the store, without extension.
func (s *FSStore) Names() ([]string, error) {
	entries, err := fs.ReadDir(s.fsys, s.dir)
	if err != nil {
		return nil, fmt.Errorf("list stubs: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != Ext {
			continue
		}
		names = append(names, e.Name()[:len(e.Name())-len(Ext)])
	}
	return names, nil
}

// Layered tries each store in turn and returns the first template found.
type Layered []Store

// Load implements Store.
func (l Layered) Load(name string) (string, error) {
	for _, s := range l {
		tmpl, err := s.Load(name)
		if errors.Is(err, ErrTemplateNotFound) {
			continue
		}
		return tmpl, err
	}
	return "", &NotFoundError{Name: name}
}

//go:embed stubs/*.stub
var embedded embed.FS

// Default returns the built-in stub set.
func Default() *FSStore {
	return NewFSStore(embedded, "stubs")
}

// WithOverrides layers the stubs found in directory dir over the built-in
// set. An empty dir yields the built-in set alone.
func WithOverrides(dir string) Store {
	if dir == "" {
		return Default()
	}
	return Layered{NewFSStore(os.DirFS(dir), "."), Default()}
}

// Writer is the file sink Publish writes through.
type Writer interface {
	EnsureDirectory(path string) error
	WriteText(path, content string) error
}

// Publish copies every built-in stub into dir so it can be customised.
// It returns the written paths.
func Publish(dir string, w Writer) ([]string, error) {
	store := Default()
	names, err := store.Names()
	if err != nil {
		return nil, err
	}
	if err := w.EnsureDirectory(dir); err != nil {
		return nil, err
	}
	var written []string
	for _, name := range names {
		tmpl, err := store.Load(name)
		if err != nil {
			return nil, err
		}
		p := filepath.Join(dir, name+Ext)
		if err := w.WriteText(p, tmpl); err != nil {
			return nil, err
		}
		written = append(written, p)
	}
	return written, nil
}
