package warehouse

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/warptools/loom/loomapi"
)

// FSStore serves reads through an fs.FS and writes through the os package
// rooted at a directory.  With an empty root the store is read-only, which
// is how tests serve fixture trees from an fstest.MapFS.
type FSStore struct {
	fsys fs.FS
	root string
}

var _ Store = (*FSStore)(nil)

// NewFSStore builds a store reading from fsys and writing under root.
// An empty root makes the store read-only.
func NewFSStore(fsys fs.FS, root string) *FSStore {
	return &FSStore{fsys: fsys, root: root}
}

// DirStore builds a read-write store over one directory.
func DirStore(root string) *FSStore {
	return &FSStore{fsys: os.DirFS(root), root: root}
}

func fsPath(loc loomapi.Location) string {
	if loc == "" {
		return "."
	}
	return loc.String()
}

func (s *FSStore) osPath(loc loomapi.Location) string {
	return filepath.Join(s.root, filepath.FromSlash(loc.String()))
}

func (s *FSStore) Get(ctx context.Context, loc loomapi.Location) ([]byte, error) {
	data, err := fs.ReadFile(s.fsys, fsPath(loc))
	if os.IsNotExist(err) {
		return nil, loomapi.ErrorLocationMissing(loc)
	}
	if err != nil {
		return nil, loomapi.ErrorIo("failed to read document", loc.String(), err)
	}
	return data, nil
}

func (s *FSStore) Put(ctx context.Context, loc loomapi.Location, data []byte) (loomapi.ContentCID, error) {
	if s.root == "" {
		return "", loomapi.ErrorInvalid("store is read-only", [2]string{"location", loc.String()})
	}
	path := s.osPath(loc)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", loomapi.ErrorIo("failed to create document directory", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", loomapi.ErrorIo("failed to write document", path, err)
	}
	return ContentID(data), nil
}

func (s *FSStore) Has(ctx context.Context, loc loomapi.Location) (bool, error) {
	_, err := fs.Stat(s.fsys, fsPath(loc))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, loomapi.ErrorIo("failed to stat document", loc.String(), err)
	}
	return true, nil
}

func (s *FSStore) List(ctx context.Context, prefix loomapi.Location) ([]string, error) {
	entries, err := fs.ReadDir(s.fsys, fsPath(prefix))
	if os.IsNotExist(err) {
		return nil, loomapi.ErrorLocationMissing(prefix)
	}
	if err != nil {
		return nil, loomapi.ErrorIo("failed to list documents", prefix.String(), err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

func (s *FSStore) Prefixes(ctx context.Context, prefix loomapi.Location) ([]string, error) {
	entries, err := fs.ReadDir(s.fsys, fsPath(prefix))
	if os.IsNotExist(err) {
		return nil, loomapi.ErrorLocationMissing(prefix)
	}
	if err != nil {
		return nil, loomapi.ErrorIo("failed to list prefixes", prefix.String(), err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

func (s *FSStore) Delete(ctx context.Context, loc loomapi.Location) error {
	if s.root == "" {
		return loomapi.ErrorInvalid("store is read-only", [2]string{"location", loc.String()})
	}
	path := s.osPath(loc)
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return loomapi.ErrorLocationMissing(loc)
	}
	if err != nil {
		return loomapi.ErrorIo("failed to remove document", path, err)
	}
	return nil
}
