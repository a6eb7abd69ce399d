// Package objectstore implements the local, content-addressed object
// store: a fan-out directory of immutable files under
// <root>/aa/bb/<hex>, one per distinct blob.
//
// Grounded on cache/disk/disk.go's directory layout and
// create-exclusive write discipline, simplified because this store
// never evicts (there is no LRU, no size cap, and no reference-log
// based GC — out of scope per this module's non-goals).
package objectstore

import (
	"io"
	"os"
	"path/filepath"

	"github.com/git-lfs/lfscore/lfserrors"
	"github.com/git-lfs/lfscore/pointer"
)

// Store is a content-addressed object store rooted at a directory.
// It is safe for concurrent use.
type Store struct {
	root string
}

// New returns a Store rooted at root. The root is not created until
// the first write.
func New(root string) *Store {
	return &Store{root: root}
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// Path returns the absolute path p's object would be stored at,
// whether or not it currently exists.
func (s *Store) Path(p pointer.Pointer) string {
	return filepath.Join(s.root, filepath.FromSlash(p.RelPath()))
}

// Has reports whether p's object file is present on disk.
func (s *Store) Has(p pointer.Pointer) bool {
	_, err := os.Stat(s.Path(p))
	return err == nil
}

// StoreIfAbsent writes r's bytes to p's object file if it doesn't
// already exist. If the file exists, this is a silent no-op: callers
// are not required to have re-read r in that case. A late
// exclusive-create that loses a race against a concurrent first
// writer is treated as success, not an error.
func (s *Store) StoreIfAbsent(p pointer.Pointer, r io.Reader) error {
	if s.Has(p) {
		return nil
	}

	path := s.Path(p)
	if err := os.MkdirAll(filepath.Dir(path), 0775); err != nil {
		return lfserrors.Wrap(lfserrors.Io, err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0664)
	if err != nil {
		if os.IsExist(err) {
			// Another writer won the race; that's success.
			return nil
		}
		return lfserrors.Wrap(lfserrors.Io, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return lfserrors.Wrap(lfserrors.Io, err)
	}
	return nil
}

// Load streams the object's bytes into w. If the object is absent,
// Load returns a *lfserrors.Error with Code lfserrors.NotFound and
// writes nothing to w; the caller decides whether to heal (pull),
// warn, or pass through.
func (s *Store) Load(p pointer.Pointer, w io.Writer) error {
	f, err := os.Open(s.Path(p))
	if err != nil {
		if os.IsNotExist(err) {
			return lfserrors.New(lfserrors.NotFound, "object not found: "+p.Hex())
		}
		return lfserrors.Wrap(lfserrors.Io, err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return lfserrors.Wrap(lfserrors.Io, err)
	}
	return nil
}
