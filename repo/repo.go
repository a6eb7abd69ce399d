// Package repo implements the two repository-traversal operations:
// finding local objects missing for a tree, and finding pointers
// reachable from one reference but not another.
//
// The host VCS's object database, tree, and commit-graph are external
// collaborators (per this module's scope, it never imports a VCS
// library): traversal consumes small interfaces instead, which a
// caller implements against whatever VCS library it embeds this
// module into.
package repo

import (
	"io"

	"github.com/git-lfs/lfscore/lfserrors"
	"github.com/git-lfs/lfscore/logging"
	"github.com/git-lfs/lfscore/objectstore"
	"github.com/git-lfs/lfscore/pointer"
)

// Blob is a single blob's content, as seen during a tree walk.
type Blob interface {
	// Size returns the blob's size in bytes, if known without reading it.
	Size() int64
	// Open returns a reader over the blob's full contents.
	Open() (io.ReadCloser, error)
}

// TreeEntry is one entry encountered during a tree walk. Missing is
// true when the tree references an object absent from the host's own
// object database (a host-VCS-level gap, not an LFS object store
// gap) — this is logged and skipped, never fatal.
type TreeEntry struct {
	Path    string
	Blob    Blob
	Missing bool
}

// Tree walks its blob entries in a caller-defined order (pre-order for
// FindTreeMissing, post-order for the per-commit walk inside
// FindToPush — the order only matters for which duplicates are seen
// first, not for correctness).
type Tree interface {
	Walk(fn func(TreeEntry) error) error
}

// Commit exposes the tree it points at.
type Commit interface {
	Tree() (Tree, error)
}

// RevWalker yields the commits reachable from local but not from
// upstream (i.e. `local \ upstream` in revision-range terms).
type RevWalker interface {
	Walk(local, upstream string, fn func(Commit) error) error
}

// peekLen bounds how many bytes are read from a blob to test whether
// it is an LFS pointer, without reading blobs of unknown (possibly
// huge) size in full.
const peekLen = pointer.RoughLenMax

func peek(b Blob) ([]byte, error) {
	rc, err := b.Open()
	if err != nil {
		return nil, lfserrors.Wrap(lfserrors.Io, err)
	}
	defer rc.Close()

	buf := make([]byte, peekLen)
	n, err := io.ReadFull(rc, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, lfserrors.Wrap(lfserrors.Io, err)
	}
	return buf[:n], nil
}

// FindTreeMissing walks tree and returns every pointer whose blob
// parses successfully but whose object file is absent from store.
// Tree entries whose underlying object is missing from the host's own
// object database are logged and skipped, not treated as an error.
// Duplicate pointers across the tree are preserved; callers that need
// a set should de-duplicate themselves.
func FindTreeMissing(tree Tree, store *objectstore.Store, loggers logging.Loggers) ([]pointer.Pointer, error) {
	var missing []pointer.Pointer

	err := tree.Walk(func(entry TreeEntry) error {
		if entry.Missing {
			loggers.Error.Printf("lfs: tree entry %q references an object missing from the repository, skipping", entry.Path)
			return nil
		}

		b, err := peek(entry.Blob)
		if err != nil {
			return err
		}

		p, ok := pointer.ParseShort(b)
		if !ok {
			return nil
		}
		if !store.Has(p) {
			missing = append(missing, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return missing, nil
}

// FindToPush walks the commit range local\upstream and returns the
// de-duplicated set of pointers found in blobs whose size falls
// within [pointer.RoughLenMin, pointer.RoughLenMax]. The size
// heuristic is a fast pre-filter: a valid canonical pointer's length
// is bounded, so it is safe to skip blobs outside that range without
// attempting a parse.
func FindToPush(walker RevWalker, local, upstream string) ([]pointer.Pointer, error) {
	seen := make(map[pointer.Pointer]struct{})
	var result []pointer.Pointer

	err := walker.Walk(local, upstream, func(c Commit) error {
		tree, err := c.Tree()
		if err != nil {
			return err
		}
		return tree.Walk(func(entry TreeEntry) error {
			if entry.Missing {
				return nil
			}
			size := entry.Blob.Size()
			if size < pointer.RoughLenMin || size > pointer.RoughLenMax {
				return nil
			}

			rc, err := entry.Blob.Open()
			if err != nil {
				return lfserrors.Wrap(lfserrors.Io, err)
			}
			p, err := pointer.ParseReader(rc)
			closeErr := rc.Close()
			if err != nil {
				// Not a pointer (or malformed); not an error for this scan.
				return nil
			}
			if closeErr != nil {
				return lfserrors.Wrap(lfserrors.Io, closeErr)
			}

			if _, ok := seen[p]; !ok {
				seen[p] = struct{}{}
				result = append(result, p)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
