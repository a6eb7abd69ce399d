// Package filter implements the two contracts the host VCS invokes on
// either side of the index/working-copy boundary: Check (does this
// path participate in LFS?) and Apply (the clean/smudge transform
// itself).
package filter

import (
	"bytes"
	"io"
	"sync"

	"github.com/git-lfs/lfscore/lfsconfig"
	"github.com/git-lfs/lfscore/lfserrors"
	"github.com/git-lfs/lfscore/logging"
	"github.com/git-lfs/lfscore/objectstore"
	"github.com/git-lfs/lfscore/pointer"
)

// InstallPriority is the fixed priority this filter registers under.
const InstallPriority = 1

// Registrar is the host VCS's filter-registration surface. This
// module never imports a concrete host VCS; callers supply whatever
// adapter speaks to theirs.
type Registrar interface {
	RegisterFilter(name string, priority int, f *Filter) error
}

var (
	installMu   sync.Mutex
	installDone = map[string]bool{}
)

// Install registers f with r under name at InstallPriority.
// Registration is process-global and idempotent: a second Install
// call for the same name is a silent no-op, since most host VCSes
// only permit one registration per filter name.
func Install(r Registrar, name string, f *Filter) error {
	installMu.Lock()
	defer installMu.Unlock()

	if installDone[name] {
		return nil
	}
	if err := r.RegisterFilter(name, InstallPriority, f); err != nil {
		return lfserrors.Wrap(lfserrors.Custom, err)
	}
	installDone[name] = true
	return nil
}

// Mode selects which direction of the filter to run.
type Mode int

const (
	// Clean transforms working-copy bytes into the blob the host VCS stores.
	Clean Mode = iota
	// Smudge transforms a stored blob back into working-copy bytes.
	Smudge
)

// Config is the filter's track-selection configuration.
type Config struct {
	Track lfsconfig.TrackConfig
}

// Filter implements the host VCS clean/smudge filter contract against
// a local object store.
type Filter struct {
	store   *objectstore.Store
	cfg     Config
	loggers logging.Loggers
}

// New returns a Filter backed by store, using cfg's track-selection
// rules and loggers for the intentional "missing object" warning on
// smudge.
func New(store *objectstore.Store, cfg Config, loggers logging.Loggers) *Filter {
	return &Filter{store: store, cfg: cfg, loggers: loggers}
}

// Check reports whether path participates in LFS. hasAttr is the host
// VCS's own attribute-system answer (e.g. a ".gitattributes" entry
// tagging the path as an LFS path); when true, Check is
// unconditionally true regardless of the configured predicate. An
// empty path always answers false.
func (f *Filter) Check(path string, hasAttr bool, size int64) bool {
	if path == "" {
		return false
	}
	if hasAttr {
		return true
	}
	return f.cfg.Track.Matches(path, size)
}

// Apply performs the clean or smudge transform. The returned bool
// tells the host VCS whether the filter consumed the input (true) or
// declined (false — the host should use the input unchanged). Any
// returned error other than a declined smudge is a hard filter
// failure the host should surface.
func (f *Filter) Apply(mode Mode, r io.Reader, w io.Writer) (bool, error) {
	switch mode {
	case Clean:
		return f.clean(r, w)
	case Smudge:
		return f.smudge(r, w)
	default:
		return false, lfserrors.Newf(lfserrors.Custom, "unknown filter mode %d", mode)
	}
}

func (f *Filter) clean(r io.Reader, w io.Writer) (bool, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return false, lfserrors.Wrap(lfserrors.Io, err)
	}

	p, err := pointer.HashAndWrap(b)
	if err != nil {
		return false, err
	}

	if err := f.store.StoreIfAbsent(p, bytes.NewReader(b)); err != nil {
		return false, err
	}

	if err := p.Emit(w); err != nil {
		return false, err
	}
	return true, nil
}

func (f *Filter) smudge(r io.Reader, w io.Writer) (bool, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return false, lfserrors.Wrap(lfserrors.Io, err)
	}

	p, ok := pointer.ParseShort(b)
	if !ok {
		// Not a pointer: host copies bytes unchanged.
		return false, nil
	}

	if err := f.store.Load(p, w); err != nil {
		if lfserrors.Is(err, lfserrors.NotFound) {
			f.loggers.Error.Printf("lfs: object %s missing locally, leaving pointer in working copy", p.Hex())
			return false, nil
		}
		return false, err
	}
	return true, nil
}
