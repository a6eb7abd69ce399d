package filter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/git-lfs/lfscore/lfsconfig"
	"github.com/git-lfs/lfscore/logging"
	"github.com/git-lfs/lfscore/objectstore"
	"github.com/git-lfs/lfscore/pointer"
)

func newTestFilter(t *testing.T) (*Filter, *objectstore.Store) {
	t.Helper()
	store := objectstore.New(t.TempDir())
	f := New(store, Config{Track: lfsconfig.TrackConfig{Extensions: []string{".bin"}}}, logging.Discard())
	return f, store
}

func TestCheckHonorsAttrUnconditionally(t *testing.T) {
	f, _ := newTestFilter(t)
	if !f.Check("anything.txt", true, 0) {
		t.Fatal("expected attr-tagged path to always participate")
	}
}

func TestCheckEmptyPathIsFalse(t *testing.T) {
	f, _ := newTestFilter(t)
	if f.Check("", false, 0) {
		t.Fatal("expected empty path to never participate")
	}
}

func TestCheckAppliesTrackConfig(t *testing.T) {
	f, _ := newTestFilter(t)
	if !f.Check("blob.bin", false, 0) {
		t.Fatal("expected .bin to participate per track config")
	}
	if f.Check("blob.txt", false, 0) {
		t.Fatal("expected .txt to not participate")
	}
}

func TestCleanStoresAndEmitsPointer(t *testing.T) {
	f, store := newTestFilter(t)
	var out bytes.Buffer
	ok, err := f.Apply(Clean, strings.NewReader("blob"), &out)
	if err != nil {
		t.Fatalf("Apply(Clean): %v", err)
	}
	if !ok {
		t.Fatal("expected Clean to report consumed=true")
	}

	want, _ := pointer.HashAndWrap([]byte("blob"))
	got, err := pointer.Parse(out.String())
	if err != nil {
		t.Fatalf("parsing emitted pointer: %v", err)
	}
	if got != want {
		t.Fatalf("emitted pointer mismatch: got %+v, want %+v", got, want)
	}
	if !store.Has(want) {
		t.Fatal("expected Clean to have stored the object")
	}
}

func TestSmudgeRestoresBytes(t *testing.T) {
	f, store := newTestFilter(t)
	p, err := pointer.HashAndWrap([]byte("blob"))
	if err != nil {
		t.Fatal(err)
	}
	if err := store.StoreIfAbsent(p, strings.NewReader("blob")); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	ok, err := f.Apply(Smudge, strings.NewReader(p.String()), &out)
	if err != nil {
		t.Fatalf("Apply(Smudge): %v", err)
	}
	if !ok {
		t.Fatal("expected Smudge to report consumed=true")
	}
	if out.String() != "blob" {
		t.Fatalf("Smudge output = %q, want %q", out.String(), "blob")
	}
}

func TestSmudgeMissingObjectIsNotAnError(t *testing.T) {
	f, _ := newTestFilter(t)
	p, err := pointer.HashAndWrap([]byte("never stored"))
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	ok, err := f.Apply(Smudge, strings.NewReader(p.String()), &out)
	if err != nil {
		t.Fatalf("expected no error on missing object, got %v", err)
	}
	if ok {
		t.Fatal("expected Smudge to decline (consumed=false) on a missing object")
	}
	if out.Len() != 0 {
		t.Fatal("expected nothing written to the sink on a missing object")
	}
}

func TestSmudgeNonPointerPassesThrough(t *testing.T) {
	f, _ := newTestFilter(t)
	var out bytes.Buffer
	ok, err := f.Apply(Smudge, strings.NewReader("just raw bytes, not a pointer"), &out)
	if err != nil {
		t.Fatalf("expected no error for non-pointer input, got %v", err)
	}
	if ok {
		t.Fatal("expected Smudge to decline on non-pointer input")
	}
}

type fakeRegistrar struct {
	calls []string
}

func (r *fakeRegistrar) RegisterFilter(name string, priority int, f *Filter) error {
	r.calls = append(r.calls, name)
	return nil
}

func TestInstallIsIdempotentPerName(t *testing.T) {
	f, _ := newTestFilter(t)
	r := &fakeRegistrar{}

	name := "lfs-install-test"
	if err := Install(r, name, f); err != nil {
		t.Fatalf("Install: %v", err)
	}
	if err := Install(r, name, f); err != nil {
		t.Fatalf("second Install: %v", err)
	}
	if len(r.calls) != 1 {
		t.Fatalf("RegisterFilter called %d times, want 1", len(r.calls))
	}
}

// TestEndToEndCleanThenSmudge exercises S1/S2 from the spec: a clean
// on 4 bytes then a smudge recreates them byte for byte.
func TestEndToEndCleanThenSmudge(t *testing.T) {
	f, _ := newTestFilter(t)

	var pointerText bytes.Buffer
	if _, err := f.Apply(Clean, strings.NewReader("blob"), &pointerText); err != nil {
		t.Fatal(err)
	}

	var restored bytes.Buffer
	ok, err := f.Apply(Smudge, strings.NewReader(pointerText.String()), &restored)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || restored.String() != "blob" {
		t.Fatalf("restored = %q, ok=%v, want %q, true", restored.String(), ok, "blob")
	}
}
