// Package pointer implements the Git LFS pointer text format: parsing,
// emitting, and the fan-out path derivation used by the local object
// store.
package pointer

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/git-lfs/lfscore/lfserrors"
)

// Version is the LFS pointer spec version line value.
const Version = "https://git-lfs.github.com/spec/v1"

// HashAlgo is the only hash algorithm this codec understands.
const HashAlgo = "sha256"

const hashSize = sha256.Size

// RoughLenMin and RoughLenMax bound the byte length of any valid
// canonical pointer text. They are used by repo.FindToPush as a cheap
// pre-filter before attempting a full parse.
const (
	RoughLenMin = 120
	RoughLenMax = 220
)

// Pointer is an immutable value object identifying a blob by its
// SHA-256 hash and byte size.
type Pointer struct {
	Hash [hashSize]byte
	Size int64
}

// HashAndWrap computes the SHA-256 of b and wraps it, along with
// len(b), into a Pointer.
func HashAndWrap(b []byte) (Pointer, error) {
	sum := sha256.Sum256(b)
	if len(sum) != hashSize {
		return Pointer{}, lfserrors.New(lfserrors.InvalidHashLength, fmt.Sprintf("digest returned %d bytes, want %d", len(sum), hashSize))
	}
	return Pointer{Hash: sum, Size: int64(len(b))}, nil
}

// Hex returns the lowercase 64-character hex encoding of p's hash.
func (p Pointer) Hex() string {
	return hex.EncodeToString(p.Hash[:])
}

// RelPath returns the fan-out path "aa/bb/<hex>" for p, relative to an
// object store root. It is purely a function of p's hex digest.
func (p Pointer) RelPath() string {
	h := p.Hex()
	return h[0:2] + "/" + h[2:4] + "/" + h
}

// String returns the canonical three-line pointer text.
func (p Pointer) String() string {
	var b strings.Builder
	// Emit never fails against a strings.Builder.
	_ = p.Emit(&b)
	return b.String()
}

// Emit writes the canonical three-line pointer text to w, including
// the trailing newline on the size line.
func (p Pointer) Emit(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "version %s\n", Version); err != nil {
		return lfserrors.Wrap(lfserrors.Io, err)
	}
	if _, err := fmt.Fprintf(bw, "oid %s:%s\n", HashAlgo, p.Hex()); err != nil {
		return lfserrors.Wrap(lfserrors.Io, err)
	}
	if _, err := fmt.Fprintf(bw, "size %d\n", p.Size); err != nil {
		return lfserrors.Wrap(lfserrors.Io, err)
	}
	if err := bw.Flush(); err != nil {
		return lfserrors.Wrap(lfserrors.Io, err)
	}
	return nil
}

// Parse parses the canonical pointer text. The size line is optional;
// its absence (end of input, or a blank line, right after the oid
// line) means size 0. Any other malformation of the size line is an
// error. Leading whitespace anywhere is a parse error.
func Parse(text string) (Pointer, error) {
	return ParseReader(strings.NewReader(text))
}

// ParseReader is like Parse but reads from r.
func ParseReader(r io.Reader) (Pointer, error) {
	sc := bufio.NewScanner(r)

	if !sc.Scan() {
		return Pointer{}, lfserrors.New(lfserrors.InvalidSpec, "empty pointer text")
	}
	versionLine := sc.Text()
	wantVersion := "version " + Version
	if versionLine != wantVersion {
		return Pointer{}, lfserrors.Newf(lfserrors.InvalidSpec, "expected %q, got %q", wantVersion, versionLine)
	}

	if !sc.Scan() {
		return Pointer{}, lfserrors.New(lfserrors.InvalidSpec, "missing oid line")
	}
	oidLine := sc.Text()
	prefix := HashAlgo + ":"
	if !strings.HasPrefix(oidLine, "oid "+prefix) {
		return Pointer{}, lfserrors.Newf(lfserrors.InvalidSpec, "expected %q, got %q", "oid "+prefix+"<hex>", oidLine)
	}
	hexDigest := strings.TrimPrefix(oidLine, "oid "+prefix)
	if len(hexDigest) != hashSize*2 {
		return Pointer{}, lfserrors.New(lfserrors.InvalidHashLength, fmt.Sprintf("oid hex is %d chars, want %d", len(hexDigest), hashSize*2))
	}
	raw, err := hex.DecodeString(hexDigest)
	if err != nil {
		return Pointer{}, lfserrors.Wrap(lfserrors.Hex, err)
	}

	var p Pointer
	copy(p.Hash[:], raw)

	// The size line is optional: end of input or a blank line both
	// mean size defaults to 0.
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return Pointer{}, lfserrors.Wrap(lfserrors.Io, err)
		}
		return p, nil
	}
	sizeLine := sc.Text()
	if sizeLine == "" {
		return p, nil
	}
	if !strings.HasPrefix(sizeLine, "size ") {
		return Pointer{}, lfserrors.New(lfserrors.InvalidSize, fmt.Sprintf("malformed size line %q", sizeLine))
	}
	size, err := strconv.ParseInt(strings.TrimPrefix(sizeLine, "size "), 10, 64)
	if err != nil || size < 0 {
		return Pointer{}, lfserrors.New(lfserrors.InvalidSize, fmt.Sprintf("malformed size line %q", sizeLine))
	}
	p.Size = size

	if err := sc.Err(); err != nil {
		return Pointer{}, lfserrors.Wrap(lfserrors.Io, err)
	}
	return p, nil
}

// IsPointer reports whether Parse would succeed on (a prefix of) b.
func IsPointer(b []byte) bool {
	_, ok := ParseShort(b)
	return ok
}

// ParseShort is a cheap probe safe to call on blobs of unknown,
// possibly huge, size: it truncates b to at most RoughLenMax bytes
// before attempting a parse, and returns (zero, false) on any
// failure instead of an error.
func ParseShort(b []byte) (Pointer, bool) {
	if len(b) > RoughLenMax {
		b = b[:RoughLenMax]
	}
	p, err := ParseReader(bytes.NewReader(b))
	if err != nil {
		return Pointer{}, false
	}
	return p, true
}
