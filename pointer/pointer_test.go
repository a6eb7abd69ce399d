package pointer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/git-lfs/lfscore/lfserrors"
)

func TestHashAndWrapRoundTrip(t *testing.T) {
	cases := [][]byte{
		[]byte(""),
		[]byte("blob"),
		bytes.Repeat([]byte("x"), 4096),
	}
	for _, b := range cases {
		p, err := HashAndWrap(b)
		if err != nil {
			t.Fatalf("HashAndWrap: %v", err)
		}
		text := p.String()
		got, err := Parse(text)
		if err != nil {
			t.Fatalf("Parse(%q): %v", text, err)
		}
		if got != p {
			t.Fatalf("round trip mismatch: got %+v, want %+v", got, p)
		}
	}
}

func TestEmitShape(t *testing.T) {
	p, err := HashAndWrap([]byte("blob"))
	if err != nil {
		t.Fatal(err)
	}
	text := p.String()
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), text)
	}
	if !strings.HasPrefix(lines[1], "oid sha256:") || len(lines[1]) != len("oid sha256:")+64 {
		t.Fatalf("unexpected oid line: %q", lines[1])
	}
	if lines[2] != "size 4" {
		t.Fatalf("unexpected size line: %q", lines[2])
	}
}

func TestRelPathIsFanoutOfHex(t *testing.T) {
	p, err := HashAndWrap([]byte("blob"))
	if err != nil {
		t.Fatal(err)
	}
	hex := p.Hex()
	want := hex[0:2] + "/" + hex[2:4] + "/" + hex
	if got := p.RelPath(); got != want {
		t.Fatalf("RelPath() = %q, want %q", got, want)
	}
}

func TestParseTwoLineFormDefaultsSizeZero(t *testing.T) {
	text := "version " + Version + "\noid sha256:" + strings.Repeat("a", 64) + "\n"
	p, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Size != 0 {
		t.Fatalf("Size = %d, want 0", p.Size)
	}
}

func TestParseLeadingWhitespaceIsInvalidSpec(t *testing.T) {
	text := " version " + Version + "\noid sha256:" + strings.Repeat("a", 64) + "\nsize 0\n"
	_, err := Parse(text)
	if !lfserrors.Is(err, lfserrors.InvalidSpec) {
		t.Fatalf("expected InvalidSpec, got %v", err)
	}
}

func TestParseBadSizeLine(t *testing.T) {
	text := "version " + Version + "\noid sha256:" + strings.Repeat("a", 64) + "\nsize notanumber\n"
	_, err := Parse(text)
	if !lfserrors.Is(err, lfserrors.InvalidSize) {
		t.Fatalf("expected InvalidSize, got %v", err)
	}
}

func TestParseBadHashLength(t *testing.T) {
	text := "version " + Version + "\noid sha256:abcd\nsize 0\n"
	_, err := Parse(text)
	if !lfserrors.Is(err, lfserrors.InvalidHashLength) {
		t.Fatalf("expected InvalidHashLength, got %v", err)
	}
}

func TestParseShortTruncatesAndSucceeds(t *testing.T) {
	p, err := HashAndWrap([]byte("blob"))
	if err != nil {
		t.Fatal(err)
	}
	padded := append([]byte(p.String()), bytes.Repeat([]byte("\x00"), 10_000)...)
	got, ok := ParseShort(padded)
	if !ok {
		t.Fatal("ParseShort failed on padded valid pointer")
	}
	if got != p {
		t.Fatalf("ParseShort mismatch: got %+v, want %+v", got, p)
	}
}

func TestParseShortRejectsNonPointer(t *testing.T) {
	if _, ok := ParseShort([]byte("just some binary data\x00\x01\x02")); ok {
		t.Fatal("expected ParseShort to reject non-pointer data")
	}
}

func TestIsPointerRejectsHugeNonPointer(t *testing.T) {
	// A blob far larger than RoughLenMax with no pointer header is not
	// classified as a pointer after truncation.
	huge := bytes.Repeat([]byte("z"), RoughLenMax*4)
	if IsPointer(huge) {
		t.Fatal("expected huge non-pointer blob to not be classified as a pointer")
	}
}
