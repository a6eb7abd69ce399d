package lfsconfig

import "testing"

func TestMatchesExtensionsAreAuthoritative(t *testing.T) {
	c := TrackConfig{Extensions: []string{".psd", ".bin"}, MaxSize: 10}
	if !c.Matches("art.psd", 1_000_000) {
		t.Fatal("expected .psd to match regardless of size")
	}
	if c.Matches("notes.txt", 1) {
		t.Fatal("expected .txt with no matching extension to not match, even under the size ceiling")
	}
}

func TestMatchesFallsBackToSize(t *testing.T) {
	c := TrackConfig{MaxSize: 100}
	if !c.Matches("anything", 100) {
		t.Fatal("expected size == ceiling to match (inclusive)")
	}
	if c.Matches("anything", 101) {
		t.Fatal("expected size > ceiling to not match")
	}
}

func TestMatchesNothingWhenUnset(t *testing.T) {
	var c TrackConfig
	if c.Matches("anything", 0) {
		t.Fatal("expected empty config to match nothing")
	}
}

func TestMatchesIsCaseSensitive(t *testing.T) {
	c := TrackConfig{Extensions: []string{".PSD"}}
	if c.Matches("art.psd", 1) {
		t.Fatal("expected extension match to be case-sensitive")
	}
}
