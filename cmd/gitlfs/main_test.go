package main

import "testing"

func TestParsePointerArgsRoundTrips(t *testing.T) {
	arg := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855:0"
	pointers, err := parsePointerArgs([]string{arg})
	if err != nil {
		t.Fatalf("parsePointerArgs: %v", err)
	}
	if len(pointers) != 1 {
		t.Fatalf("got %d pointers, want 1", len(pointers))
	}
	if pointers[0].Hex() != "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Fatalf("hex mismatch: %s", pointers[0].Hex())
	}
	if pointers[0].Size != 0 {
		t.Fatalf("size mismatch: %d", pointers[0].Size)
	}
}

func TestParsePointerArgsRejectsMalformed(t *testing.T) {
	cases := []string{
		"missing-colon",
		"deadbeef:not-a-number",
		"nothex:10",
	}
	for _, c := range cases {
		if _, err := parsePointerArgs([]string{c}); err == nil {
			t.Errorf("parsePointerArgs(%q): expected error", c)
		}
	}
}
