// Package lfsconfig holds the LFS track-selection configuration: the
// pair of orthogonal criteria (extensions, max size) that decide which
// working-copy paths participate in the filter, independent of the
// host VCS's own attribute system.
package lfsconfig

import "strings"

// TrackConfig is an immutable selection predicate. Extensions, when
// non-empty, are authoritative: MaxSize is only consulted if
// Extensions is empty. If neither is set, nothing participates.
type TrackConfig struct {
	// Extensions is a set of case-sensitive file extensions, each
	// including the leading dot (e.g. ".psd").
	Extensions []string `yaml:"extensions"`

	// MaxSize is the inclusive byte ceiling for size-based selection.
	// A value <= 0 means "unset".
	MaxSize int64 `yaml:"max_size"`
}

// Matches reports whether a path/size pair participates in LFS under
// this configuration, per the precedence rule: extensions win if
// set; otherwise fall back to the size ceiling; otherwise nothing
// matches.
func (c TrackConfig) Matches(path string, size int64) bool {
	if len(c.Extensions) > 0 {
		for _, ext := range c.Extensions {
			if strings.HasSuffix(path, ext) {
				return true
			}
		}
		return false
	}
	if c.MaxSize > 0 {
		return size <= c.MaxSize
	}
	return false
}
