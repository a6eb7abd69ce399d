// Package remote derives the LFS Batch API base URL from a host VCS
// remote's origin URL.
package remote

import (
	"net/url"
	"strings"

	"github.com/git-lfs/lfscore/lfserrors"
)

// ResolveLFSURL derives the LFS endpoint from a remote origin URL:
// trailing slashes are trimmed, then "/info/lfs" is appended directly
// if the URL already ends in ".git", or after appending ".git"
// otherwise. Returns an error if the result fails to parse as an
// absolute URL.
func ResolveLFSURL(originURL string) (*url.URL, error) {
	trimmed := strings.TrimRight(originURL, "/")

	var lfsURL string
	if strings.HasSuffix(trimmed, ".git") {
		lfsURL = trimmed + "/info/lfs"
	} else {
		lfsURL = trimmed + ".git/info/lfs"
	}

	u, err := url.Parse(lfsURL)
	if err != nil {
		return nil, lfserrors.Wrap(lfserrors.UrlParse, err)
	}
	if !u.IsAbs() {
		return nil, lfserrors.Newf(lfserrors.UrlParse, "lfs url %q is not absolute", lfsURL)
	}
	return u, nil
}
