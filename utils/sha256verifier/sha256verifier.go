// Package sha256verifier wraps a destination io.WriteCloser with a
// running SHA-256 and byte count, so a downloaded LFS object's
// content can be validated against its pointer's hash and size before
// the destination file is considered complete.
package sha256verifier

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"

	"github.com/git-lfs/lfscore/lfserrors"
)

type sha256verifier struct {
	hash.Hash
	expectedSize        int64
	expectedHash        string
	actualSize          int64
	multiWriter         io.Writer
	originalWriteCloser io.WriteCloser
}

func New(expectedHash string, expectedSize int64, writeCloser io.WriteCloser) *sha256verifier {
	hash := sha256.New()

	return &sha256verifier{
		Hash:                hash,
		expectedHash:        expectedHash,
		expectedSize:        expectedSize,
		multiWriter:         io.MultiWriter(hash, writeCloser),
		originalWriteCloser: writeCloser,
	}
}

func (s *sha256verifier) Write(p []byte) (int, error) {

	n, err := s.multiWriter.Write(p)
	if n > 0 {
		s.actualSize += int64(n)
	}

	return n, err
}

// Close closes the wrapped destination, then validates the accumulated
// size and hash against what the caller expected: a corrupt download
// still has its partial file closed so the caller can remove it.
func (s *sha256verifier) Close() error {
	closeErr := s.originalWriteCloser.Close()

	if s.actualSize != s.expectedSize {
		return lfserrors.Newf(lfserrors.ChecksumMismatch, "expected %d bytes, got %d", s.expectedSize, s.actualSize)
	}

	actualHash := hex.EncodeToString(s.Sum(nil))
	if actualHash != s.expectedHash {
		return lfserrors.Newf(lfserrors.ChecksumMismatch, "expected hash %s, got %s", s.expectedHash, actualHash)
	}

	if closeErr != nil {
		return lfserrors.Wrap(lfserrors.Io, closeErr)
	}
	return nil
}
