// Package verify decides whether a mirrored file already matches the digest
// the remote catalog advertises for it.
//
// The catalog publishes MD5 digests; the comparison is a content-identity
// check against the vendor's manifest, not a security control.
package verify

import (
	"crypto/md5"
	"encoding/hex"
	"io"
	"log/slog"
	"os"
)

// Verifier checks local files against catalog digests. A false result means
// the caller should fetch; it never carries an error because every failure
// mode (missing file, unreadable file, stale content) has the same remedy.
type Verifier struct {
	logger *slog.Logger
}

// NewVerifier creates a Verifier.
func NewVerifier(logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Verifier{logger: logger}
}

// Verify reports whether the file at path satisfies the expected digest.
//
// A missing file verifies false. An empty expected digest verifies true as
// long as the file exists: legacy catalog entries carry no checksum, and
// presence is the only criterion for them. Digests compare case-sensitively
// as lower-case hex, the form the catalog publishes.
func (v *Verifier) Verify(path, wantMD5 string) bool {
	if _, err := os.Stat(path); err != nil {
		v.logger.Debug("file not present", "path", path)
		return false
	}

	if wantMD5 == "" {
		return true
	}

	got, err := hashFile(path)
	if err != nil {
		v.logger.Warn("could not read file for verification", "path", path, "error", err)
		return false
	}

	if got != wantMD5 {
		v.logger.Warn("checksum mismatch", "path", path, "computed_md5", got)
		return false
	}
	return true
}

// hashFile computes the MD5 hex digest of a file.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
