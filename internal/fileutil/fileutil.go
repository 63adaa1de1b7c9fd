// Package fileutil provides streaming copies, integrity-verified copies, and
// atomic writes used when populating the curated output tree.
package fileutil

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
)

// CopyFile streams src to dst, truncating any existing dst and preserving the
// source permission bits. It returns the number of bytes written.
func CopyFile(src, dst string) (int64, error) {
	n, _, err := copyFile(src, dst, nil)
	return n, err
}

// CopyFileVerified copies like CopyFile, then re-reads dst from disk and
// compares its size and SHA-256 with the source stream. dst is removed on
// mismatch.
func CopyFileVerified(src, dst string) (int64, error) {
	n, srcSum, err := copyFile(src, dst, sha256.New())
	if err != nil {
		return n, err
	}
	dstSum, dstSize, err := hashFile(dst)
	if err != nil {
		return n, fmt.Errorf("verify copy: %w", err)
	}
	if dstSize != n {
		_ = os.Remove(dst)
		return n, fmt.Errorf("copy size mismatch: copied %d bytes, destination has %d", n, dstSize)
	}
	if !bytes.Equal(srcSum, dstSum) {
		_ = os.Remove(dst)
		return n, fmt.Errorf("copy hash mismatch: %s differs from %s", dst, src)
	}
	return n, nil
}

func copyFile(src, dst string, h hash.Hash) (int64, []byte, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, nil, err
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return 0, nil, fmt.Errorf("stat source: %w", err)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return 0, nil, err
	}
	defer out.Close()

	var r io.Reader = in
	if h != nil {
		r = io.TeeReader(in, h)
	}
	n, err := io.Copy(out, r)
	if err != nil {
		return n, nil, err
	}
	if err := out.Close(); err != nil {
		return n, nil, err
	}
	if n != info.Size() {
		return n, nil, fmt.Errorf("short copy: source %d bytes, copied %d", info.Size(), n)
	}
	if h == nil {
		return n, nil, nil
	}
	return n, h.Sum(nil), nil
}

func hashFile(path string) ([]byte, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return nil, n, err
	}
	return h.Sum(nil), n, nil
}

// AtomicWrite writes data to path through a temp file in the same directory
// followed by a rename, so readers never observe a partial file.
func AtomicWrite(path string, data []byte, mode os.FileMode) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Chmod(mode); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
