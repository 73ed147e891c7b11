// Package storage persists upload bytes on the local disk and mirrors them to object storage.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var (
	// ErrInvalidKey indicates a key that is empty, absolute or escapes the root.
	ErrInvalidKey = errors.New("invalid storage key")
	// ErrObjectExists indicates a Put would overwrite an existing object.
	ErrObjectExists = errors.New("object already exists")
	// ErrObjectNotFound indicates no object is stored under the key.
	ErrObjectNotFound = errors.New("object not found")
)

// PutResult describes bytes written by LocalStore.Put.
type PutResult struct {
	Key      string
	Path     string
	Size     int64
	Checksum string // hex SHA-256
}

// LocalStore keeps blobs under a root directory. Keys are slash-separated
// relative paths such as "<upload-id>/<file-name>".
type LocalStore struct {
	root string
}

// NewLocalStore creates the root directory if needed.
func NewLocalStore(root string) (*LocalStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve upload dir %s: %w", root, err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", abs, err)
	}
	return &LocalStore{root: abs}, nil
}

// Root returns the absolute root directory.
func (s *LocalStore) Root() string {
	return s.root
}

// ValidateKey rejects keys that could resolve outside the root.
func ValidateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, `\`) || strings.ContainsRune(key, 0) {
		return ErrInvalidKey
	}
	if path.Clean(key) != key {
		return ErrInvalidKey
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return ErrInvalidKey
		}
	}
	return nil
}

func (s *LocalStore) resolve(key string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	full := filepath.Join(s.root, filepath.FromSlash(key))
	rel, err := filepath.Rel(s.root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrInvalidKey
	}
	return full, nil
}

// Put streams r to key while hashing it. Data goes to a temp file in the
// target directory, is fsynced, then renamed into place. On any error the
// temp file is removed and nothing is left under key.
func (s *LocalStore) Put(ctx context.Context, key string, r io.Reader) (*PutResult, error) {
	full, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	if _, err := os.Lstat(full); err == nil {
		return nil, ErrObjectExists
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpPath)
	}

	hasher := sha256.New()
	size, err := io.Copy(tmp, io.TeeReader(&ctxReader{ctx: ctx, r: r}, hasher))
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("write blob: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		cleanup()
		return nil, fmt.Errorf("fsync blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("close blob: %w", err)
	}

	if err := os.Rename(tmpPath, full); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("rename blob: %w", err)
	}

	return &PutResult{
		Key:      key,
		Path:     full,
		Size:     size,
		Checksum: hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

// Open returns the blob under key and its size. The caller closes the file.
func (s *LocalStore) Open(key string) (*os.File, int64, error) {
	full, err := s.resolve(key)
	if err != nil {
		return nil, 0, err
	}

	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, ErrObjectNotFound
		}
		return nil, 0, fmt.Errorf("open blob %s: %w", key, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("stat blob %s: %w", key, err)
	}

	return f, info.Size(), nil
}

// Exists reports whether a blob is stored under key.
func (s *LocalStore) Exists(key string) (bool, error) {
	full, err := s.resolve(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(full)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat blob %s: %w", key, err)
}

// Delete removes the blob under key and its directory if it became empty.
// Deleting a missing blob is not an error.
func (s *LocalStore) Delete(key string) error {
	full, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete blob %s: %w", key, err)
	}
	if dir := filepath.Dir(full); dir != s.root {
		_ = os.Remove(dir) // fails harmlessly when not empty
	}
	return nil
}

// ctxReader stops a copy once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
