// Package storage implements the object store for uploaded images: store
// payment QR codes, product photos and transfer receipts.  Blobs are written
// under a local root directory and addressed by a stable URL of the form
// <base>/uploads/<bucket>/<name>; the HTTP layer serves the root as static
// files, so a returned URL stays retrievable for as long as the blob exists.
package storage

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrNotFound is returned by Has/Open for URLs that do not resolve to a
// stored blob.
var ErrNotFound = errors.New("blob not found")

// BlobStore writes uploads below root and mints URLs below baseURL.
// baseURL may be empty, in which case URLs are host-relative ("/uploads/...").
type BlobStore struct {
	root    string
	baseURL string
}

// New creates the root directory if needed and returns a BlobStore.
func New(root, baseURL string) (*BlobStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir upload root: %w", err)
	}
	return &BlobStore{root: root, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Root returns the directory uploads are written to, for wiring the static
// file route.
func (s *BlobStore) Root() string { return s.root }

// Save writes the blob under bucket/name and returns its durable URL.  Both
// path segments are sanitized so a crafted filename cannot escape the upload
// root.  Saving to an existing name overwrites in place, which the store QR
// upload relies on.
func (s *BlobStore) Save(bucket, name string, r io.Reader) (string, error) {
	bucket = sanitize(bucket)
	name = sanitize(name)
	if bucket == "" || name == "" {
		return "", errors.New("empty bucket or name")
	}
	dir := filepath.Join(s.root, bucket)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir bucket: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("create blob: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}
	return s.baseURL + "/uploads/" + bucket + "/" + name, nil
}

// SaveUnique is Save with a timestamp-and-random prefix on the name, for
// buckets where each upload must get its own blob (receipts).  The random
// component keeps two uploads landing in the same millisecond from minting
// the same URL and overwriting each other.
func (s *BlobStore) SaveUnique(bucket, name string, r io.Reader) (string, error) {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("random name: %w", err)
	}
	unique := fmt.Sprintf("%d-%s-%s", time.Now().UnixMilli(), hex.EncodeToString(suffix), sanitize(name))
	return s.Save(bucket, unique, r)
}

// Has reports whether a previously minted URL still resolves to a stored
// blob.  URLs outside this store's namespace report false.
func (s *BlobStore) Has(url string) bool {
	rel, ok := s.relPath(url)
	if !ok {
		return false
	}
	info, err := os.Stat(filepath.Join(s.root, rel))
	return err == nil && !info.IsDir()
}

// relPath maps a minted URL back to a path relative to root.
func (s *BlobStore) relPath(url string) (string, bool) {
	trimmed := strings.TrimPrefix(url, s.baseURL)
	if !strings.HasPrefix(trimmed, "/uploads/") {
		return "", false
	}
	rel := strings.TrimPrefix(trimmed, "/uploads/")
	parts := strings.SplitN(rel, "/", 2)
	if len(parts) != 2 {
		return "", false
	}
	bucket, name := sanitize(parts[0]), sanitize(parts[1])
	if bucket == "" || name == "" {
		return "", false
	}
	return filepath.Join(bucket, name), true
}

// sanitize strips path separators and traversal sequences from a single
// path segment.
func sanitize(seg string) string {
	seg = strings.TrimSpace(seg)
	seg = strings.ReplaceAll(seg, "\\", "")
	seg = strings.ReplaceAll(seg, "/", "")
	for strings.Contains(seg, "..") {
		seg = strings.ReplaceAll(seg, "..", "")
	}
	return seg
}
