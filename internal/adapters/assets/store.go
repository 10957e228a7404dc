// Package assets persists uploaded binaries (member photos) on disk and
// hands back stable references for later retrieval. It is decoupled from the
// member record store: a reference is just a relative path under the uploads
// root, served by the HTTP layer's file server.
package assets

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Abichu1/gym-members/internal/domain/id"
)

// ErrWrite indicates the asset could not be persisted. Callers must not
// create a member record referencing an asset that failed to store.
var ErrWrite = errors.New("asset write failed")

// photosDir is the subdirectory for member photos under the uploads root.
const photosDir = "photos"

// Store persists uploaded assets under generated, collision-free names.
type Store interface {
	// Save writes the content under a fresh name derived from the hint's
	// extension and returns the reference. Fails with an error wrapping
	// ErrWrite on I/O problems.
	Save(hint string, src io.Reader) (string, error)

	// Open returns the bytes previously stored under ref.
	Open(ref string) ([]byte, error)

	// Remove deletes the asset. Removing an absent ref is not an error.
	Remove(ref string) error
}

// DiskStore implements Store on the local filesystem.
type DiskStore struct {
	root string
}

// NewDiskStore creates a store rooted at the given uploads directory.
// The directory itself is created lazily on first write.
func NewDiskStore(root string) *DiskStore {
	return &DiskStore{root: root}
}

// Save writes src to a generated file under the photos directory.
// PRE: src is a valid reader; hint is the uploaded file's original name
// POST: file created at root/photos/<id><ext>; returns "photos/<id><ext>"
func (s *DiskStore) Save(hint string, src io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(hint))
	ref := filepath.ToSlash(filepath.Join(photosDir, id.New()+ext))

	fullPath := filepath.Join(s.root, filepath.FromSlash(ref))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		return "", fmt.Errorf("%w: mkdir: %v", ErrWrite, err)
	}
	f, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("%w: create: %v", ErrWrite, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, src); err != nil {
		// Remove the partial file so a failed upload leaves nothing behind.
		os.Remove(fullPath)
		return "", fmt.Errorf("%w: write: %v", ErrWrite, err)
	}
	return ref, nil
}

// Open reads the bytes stored under ref.
// PRE: ref was returned by Save
// POST: returns file bytes, or an error if absent
func (s *DiskStore) Open(ref string) ([]byte, error) {
	path, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// Remove deletes the asset stored under ref. Idempotent.
func (s *DiskStore) Remove(ref string) error {
	path, err := s.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// resolve maps a reference to an absolute path, rejecting anything that
// escapes the uploads root.
func (s *DiskStore) resolve(ref string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(ref))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid asset reference: %q", ref)
	}
	return filepath.Join(s.root, clean), nil
}
