// Package storage saves uploaded avatar files under the content directory
// served at /uploads.
package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const avatarSubdir = "avatars"

// AvatarStore writes avatar files below root and addresses them by relative
// URL. Removal is advisory; callers swallow its errors because avatar
// cleanup is not transactional with the profile update it accompanies.
type AvatarStore struct {
	root string
}

// NewAvatarStore builds an avatar store rooted at dir.
func NewAvatarStore(dir string) *AvatarStore {
	return &AvatarStore{root: dir}
}

// Save persists an uploaded file for the given user and returns the relative
// URL under which the static handler exposes it.
func (s *AvatarStore) Save(userID int64, fh *multipart.FileHeader) (string, error) {
	dir := filepath.Join(s.root, avatarSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create avatar dir: %w", err)
	}

	name := fmt.Sprintf("avatar_%d_%d%s", userID, time.Now().Unix(), filepath.Ext(fh.Filename))

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("create avatar file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("write avatar file: %w", err)
	}

	return "/uploads/" + avatarSubdir + "/" + name, nil
}

// Remove deletes the file behind a previously returned URL. Inline data
// references and already-missing files are not errors.
func (s *AvatarStore) Remove(url string) error {
	if url == "" || strings.HasPrefix(url, "data:") {
		return nil
	}
	rel := strings.TrimPrefix(url, "/uploads/")
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(rel)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
