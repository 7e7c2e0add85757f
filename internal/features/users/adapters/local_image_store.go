package adapters

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const profilesPrefix = "/uploads/profiles/"

// LocalImageStore writes profile images under <uploads>/profiles, served at /uploads/profiles.
type LocalImageStore struct {
	dir string
}

// NewLocalImageStore creates the profiles directory under uploadsDir.
func NewLocalImageStore(uploadsDir string) (*LocalImageStore, error) {
	dir := filepath.Join(uploadsDir, "profiles")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create profiles dir: %w", err)
	}
	return &LocalImageStore{dir: dir}, nil
}

func (s *LocalImageStore) Save(_ context.Context, name string, data []byte) (string, error) {
	name = filepath.Base(name)
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write profile image: %w", err)
	}
	return profilesPrefix + name, nil
}

// Remove ignores paths outside the profiles prefix.
func (s *LocalImageStore) Remove(_ context.Context, publicPath string) error {
	if !strings.HasPrefix(publicPath, profilesPrefix) {
		return nil
	}
	name := path.Base(publicPath)
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove profile image: %w", err)
	}
	return nil
}
