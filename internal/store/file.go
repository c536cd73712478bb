package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileStore is a directory of one file per key, written with the same
// atomic-write pattern as internal/config.Save: temp file in the same
// directory, fsync, chmod 0600, rename over the target. Keys are
// percent-escaped into filenames so that the ":"-delimited keys this
// repository uses (§6) never need subdirectories.
type FileStore struct {
	dir string
}

// NewFileStore constructs a FileStore rooted at dir, creating it (and any
// missing parents) with 0700 permissions if it does not already exist.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("store: dir is empty")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) path(key string) string {
	return filepath.Join(f.dir, escapeKey(key))
}

func (f *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(data), true, nil
}

// Put writes value for key atomically: a temp file in the same directory
// is written, fsynced, chmod'd to 0600, then renamed over the target, so a
// reader never observes a partially written value.
func (f *FileStore) Put(_ context.Context, key, value string) error {
	target := f.path(key)

	tmp, err := os.CreateTemp(f.dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, target)
}

func (f *FileStore) Delete(_ context.Context, key string) error {
	err := os.Remove(f.path(key))
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// List ignores cursor and returns every matching key in one page, ordered
// ascending; a directory of keys for one tenant is not expected to grow
// large enough to need real pagination.
func (f *FileStore) List(_ context.Context, prefix, _ string) ([]string, string, bool, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, "", true, err
	}

	var keys []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		key, err := unescapeKey(e.Name())
		if err != nil {
			continue
		}
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, "", true, nil
}

const safeKeyChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789._-"

func escapeKey(key string) string {
	var b strings.Builder
	for i := 0; i < len(key); i++ {
		c := key[i]
		if strings.IndexByte(safeKeyChars, c) >= 0 {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}

func unescapeKey(name string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(name); i++ {
		if name[i] != '%' {
			b.WriteByte(name[i])
			continue
		}
		if i+2 >= len(name) {
			return "", errors.New("store: malformed escaped filename")
		}
		var c byte
		if _, err := fmt.Sscanf(name[i+1:i+3], "%02X", &c); err != nil {
			return "", err
		}
		b.WriteByte(c)
		i += 2
	}
	return b.String(), nil
}
