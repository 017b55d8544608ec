package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

const (
	blobExt = ".bin"
	keyExt  = ".key"
)

// FileAssetStore keeps one file per asset under dir. File names are the
// sha256 of the key; a sidecar ".key" file records the plain key so the
// store can be listed.
type FileAssetStore struct {
	fs  afero.Fs
	dir string
}

func NewFileAssetStore(fsys afero.Fs, dir string) (*FileAssetStore, error) {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if _, err := fsys.Stat(dir); err != nil {
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating asset dir: %w", err)
		}
	}
	return &FileAssetStore{fs: fsys, dir: dir}, nil
}

func (s *FileAssetStore) path(key, ext string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:])+ext)
}

func (s *FileAssetStore) GetAsset(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	data, err := afero.ReadFile(s.fs, s.path(key, blobExt))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading asset %s: %w", key, err)
	}
	return data, true, nil
}

// SetAsset writes to a temporary file and renames it into place, so readers
// never observe a partial value.
func (s *FileAssetStore) SetAsset(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.writeAtomic(s.path(key, keyExt), []byte(key)); err != nil {
		return fmt.Errorf("writing asset %s: %w", key, err)
	}
	if err := s.writeAtomic(s.path(key, blobExt), value); err != nil {
		return fmt.Errorf("writing asset %s: %w", key, err)
	}
	return nil
}

func (s *FileAssetStore) writeAtomic(dst string, data []byte) error {
	tmp := dst + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return err
	}
	if err := s.fs.Rename(tmp, dst); err != nil {
		s.fs.Remove(tmp)
		return err
	}
	return nil
}

func (s *FileAssetStore) DeleteAsset(ctx context.Context, key string) error {
	err := s.fs.Remove(s.path(key, blobExt))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("asset %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("deleting asset %s: %w", key, err)
	}
	if err := s.fs.Remove(s.path(key, keyExt)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting asset %s: %w", key, err)
	}
	return nil
}

func (s *FileAssetStore) AssetStats(ctx context.Context) (AssetStats, error) {
	var st AssetStats
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return AssetStats{}, fmt.Errorf("reading asset dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), blobExt) {
			continue
		}
		st.Count++
		st.Bytes += e.Size()
	}
	return st, nil
}

func (s *FileAssetStore) ListAssetKeys(ctx context.Context) ([]string, error) {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading asset dir: %w", err)
	}
	var keys []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), keyExt) {
			continue
		}
		blob := strings.TrimSuffix(e.Name(), keyExt) + blobExt
		if _, err := s.fs.Stat(filepath.Join(s.dir, blob)); errors.Is(err, os.ErrNotExist) {
			continue
		}
		k, err := afero.ReadFile(s.fs, filepath.Join(s.dir, e.Name()))
		if err != nil {
			return nil, err
		}
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	return keys, nil
}
