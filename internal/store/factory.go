package store

import (
	"context"
	"fmt"

	"github.com/spf13/afero"
)

const (
	EngineSQLite = "sqlite"
	EngineFile   = "file"
)

// AssetStore is the persistent key/value store behind the asset cache.
type AssetStore interface {
	GetAsset(ctx context.Context, key string) ([]byte, bool, error)
	SetAsset(ctx context.Context, key string, value []byte) error
	DeleteAsset(ctx context.Context, key string) error
	AssetStats(ctx context.Context) (AssetStats, error)
	ListAssetKeys(ctx context.Context) ([]string, error)
}

var (
	_ AssetStore = (*DB)(nil)
	_ AssetStore = (*FileAssetStore)(nil)
)

// NewAssetStore picks the asset engine. The sqlite engine shares db; the
// file engine writes under dir on the OS filesystem.
func NewAssetStore(engine string, db *DB, dir string) (AssetStore, error) {
	switch engine {
	case "", EngineSQLite:
		if db == nil {
			return nil, fmt.Errorf("sqlite asset engine requires an open database")
		}
		return db, nil
	case EngineFile:
		if dir == "" {
			return nil, fmt.Errorf("file asset engine requires a directory")
		}
		return NewFileAssetStore(afero.NewOsFs(), dir)
	default:
		return nil, fmt.Errorf("unknown asset engine %q (valid: %s, %s)", engine, EngineSQLite, EngineFile)
	}
}
