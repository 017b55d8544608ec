package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// GetAsset returns the persisted value for key. A missing key is reported
// with ok=false and a nil error.
func (db *DB) GetAsset(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := db.readDB.QueryRowContext(ctx, "SELECT value FROM assets WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading asset %s: %w", key, err)
	}
	return value, true, nil
}

// SetAsset upserts the value for key.
func (db *DB) SetAsset(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	_, err := db.writeDB.ExecContext(ctx, `
		INSERT INTO assets (key, value, created_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value, created_at=excluded.created_at`,
		key, value, db.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("writing asset %s: %w", key, err)
	}
	return nil
}

func (db *DB) DeleteAsset(ctx context.Context, key string) error {
	res, err := db.writeDB.ExecContext(ctx, "DELETE FROM assets WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("deleting asset %s: %w", key, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("asset %s: %w", key, ErrNotFound)
	}
	return nil
}

func (db *DB) AssetStats(ctx context.Context) (AssetStats, error) {
	var s AssetStats
	err := db.readDB.QueryRowContext(ctx, "SELECT COUNT(*), COALESCE(SUM(LENGTH(value)), 0) FROM assets").Scan(&s.Count, &s.Bytes)
	if err != nil {
		return AssetStats{}, fmt.Errorf("counting assets: %w", err)
	}
	return s, nil
}

// ListAssetKeys returns every persisted key in lexical order.
func (db *DB) ListAssetKeys(ctx context.Context) ([]string, error) {
	rows, err := db.readDB.QueryContext(ctx, "SELECT key FROM assets ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("listing assets: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
