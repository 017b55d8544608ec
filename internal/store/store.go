package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/matheuskafuri/larder/internal/classify"
	"github.com/matheuskafuri/larder/internal/expiry"
)

// ErrNotFound is returned when an item or asset does not exist.
var ErrNotFound = errors.New("not found")

// DB is the sqlite store holding inventory items and generated assets.
type DB struct {
	readDB  *sql.DB
	writeDB *sql.DB
	now     func() time.Time
}

func Open(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	writeDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening write db: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	readDB, err := sql.Open("sqlite", dbPath+"?mode=ro")
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("opening read db: %w", err)
	}

	db := &DB{readDB: readDB, writeDB: writeDB, now: time.Now}
	if err := db.init(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) init() error {
	_, err := db.writeDB.Exec(`
		CREATE TABLE IF NOT EXISTS items (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			category    TEXT NOT NULL,
			expiry_date DATETIME NOT NULL,
			status      TEXT NOT NULL,
			image_key   TEXT NOT NULL DEFAULT '',
			created_at  DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_items_expiry ON items(expiry_date ASC);
		CREATE INDEX IF NOT EXISTS idx_items_category ON items(category);

		CREATE TABLE IF NOT EXISTS assets (
			key        TEXT PRIMARY KEY,
			value      BLOB NOT NULL,
			created_at DATETIME NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (db *DB) Close() error {
	var errs []error
	if db.readDB != nil {
		errs = append(errs, db.readDB.Close())
	}
	if db.writeDB != nil {
		errs = append(errs, db.writeDB.Close())
	}
	return errors.Join(errs...)
}

// CreateItem stores a new item and returns its id. The status column is
// derived from the expiry date at write time.
func (db *DB) CreateItem(ctx context.Context, item Item) (string, error) {
	if strings.TrimSpace(item.Name) == "" {
		return "", fmt.Errorf("item name is required")
	}
	if item.ExpiryDate.IsZero() {
		return "", fmt.Errorf("item %q: expiry date is required", item.Name)
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = db.now()
	}
	item.Status = expiry.Classify(item.ExpiryDate, db.now()).Category

	_, err := db.writeDB.ExecContext(ctx, `
		INSERT INTO items (id, name, category, expiry_date, status, image_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.Name, string(item.Category), item.ExpiryDate.UTC(), string(item.Status), item.ImageKey, item.CreatedAt.UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("inserting item %s: %w", item.Name, err)
	}
	return item.ID, nil
}

func (db *DB) GetItem(ctx context.Context, id string) (Item, error) {
	row := db.readDB.QueryRowContext(ctx, `
		SELECT id, name, category, expiry_date, status, image_key, created_at
		FROM items WHERE id = ?`, id)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Item{}, err
	}
	db.refresh(&it)
	return it, nil
}

// ListItems returns items ordered by expiry date, soonest first. Status is
// recomputed for every row, so filtering by status reflects today's date.
func (db *DB) ListItems(ctx context.Context, opts ListOpts) ([]Item, error) {
	var (
		where []string
		args  []interface{}
	)

	if opts.Category != "" {
		where = append(where, "category = ?")
		args = append(args, string(opts.Category))
	}

	if opts.Search != "" {
		where = append(where, "name LIKE ?")
		args = append(args, "%"+opts.Search+"%")
	}

	query := "SELECT id, name, category, expiry_date, status, image_key, created_at FROM items"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY expiry_date ASC, name ASC"

	rows, err := db.readDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		db.refresh(&it)
		if opts.Status != "" && it.Status != opts.Status {
			continue
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (db *DB) DeleteItem(ctx context.Context, id string) error {
	res, err := db.writeDB.ExecContext(ctx, "DELETE FROM items WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting item %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	return nil
}

// SetItemImage links an item to a generated asset key.
func (db *DB) SetItemImage(ctx context.Context, id, key string) error {
	res, err := db.writeDB.ExecContext(ctx, "UPDATE items SET image_key = ? WHERE id = ?", key, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(r rowScanner) (Item, error) {
	var (
		it       Item
		category string
		status   string
	)
	if err := r.Scan(&it.ID, &it.Name, &category, &it.ExpiryDate, &status, &it.ImageKey, &it.CreatedAt); err != nil {
		return Item{}, err
	}
	it.Category = classify.Category(category)
	it.Status = expiry.Category(status)
	return it, nil
}

// refresh re-derives the cached status projection from the expiry date.
func (db *DB) refresh(it *Item) {
	now := db.now()
	it.ExpiryDate = it.ExpiryDate.In(now.Location())
	it.Status = expiry.Classify(it.ExpiryDate, now).Category
}
