package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dwsmith1983/accredit/internal/provider"
)

// table stores one projection. name is a fixed identifier, never user input.
type table[T any] struct {
	db   *sql.DB
	name string
}

func (t *table[T]) Insert(ctx context.Context, id string, rec T) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", t.name, err)
	}
	now := time.Now().UTC().UnixMilli()
	_, err = t.db.ExecContext(ctx,
		`INSERT INTO `+t.name+` (id, data, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		id, string(data), now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return provider.ErrAlreadyExists
		}
		return fmt.Errorf("insert %s: %w", t.name, err)
	}
	return nil
}

func (t *table[T]) Get(ctx context.Context, id string) (T, error) {
	var (
		rec  T
		data string
	)
	err := t.db.QueryRowContext(ctx, `SELECT data FROM `+t.name+` WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, provider.ErrNotFound
	}
	if err != nil {
		return rec, fmt.Errorf("get %s: %w", t.name, err)
	}
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return rec, fmt.Errorf("decoding %s %s: %w", t.name, id, err)
	}
	return rec, nil
}

func (t *table[T]) Put(ctx context.Context, id string, rec T) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", t.name, err)
	}
	res, err := t.db.ExecContext(ctx,
		`UPDATE `+t.name+` SET data = ?, updated_at = ? WHERE id = ?`,
		string(data), time.Now().UTC().UnixMilli(), id,
	)
	if err != nil {
		return fmt.Errorf("update %s: %w", t.name, err)
	}
	return requireAffected(res)
}

func (t *table[T]) Delete(ctx context.Context, id string) error {
	res, err := t.db.ExecContext(ctx, `DELETE FROM `+t.name+` WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", t.name, err)
	}
	return requireAffected(res)
}

func (t *table[T]) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := t.db.QueryContext(ctx, `SELECT id FROM `+t.name+` ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", t.name, err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan %s id: %w", t.name, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", t.name, err)
	}
	return ids, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return provider.ErrNotFound
	}
	return nil
}
