package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dwsmith1983/accredit/internal/provider"
)

const uniqueViolation = "23505"

type table[T any] struct {
	pool *pgxpool.Pool
	name string
}

func (t *table[T]) Insert(ctx context.Context, id string, rec T) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", t.name, err)
	}
	_, err = t.pool.Exec(ctx, `INSERT INTO `+t.name+` (id, data) VALUES ($1, $2)`, id, data)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return provider.ErrAlreadyExists
		}
		return fmt.Errorf("insert %s: %w", t.name, err)
	}
	return nil
}

func (t *table[T]) Get(ctx context.Context, id string) (T, error) {
	var (
		rec  T
		data []byte
	)
	err := t.pool.QueryRow(ctx, `SELECT data FROM `+t.name+` WHERE id = $1`, id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return rec, provider.ErrNotFound
	}
	if err != nil {
		return rec, fmt.Errorf("get %s: %w", t.name, err)
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("unmarshal %s %s: %w", t.name, id, err)
	}
	return rec, nil
}

func (t *table[T]) Put(ctx context.Context, id string, rec T) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", t.name, err)
	}
	tag, err := t.pool.Exec(ctx,
		`UPDATE `+t.name+` SET data = $2, updated_at = NOW() WHERE id = $1`, id, data)
	if err != nil {
		return fmt.Errorf("update %s: %w", t.name, err)
	}
	if tag.RowsAffected() == 0 {
		return provider.ErrNotFound
	}
	return nil
}

func (t *table[T]) Delete(ctx context.Context, id string) error {
	tag, err := t.pool.Exec(ctx, `DELETE FROM `+t.name+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", t.name, err)
	}
	if tag.RowsAffected() == 0 {
		return provider.ErrNotFound
	}
	return nil
}

func (t *table[T]) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := t.pool.Query(ctx, `SELECT id FROM `+t.name+` ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", t.name, err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", t.name, err)
	}
	return ids, nil
}
