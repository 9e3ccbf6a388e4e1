package backend

import (
	"context"
	"fmt"
)

// Tables is the generic table API of the backend.
// dest must be a pointer to a slice of the row type.
type Tables interface {
	Select(ctx context.Context, table string, q Query, dest any) error
	Insert(ctx context.Context, table string, row any, dest any) error
	Update(ctx context.Context, table string, q Query, patch any, dest any) error
	Delete(ctx context.Context, table string, q Query) error
}

// SelectAll returns every row of table matching q
func SelectAll[T any](ctx context.Context, t Tables, table string, q Query) ([]T, error) {
	var rows []T
	if err := t.Select(ctx, table, q, &rows); err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	return rows, nil
}

// SelectFirst returns the first row of table matching q, or ErrNoRows
func SelectFirst[T any](ctx context.Context, t Tables, table string, q Query) (*T, error) {
	rows, err := SelectAll[T](ctx, t, table, q)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	return &rows[0], nil
}

// InsertOne inserts row and returns the stored representation
func InsertOne[T any](ctx context.Context, t Tables, table string, row T) (*T, error) {
	var rows []T
	if err := t.Insert(ctx, table, row, &rows); err != nil {
		return nil, fmt.Errorf("insert %s: %w", table, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("insert %s: %w", table, ErrNoRows)
	}
	return &rows[0], nil
}

// UpdateOne applies patch to the rows matching q and returns the first updated row
func UpdateOne[T any](ctx context.Context, t Tables, table string, q Query, patch any) (*T, error) {
	var rows []T
	if err := t.Update(ctx, table, q, patch, &rows); err != nil {
		return nil, fmt.Errorf("update %s: %w", table, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("update %s: %w", table, ErrNoRows)
	}
	return &rows[0], nil
}
