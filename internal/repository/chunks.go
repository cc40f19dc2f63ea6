package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// chunkStrings partitions ids into slices of at most size elements,
// preserving order.
func chunkStrings(ids []string, size int) [][]string {
	if size <= 0 || len(ids) == 0 {
		if len(ids) == 0 {
			return nil
		}
		return [][]string{ids}
	}
	chunks := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}

// deleteIDChunk removes one bounded id set from a table inside its own
// committed transaction. Callers sequence chunks; a failed chunk does not
// undo earlier ones.
func deleteIDChunk(ctx context.Context, db *sqlx.DB, table string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete chunk on %s: %w", table, err)
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ANY($1)", table)
	if _, err = tx.ExecContext(ctx, query, pq.Array(ids)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete chunk on %s: %w", table, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete chunk on %s: %w", table, err)
	}
	return nil
}

// listTableIDs loads every row id of a table.
func listTableIDs(ctx context.Context, db *sqlx.DB, table string) ([]string, error) {
	var ids []string
	query := fmt.Sprintf("SELECT id FROM %s", table)
	if err := db.SelectContext(ctx, &ids, query); err != nil {
		return nil, fmt.Errorf("list %s ids: %w", table, err)
	}
	return ids, nil
}
