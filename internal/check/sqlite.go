package check

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteChecker probes a SQLite database file. The target is the file path.
type SQLiteChecker struct {
	timeout time.Duration
}

func NewSQLiteChecker(timeout time.Duration) *SQLiteChecker {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SQLiteChecker{timeout: timeout}
}

func (c *SQLiteChecker) Exists(ctx context.Context, target, table string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	db, err := sql.Open("sqlite", target)
	if err != nil {
		return false, fmt.Errorf("open %s: %w", target, err)
	}
	defer db.Close()

	const q = `SELECT name FROM sqlite_master WHERE type='table' AND name=?`
	var name string
	err = db.QueryRowContext(ctx, q, table).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query sqlite_master: %w", err)
	}
	return true, nil
}

func (c *SQLiteChecker) Describe(target string) string {
	return "SQLite: " + target
}
