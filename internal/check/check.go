package check

import (
	"context"
	"fmt"
	"time"
)

// Kind is the category of database a descriptor targets. The set is closed:
// adding a backend means adding a Kind constant and a TableChecker for it.
type Kind string

const (
	KindSQLite     Kind = "sqlite"
	KindPostgres   Kind = "postgres"
	KindClickHouse Kind = "clickhouse"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindSQLite, KindPostgres, KindClickHouse:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unsupported database kind %q", s)
}

// Descriptor is one configured table-existence check. Immutable once loaded.
// Name is the cooldown key and must be unique across a loaded set; Target is a
// backend-specific locator (file path or DSN) that the monitor never inspects.
type Descriptor struct {
	Name      string `json:"name"`
	Kind      Kind   `json:"kind"`
	Target    string `json:"-"` // may carry credentials; never serialized
	Table     string `json:"table"`
	Recipient string `json:"-"`
}

// TableChecker reports whether a table exists in a target database.
//
// Implementations open a connection for the probe and close it regardless of
// outcome. A returned error means existence could not be determined; callers
// treat that the same as "missing" and use the error for logging only.
type TableChecker interface {
	Exists(ctx context.Context, target, table string) (bool, error)
	// Describe renders a human-readable, credential-free label for the target,
	// suitable for alert bodies and logs.
	Describe(target string) string
}

// Registry maps backend kinds to their checkers.
type Registry struct {
	checkers map[Kind]TableChecker
}

func NewRegistry() *Registry {
	return &Registry{checkers: make(map[Kind]TableChecker)}
}

func (r *Registry) Register(k Kind, c TableChecker) {
	r.checkers[k] = c
}

func (r *Registry) ForKind(k Kind) (TableChecker, bool) {
	c, ok := r.checkers[k]
	return c, ok
}

// Default returns a registry with all supported backends, each bounded by the
// given per-probe timeout.
func Default(timeout time.Duration) *Registry {
	r := NewRegistry()
	r.Register(KindSQLite, NewSQLiteChecker(timeout))
	r.Register(KindPostgres, NewPostgresChecker(timeout))
	r.Register(KindClickHouse, NewClickHouseChecker(timeout))
	return r
}
