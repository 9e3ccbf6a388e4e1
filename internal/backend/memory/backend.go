package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/quijoterun/tracker/internal/backend"
	"github.com/quijoterun/tracker/internal/dependencies/clock"
	"github.com/quijoterun/tracker/internal/dependencies/random"
	"github.com/quijoterun/tracker/internal/model"
)

type row map[string]any

// Config holds settings for the in-process backend
type Config struct {
	// JWTSecret signs access tokens. A random secret is generated when empty.
	JWTSecret string

	// TokenTTL is the lifetime of issued access tokens
	TokenTTL time.Duration
}

// DefaultConfig returns the default in-process backend settings
func DefaultConfig() Config {
	return Config{TokenTTL: time.Hour}
}

// Backend is an in-process implementation of the table and auth APIs.
// It keeps rows as decoded JSON objects so it behaves like the hosted
// service for any row type.
type Backend struct {
	mu sync.RWMutex

	tables   map[string][]row
	accounts map[string]*account // keyed by lowercase email
	refresh  map[string]string   // refresh token -> user id

	// uniqueKeys lists per table the column sets that must be unique
	uniqueKeys map[string][][]string

	cfg    Config
	clock  clock.Clock
	random random.Random
}

// Ensure Backend implements both halves of the backend contract
var (
	_ backend.Tables        = (*Backend)(nil)
	_ backend.AuthTransport = (*Backend)(nil)
)

// New creates an empty in-process backend
func New(cfg Config, clk clock.Clock, rnd random.Random) *Backend {
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = rnd.Token(32)
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultConfig().TokenTTL
	}
	return &Backend{
		tables:   make(map[string][]row),
		accounts: make(map[string]*account),
		refresh:  make(map[string]string),
		uniqueKeys: map[string][][]string{
			model.TableProgress: {{"user_id", "workout_id"}},
			model.TableProfiles: {{"email"}},
		},
		cfg:    cfg,
		clock:  clk,
		random: rnd,
	}
}

// Secret returns the key access tokens are signed with
func (b *Backend) Secret() string {
	return b.cfg.JWTSecret
}

// Select reads rows matching q into dest
func (b *Backend) Select(ctx context.Context, table string, q backend.Query, dest any) error {
	b.mu.RLock()
	matched := b.match(table, q)
	b.mu.RUnlock()

	sortRows(matched, q.Orders)
	return decodeRows(matched, dest)
}

// Insert stores row (a single object or a slice of objects) and reads the
// stored rows into dest
func (b *Backend) Insert(ctx context.Context, table string, value any, dest any) error {
	incoming, err := encodeRows(value)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.clock.Now().UTC().Format(time.RFC3339Nano)
	for i, r := range incoming {
		if id, _ := r["id"].(string); id == "" {
			r["id"] = b.random.UUID()
		}
		if _, ok := r["created_at"]; !ok {
			r["created_at"] = now
		}
		// Earlier rows of the batch count as stored; nothing is kept on failure
		if err := b.checkUnique(table, b.tables[table], r, nil); err != nil {
			return err
		}
		if err := b.checkUnique(table, incoming[:i], r, nil); err != nil {
			return err
		}
	}
	b.tables[table] = append(b.tables[table], incoming...)

	return decodeRows(copyRows(incoming), dest)
}

// Update merges patch into the rows matching q and reads them into dest
func (b *Backend) Update(ctx context.Context, table string, q backend.Query, patch any, dest any) error {
	if q.Unfiltered() {
		return backend.ErrUnsafeQuery
	}
	changes, err := encodeRows(patch)
	if err != nil {
		return err
	}
	if len(changes) != 1 {
		return &backend.Error{Status: http.StatusBadRequest, Message: "update body must be a single object"}
	}
	change := changes[0]
	delete(change, "id")

	b.mu.Lock()
	defer b.mu.Unlock()

	var updated []row
	for _, r := range b.tables[table] {
		if !matches(r, q.Filters) {
			continue
		}
		next := r.clone()
		for k, v := range change {
			next[k] = v
		}
		if err := b.checkUnique(table, b.tables[table], next, r); err != nil {
			return err
		}
		updated = append(updated, r)
	}
	for _, r := range updated {
		for k, v := range change {
			r[k] = v
		}
	}

	return decodeRows(copyRows(updated), dest)
}

// Delete removes the rows matching q
func (b *Backend) Delete(ctx context.Context, table string, q backend.Query) error {
	if q.Unfiltered() {
		return backend.ErrUnsafeQuery
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	kept := b.tables[table][:0]
	for _, r := range b.tables[table] {
		if !matches(r, q.Filters) {
			kept = append(kept, r)
		}
	}
	b.tables[table] = kept
	return nil
}

// match returns copies of the rows of table matching q. Caller holds the lock.
func (b *Backend) match(table string, q backend.Query) []row {
	var out []row
	for _, r := range b.tables[table] {
		if matches(r, q.Filters) {
			out = append(out, r.clone())
		}
	}
	return out
}

// checkUnique rejects r when one of rows already holds one of the table's
// unique column sets. self is the stored row being updated, if any.
func (b *Backend) checkUnique(table string, rows []row, r row, self row) error {
	for _, cols := range b.uniqueKeys[table] {
		for _, existing := range rows {
			if self != nil && existing["id"] == self["id"] {
				continue
			}
			if sameColumns(existing, r, cols) {
				return &backend.Error{
					Status:  http.StatusConflict,
					Code:    "23505",
					Message: fmt.Sprintf("duplicate key value violates unique constraint on %s (%s)", table, strings.Join(cols, ", ")),
				}
			}
		}
	}
	return nil
}

func (r row) clone() row {
	out := make(row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func copyRows(rows []row) []row {
	out := make([]row, len(rows))
	for i, r := range rows {
		out[i] = r.clone()
	}
	return out
}

func matches(r row, filters []backend.Filter) bool {
	for _, f := range filters {
		if columnString(r[f.Column]) != f.Value {
			return false
		}
	}
	return true
}

func sameColumns(a, b row, cols []string) bool {
	for _, c := range cols {
		if columnString(a[c]) != columnString(b[c]) {
			return false
		}
	}
	return true
}

func columnString(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

// sortRows orders rows by the given columns. Numbers compare numerically,
// everything else as strings, nulls first. The sort is stable so ties keep
// insertion order.
func sortRows(rows []row, orders []backend.Order) {
	if len(orders) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, o := range orders {
			c := compareValues(rows[i][o.Column], rows[j][o.Column])
			if c == 0 {
				continue
			}
			if o.Descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	fa, aok := a.(float64)
	fb, bok := b.(float64)
	if aok && bok {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	return strings.Compare(columnString(a), columnString(b))
}

// encodeRows converts a struct, map or slice of either into JSON objects
func encodeRows(value any) ([]row, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rows: %w", err)
	}
	data = bytes.TrimSpace(data)

	if len(data) > 0 && data[0] == '[' {
		var rows []row
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, fmt.Errorf("failed to decode rows: %w", err)
		}
		return rows, nil
	}

	var r row
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode row: %w", err)
	}
	return []row{r}, nil
}

func decodeRows(rows []row, dest any) error {
	if dest == nil {
		return nil
	}
	if rows == nil {
		rows = []row{}
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to marshal rows: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to decode rows: %w", err)
	}
	return nil
}
