package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"studioaljo/internal/repository"
)

const (
	collectionUsers   = "user"
	collectionGallery = "galleryitem"
)

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Document is a stored JSON record together with its gateway metadata.
type Document struct {
	ID         string
	Collection string
	Data       json.RawMessage
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Decode unmarshals the stored payload into v.
func (d Document) Decode(v any) error {
	if err := json.Unmarshal(d.Data, v); err != nil {
		return fmt.Errorf("decode %s document %s: %w", d.Collection, d.ID, err)
	}
	return nil
}

// Filter matches top-level payload fields by equality.
type Filter map[string]any

// DocumentStore keeps JSON documents grouped into named collections.
type DocumentStore struct {
	db      *sql.DB
	timeout time.Duration
	now     func() time.Time
}

func NewDocumentStore(db *sql.DB, timeout time.Duration) *DocumentStore {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &DocumentStore{
		db:      db,
		timeout: timeout,
		now:     time.Now,
	}
}

// CreateDocument stores data in collection and returns the new id.
func (s *DocumentStore) CreateDocument(ctx context.Context, collection string, data any) (string, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("encode %s document: %w", collection, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	now := s.now().UTC().UnixNano()
	res, err := s.db.ExecContext(ctx, `
INSERT INTO documents (collection, data, created_at, updated_at)
VALUES (?, json(?), ?, ?)`,
		collection,
		string(payload),
		now,
		now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("insert %s document: %w", collection, repository.ErrAlreadyExists)
		}
		return "", classify(ctx, "insert "+collection+" document", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("%s last insert id: %w", collection, err)
	}
	return strconv.FormatInt(id, 10), nil
}

// ListDocuments returns matching documents newest first. A non-positive limit returns all.
func (s *DocumentStore) ListDocuments(ctx context.Context, collection string, filter Filter, limit int) ([]Document, error) {
	where, args, err := whereClause(collection, filter)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}
	args = append(args, limit)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
SELECT id, collection, data, created_at, updated_at
FROM documents
WHERE `+where+`
ORDER BY created_at DESC, id DESC
LIMIT ?`, args...)
	if err != nil {
		return nil, classify(ctx, "query "+collection+" documents", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(ctx, "iterate "+collection+" documents", err)
	}
	return docs, nil
}

// FindOne returns the newest document matching filter.
func (s *DocumentStore) FindOne(ctx context.Context, collection string, filter Filter) (*Document, error) {
	docs, err := s.ListDocuments(ctx, collection, filter, 1)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("find %s document: %w", collection, repository.ErrNotFound)
	}
	return &docs[0], nil
}

func (s *DocumentStore) FindByID(ctx context.Context, collection, id string) (*Document, error) {
	nativeID, ok := parseID(id)
	if !ok {
		return nil, fmt.Errorf("find %s document %q: %w", collection, id, repository.ErrNotFound)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	row := s.db.QueryRowContext(ctx, `
SELECT id, collection, data, created_at, updated_at
FROM documents
WHERE collection = ? AND id = ?`,
		collection,
		nativeID,
	)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("find %s document %s: %w", collection, id, err)
		}
		return nil, classify(ctx, "find "+collection+" document", err)
	}
	return doc, nil
}

// DeleteByID removes the document and returns what was stored.
func (s *DocumentStore) DeleteByID(ctx context.Context, collection, id string) (*Document, error) {
	nativeID, ok := parseID(id)
	if !ok {
		return nil, fmt.Errorf("delete %s document %q: %w", collection, id, repository.ErrNotFound)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	row := s.db.QueryRowContext(ctx, `
DELETE FROM documents
WHERE collection = ? AND id = ?
RETURNING id, collection, data, created_at, updated_at`,
		collection,
		nativeID,
	)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("delete %s document %s: %w", collection, id, err)
		}
		return nil, classify(ctx, "delete "+collection+" document", err)
	}
	return doc, nil
}

// IncrementField adds delta to a numeric field on every matching document.
func (s *DocumentStore) IncrementField(ctx context.Context, collection string, filter Filter, field string, delta int) error {
	path, err := fieldPath(field)
	if err != nil {
		return err
	}
	where, args, err := whereClause(collection, filter)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `
UPDATE documents
SET data = json_set(data, ?, COALESCE(json_extract(data, ?), 0) + ?),
	updated_at = ?
WHERE `+where,
		append([]any{path, path, delta, s.now().UTC().UnixNano()}, args...)...,
	)
	if err != nil {
		return classify(ctx, "increment "+collection+"."+field, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("increment rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("increment %s.%s: %w", collection, field, repository.ErrNotFound)
	}
	return nil
}

// DecrementFieldIfAtLeast subtracts amount from field only where the current
// value is at least amount. The check and the write are one statement.
func (s *DocumentStore) DecrementFieldIfAtLeast(ctx context.Context, collection string, filter Filter, field string, amount int) (bool, error) {
	if amount <= 0 {
		return false, fmt.Errorf("decrement %s.%s: amount must be positive", collection, field)
	}
	path, err := fieldPath(field)
	if err != nil {
		return false, err
	}
	where, args, err := whereClause(collection, filter)
	if err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	params := []any{path, path, amount, s.now().UTC().UnixNano()}
	params = append(params, args...)
	params = append(params, path, amount)

	res, err := s.db.ExecContext(ctx, `
UPDATE documents
SET data = json_set(data, ?, json_extract(data, ?) - ?),
	updated_at = ?
WHERE `+where+` AND json_extract(data, ?) >= ?`,
		params...,
	)
	if err != nil {
		return false, classify(ctx, "decrement "+collection+"."+field, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("decrement rows affected: %w", err)
	}
	return affected > 0, nil
}

// Ping checks that the store answers within the configured timeout.
func (s *DocumentStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var one int
	if err := s.db.QueryRowContext(ctx, `SELECT 1 FROM documents LIMIT 1`).Scan(&one); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return classify(ctx, "ping store", err)
	}
	return nil
}

func whereClause(collection string, filter Filter) (string, []any, error) {
	clauses := []string{"collection = ?"}
	args := []any{collection}

	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		path, err := fieldPath(k)
		if err != nil {
			return "", nil, err
		}
		clauses = append(clauses, "json_extract(data, ?) = ?")
		args = append(args, path, filter[k])
	}
	return strings.Join(clauses, " AND "), args, nil
}

func fieldPath(field string) (string, error) {
	if !fieldPattern.MatchString(field) {
		return "", fmt.Errorf("invalid document field %q", field)
	}
	return "$." + field, nil
}

func parseID(id string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func scanDocument(row interface {
	Scan(dest ...any) error
}) (*Document, error) {
	var (
		doc       Document
		id        int64
		data      string
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(&id, &doc.Collection, &data, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	doc.ID = strconv.FormatInt(id, 10)
	doc.Data = json.RawMessage(data)
	doc.CreatedAt = time.Unix(0, createdAt).UTC()
	doc.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return &doc, nil
}

// classify maps deadline and lock failures to repository.ErrUnavailable.
func classify(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %v", op, repository.ErrUnavailable, err)
	}
	var sqliteErr *moderncsqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_INTERRUPT:
			return fmt.Errorf("%s: %w: %v", op, repository.ErrUnavailable, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isUniqueViolation(err error) bool {
	var sqliteErr *moderncsqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique")
}
