package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"slices"
	"strings"
	"time"

	"go.trai.ch/hoard/internal/core/domain"
	"go.trai.ch/zerr"
)

// DocumentStore keeps JSON documents per collection and tenant and answers filtered,
// sorted and windowed reads through json_extract. It implements ports.DocumentStore.
type DocumentStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewDocumentStore returns a DocumentStore on db. The schema must already be migrated by Open.
func NewDocumentStore(db *sql.DB) *DocumentStore {
	return &DocumentStore{db: db, now: time.Now}
}

// OpenDocumentStore opens the database at path and returns a DocumentStore owning it.
func OpenDocumentStore(path string) (*DocumentStore, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	return NewDocumentStore(db), nil
}

// Close closes the underlying database.
func (s *DocumentStore) Close() error {
	return s.db.Close()
}

// Put inserts or replaces one document.
func (s *DocumentStore) Put(ctx context.Context, collection, tenantID, id string, doc domain.Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to encode document"), "id", id)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents(collection, tenant_id, id, body, updated_at) VALUES(?, ?, ?, ?, ?)
ON CONFLICT(collection, tenant_id, id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		collection, tenantID, id, string(body), s.now().UnixNano(),
	)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to store document"), "id", id)
	}
	return nil
}

// Delete removes one document. Deleting a missing document is not an error.
func (s *DocumentStore) Delete(ctx context.Context, collection, tenantID, id string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND tenant_id = ? AND id = ?`,
		collection, tenantID, id,
	)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to delete document"), "id", id)
	}
	return nil
}

// Find returns the documents matching q. Documents are ordered by the sort key and then by id.
// Scanned reports the size of the collection partition when a filter forces a scan of it.
func (s *DocumentStore) Find(ctx context.Context, q domain.FindQuery) (domain.FindResult, error) {
	where, args, err := whereClause(q)
	if err != nil {
		return domain.FindResult{}, err
	}
	order, err := orderClause(q)
	if err != nil {
		return domain.FindResult{}, err
	}

	var sb strings.Builder
	sb.WriteString(`SELECT body FROM documents WHERE `)
	sb.WriteString(where)
	sb.WriteString(order)
	if q.Limit > 0 {
		sb.WriteString(` LIMIT ? OFFSET ?`)
		args = append(args, q.Limit, q.Offset)
	} else if q.Offset > 0 {
		sb.WriteString(` LIMIT -1 OFFSET ?`)
		args = append(args, q.Offset)
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return domain.FindResult{}, zerr.With(zerr.Wrap(err, "failed to query documents"), "collection", q.Collection)
	}
	defer func() { _ = rows.Close() }()

	docs := []domain.Document{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return domain.FindResult{}, zerr.Wrap(err, "failed to scan document")
		}
		doc, err := decodeDocument(body)
		if err != nil {
			return domain.FindResult{}, zerr.With(err, "collection", q.Collection)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return domain.FindResult{}, zerr.Wrap(err, "failed to read documents")
	}

	scanned := q.Offset + len(docs)
	if len(q.Filter) > 0 {
		var partition int
		err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM documents WHERE collection = ? AND tenant_id = ?`,
			q.Collection, q.TenantID,
		).Scan(&partition)
		if err != nil {
			return domain.FindResult{}, zerr.Wrap(err, "failed to count scanned documents")
		}
		scanned = partition
	}
	return domain.FindResult{Documents: docs, Scanned: scanned}, nil
}

// Count returns the number of documents matching q's collection, tenant and filter.
func (s *DocumentStore) Count(ctx context.Context, q domain.FindQuery) (int64, error) {
	where, args, err := whereClause(q)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE `+where, args...).Scan(&n); err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to count documents"), "collection", q.Collection)
	}
	return n, nil
}

// whereClause builds the predicate for q. Field names are validated before they are
// spliced into a JSON path; values are always bound.
func whereClause(q domain.FindQuery) (string, []any, error) {
	clauses := []string{`collection = ?`, `tenant_id = ?`}
	args := []any{q.Collection, q.TenantID}

	fields := make([]string, 0, len(q.Filter))
	for field := range q.Filter {
		fields = append(fields, field)
	}
	slices.Sort(fields)

	for _, field := range fields {
		if err := domain.ValidateField(field); err != nil {
			return "", nil, err
		}
		path := jsonPath(field)
		value, err := bindValue(q.Filter[field])
		if err != nil {
			return "", nil, zerr.With(err, "field", field)
		}
		if value == nil {
			clauses = append(clauses, path+` IS NULL`)
			continue
		}
		clauses = append(clauses, path+` = ?`)
		args = append(args, value)
	}
	return strings.Join(clauses, ` AND `), args, nil
}

func orderClause(q domain.FindQuery) (string, error) {
	if q.SortKey == "" {
		return ` ORDER BY id ASC`, nil
	}
	if err := domain.ValidateField(q.SortKey); err != nil {
		return "", err
	}
	dir := `ASC`
	if q.SortOrder == domain.SortDesc {
		dir = `DESC`
	}
	return ` ORDER BY ` + jsonPath(q.SortKey) + ` ` + dir + `, id ASC`, nil
}

func jsonPath(field string) string {
	return `json_extract(body, '$.` + field + `')`
}

// bindValue converts a filter value to what json_extract yields for the same JSON value.
func bindValue(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case bool:
		if x {
			return int64(1), nil
		}
		return int64(0), nil
	case string, int, int64, int32, float64, float32:
		return x, nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, nil
		}
		return x.Float64()
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return nil, zerr.Wrap(err, "unsupported filter value")
		}
		return string(b), nil
	}
}

// decodeDocument keeps numbers as json.Number so that decimal sums stay exact.
func decodeDocument(body string) (domain.Document, error) {
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	var doc domain.Document
	if err := dec.Decode(&doc); err != nil {
		return nil, zerr.Wrap(err, "failed to decode document")
	}
	return doc, nil
}
