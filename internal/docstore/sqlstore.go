package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// SQLStore implements Store on a single Postgres JSONB table. Atomic batches
// map to transactions; Subscribe is a short-interval poll on the document's
// updated_at column.
type SQLStore struct {
	db           *sqlx.DB
	pollInterval time.Duration
}

// NewSQLStore wraps an open connection. Migrate must have been run.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db, pollInterval: 2 * time.Second}
}

// Migrate creates the documents table if it does not exist.
func (s *SQLStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, migrateQuery)
	return err
}

const migrateQuery = `
CREATE TABLE IF NOT EXISTS documents (
    collection text NOT NULL,
    id         text NOT NULL,
    data       jsonb NOT NULL,
    updated_at timestamptz NOT NULL DEFAULT now(),
    PRIMARY KEY (collection, id)
)`

func (s *SQLStore) Get(ctx context.Context, collection, id string) (Document, error) {
	var raw []byte
	err := s.db.GetContext(ctx, &raw, getQuery, collection, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeDoc(raw, id)
}

const getQuery = `SELECT data FROM documents WHERE collection = $1 AND id = $2`

func (s *SQLStore) Add(ctx context.Context, collection string, doc Document) (string, error) {
	id := uuid.NewString()
	raw, err := encodeDoc(withCreatedAt(cloneDoc(doc, id)))
	if err != nil {
		return "", err
	}
	_, err = s.db.ExecContext(ctx, addQuery, collection, id, raw)
	return id, err
}

const addQuery = `INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)`

func (s *SQLStore) Update(ctx context.Context, collection, id string, fields Document) error {
	raw, err := encodeDoc(fields)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, updateQuery, collection, id, raw)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}
	return nil
}

const updateQuery = `
UPDATE documents SET data = data || $3::jsonb, updated_at = now()
WHERE collection = $1 AND id = $2`

func (s *SQLStore) Set(ctx context.Context, collection, id string, fields Document) error {
	raw, err := encodeDoc(fields)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, setQuery, collection, id, raw)
	return err
}

const setQuery = `
INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)
ON CONFLICT (collection, id)
DO UPDATE SET data = documents.data || EXCLUDED.data, updated_at = now()`

func (s *SQLStore) Query(ctx context.Context, collection string, filters []Filter, order *OrderBy, limit int) ([]Document, error) {
	query := `SELECT id, data FROM documents WHERE collection = $1`
	args := []any{collection}
	for _, f := range filters {
		args = append(args, f.Field, fmt.Sprint(f.Value))
		query += fmt.Sprintf(" AND data ->> $%d = $%d", len(args)-1, len(args))
	}
	if order != nil {
		args = append(args, order.Field)
		query += fmt.Sprintf(" ORDER BY data ->> $%d", len(args))
		if order.Desc {
			query += " DESC"
		}
	}
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		doc, err := decodeDoc(raw, id)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func (s *SQLStore) Subscribe(ctx context.Context, collection, id string, onChange func(Document), onError func(error)) (func(), error) {
	doc, err := s.Get(ctx, collection, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if err == nil {
		onChange(doc)
	}

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()

		var lastSeen string
		if doc != nil {
			lastSeen = fingerprint(doc)
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			current, err := s.Get(ctx, collection, id)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				if ctx.Err() == nil && onError != nil {
					onError(err)
				}
				continue
			}
			fp := fingerprint(current)
			if fp != lastSeen {
				lastSeen = fp
				onChange(current)
			}
		}
	}()

	return cancel, nil
}

func (s *SQLStore) BatchWrite(ctx context.Context, writes []Write) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, w := range writes {
		var raw []byte
		switch w.Kind {
		case WriteAdd:
			raw, err = encodeDoc(withCreatedAt(cloneDoc(w.Fields, w.ID)))
			if err != nil {
				return err
			}
			_, err = tx.ExecContext(ctx, addQuery, w.Collection, w.ID, raw)
		case WriteUpdate:
			raw, err = encodeDoc(w.Fields)
			if err != nil {
				return err
			}
			var res sql.Result
			res, err = tx.ExecContext(ctx, updateQuery, w.Collection, w.ID, raw)
			if err == nil {
				var n int64
				n, err = res.RowsAffected()
				if err == nil && n == 0 {
					err = fmt.Errorf("%w: %s/%s", ErrNotFound, w.Collection, w.ID)
				}
			}
		case WriteSetMerge:
			raw, err = encodeDoc(w.Fields)
			if err != nil {
				return err
			}
			_, err = tx.ExecContext(ctx, setQuery, w.Collection, w.ID, raw)
		}
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func encodeDoc(doc Document) ([]byte, error) {
	return json.Marshal(doc)
}

func decodeDoc(raw []byte, id string) (Document, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	doc["id"] = id
	return doc, nil
}

func fingerprint(doc Document) string {
	b, err := json.Marshal(doc)
	if err != nil {
		return ""
	}
	return string(b)
}
