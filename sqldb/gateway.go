package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nasdf/odm/codec"
	"github.com/nasdf/odm/document"
	"github.com/nasdf/odm/update"
	"github.com/nasdf/odm/value"
)

// Gateway persists the documents of one collection.
type Gateway struct {
	db         *DB
	collection string
}

var (
	_ document.Gateway = (*Gateway)(nil)
	_ document.Deleter = (*Gateway)(nil)
)

// InsertOrReplace upserts the full document.
func (g *Gateway) InsertOrReplace(ctx context.Context, id document.ID, fields *value.Map) (document.ID, error) {
	data, err := codec.Marshal(fields)
	if err != nil {
		return "", err
	}
	_, err = g.db.db.ExecContext(ctx, g.db.bind(`INSERT INTO documents(collection, id, payload) VALUES(?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET payload = excluded.payload`), g.collection, id.String(), data)
	if err != nil {
		return "", fmt.Errorf("upsert %s/%s: %w", g.collection, id, err)
	}
	g.db.logger.DebugContext(ctx, "upserted document", "collection", g.collection, "id", id, "size", len(data))
	return id, nil
}

// ApplyOperations applies the operators to the stored document in a transaction.
func (g *Gateway) ApplyOperations(ctx context.Context, id document.ID, ops update.Operators) (retErr error) {
	tx, err := g.db.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	query := `SELECT payload FROM documents WHERE collection = ? AND id = ?`
	if g.db.driver == DriverPostgres {
		query += ` FOR UPDATE`
	}
	fields, err := g.find(ctx, tx, query, id)
	if err != nil {
		return err
	}
	if err := update.Apply(fields, ops); err != nil {
		return err
	}
	data, err := codec.Marshal(fields)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, g.db.bind(`UPDATE documents SET payload = ? WHERE collection = ? AND id = ?`), data, g.collection, id.String())
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", g.collection, id, err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	g.db.logger.DebugContext(ctx, "updated document", "collection", g.collection, "id", id, "operators", ops.Len())
	return nil
}

// Find returns the stored fields of the document.
func (g *Gateway) Find(ctx context.Context, id document.ID) (*value.Map, error) {
	return g.find(ctx, g.db.db, `SELECT payload FROM documents WHERE collection = ? AND id = ?`, id)
}

// Delete removes the stored document.
func (g *Gateway) Delete(ctx context.Context, id document.ID) error {
	res, err := g.db.db.ExecContext(ctx, g.db.bind(`DELETE FROM documents WHERE collection = ? AND id = ?`), g.collection, id.String())
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", g.collection, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s/%s", document.ErrNotFound, g.collection, id)
	}
	g.db.logger.DebugContext(ctx, "deleted document", "collection", g.collection, "id", id)
	return nil
}

// IDs returns the sorted identities of the stored documents.
func (g *Gateway) IDs(ctx context.Context) ([]document.ID, error) {
	rows, err := g.db.db.QueryContext(ctx, g.db.bind(`SELECT id FROM documents WHERE collection = ? ORDER BY id`), g.collection)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []document.ID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, document.ID(id))
	}
	return out, rows.Err()
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (g *Gateway) find(ctx context.Context, q queryer, query string, id document.ID) (*value.Map, error) {
	var data []byte
	err := q.QueryRowContext(ctx, g.db.bind(query), g.collection, id.String()).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s", document.ErrNotFound, g.collection, id)
	}
	if err != nil {
		return nil, err
	}
	return codec.UnmarshalMap(data)
}
