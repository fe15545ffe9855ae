package sqldb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/nasdf/odm/document"
	"github.com/nasdf/odm/query"
	"github.com/nasdf/odm/update"
	"github.com/nasdf/odm/value"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T) *DB {
	db, err := Open(context.Background(), DriverSQLite, filepath.Join(t.TempDir(), "odm.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestGatewayRoundTrip(t *testing.T) {
	ctx := context.Background()
	users := openSQLite(t).Gateway("users")

	fields, err := value.MapFrom(map[string]any{"name": "Alice", "tags": []any{"a", "b"}, "n": 1})
	require.NoError(t, err)
	d := document.New(document.WithFields(fields), document.WithIDGenerator(document.NewUUID))
	require.NoError(t, d.Save(ctx, users))

	require.NoError(t, d.Increment("n", value.Int(41)))
	require.NoError(t, d.Pull("tags", query.Match(value.String("a"))))
	require.NoError(t, d.Set("address.city", value.String("Paris")))
	require.NoError(t, d.Save(ctx, users))

	stored, err := users.Find(ctx, d.ID())
	require.NoError(t, err)
	assert.True(t, value.Equal(d.Fields(), stored), "%v", value.Go(stored))

	ids, err := users.IDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []document.ID{d.ID()}, ids)
}

func TestGatewayReplace(t *testing.T) {
	ctx := context.Background()
	users := openSQLite(t).Gateway("users")

	first, err := value.MapFrom(map[string]any{"a": 1})
	require.NoError(t, err)
	second, err := value.MapFrom(map[string]any{"b": 2})
	require.NoError(t, err)

	_, err = users.InsertOrReplace(ctx, "x", first)
	require.NoError(t, err)
	_, err = users.InsertOrReplace(ctx, "x", second)
	require.NoError(t, err)

	stored, err := users.Find(ctx, "x")
	require.NoError(t, err)
	assert.True(t, value.Equal(second, stored))
}

func TestGatewayRollback(t *testing.T) {
	ctx := context.Background()
	users := openSQLite(t).Gateway("users")

	fields, err := value.MapFrom(map[string]any{"name": "Alice"})
	require.NoError(t, err)
	_, err = users.InsertOrReplace(ctx, "alice", fields)
	require.NoError(t, err)

	ops := update.Operators{update.Increment: {"name": {Value: value.Int(1)}}}
	assert.ErrorIs(t, users.ApplyOperations(ctx, "alice", ops), update.ErrInvalidOperand)

	stored, err := users.Find(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, value.Equal(fields, stored))
}

func TestGatewayNotFound(t *testing.T) {
	ctx := context.Background()
	users := openSQLite(t).Gateway("users")

	_, err := users.Find(ctx, "missing")
	assert.ErrorIs(t, err, document.ErrNotFound)
	assert.ErrorIs(t, users.Delete(ctx, "missing"), document.ErrNotFound)
	assert.ErrorIs(t, users.ApplyOperations(ctx, "missing", update.Operators{}), document.ErrNotFound)
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "")
	assert.Error(t, err)
}

func TestBind(t *testing.T) {
	pg := &DB{driver: DriverPostgres}
	assert.Equal(t, "SELECT a FROM t WHERE b = $1 AND c = $2", pg.bind("SELECT a FROM t WHERE b = ? AND c = ?"))

	lite := &DB{driver: DriverSQLite}
	assert.Equal(t, "SELECT ?", lite.bind("SELECT ?"))
}
