package link

import (
	"bytes"
	"context"
	"testing"

	"github.com/ipld/go-car/v2"

	"github.com/nasdf/odm/document"
	"github.com/nasdf/odm/query"
	"github.com/nasdf/odm/storage"
	"github.com/nasdf/odm/update"
	"github.com/nasdf/odm/value"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGatewaySaveAndFind(t *testing.T) {
	ctx := context.Background()
	store := NewStore(storage.NewMemory())
	users := NewGateway(store, "User")

	fields, err := value.MapFrom(map[string]any{"name": "Bob", "visits": 1, "tags": []any{"a"}})
	require.NoError(t, err)

	d := document.New(document.WithFields(fields), document.WithIDGenerator(func() document.ID { return "bob" }))
	require.NoError(t, d.Save(ctx, users))

	require.NoError(t, d.Increment("visits", value.Int(2)))
	require.NoError(t, d.Push("tags", value.String("b")))
	require.NoError(t, d.Pull("tags", query.Match(value.String("a"))))
	require.NoError(t, d.Save(ctx, users))

	stored, err := users.Find(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, value.Equal(d.Fields(), stored), "%v", value.Go(stored))

	name, err := users.Field(ctx, "bob", "name")
	require.NoError(t, err)
	assert.Equal(t, value.String("Bob"), name)

	history, err := store.History(ctx)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestGatewayCollectionsAreSeparate(t *testing.T) {
	ctx := context.Background()
	store := NewStore(storage.NewMemory())
	users := NewGateway(store, "User")
	posts := NewGateway(store, "Post")

	_, err := users.InsertOrReplace(ctx, "1", value.NewMap())
	require.NoError(t, err)
	_, err = posts.InsertOrReplace(ctx, "2", value.NewMap())
	require.NoError(t, err)

	ids, err := users.IDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []document.ID{"1"}, ids)

	_, err = posts.Find(ctx, "1")
	assert.ErrorIs(t, err, document.ErrNotFound)
}

func TestGatewayNotFound(t *testing.T) {
	ctx := context.Background()
	users := NewGateway(NewStore(storage.NewMemory()), "User")

	_, err := users.Find(ctx, "missing")
	assert.ErrorIs(t, err, document.ErrNotFound)

	err = users.ApplyOperations(ctx, "missing", update.Operators{update.Set: {"a": {Value: value.Int(1)}}})
	assert.ErrorIs(t, err, document.ErrNotFound)

	assert.ErrorIs(t, users.Delete(ctx, "missing"), document.ErrNotFound)
}

func TestGatewayFailedApplyKeepsRoot(t *testing.T) {
	ctx := context.Background()
	store := NewStore(storage.NewMemory())
	users := NewGateway(store, "User")

	fields, err := value.MapFrom(map[string]any{"name": "Bob"})
	require.NoError(t, err)
	_, err = users.InsertOrReplace(ctx, "bob", fields)
	require.NoError(t, err)

	head, err := store.RootLink(ctx)
	require.NoError(t, err)

	err = users.ApplyOperations(ctx, "bob", update.Operators{update.Increment: {"name": {Value: value.Int(1)}}})
	assert.ErrorIs(t, err, update.ErrInvalidOperand)

	after, err := store.RootLink(ctx)
	require.NoError(t, err)
	assert.Equal(t, head, after)
}

func TestGatewayDelete(t *testing.T) {
	ctx := context.Background()
	users := NewGateway(NewStore(storage.NewMemory()), "User")

	_, err := users.InsertOrReplace(ctx, "bob", value.NewMap())
	require.NoError(t, err)
	require.NoError(t, users.Delete(ctx, "bob"))

	_, err = users.Find(ctx, "bob")
	assert.ErrorIs(t, err, document.ErrNotFound)
}

func TestExportHead(t *testing.T) {
	ctx := context.Background()
	store := NewStore(storage.NewMemory())
	users := NewGateway(store, "User")

	var out bytes.Buffer
	assert.ErrorIs(t, store.ExportHead(ctx, &out), ErrEmpty)

	fields, err := value.MapFrom(map[string]any{"name": "Bob"})
	require.NoError(t, err)
	_, err = users.InsertOrReplace(ctx, "bob", fields)
	require.NoError(t, err)
	_, err = users.InsertOrReplace(ctx, "alice", fields)
	require.NoError(t, err)

	require.NoError(t, store.ExportHead(ctx, &out))

	reader, err := car.NewBlockReader(&out)
	require.NoError(t, err)
	head, err := store.RootLink(ctx)
	require.NoError(t, err)
	require.Len(t, reader.Roots, 1)
	assert.Equal(t, head.String(), reader.Roots[0].String())

	blocks := 0
	for {
		_, err := reader.Next()
		if err != nil {
			break
		}
		blocks++
	}
	// two roots and the document block shared by both documents
	assert.GreaterOrEqual(t, blocks, 3)
}
