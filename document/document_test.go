package document

import (
	"context"
	"errors"
	"testing"

	"github.com/nasdf/odm/query"
	"github.com/nasdf/odm/update"
	"github.com/nasdf/odm/value"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	method string
	id     ID
	fields *value.Map
	ops    update.Operators
}

// recorder is a gateway that records calls and optionally fails them.
type recorder struct {
	calls []call
	fail  error
}

func (r *recorder) InsertOrReplace(ctx context.Context, id ID, fields *value.Map) (ID, error) {
	r.calls = append(r.calls, call{method: "insert", id: id, fields: fields})
	if r.fail != nil {
		return "", r.fail
	}
	return id, nil
}

func (r *recorder) ApplyOperations(ctx context.Context, id ID, ops update.Operators) error {
	r.calls = append(r.calls, call{method: "apply", id: id, ops: ops})
	return r.fail
}

func (r *recorder) Delete(ctx context.Context, id ID) error {
	r.calls = append(r.calls, call{method: "delete", id: id})
	return r.fail
}

func fields(t *testing.T, m map[string]any) *value.Map {
	out, err := value.MapFrom(m)
	require.NoError(t, err)
	return out
}

func persisted(t *testing.T, m map[string]any) *Document {
	return Load("doc1", fields(t, m))
}

func TestNewDocumentIsNotPersisted(t *testing.T) {
	d := New(WithFields(fields(t, map[string]any{"a": 1})))
	assert.False(t, d.IsPersisted())
	assert.Equal(t, value.Int(1), d.Get("a"))

	require.NoError(t, d.Set("b", value.String("x")))
	assert.False(t, d.HasPending())
}

func TestSetDistinctPaths(t *testing.T) {
	d := persisted(t, map[string]any{})
	require.NoError(t, d.Set("a", value.Int(1)))
	require.NoError(t, d.Set("b.c", value.String("x")))
	require.NoError(t, d.Set("a", value.Int(2)))

	ops := d.Pending()
	assert.Equal(t, 2, ops.Len())
	op, ok := ops.Get(update.Set, "a")
	require.True(t, ok)
	assert.Equal(t, value.Int(2), op.Value)
	op, ok = ops.Get(update.Set, "b.c")
	require.True(t, ok)
	assert.Equal(t, value.String("x"), op.Value)
}

func TestSetInvalidSelector(t *testing.T) {
	d := persisted(t, map[string]any{})
	assert.Error(t, d.Set("", value.Int(1)))
	assert.Error(t, d.Set("a..b", value.Int(1)))
	assert.False(t, d.HasPending())
	assert.Equal(t, 0, d.Fields().Len())
}

func TestIncrementAccumulates(t *testing.T) {
	d := persisted(t, map[string]any{"j": 1})
	require.NoError(t, d.Increment("j", value.Int(2)))
	require.NoError(t, d.Increment("j", value.Int(4)))

	assert.Equal(t, value.Int(7), d.Get("j"))
	op, ok := d.Pending().Get(update.Increment, "j")
	require.True(t, ok)
	assert.Equal(t, value.Int(6), op.Value)
}

func TestIncrementAbsentField(t *testing.T) {
	d := persisted(t, map[string]any{})
	require.NoError(t, d.Increment("i", value.Float(1.5)))
	assert.Equal(t, value.Float(1.5), d.Get("i"))
}

func TestIncrementNotNumeric(t *testing.T) {
	d := persisted(t, map[string]any{"s": "x"})
	err := d.Increment("s", value.Int(1))
	assert.ErrorIs(t, err, ErrNotNumeric)
	assert.Equal(t, value.String("x"), d.Get("s"))
	assert.False(t, d.HasPending())
}

func TestIncrementAfterSet(t *testing.T) {
	d := persisted(t, map[string]any{})
	require.NoError(t, d.Set("j", value.Int(10)))
	require.NoError(t, d.Increment("j", value.Int(5)))

	ops := d.Pending()
	assert.Equal(t, 1, ops.Len())
	op, ok := ops.Get(update.Set, "j")
	require.True(t, ok)
	assert.Equal(t, value.Int(15), op.Value)
}

func TestPushMerge(t *testing.T) {
	d := persisted(t, map[string]any{})
	require.NoError(t, d.Push("key", value.Int(1)))
	require.NoError(t, d.Push("key", value.Int(2)))

	assert.Equal(t, value.List{value.Int(1), value.Int(2)}, d.Get("key"))
	ops := d.Pending()
	assert.Equal(t, 1, ops.Len())
	op, ok := ops.Get(update.Push, "key")
	require.True(t, ok)
	assert.True(t, op.Each)
	assert.Equal(t, []value.Value{value.Int(1), value.Int(2)}, op.Values)
}

func TestPushSingleIsNotEach(t *testing.T) {
	d := persisted(t, map[string]any{"key": []any{"a"}})
	require.NoError(t, d.Push("key", value.String("b")))

	op, ok := d.Pending().Get(update.Push, "key")
	require.True(t, ok)
	assert.False(t, op.Each)
	assert.Equal(t, []value.Value{value.String("b")}, op.Values)
}

func TestPushPromotesScalar(t *testing.T) {
	d := persisted(t, map[string]any{"some": "some"})
	require.NoError(t, d.Push("some", value.String("another")))

	want := value.List{value.String("some"), value.String("another")}
	assert.Equal(t, want, d.Get("some"))
	ops := d.Pending()
	assert.Equal(t, 1, ops.Len())
	op, ok := ops.Get(update.Set, "some")
	require.True(t, ok)
	assert.Equal(t, want, op.Value)
}

func TestPushOntoPendingSet(t *testing.T) {
	d := persisted(t, map[string]any{})
	require.NoError(t, d.Set("key", value.List{value.Int(1)}))
	require.NoError(t, d.Push("key", value.Int(2)))

	op, ok := d.Pending().Get(update.Set, "key")
	require.True(t, ok)
	assert.Equal(t, value.List{value.Int(1), value.Int(2)}, op.Value)
	_, ok = d.Pending().Get(update.Push, "key")
	assert.False(t, ok)
}

func TestPushEach(t *testing.T) {
	d := persisted(t, map[string]any{"key": []any{1}})
	require.NoError(t, d.PushEach("key", []value.Value{value.Int(2), value.Int(3)}))

	assert.Equal(t, value.List{value.Int(1), value.Int(2), value.Int(3)}, d.Get("key"))
	op, ok := d.Pending().Get(update.Push, "key")
	require.True(t, ok)
	assert.True(t, op.Each)
	assert.Len(t, op.Values, 2)
}

func TestPullLiteral(t *testing.T) {
	d := persisted(t, map[string]any{"key": []any{1, 2, 1, 3}})
	expr := query.Match(value.Int(1))
	require.NoError(t, d.Pull("key", expr))

	assert.Equal(t, value.List{value.Int(2), value.Int(3)}, d.Get("key"))
	op, ok := d.Pending().Get(update.Pull, "key")
	require.True(t, ok)
	assert.NotSame(t, expr, op.Expr)
	assert.True(t, value.Equal(expr.Value(), op.Expr.Value()))
}

// converges applies the pending operators to the stored fields and checks
// that the store ends up where the local document is.
func converges(t *testing.T, stored *value.Map, d *Document) {
	t.Helper()
	got := stored.Clone()
	require.NoError(t, update.Apply(got, d.Pending()))
	assert.True(t, value.Equal(d.Fields(), got), "local %v, store %v", value.Go(d.Fields()), value.Go(got))
}

func TestPushAfterPullOnPendingPush(t *testing.T) {
	stored := fields(t, map[string]any{"key": []any{"a"}})
	d := Load("doc1", stored.Clone())
	require.NoError(t, d.Push("key", value.String("x")))
	require.NoError(t, d.Pull("key", query.Match(value.String("x"))))
	require.NoError(t, d.Push("key", value.String("x")))

	assert.Equal(t, value.List{value.String("a"), value.String("x")}, d.Get("key"))
	ops := d.Pending()
	assert.Equal(t, 1, ops.Len())
	op, ok := ops.Get(update.Set, "key")
	require.True(t, ok)
	assert.Equal(t, value.List{value.String("a"), value.String("x")}, op.Value)
	converges(t, stored, d)
}

func TestGetReturnsCopies(t *testing.T) {
	d := persisted(t, map[string]any{"list": []any{1}, "sub": map[string]any{"a": 1}})
	list := d.Get("list").(value.List)
	list[0] = value.Int(9)
	sub := d.Get("sub").(*value.Map)
	sub.Set("a", value.Int(9))

	assert.Equal(t, value.List{value.Int(1)}, d.Get("list"))
	assert.Equal(t, value.Int(1), d.Get("sub.a"))
	assert.False(t, d.HasPending())
}

func TestPullExpressionReuse(t *testing.T) {
	stored := fields(t, map[string]any{"key": []any{
		map[string]any{"a": 1, "b": 1},
	}})
	d := Load("doc1", stored.Clone())
	expr := query.Where("a", value.Int(1))
	require.NoError(t, d.Pull("key", expr))
	expr.Where("b", value.Int(2))

	assert.Equal(t, value.List{}, d.Get("key"))
	op, ok := d.Pending().Get(update.Pull, "key")
	require.True(t, ok)
	assert.Len(t, op.Expr.Conditions(), 1)
	converges(t, stored, d)
}

func TestPullSubDocument(t *testing.T) {
	d := persisted(t, map[string]any{"list": []any{
		map[string]any{"sub": map[string]any{"a": 1}},
		map[string]any{"sub": map[string]any{"a": 2}},
	}})
	require.NoError(t, d.Pull("list", query.Where("sub.a", value.Int(1))))

	want := value.MustFrom([]any{map[string]any{"sub": map[string]any{"a": 2}}})
	assert.True(t, value.Equal(want, d.Get("list")))
}

func TestPullKeptNextToPush(t *testing.T) {
	d := persisted(t, map[string]any{"key": []any{1}})
	require.NoError(t, d.Push("key", value.Int(2)))
	require.NoError(t, d.Pull("key", query.Match(value.Int(1))))

	ops := d.Pending()
	_, ok := ops.Get(update.Push, "key")
	assert.True(t, ok)
	_, ok = ops.Get(update.Pull, "key")
	assert.True(t, ok)
	assert.Equal(t, value.List{value.Int(2)}, d.Get("key"))
}

func TestPullNilExpression(t *testing.T) {
	d := persisted(t, map[string]any{"key": []any{1}})
	assert.ErrorIs(t, d.Pull("key", nil), ErrInvalidExpression)
}

func TestPullNotList(t *testing.T) {
	d := persisted(t, map[string]any{"key": 1})
	require.NoError(t, d.Pull("key", query.Match(value.Int(1))))
	assert.False(t, d.HasPending())
	assert.Equal(t, value.Int(1), d.Get("key"))
}

func TestUnsetKeepsSiblings(t *testing.T) {
	d := persisted(t, map[string]any{"a": map[string]any{"a2": map[string]any{"a21": 1, "a22": 2}}})
	require.NoError(t, d.Unset("a.a2.a21"))

	assert.Nil(t, d.Get("a.a2.a21"))
	assert.Equal(t, value.Int(2), d.Get("a.a2.a22"))
	_, ok := d.Pending().Get(update.Unset, "a.a2.a21")
	assert.True(t, ok)
}

func TestUnsetAbsentField(t *testing.T) {
	d := persisted(t, map[string]any{})
	require.NoError(t, d.Unset("missing"))
	assert.False(t, d.HasPending())
}

func TestMutationUnderPendingAncestor(t *testing.T) {
	d := persisted(t, map[string]any{})
	require.NoError(t, d.Set("a", value.MustFrom(map[string]any{"b": 1})))
	require.NoError(t, d.Increment("a.b", value.Int(1)))

	ops := d.Pending()
	assert.Equal(t, 1, ops.Len())
	op, ok := ops.Get(update.Set, "a")
	require.True(t, ok)
	assert.True(t, value.Equal(value.MustFrom(map[string]any{"b": 2}), op.Value))
}

func TestAppend(t *testing.T) {
	d := persisted(t, map[string]any{})
	require.NoError(t, d.Append("key", value.String("v1")))
	assert.Equal(t, value.String("v1"), d.Get("key"))

	require.NoError(t, d.Append("key", value.String("v2")))
	assert.Equal(t, value.List{value.String("v1"), value.String("v2")}, d.Get("key"))

	require.NoError(t, d.Append("key", value.String("v3")))
	want := value.List{value.String("v1"), value.String("v2"), value.String("v3")}
	assert.Equal(t, want, d.Get("key"))

	op, ok := d.Pending().Get(update.Set, "key")
	require.True(t, ok)
	assert.Equal(t, want, op.Value)
}

func TestSetID(t *testing.T) {
	d := persisted(t, map[string]any{"a": 1})
	require.NoError(t, d.Set("a", value.Int(2)))
	assert.True(t, d.IsPersisted())

	d.SetID("other")
	assert.False(t, d.IsPersisted())
	assert.False(t, d.HasPending())
	assert.Equal(t, "other", d.String())

	gw := &recorder{}
	require.NoError(t, d.Save(context.Background(), gw))
	require.Len(t, gw.calls, 1)
	assert.Equal(t, "insert", gw.calls[0].method)
	assert.Equal(t, ID("other"), gw.calls[0].id)
	assert.True(t, d.IsPersisted())
}

func TestSaveInsertAssignsID(t *testing.T) {
	ctx := context.Background()
	d := New(
		WithFields(fields(t, map[string]any{"a": 1})),
		WithIDGenerator(func() ID { return "generated" }),
	)
	gw := &recorder{}
	require.NoError(t, d.Save(ctx, gw))

	require.Len(t, gw.calls, 1)
	assert.Equal(t, "insert", gw.calls[0].method)
	assert.Equal(t, ID("generated"), d.ID())
	assert.True(t, d.IsPersisted())
	assert.True(t, value.Equal(d.Fields(), gw.calls[0].fields))
}

func TestSaveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	d := persisted(t, map[string]any{})
	require.NoError(t, d.Set("a", value.Int(1)))

	gw := &recorder{}
	require.NoError(t, d.Save(ctx, gw))
	require.NoError(t, d.Save(ctx, gw))

	require.Len(t, gw.calls, 1)
	assert.Equal(t, "apply", gw.calls[0].method)
	assert.Equal(t, 1, gw.calls[0].ops.Len())
	assert.False(t, d.HasPending())
}

func TestFailedSaveRetainsPending(t *testing.T) {
	ctx := context.Background()
	d := persisted(t, map[string]any{"j": 1})
	require.NoError(t, d.Increment("j", value.Int(1)))

	failure := errors.New("connection refused")
	gw := &recorder{fail: failure}
	assert.ErrorIs(t, d.Save(ctx, gw), failure)
	assert.True(t, d.HasPending())

	require.NoError(t, d.Increment("j", value.Int(2)))
	gw.fail = nil
	require.NoError(t, d.Save(ctx, gw))

	require.Len(t, gw.calls, 2)
	op, ok := gw.calls[1].ops.Get(update.Increment, "j")
	require.True(t, ok)
	assert.Equal(t, value.Int(3), op.Value)
	assert.False(t, d.HasPending())
}

func TestFailedInsertStaysNew(t *testing.T) {
	d := New(WithIDGenerator(func() ID { return "x" }))
	gw := &recorder{fail: errors.New("down")}
	assert.Error(t, d.Save(context.Background(), gw))
	assert.False(t, d.IsPersisted())
	assert.Equal(t, ID(""), d.ID())
}

func TestSaveHookOrder(t *testing.T) {
	ctx := context.Background()
	var events []string
	record := func(name string) Listener {
		return func(ctx context.Context, d *Document) error {
			events = append(events, name)
			return nil
		}
	}
	opts := []Option{WithIDGenerator(func() ID { return "id" })}
	for _, e := range []Event{BeforeConstruct, AfterConstruct, BeforeValidate, AfterValidate, BeforeInsert, AfterInsert, BeforeUpdate, AfterUpdate, BeforeSave, AfterSave, BeforeDelete, AfterDelete} {
		opts = append(opts, WithListener(e, record(e.String())))
	}
	d := New(opts...)
	assert.Equal(t, []string{"beforeConstruct", "afterConstruct"}, events)

	events = nil
	gw := &recorder{}
	require.NoError(t, d.Save(ctx, gw))
	assert.Equal(t, []string{"beforeValidate", "afterValidate", "beforeInsert", "beforeSave", "afterInsert", "afterSave"}, events)

	events = nil
	require.NoError(t, d.Save(ctx, gw))
	assert.Empty(t, events)

	require.NoError(t, d.Set("a", value.Int(1)))
	require.NoError(t, d.Save(ctx, gw))
	assert.Equal(t, []string{"beforeValidate", "afterValidate", "beforeUpdate", "beforeSave", "afterUpdate", "afterSave"}, events)

	events = nil
	require.NoError(t, d.Delete(ctx, gw))
	assert.Equal(t, []string{"beforeDelete", "afterDelete"}, events)
	assert.Equal(t, "delete", gw.calls[len(gw.calls)-1].method)
}

func TestBeforeSaveAborts(t *testing.T) {
	abort := errors.New("abort")
	d := New(WithListener(BeforeSave, func(ctx context.Context, d *Document) error {
		return abort
	}))
	gw := &recorder{}
	assert.ErrorIs(t, d.Save(context.Background(), gw), abort)
	assert.Empty(t, gw.calls)
}

func TestValidationBlocksSave(t *testing.T) {
	ctx := context.Background()
	v := ValidatorFunc(func(d *Document) map[string]map[string]string {
		if d.Get("name") == nil {
			return map[string]map[string]string{"name": {"required": "name is required"}}
		}
		return nil
	})
	d := New(WithValidator(v))
	gw := &recorder{}

	err := d.Save(ctx, gw)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name is required", verr.Errors["name"]["required"])
	assert.Empty(t, gw.calls)

	require.NoError(t, d.Set("name", value.String("n")))
	require.NoError(t, d.Save(ctx, gw))
	assert.False(t, d.HasErrors())
}

func TestReportedErrors(t *testing.T) {
	d := New()
	d.ReportError("f", "rule", "msg")
	d.ReportErrors(map[string]map[string]string{"g": {"other": "msg2"}})

	assert.False(t, d.IsValid(context.Background()))
	assert.Equal(t, map[string]map[string]string{
		"f": {"rule": "msg"},
		"g": {"other": "msg2"},
	}, d.Errors())

	d.ClearErrors()
	assert.True(t, d.IsValid(context.Background()))
}

func TestBehaviors(t *testing.T) {
	d := New(WithBehavior("greeter", Methods{
		"greet": func(d *Document, args ...any) (any, error) {
			return "hello " + args[0].(string), nil
		},
	}))
	assert.True(t, d.HasMethod("greet"))

	out, err := d.Execute("greet", "world")
	require.NoError(t, err)
	assert.Equal(t, "hello world", out)

	_, err = d.Execute("missing")
	assert.ErrorIs(t, err, ErrNoSuchMethod)

	d.DetachBehavior("greeter")
	assert.False(t, d.HasMethod("greet"))
}

func TestMapIncludesID(t *testing.T) {
	d := persisted(t, map[string]any{"a": 1})
	assert.Equal(t, map[string]any{"a": int64(1), "_id": "doc1"}, d.Map())
}

func TestFromMap(t *testing.T) {
	d := persisted(t, map[string]any{})
	require.NoError(t, d.FromMap(fields(t, map[string]any{"a": 1, "b": "x"})))
	assert.Equal(t, 2, d.Pending().Len())
}
