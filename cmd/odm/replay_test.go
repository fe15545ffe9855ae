package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/nasdf/odm"
)

const userScript = `
collection: users
documents:
  - id: ada
    fields:
      name: ada
      visits: 1
    steps:
      - op: save
      - op: increment
        path: visits
        value: 2
      - op: push
        path: tags
        value: admin
      - op: save
      - op: save
      - op: reload
      - op: push_each
        path: tags
        values: [ops, dev]
      - op: pull
        path: tags
        match: admin
      - op: save
      - op: delete
`

func openTestDB(t *testing.T, backend string) *odm.DB {
	t.Helper()
	cfg := odm.DefaultConfig()
	cfg.Backend = backend
	db, err := odm.Open(context.Background(), cfg, odm.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func decodeRecords(t *testing.T, out []byte) []record {
	t.Helper()
	var records []record
	dec := yaml.NewDecoder(bytes.NewReader(out))
	for {
		var r record
		err := dec.Decode(&r)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		records = append(records, r)
	}
	return records
}

func TestReplay(t *testing.T) {
	s, err := parseScript([]byte(userScript))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, replay(context.Background(), openTestDB(t, odm.BackendMemory), s, &out))

	records := decodeRecords(t, out.Bytes())
	require.Len(t, records, 6)

	kinds := make([]string, len(records))
	for i, r := range records {
		kinds[i] = r.Kind
		assert.Equal(t, "ada", r.ID)
	}
	assert.Equal(t, []string{"insert", "update", "noop", "load", "update", "delete"}, kinds)

	assert.Equal(t, "ada", records[0].Fields["name"])
	assert.Equal(t, map[string]map[string]any{
		"increment": {"visits": 2},
		"push":      {"tags": "admin"},
	}, records[1].Operators)
	assert.Equal(t, 3, records[3].Fields["visits"])
	assert.Equal(t, []any{"admin"}, records[3].Fields["tags"])
	assert.Equal(t, map[string]map[string]any{
		"push": {"tags": map[string]any{"each": []any{"ops", "dev"}}},
		"pull": {"tags": "admin"},
	}, records[4].Operators)
}

func TestReplayExport(t *testing.T) {
	s, err := parseScript([]byte(`
collection: notes
documents:
  - fields: {title: first}
    steps:
      - op: save
      - op: set
        path: title
        value: second
      - op: save
`))
	require.NoError(t, err)

	db := openTestDB(t, odm.BackendIPLD)
	var out bytes.Buffer
	require.NoError(t, replay(context.Background(), db, s, &out))

	records := decodeRecords(t, out.Bytes())
	require.Len(t, records, 2)
	assert.NotEmpty(t, records[0].ID)
	assert.Equal(t, records[0].ID, records[1].ID)
	assert.Equal(t, map[string]map[string]any{"set": {"title": "second"}}, records[1].Operators)

	var car bytes.Buffer
	require.NoError(t, db.Export(context.Background(), &car))
	assert.NotZero(t, car.Len())
}

func TestReplayMissingDocument(t *testing.T) {
	s, err := parseScript([]byte(`
collection: users
documents:
  - id: ghost
    steps:
      - op: reload
`))
	require.NoError(t, err)

	err = replay(context.Background(), openTestDB(t, odm.BackendMemory), s, io.Discard)
	assert.Error(t, err)
}

func TestParseScriptErrors(t *testing.T) {
	for name, src := range map[string]string{
		"missing collection": `documents: []`,
		"unknown op":         "collection: c\ndocuments:\n  - steps:\n      - op: rename\n",
		"missing path":       "collection: c\ndocuments:\n  - steps:\n      - op: set\n        value: 1\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := parseScript([]byte(src))
			assert.ErrorIs(t, err, errScript)
		})
	}

	_, err := parseScript([]byte("collection: [\n"))
	assert.Error(t, err)
}
