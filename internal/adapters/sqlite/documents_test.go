package sqlite_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/hoard/internal/adapters/sqlite"
	"go.trai.ch/hoard/internal/core/domain"
)

func newDocumentStore(t *testing.T) *sqlite.DocumentStore {
	t.Helper()
	s, err := sqlite.OpenDocumentStore(filepath.Join(t.TempDir(), "documents.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedProjects(t *testing.T, s *sqlite.DocumentStore) {
	t.Helper()
	docs := []struct {
		tenant string
		id     string
		doc    domain.Document
	}{
		{"t1", "p1", domain.Document{"name": "alpha", "status": "active", "amount": 10, "owner": map[string]any{"team": "core"}}},
		{"t1", "p2", domain.Document{"name": "beta", "status": "active", "amount": 30, "archived": false}},
		{"t1", "p3", domain.Document{"name": "gamma", "status": "done", "amount": 20, "archived": true}},
		{"t1", "p4", domain.Document{"name": "delta", "status": "active", "amount": 40, "owner": map[string]any{"team": "edge"}}},
		{"t1", "p5", domain.Document{"name": "epsilon", "status": "active", "amount": 5, "note": nil}},
		{"t2", "p1", domain.Document{"name": "other", "status": "active", "amount": 99}},
	}
	for _, d := range docs {
		require.NoError(t, s.Put(t.Context(), "projects", d.tenant, d.id, d.doc))
	}
}

func names(docs []domain.Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d["name"].(string))
	}
	return out
}

func TestDocumentStore_FindDefaultsToIDOrder(t *testing.T) {
	s := newDocumentStore(t)
	seedProjects(t, s)

	res, err := s.Find(t.Context(), domain.FindQuery{Collection: "projects", TenantID: "t1"})
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha", "beta", "gamma", "delta", "epsilon"}, names(res.Documents))
	assert.Equal(t, 5, res.Scanned)
}

func TestDocumentStore_FindFiltersSortsAndWindows(t *testing.T) {
	s := newDocumentStore(t)
	seedProjects(t, s)

	q := domain.FindQuery{
		Collection: "projects",
		TenantID:   "t1",
		Filter:     map[string]any{"status": "active"},
		SortKey:    "amount",
		SortOrder:  domain.SortDesc,
		Offset:     1,
		Limit:      2,
	}
	res, err := s.Find(t.Context(), q)
	require.NoError(t, err)
	assert.Equal(t, []string{"beta", "alpha"}, names(res.Documents))
	assert.Equal(t, 5, res.Scanned, "a filtered read scans the tenant partition")

	total, err := s.Count(t.Context(), q)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total, "count ignores offset and limit")
}

func TestDocumentStore_FilterValueKinds(t *testing.T) {
	s := newDocumentStore(t)
	seedProjects(t, s)

	tests := []struct {
		name   string
		filter map[string]any
		want   []string
	}{
		{"dotted field", map[string]any{"owner.team": "edge"}, []string{"delta"}},
		{"bool true", map[string]any{"archived": true}, []string{"gamma"}},
		{"bool false", map[string]any{"archived": false}, []string{"beta"}},
		{"integer", map[string]any{"amount": 20}, []string{"gamma"}},
		{"json number", map[string]any{"amount": json.Number("30")}, []string{"beta"}},
		{"null", map[string]any{"note": nil}, []string{"alpha", "beta", "gamma", "delta", "epsilon"}},
		{"no match", map[string]any{"status": "missing"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.Find(t.Context(), domain.FindQuery{Collection: "projects", TenantID: "t1", Filter: tt.filter})
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(res.Documents))
		})
	}
}

func TestDocumentStore_TenantIsolation(t *testing.T) {
	s := newDocumentStore(t)
	seedProjects(t, s)

	n, err := s.Count(t.Context(), domain.FindQuery{Collection: "projects", TenantID: "t2"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestDocumentStore_PutReplacesAndDeleteRemoves(t *testing.T) {
	s := newDocumentStore(t)
	ctx := t.Context()

	require.NoError(t, s.Put(ctx, "projects", "t1", "p1", domain.Document{"name": "alpha", "amount": 1.25}))
	require.NoError(t, s.Put(ctx, "projects", "t1", "p1", domain.Document{"name": "alpha", "amount": 2.5}))

	res, err := s.Find(ctx, domain.FindQuery{Collection: "projects", TenantID: "t1"})
	require.NoError(t, err)
	require.Len(t, res.Documents, 1)
	assert.Equal(t, json.Number("2.5"), res.Documents[0]["amount"], "numbers decode as json.Number")

	require.NoError(t, s.Delete(ctx, "projects", "t1", "p1"))
	require.NoError(t, s.Delete(ctx, "projects", "t1", "p1"))

	n, err := s.Count(ctx, domain.FindQuery{Collection: "projects", TenantID: "t1"})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDocumentStore_RejectsInvalidFields(t *testing.T) {
	s := newDocumentStore(t)

	_, err := s.Find(t.Context(), domain.FindQuery{
		Collection: "projects",
		Filter:     map[string]any{"status') OR 1=1 --": "x"},
	})
	assert.ErrorContains(t, err, domain.ErrInvalidField.Error())

	_, err = s.Find(t.Context(), domain.FindQuery{Collection: "projects", SortKey: "amount desc"})
	assert.ErrorContains(t, err, domain.ErrInvalidField.Error())

	_, err = s.Count(t.Context(), domain.FindQuery{Collection: "projects", Filter: map[string]any{"": 1}})
	assert.ErrorContains(t, err, domain.ErrInvalidField.Error())
}

func TestOpen_Reopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hoard.db")

	s, err := sqlite.OpenDocumentStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(t.Context(), "projects", "t1", "p1", domain.Document{"name": "alpha"}))
	require.NoError(t, s.Close())

	s, err = sqlite.OpenDocumentStore(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	n, err := s.Count(t.Context(), domain.FindQuery{Collection: "projects", TenantID: "t1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestOpen_FailsOnUnusablePath(t *testing.T) {
	_, err := sqlite.Open(filepath.Join(t.TempDir(), "missing", "dir", "hoard.db"))
	assert.ErrorContains(t, err, domain.ErrStoreOpenFailed.Error())
}
