package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistenceReopen(t *testing.T) {
	dir := t.TempDir()

	g, err := Open(Options{DataDir: dir})
	require.NoError(t, err)

	a := mustCreate(t, g, []string{"person"}, map[string]any{"age": 41, "name": "x"})
	b := mustCreate(t, g, []string{"person"}, map[string]any{"age": 24})
	c := mustCreate(t, g, []string{"country"}, map[string]any{"name": "A", "big": 1.5, "ok": true})
	gone := mustCreate(t, g, []string{"person"}, map[string]any{"age": 99})
	_, err = g.CreateIndex("person", "age")
	require.NoError(t, err)
	_, err = g.CreateIndex("country", "name")
	require.NoError(t, err)
	require.NoError(t, g.DropIndex("country", "name"))
	require.NoError(t, g.DeleteNode(gone))
	require.NoError(t, g.Close())

	g, err = Open(Options{DataDir: dir})
	require.NoError(t, err)
	defer g.Close()

	snap := g.Snapshot()
	defer snap.Release()

	assert.Equal(t, []uint64{a, b, c}, snap.NodeIDs())
	assert.Equal(t, []uint64{a, b}, snap.LabelNodeIDs("person"))

	node, err := snap.Node(c)
	require.NoError(t, err)
	assert.Equal(t, "A", node.Property("name").Native())
	assert.Equal(t, 1.5, node.Property("big").Native())
	assert.Equal(t, true, node.Property("ok").Native())

	idx, ok := snap.Catalog().Lookup("person", "age")
	require.True(t, ok, "index definition should survive reopen")
	assert.Equal(t, []uint64{b, a}, scanIDs(idx.Scan(GreaterThan(IntValue(0)))))
	_, ok = snap.Catalog().Lookup("country", "name")
	assert.False(t, ok, "dropped index should stay dropped")

	next := mustCreate(t, g, []string{"person"}, nil)
	assert.Greater(t, next, gone, "IDs must not be reused after reopen")
}

func TestInMemoryStore(t *testing.T) {
	g, err := Open(Options{InMemory: true})
	require.NoError(t, err)
	defer g.Close()

	mustCreate(t, g, []string{"person"}, map[string]any{"age": 1})
	assert.Equal(t, 1, g.NodeCount())
}

func TestNodeCodec(t *testing.T) {
	n := &Node{
		ID:     7,
		Labels: []string{"person", "employee"},
		Properties: map[string]Value{
			"age":  IntValue(35),
			"name": StringValue("Ann"),
		},
	}
	raw, err := encodeNode(n)
	require.NoError(t, err)

	back, err := decodeNode(raw)
	require.NoError(t, err)
	assert.Equal(t, n.ID, back.ID)
	assert.Equal(t, n.Labels, back.Labels)
	assert.True(t, Equal(n.Properties["age"], back.Properties["age"]))
	assert.True(t, Equal(n.Properties["name"], back.Properties["name"]))

	_, err = decodeNode([]byte("not snappy"))
	assert.ErrorIs(t, err, ErrMarshalFailed)
}

func TestIndexDefKey(t *testing.T) {
	key := IndexKey{Label: "person", Property: "age"}
	back, err := parseIndexDefKey(indexDefKey(key))
	require.NoError(t, err)
	assert.Equal(t, key, back)

	_, err = parseIndexDefKey([]byte{prefixIndex, 'x'})
	assert.Error(t, err)
}

func TestStoreClosed(t *testing.T) {
	s, err := OpenStore("", true, false, nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Close(), ErrStorageClosed)
	assert.ErrorIs(t, s.Apply(&Changes{}), ErrStorageClosed)
	_, err = s.Load()
	assert.ErrorIs(t, err, ErrStorageClosed)
}
