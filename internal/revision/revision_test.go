package revision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasimrehman05/superdoc-sub008/internal/doc"
)

func newDoc(t *testing.T) *doc.Doc {
	t.Helper()
	root := &doc.Node{Type: "doc", Children: []*doc.Node{{
		Type:   "paragraph",
		Attrs:  map[string]any{doc.AttrBlockID: "p1"},
		Inline: []doc.Span{{Text: "hello"}},
	}}}
	return doc.New(root)
}

func TestRegistry_IncrementsOnChangedCommit(t *testing.T) {
	r := NewRegistry()
	d := newDoc(t)
	r.Track(d)
	assert.Equal(t, int64(0), r.Get(d))

	tx := d.NewTransaction()
	require.NoError(t, tx.ReplaceTextRange("p1", 0, 5, "bye", nil))
	require.NoError(t, d.Commit(tx))
	assert.Equal(t, int64(1), r.Get(d))

	// A commit that changed nothing does not advance the revision.
	tx = d.NewTransaction()
	require.NoError(t, d.Commit(tx))
	assert.Equal(t, int64(1), r.Get(d))
}

func TestRegistry_TrackTwiceIsNoop(t *testing.T) {
	r := NewRegistry()
	d := newDoc(t)
	r.Track(d)
	r.Track(d)

	tx := d.NewTransaction()
	require.NoError(t, tx.ReplaceTextRange("p1", 0, 1, "H", nil))
	require.NoError(t, d.Commit(tx))
	assert.Equal(t, int64(1), r.Get(d), "double-tracking must not double-count")
}

func TestRegistry_Check(t *testing.T) {
	r := NewRegistry()
	d := newDoc(t)
	r.Track(d)

	require.NoError(t, r.Check(d, 0))
	require.Error(t, r.Check(d, 3))
}

func TestRegistry_PerDocumentCounters(t *testing.T) {
	r := NewRegistry()
	d1, d2 := newDoc(t), newDoc(t)
	r.Track(d1)
	r.Track(d2)

	tx := d1.NewTransaction()
	require.NoError(t, tx.ReplaceTextRange("p1", 0, 1, "x", nil))
	require.NoError(t, d1.Commit(tx))

	assert.Equal(t, int64(1), r.Get(d1))
	assert.Equal(t, int64(0), r.Get(d2))
}

func TestRegistry_Untrack(t *testing.T) {
	r := NewRegistry()
	d := newDoc(t)
	r.Track(d)
	r.Untrack(d)
	assert.Equal(t, int64(0), r.Get(d))
}
