package graph

import (
	"encoding/json"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amosWeiskopf/sitegraph/pkg/uri"
)

var (
	home  = uri.MustParse("http://example.com/")
	about = uri.MustParse("http://example.com/about")
	blog  = uri.MustParse("http://example.com/blog")
)

func TestAddNodeAtMostOnce(t *testing.T) {
	g := New()

	assert.True(t, g.AddNode(home))
	require.NoError(t, g.SetStatus(home, InProgress, 0, ""))

	assert.False(t, g.AddNode(home))
	assert.False(t, g.AddNode(uri.MustParse("http://example.com/#section")))

	node, ok := g.Node(home)
	require.True(t, ok)
	assert.Equal(t, InProgress, node.Status)
	assert.Equal(t, 1, g.Len())
}

func TestAddNodeStartsEnqueued(t *testing.T) {
	g := New()
	g.AddNode(about)

	node, ok := g.Node(about)
	require.True(t, ok)
	assert.Equal(t, PageNode{Status: Enqueued}, node)
	assert.True(t, g.Has(about))
	assert.False(t, g.Has(blog))
}

func TestAddEdgeIsASet(t *testing.T) {
	g := New()
	g.AddNode(home)
	g.AddNode(about)
	g.AddNode(blog)

	g.AddEdge(home, about)
	g.AddEdge(home, about)
	g.AddEdge(blog, about)

	assert.Equal(t, 2, g.InDegree(about))
	assert.Equal(t, 1, g.OutDegree(home))
	assert.Equal(t, 2, g.EdgeCount())
	assert.ElementsMatch(t, []uri.URI{home, blog}, slices.Collect(g.Parents(about)))
	assert.Equal(t, []uri.URI{about}, slices.Collect(g.Children(home)))
}

func TestAddEdgeToUnknownTarget(t *testing.T) {
	g := New()
	g.AddNode(home)
	g.AddEdge(home, about)

	assert.Equal(t, []uri.URI{home}, slices.Collect(g.Parents(about)))
	assert.False(t, g.Has(about))
}

func TestParentsOfUnlinkedPage(t *testing.T) {
	g := New()
	g.AddNode(home)

	assert.Empty(t, slices.Collect(g.Parents(home)))
	assert.Empty(t, slices.Collect(g.Parents(blog)))
}

func TestSetStatusTransitions(t *testing.T) {
	g := New()
	g.AddNode(home)

	err := g.SetStatus(home, Success, 200, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, g.SetStatus(home, InProgress, 0, ""))
	require.NoError(t, g.SetStatus(home, Failure, 404, "HTTP 404 Not Found"))

	node, _ := g.Node(home)
	assert.Equal(t, Failure, node.Status)
	assert.Equal(t, 404, node.ResponseCode)
	assert.Equal(t, "HTTP 404 Not Found", node.Error)

	err = g.SetStatus(home, Success, 200, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	err = g.SetStatus(home, Enqueued, 0, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSetStatusUnknownNode(t *testing.T) {
	g := New()
	err := g.SetStatus(about, InProgress, 0, "")
	assert.ErrorIs(t, err, ErrUnknownNode)
	assert.ErrorIs(t, g.NoteError(about, "x"), ErrUnknownNode)
	assert.ErrorIs(t, g.SetTitle(about, "x"), ErrUnknownNode)
}

func TestNoteErrorAccumulates(t *testing.T) {
	g := New()
	g.AddNode(home)

	require.NoError(t, g.NoteError(home, "invalid character in path (/a b)"))
	require.NoError(t, g.SetStatus(home, InProgress, 0, ""))
	require.NoError(t, g.SetStatus(home, Failure, 500, "HTTP 500 Internal Server Error"))

	node, _ := g.Node(home)
	assert.Equal(t, "invalid character in path (/a b); HTTP 500 Internal Server Error", node.Error)
}

func TestNodesInDiscoveryOrder(t *testing.T) {
	g := New()
	g.AddNode(blog)
	g.AddNode(home)
	g.AddNode(about)
	g.AddNode(home)
	require.NoError(t, g.SetTitle(home, "Home"))

	var keys []uri.URI
	for u, node := range g.Nodes() {
		keys = append(keys, u)
		if u == home {
			assert.Equal(t, "Home", node.Title)
		}
	}
	assert.Equal(t, []uri.URI{blog, home, about}, keys)
}

func TestCounts(t *testing.T) {
	g := New()
	g.AddNode(home)
	g.AddNode(about)
	g.AddNode(blog)
	require.NoError(t, g.SetStatus(home, InProgress, 0, ""))
	require.NoError(t, g.SetStatus(home, Success, 200, ""))
	require.NoError(t, g.SetStatus(about, InProgress, 0, ""))

	counts := g.Counts()
	assert.Equal(t, 1, counts[Success])
	assert.Equal(t, 1, counts[InProgress])
	assert.Equal(t, 1, counts[Enqueued])
	assert.Equal(t, 0, counts[Failure])
}

func TestStatusText(t *testing.T) {
	data, err := json.Marshal(PageNode{Status: InProgress, ResponseCode: 0})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"in_progress","response_code":0}`, string(data))

	var s Status
	require.NoError(t, s.UnmarshalText([]byte("failure")))
	assert.Equal(t, Failure, s)
	assert.Error(t, s.UnmarshalText([]byte("nope")))
	assert.Equal(t, "status(9)", Status(9).String())
	assert.True(t, Success.Terminal())
	assert.False(t, Enqueued.Terminal())
}
