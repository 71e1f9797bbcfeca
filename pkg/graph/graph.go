// Package graph holds the directed page graph produced by a crawl.
//
// A PageGraph is not safe for concurrent use. The crawler owns it from a
// single goroutine and workers never touch it.
package graph

import (
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/amosWeiskopf/sitegraph/pkg/uri"
)

var (
	// ErrUnknownNode is returned when an operation names a page that was
	// never added to the graph.
	ErrUnknownNode = errors.New("unknown node")

	// ErrInvalidTransition is returned when a status change would move a
	// node backwards or out of a terminal state.
	ErrInvalidTransition = errors.New("invalid status transition")
)

type uriSet map[uri.URI]struct{}

// PageGraph records every discovered page, its crawl status and the links
// between pages. Keys are fragment-free: a URI with a fragment addresses
// the same node as the URI without it.
type PageGraph struct {
	nodes    map[uri.URI]*PageNode
	order    []uri.URI
	outgoing map[uri.URI]uriSet
	incoming map[uri.URI]uriSet
	edges    int
}

// New creates an empty PageGraph.
func New() *PageGraph {
	return &PageGraph{
		nodes:    make(map[uri.URI]*PageNode),
		outgoing: make(map[uri.URI]uriSet),
		incoming: make(map[uri.URI]uriSet),
	}
}

// AddNode inserts u with status Enqueued and returns true. If u is already
// present the graph is left untouched and AddNode returns false.
//
// A page must be scheduled for fetching only when AddNode returned true.
func (g *PageGraph) AddNode(u uri.URI) bool {
	key := u.Key()
	if _, ok := g.nodes[key]; ok {
		return false
	}
	g.nodes[key] = &PageNode{Status: Enqueued}
	g.order = append(g.order, key)
	return true
}

// AddEdge records a link from one page to another. The target does not
// need to be a node yet. Repeated edges are stored once.
func (g *PageGraph) AddEdge(from, to uri.URI) {
	from, to = from.Key(), to.Key()

	out, ok := g.outgoing[from]
	if !ok {
		out = make(uriSet)
		g.outgoing[from] = out
	}
	if _, dup := out[to]; dup {
		return
	}
	out[to] = struct{}{}

	in, ok := g.incoming[to]
	if !ok {
		in = make(uriSet)
		g.incoming[to] = in
	}
	in[from] = struct{}{}
	g.edges++
}

// SetStatus moves the node for u to status and records the response code
// and error text.
func (g *PageGraph) SetStatus(u uri.URI, status Status, responseCode int, errText string) error {
	node, err := g.node(u)
	if err != nil {
		return err
	}
	if !canTransition(node.Status, status) {
		return fmt.Errorf("%w: %s from %s to %s", ErrInvalidTransition, u.Key(), node.Status, status)
	}
	node.Status = status
	node.ResponseCode = responseCode
	if errText != "" {
		node.Error = joinErrors(node.Error, errText)
	}
	return nil
}

// NoteError appends a problem found while processing u, such as a link
// that could not be resolved, to the node's error text.
func (g *PageGraph) NoteError(u uri.URI, errText string) error {
	node, err := g.node(u)
	if err != nil {
		return err
	}
	node.Error = joinErrors(node.Error, errText)
	return nil
}

// SetTitle stores the page title for u.
func (g *PageGraph) SetTitle(u uri.URI, title string) error {
	node, err := g.node(u)
	if err != nil {
		return err
	}
	node.Title = title
	return nil
}

func (g *PageGraph) node(u uri.URI) (*PageNode, error) {
	node, ok := g.nodes[u.Key()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, u.Key())
	}
	return node, nil
}

func joinErrors(existing, next string) string {
	if existing == "" {
		return next
	}
	return strings.Join([]string{existing, next}, "; ")
}

// Node returns a copy of the node for u.
func (g *PageGraph) Node(u uri.URI) (PageNode, bool) {
	node, ok := g.nodes[u.Key()]
	if !ok {
		return PageNode{}, false
	}
	return *node, true
}

// Has reports whether u has been added to the graph.
func (g *PageGraph) Has(u uri.URI) bool {
	_, ok := g.nodes[u.Key()]
	return ok
}

// Len returns the number of nodes.
func (g *PageGraph) Len() int {
	return len(g.nodes)
}

// EdgeCount returns the number of distinct edges.
func (g *PageGraph) EdgeCount() int {
	return g.edges
}

// Nodes yields every node in the order it was first added.
func (g *PageGraph) Nodes() iter.Seq2[uri.URI, PageNode] {
	return func(yield func(uri.URI, PageNode) bool) {
		for _, key := range g.order {
			if !yield(key, *g.nodes[key]) {
				return
			}
		}
	}
}

// Parents yields the pages that link to u. It yields nothing when u has no
// incoming edges.
func (g *PageGraph) Parents(u uri.URI) iter.Seq[uri.URI] {
	return g.neighbours(g.incoming, u)
}

// Children yields the pages u links to.
func (g *PageGraph) Children(u uri.URI) iter.Seq[uri.URI] {
	return g.neighbours(g.outgoing, u)
}

func (g *PageGraph) neighbours(index map[uri.URI]uriSet, u uri.URI) iter.Seq[uri.URI] {
	return func(yield func(uri.URI) bool) {
		for v := range index[u.Key()] {
			if !yield(v) {
				return
			}
		}
	}
}

// InDegree returns the number of distinct pages linking to u.
func (g *PageGraph) InDegree(u uri.URI) int {
	return len(g.incoming[u.Key()])
}

// OutDegree returns the number of distinct pages u links to.
func (g *PageGraph) OutDegree(u uri.URI) int {
	return len(g.outgoing[u.Key()])
}

// Counts returns how many nodes are in each status.
func (g *PageGraph) Counts() map[Status]int {
	counts := make(map[Status]int, len(statusNames))
	for _, node := range g.nodes {
		counts[node.Status]++
	}
	return counts
}
