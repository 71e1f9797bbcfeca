package crawler

import (
	"container/list"

	"github.com/amosWeiskopf/sitegraph/pkg/uri"
)

// Frontier is the FIFO queue of pages awaiting dispatch together with the
// set of pages currently assigned to a worker. It is owned by the crawl
// loop and is not safe for concurrent use.
type Frontier struct {
	queue    *list.List
	inFlight map[uri.URI]struct{}
}

// NewFrontier returns an empty Frontier.
func NewFrontier() *Frontier {
	return &Frontier{
		queue:    list.New(),
		inFlight: make(map[uri.URI]struct{}),
	}
}

// Push appends u to the back of the queue.
func (f *Frontier) Push(u uri.URI) {
	f.queue.PushBack(u.Key())
}

// Dispatch removes the oldest queued page and marks it in flight. It
// returns false when the queue is empty.
func (f *Frontier) Dispatch() (uri.URI, bool) {
	front := f.queue.Front()
	if front == nil {
		return uri.URI{}, false
	}
	u := f.queue.Remove(front).(uri.URI)
	f.inFlight[u] = struct{}{}
	return u, true
}

// Complete clears u from the in-flight set.
func (f *Frontier) Complete(u uri.URI) {
	delete(f.inFlight, u.Key())
}

// IsInFlight reports whether u is currently assigned to a worker.
func (f *Frontier) IsInFlight(u uri.URI) bool {
	_, ok := f.inFlight[u.Key()]
	return ok
}

// Len returns the number of queued pages.
func (f *Frontier) Len() int {
	return f.queue.Len()
}

// InFlight returns the number of pages assigned to workers.
func (f *Frontier) InFlight() int {
	return len(f.inFlight)
}

// Done reports whether nothing is queued and nothing is in flight.
func (f *Frontier) Done() bool {
	return f.Len() == 0 && f.InFlight() == 0
}
