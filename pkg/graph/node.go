package graph

import "fmt"

// Status is the crawl state of a page.
type Status int

const (
	// Enqueued pages are known and waiting in the frontier.
	Enqueued Status = iota
	// InProgress pages have been handed to a worker.
	InProgress
	// Success pages were fetched without error.
	Success
	// Failure pages could not be fetched or answered with an error status.
	Failure
)

var statusNames = map[Status]string{
	Enqueued:   "enqueued",
	InProgress: "in_progress",
	Success:    "success",
	Failure:    "failure",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	for status, name := range statusNames {
		if name == string(text) {
			*s = status
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", text)
}

// Terminal reports whether no further transition is possible from s.
func (s Status) Terminal() bool {
	return s == Success || s == Failure
}

// PageNode is what the graph knows about one page.
type PageNode struct {
	Status Status `json:"status"`
	// ResponseCode is the HTTP status, 0 when no response was received.
	ResponseCode int    `json:"response_code"`
	Error        string `json:"error,omitempty"`
	Title        string `json:"title,omitempty"`
}

// canTransition reports whether a node may move from one status to another.
func canTransition(from, to Status) bool {
	switch from {
	case Enqueued:
		return to == InProgress
	case InProgress:
		return to.Terminal()
	default:
		return false
	}
}
