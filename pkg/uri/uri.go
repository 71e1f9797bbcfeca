// Package uri implements the URI model used by the crawler: a small,
// permissive parser for absolute and relative references, resolution of
// relative links against the page they were found on, and rendering back
// to text.
package uri

import (
	"fmt"
	"regexp"
	"strings"
)

// sectionPattern is the character class every host, path, query and
// fragment must match. A "%" is only accepted as the start of a %XX escape.
var sectionPattern = regexp.MustCompile(`^(?:[a-zA-Z0-9._~!$&'()*+,;=:\\/@-]|%[0-9A-Fa-f]{2})*$`)

// URI is a parsed reference. All fields are plain text and any of them may
// be empty. URI is comparable and can be used directly as a map key; use
// Key to obtain the fragment-free form that identifies a page.
type URI struct {
	Protocol string
	Host     string
	Port     string
	Path     string
	Query    string
	Fragment string
}

// ParseError reports which section of a reference contained a character
// outside the allowed set.
type ParseError struct {
	Section string
	Value   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid character in %s (%s)", e.Section, e.Value)
}

// Parse parses raw into a URI. The empty string yields the zero URI.
//
// An authority (host[:port]) is only read when raw carries a scheme
// ("scheme://") or when a colon appears before the first slash, as in
// "localhost:8080/docs". Everything else is treated as a path, so
// "page.html" and "./page.html" parse as relative paths.
func Parse(raw string) (URI, error) {
	var u URI
	if raw == "" {
		return u, nil
	}

	rest := raw
	if i := strings.IndexByte(rest, '#'); i >= 0 {
		u.Fragment = rest[i+1:]
		rest = rest[:i]
	}
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		u.Query = rest[i+1:]
		rest = rest[:i]
	}

	slash := strings.IndexByte(rest, '/')
	if slash < 0 {
		slash = len(rest)
	}
	colon := strings.IndexByte(rest, ':')

	if colon >= 0 && colon < slash {
		if strings.HasPrefix(rest[colon:], "://") {
			u.Protocol = rest[:colon]
			rest = rest[colon+3:]
		}
		u.Host, u.Port, u.Path = splitAuthority(rest)
		// "scheme://./page" anchors a relative reference
		if u.Host == "." {
			u.Host = ""
			if u.Path != "" {
				u.Path = u.Path[1:]
			}
		}
	} else {
		u.Path = rest
	}

	if err := u.validate(); err != nil {
		return URI{}, err
	}
	return u, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level values.
func MustParse(raw string) URI {
	u, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return u
}

// splitAuthority splits "host[:port]/path" at the first slash and the
// host part at its first colon. An empty port keeps the colon in the host
// so that rendering gives back the original text.
func splitAuthority(s string) (host, port, path string) {
	end := strings.IndexByte(s, '/')
	if end < 0 {
		end = len(s)
	}
	hostport := s[:end]
	path = s[end:]

	if h, p, ok := strings.Cut(hostport, ":"); ok && p != "" {
		return h, p, path
	}
	return hostport, "", path
}

func (u URI) validate() error {
	sections := []struct {
		name  string
		value string
	}{
		{"host", u.Host},
		{"path", u.Path},
		{"query", u.Query},
		{"fragment", u.Fragment},
	}
	for _, s := range sections {
		if !sectionPattern.MatchString(s.value) {
			return &ParseError{Section: s.name, Value: s.value}
		}
	}
	return nil
}

// String renders the URI as scheme://host[:port]path[?query][#fragment].
// Empty components are omitted together with their delimiters.
func (u URI) String() string {
	var b strings.Builder
	if u.Protocol != "" {
		b.WriteString(u.Protocol)
		b.WriteString("://")
	}
	b.WriteString(u.Host)
	if u.Port != "" {
		b.WriteByte(':')
		b.WriteString(u.Port)
	}
	b.WriteString(u.Path)
	if u.Query != "" {
		b.WriteByte('?')
		b.WriteString(u.Query)
	}
	if u.Fragment != "" {
		b.WriteByte('#')
		b.WriteString(u.Fragment)
	}
	return b.String()
}

// Key returns the form of u that identifies a page: the fragment is
// dropped and an absolute URI with an empty path gets the root path "/".
// "http://example.com", "http://example.com/" and "http://example.com/#top"
// share one key.
func (u URI) Key() URI {
	u.Fragment = ""
	if u.Path == "" && u.IsAbsolute() {
		u.Path = "/"
	}
	return u
}

// Origin returns the protocol, host and port of u with every other field
// cleared.
func (u URI) Origin() URI {
	return URI{Protocol: u.Protocol, Host: u.Host, Port: u.Port}
}

// SameOrigin reports whether u and other share protocol, host and port.
func (u URI) SameOrigin(other URI) bool {
	return u.Protocol == other.Protocol && u.Host == other.Host && u.Port == other.Port
}

// IsAbsolute reports whether u names both a protocol and a host.
func (u URI) IsAbsolute() bool {
	return u.Protocol != "" && u.Host != ""
}
