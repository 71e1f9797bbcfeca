package uri

import "strings"

// Resolve resolves href against the page it was found on. The result never
// carries a fragment.
//
// Callers filter fragment-only ("#top") and mailto references before
// calling Resolve; it does not special-case them.
func Resolve(base URI, href string) (URI, error) {
	u, err := Parse(strings.ReplaceAll(href, " ", "%20"))
	if err != nil {
		return URI{}, err
	}

	if u.Protocol == "" {
		u.Protocol = base.Protocol
	}

	// protocol-relative reference: //host[:port]/path
	if u.Host == "" && strings.HasPrefix(u.Path, "//") {
		u.Host, u.Port, u.Path = splitAuthority(u.Path[2:])
	}

	if u.Host == "" || u.Host == "." {
		u.Host = base.Host
		u.Port = base.Port
		if u.Path == "" {
			// "?q=1" and "" keep the current document
			u.Path = base.Path
			if u.Query == "" {
				u.Query = base.Query
			}
		} else {
			u.Path = AbsolutizePath(u.Path, base.Path)
		}
	}

	u.Fragment = ""
	return u, nil
}

// AbsolutizePath resolves relPath against the directory of basePath and
// removes "." and ".." segments.
//
// A relPath that starts with "/" and is not immediately followed by "." is
// returned unchanged. basePath is treated as a file unless it ends with
// "/", so its last segment is dropped. The result carries a trailing "/"
// only when relPath itself denotes a directory: it ends with "/", "." or
// "..".
func AbsolutizePath(relPath, basePath string) string {
	if relPath == "" {
		return ""
	}
	if strings.HasPrefix(relPath, "/") && !strings.HasPrefix(relPath[1:], ".") {
		return relPath
	}

	segments := splitSegments(basePath)
	if !strings.HasSuffix(basePath, "/") && len(segments) > 0 {
		segments = segments[:len(segments)-1]
	}
	segments = append(segments, splitSegments(relPath)...)

	out := make([]string, 0, len(segments))
	for _, s := range segments {
		switch s {
		case ".":
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, s)
		}
	}

	if len(out) == 0 {
		return "/"
	}
	result := "/" + strings.Join(out, "/")
	if isDirectoryRef(relPath) {
		result += "/"
	}
	return result
}

func splitSegments(p string) []string {
	parts := strings.Split(p, "/")
	segments := parts[:0]
	for _, s := range parts {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

func isDirectoryRef(p string) bool {
	if strings.HasSuffix(p, "/") {
		return true
	}
	last := p[strings.LastIndexByte(p, '/')+1:]
	return last == "." || last == ".."
}
