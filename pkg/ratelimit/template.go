package ratelimit

import "strings"

// pathTemplate is a parsed route such as /orders/{id}/submit. A segment wrapped
// in braces matches exactly one non-empty path segment.
type pathTemplate struct {
	raw       string
	segments  []string
	wildcards []bool
	wildcardN int
}

func parseTemplate(path string) pathTemplate {
	segs := splitPath(path)
	t := pathTemplate{
		raw:       path,
		segments:  segs,
		wildcards: make([]bool, len(segs)),
	}
	for i, s := range segs {
		if len(s) > 2 && strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
			t.wildcards[i] = true
			t.wildcardN++
		}
	}
	return t
}

func (t pathTemplate) match(segs []string) bool {
	if len(segs) != len(t.segments) {
		return false
	}
	for i, s := range segs {
		if t.wildcards[i] {
			if s == "" {
				return false
			}
			continue
		}
		if s != t.segments[i] {
			return false
		}
	}
	return true
}

// splitPath drops the leading and trailing slash and splits on '/'.
func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// normalizePath strips a trailing slash so /login and /login/ look the same.
func normalizePath(path string) string {
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	if path == "" {
		return "/"
	}
	return path
}
