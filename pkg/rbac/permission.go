package rbac

import (
	"slices"
	"strings"
)

const (
	wildcard  = "*"
	delimiter = "."
)

// PermissionMatches reports whether pattern grants permission.
// "*" grants everything and "orders.*" grants every "orders." permission.
func PermissionMatches(permission, pattern string) bool {
	if permission == pattern || pattern == wildcard {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, delimiter+wildcard); ok {
		return strings.HasPrefix(permission, prefix+delimiter)
	}
	return false
}

func hasPermission(granted []string, permission string) bool {
	for _, p := range granted {
		if PermissionMatches(permission, p) {
			return true
		}
	}
	return false
}

func normalize(perms []string) []string {
	out := slices.Clone(perms)
	slices.Sort(out)
	return slices.Compact(out)
}
