package domain

import (
	"regexp"
	"strings"
)

var (
	scopeNamePattern   = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
	scopeActionPattern = regexp.MustCompile(`^([A-Za-z0-9_.-]+|\*)$`)
)

// Scope is a parsed <collection>[/<resource>]:<action> permission. The
// universal scope "*" parses to Scope{Collection: "*"}.
type Scope struct {
	Collection string
	Resource   string
	Action     string
}

// ParseScope validates a scope string. The resource segment may be the "$"
// placeholder; the action may be "*".
func ParseScope(s string) (Scope, error) {
	if s == Wildcard {
		return Scope{Collection: Wildcard}, nil
	}

	target, action, ok := strings.Cut(s, ":")
	if !ok || !scopeActionPattern.MatchString(action) {
		return Scope{}, ErrInvalidScope
	}

	collection, resource, hasResource := strings.Cut(target, "/")
	if !scopeNamePattern.MatchString(collection) {
		return Scope{}, ErrInvalidScope
	}
	if hasResource && resource != ResourcePlaceholder && !scopeNamePattern.MatchString(resource) {
		return Scope{}, ErrInvalidScope
	}

	return Scope{Collection: collection, Resource: resource, Action: action}, nil
}

// String returns the textual form of the scope.
func (s Scope) String() string {
	if s.Collection == Wildcard && s.Resource == "" && s.Action == "" {
		return Wildcard
	}
	target := s.Collection
	if s.Resource != "" {
		target += "/" + s.Resource
	}
	return target + ":" + s.Action
}

// ScopeList is an ordered list of scope strings.
type ScopeList []string

// Validate parses every scope of the list.
func (l ScopeList) Validate() error {
	if len(l) == 0 {
		return ErrNoScope
	}
	for _, s := range l {
		if _, err := ParseScope(s); err != nil {
			return err
		}
	}
	return nil
}

// BindResource replaces every literal occurrence of resource with the "$"
// placeholder.
func (l ScopeList) BindResource(resource string) ScopeList {
	return l.replace(resource, ResourcePlaceholder)
}

// ResolveResource replaces every "$" placeholder with resource.
func (l ScopeList) ResolveResource(resource string) ScopeList {
	return l.replace(ResourcePlaceholder, resource)
}

func (l ScopeList) replace(old, replacement string) ScopeList {
	out := make(ScopeList, len(l))
	for i, s := range l {
		if old == "" {
			out[i] = s
			continue
		}
		out[i] = strings.ReplaceAll(s, old, replacement)
	}
	return out
}
