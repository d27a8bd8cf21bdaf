// Package resolver matches a caller supplied container identifier against a live listing.
package resolver

import (
	"strings"

	"github.com/mensylisir/dockmcp/pkg/docker"
	"github.com/mensylisir/dockmcp/pkg/errors/classify"
)

// Scope selects which listing an identifier is resolved against.
type Scope int

const (
	// ScopeAll searches running and stopped containers.
	ScopeAll Scope = iota
	// ScopeRunning searches running containers only.
	ScopeRunning
)

func (s Scope) String() string {
	if s == ScopeRunning {
		return "running"
	}
	return "all"
}

// IncludeStopped reports whether the listing for this scope must be fetched with --all.
func (s Scope) IncludeStopped() bool {
	return s == ScopeAll
}

// Resolve returns the first record matching identifier, trying in order an exact name,
// the "/name" form docker uses internally, then an ID prefix. Each rule scans the whole
// listing before the next one is tried. Duplicate names resolve to the first in listing order.
func Resolve(records []docker.ContainerRecord, identifier string, scope Scope) (docker.ContainerRecord, error) {
	if identifier != "" {
		for _, rule := range []func(docker.ContainerRecord) bool{
			func(r docker.ContainerRecord) bool { return r.Name == identifier },
			func(r docker.ContainerRecord) bool { return "/"+r.Name == identifier },
			func(r docker.ContainerRecord) bool { return strings.HasPrefix(r.ID, identifier) },
		} {
			for _, r := range records {
				if rule(r) {
					return r, nil
				}
			}
		}
	}
	return docker.ContainerRecord{}, classify.NotFound(identifier, scope == ScopeRunning)
}
