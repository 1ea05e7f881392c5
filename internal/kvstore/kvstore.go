// Package kvstore provides the scoped key-value persistence layer that the
// settings store is built on. A Backend opens one Handle per
// (organization, application) scope. Handles address values by
// slash-delimited keys, support nested group cursors for enumeration, and
// report a tri-state Status after an explicit Sync.
//
// Handles are not safe for concurrent use. Callers sharing a handle across
// goroutines must serialize access themselves.
package kvstore

import (
	"fmt"

	"github.com/juju/loggo/v2"
)

var logger = loggo.GetLogger("qbs.kvstore")

// Separator is the key segment separator used by every backend.
const Separator = "/"

// Status is the outcome of the most recent Sync (or of loading the backing
// data when the handle was opened).
type Status int

const (
	// NoError means the last operation completed.
	NoError Status = iota
	// AccessError means the backing storage could not be read or written.
	AccessError
	// FormatError means the backing storage holds data that cannot be parsed.
	FormatError
)

// String returns a human-readable name for the status.
func (s Status) String() string {
	switch s {
	case NoError:
		return "no error"
	case AccessError:
		return "access error"
	case FormatError:
		return "format error"
	default:
		return "unknown status"
	}
}

// Scope identifies one settings domain.
type Scope struct {
	Organization string
	Application  string
}

func (s Scope) String() string {
	return s.Organization + "/" + s.Application
}

// validate rejects scopes that cannot be mapped to storage.
func (s Scope) validate() error {
	if s.Organization == "" || s.Application == "" {
		return fmt.Errorf("invalid scope %q: organization and application are required", s.String())
	}
	return nil
}

// OpenOptions tunes how a handle is opened.
type OpenOptions struct {
	// Fallbacks enables lookups in organization-wide and system-wide scopes
	// when a key is missing from the handle's own scope.
	Fallbacks bool
	// ReadOnly turns Sync into a no-op; pending changes are never written.
	ReadOnly bool
}

// Backend opens handles onto scoped storage.
type Backend interface {
	Open(scope Scope, opts OpenOptions) (Handle, error)
}

// Handle is an open view onto one scope.
//
// Keys passed to Value, SetValue and Remove are relative to the current
// group. AllKeys returns the leaf keys nested under the current group,
// relative to it.
type Handle interface {
	Value(key string) (any, bool)
	SetValue(key string, value any)
	Remove(key string)
	AllKeys() []string

	BeginGroup(prefix string)
	EndGroup()
	Group() string

	// Sync writes pending changes and re-reads the backing storage. Its
	// outcome is reported through Status.
	Sync()
	Status() Status
	// FileName returns the location of the backing storage, for diagnostics.
	FileName() string

	// Close syncs pending changes and releases the handle.
	Close() error
}

// StatusError reports a failed sync on Close.
type StatusError struct {
	Path   string
	Status Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Status)
}
