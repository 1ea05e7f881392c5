// Package settings is the persistent, hierarchical settings store of qbs.
//
// Keys are presented in dotted form (profiles.qt.baseProfile) and persisted
// through a kvstore.Backend in slash form (profiles/qt/baseProfile). Every
// accessor reads or writes through to the backend; nothing is cached here.
//
// A Store is not safe for concurrent use. Callers sharing one across
// goroutines must serialize access.
package settings

import (
	"errors"
	"fmt"

	"github.com/juju/loggo/v2"
	"github.com/spf13/cast"

	"github.com/qbs-tools/qbs/internal/kvstore"
)

var logger = loggo.GetLogger("qbs.settings")

const (
	// DefaultOrganization and DefaultApplication identify the current store.
	DefaultOrganization = "QtProject"
	DefaultApplication  = "qbs"
	// LegacyOrganization identifies the store written by older releases.
	LegacyOrganization = "Nokia"

	profileKey = "profile"
)

// Options selects the identity of a store.
type Options struct {
	// Organization defaults to DefaultOrganization.
	Organization string
	// Application defaults to DefaultApplication.
	Application string
	// LegacyOrganization is the identity migrated from when the store is
	// empty. Defaults to LegacyOrganization.
	LegacyOrganization string
	// LegacyBackend holds the legacy identity when it is stored differently
	// from the current one. Nil means the store's own backend.
	LegacyBackend kvstore.Backend
	// SkipMigration disables the legacy import.
	SkipMigration bool
}

func (o Options) withDefaults() Options {
	if o.Organization == "" {
		o.Organization = DefaultOrganization
	}
	if o.Application == "" {
		o.Application = DefaultApplication
	}
	if o.LegacyOrganization == "" {
		o.LegacyOrganization = LegacyOrganization
	}
	return o
}

// Store owns one backend handle for its lifetime.
type Store struct {
	handle kvstore.Handle
}

// New opens the store for opts' identity with backend fallbacks disabled. If
// the store holds no keys yet, every key of the legacy identity is copied
// into it first. Migration is best effort: problems are logged, not returned.
// Copied values that could not be written stay pending on the handle and are
// written by the next mutation that syncs successfully.
func New(backend kvstore.Backend, opts Options) (*Store, error) {
	opts = opts.withDefaults()
	scope := kvstore.Scope{Organization: opts.Organization, Application: opts.Application}

	handle, err := backend.Open(scope, kvstore.OpenOptions{Fallbacks: false})
	if err != nil {
		return nil, fmt.Errorf("opening settings for %s: %w", scope, err)
	}

	s := &Store{handle: handle}
	switch {
	case opts.SkipMigration:
	case handle.Status() != kvstore.NoError:
		// An unreadable store only looks empty.
		logger.Warningf("skipping settings migration: %v", statusError(handle.Status(), handle.FileName()))
	case len(handle.AllKeys()) == 0:
		legacy := kvstore.Scope{Organization: opts.LegacyOrganization, Application: opts.Application}
		legacyBackend := opts.LegacyBackend
		if legacyBackend == nil {
			legacyBackend = backend
		}
		s.migrateFrom(legacyBackend, legacy)
	}
	return s, nil
}

// migrateFrom copies every key of the legacy scope verbatim. It never
// overwrites (the destination is empty) and never touches the source.
func (s *Store) migrateFrom(backend kvstore.Backend, legacy kvstore.Scope) {
	old, err := backend.Open(legacy, kvstore.OpenOptions{Fallbacks: false, ReadOnly: true})
	if err != nil {
		logger.Warningf("skipping settings migration from %s: %v", legacy, err)
		return
	}
	defer func() {
		if err := old.Close(); err != nil {
			logger.Debugf("closing legacy settings %s: %v", old.FileName(), err)
		}
	}()

	keys := old.AllKeys()
	if len(keys) == 0 {
		return
	}
	logger.Debugf("migrating %d keys from %s to %s", len(keys), old.FileName(), s.handle.FileName())
	for _, key := range keys {
		if v, ok := old.Value(key); ok {
			s.handle.SetValue(key, v)
		}
	}

	s.handle.Sync()
	if err := statusError(s.handle.Status(), s.handle.FileName()); err != nil {
		logger.Warningf("settings migration from %s abandoned: %v", old.FileName(), err)
	}
}

// Close releases the backend handle, writing anything still pending.
func (s *Store) Close() error {
	if err := s.handle.Close(); err != nil {
		var statusErr *kvstore.StatusError
		if errors.As(err, &statusErr) {
			return statusError(statusErr.Status, statusErr.Path)
		}
		return fmt.Errorf("closing settings: %w", err)
	}
	return nil
}

// FileName returns the location of the backing storage.
func (s *Store) FileName() string {
	return s.handle.FileName()
}

// Value returns the value stored under key, or def when it is absent or the
// key is malformed.
func (s *Store) Value(key string, def any) any {
	if err := ValidateKey(key); err != nil {
		logger.Debugf("lookup of %v", err)
		return def
	}
	if v, ok := s.handle.Value(InternalKey(key)); ok {
		return v
	}
	return def
}

// AllKeys returns every key in ascending order of its internal form, without
// duplicates. Each call re-queries the backend.
func (s *Store) AllKeys() []string {
	return externalKeys(s.handle.AllKeys(), "")
}

// AllKeysWithPrefix is AllKeys restricted to keys nested under group. The
// returned keys still carry the group prefix.
func (s *Store) AllKeysWithPrefix(group string) []string {
	if err := ValidateKey(group); err != nil {
		logger.Debugf("enumeration of %v", err)
		return []string{}
	}
	prefix := InternalKey(group)
	s.handle.BeginGroup(prefix)
	defer s.handle.EndGroup()
	return externalKeys(s.handle.AllKeys(), prefix)
}

// SetValue stores value under key and flushes it to durable storage.
func (s *Store) SetValue(key string, value any) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	s.handle.SetValue(InternalKey(key), value)
	return s.checkStatus()
}

// Remove deletes key and everything nested under it, then flushes. Removing
// an absent key is not an error.
func (s *Store) Remove(key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	s.handle.Remove(InternalKey(key))
	return s.checkStatus()
}

// DefaultProfile returns the profile selected by the "profile" key, or "".
func (s *Store) DefaultProfile() string {
	return cast.ToString(s.Value(profileKey, ""))
}

// checkStatus flushes the backend and converts its status into an error.
func (s *Store) checkStatus() error {
	s.handle.Sync()
	return statusError(s.handle.Status(), s.handle.FileName())
}
