package kvstore

import (
	"sort"
	"strings"

	"github.com/knadh/koanf/v2"
)

// storage is the persistence behind a handle.
type storage interface {
	load() (*koanf.Koanf, Status)
	save(tree *koanf.Koanf) Status
	lock() (unlock func(), err error)
	path() string
}

// change is a mutation not yet written by Sync.
type change struct {
	key    string
	value  any
	remove bool
}

// handle implements Handle on top of any storage. The in-memory tree is
// authoritative for reads; Sync replays pending changes onto a fresh read
// of the storage so that keys written by other handles survive.
type handle struct {
	store    storage
	tree     *koanf.Koanf
	fallback *koanf.Koanf
	groups   []string
	pending  []change
	readOnly bool
	corrupt  bool
	status   Status
	closed   bool
}

func newTree() *koanf.Koanf {
	return koanf.New(Separator)
}

func openHandle(store storage, fallback *koanf.Koanf, opts OpenOptions) *handle {
	tree, status := store.load()
	h := &handle{
		store:    store,
		tree:     tree,
		fallback: fallback,
		readOnly: opts.ReadOnly,
		status:   status,
		corrupt:  status == FormatError,
	}
	if status != NoError {
		logger.Warningf("opening %s: %s", store.path(), status)
	}
	return h
}

func (h *handle) resolve(key string) string {
	key = strings.Trim(key, Separator)
	group := h.Group()
	switch {
	case group == "":
		return key
	case key == "":
		return group
	default:
		return group + Separator + key
	}
}

func leafValue(tree *koanf.Koanf, key string) (any, bool) {
	if tree == nil || key == "" {
		return nil, false
	}
	v := tree.Get(key)
	if v == nil {
		return nil, false
	}
	if _, isGroup := v.(map[string]interface{}); isGroup {
		return nil, false
	}
	return decodeValue(v), true
}

func (h *handle) Value(key string) (any, bool) {
	full := h.resolve(key)
	if v, ok := leafValue(h.tree, full); ok {
		return v, true
	}
	return leafValue(h.fallback, full)
}

func (h *handle) SetValue(key string, value any) {
	full := h.resolve(key)
	if full == "" {
		return
	}
	stored, err := encodeValue(value)
	if err != nil {
		logger.Warningf("setting %q in %s: %v", full, h.store.path(), err)
		return
	}
	if err := h.tree.Set(full, stored); err != nil {
		logger.Warningf("setting %q in %s: %v", full, h.store.path(), err)
		return
	}
	h.pending = append(h.pending, change{key: full, value: stored})
}

func (h *handle) Remove(key string) {
	full := h.resolve(key)
	h.tree.Delete(full)
	h.pending = append(h.pending, change{key: full, remove: true})
}

func leafKeys(tree *koanf.Koanf) []string {
	if tree == nil {
		return nil
	}
	var keys []string
	for _, k := range tree.Keys() {
		if _, ok := leafValue(tree, k); ok {
			keys = append(keys, k)
		}
	}
	return keys
}

func (h *handle) AllKeys() []string {
	all := leafKeys(h.tree)
	if h.fallback != nil {
		all = append(all, leafKeys(h.fallback)...)
	}

	group := h.Group()
	prefix := group + Separator
	seen := make(map[string]struct{}, len(all))
	keys := make([]string, 0, len(all))
	for _, k := range all {
		if group != "" {
			if !strings.HasPrefix(k, prefix) {
				continue
			}
			k = strings.TrimPrefix(k, prefix)
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (h *handle) BeginGroup(prefix string) {
	h.groups = append(h.groups, h.resolve(prefix))
}

func (h *handle) EndGroup() {
	if len(h.groups) == 0 {
		logger.Warningf("EndGroup called without matching BeginGroup on %s", h.store.path())
		return
	}
	h.groups = h.groups[:len(h.groups)-1]
}

func (h *handle) Group() string {
	if len(h.groups) == 0 {
		return ""
	}
	return h.groups[len(h.groups)-1]
}

func (h *handle) Sync() {
	if h.closed || h.readOnly {
		return
	}
	if h.corrupt {
		// Never overwrite a file we could not parse.
		h.status = FormatError
		return
	}
	if len(h.pending) == 0 {
		return
	}

	unlock, err := h.store.lock()
	if err != nil {
		logger.Debugf("locking %s: %v", h.store.path(), err)
		h.status = AccessError
		return
	}
	defer unlock()

	fresh, status := h.store.load()
	if status != NoError {
		h.status = status
		h.corrupt = status == FormatError
		return
	}
	for _, c := range h.pending {
		if c.remove {
			fresh.Delete(c.key)
			continue
		}
		if err := fresh.Set(c.key, c.value); err != nil {
			logger.Warningf("replaying %q onto %s: %v", c.key, h.store.path(), err)
		}
	}

	h.status = h.store.save(fresh)
	if h.status != NoError {
		return
	}
	h.tree = fresh
	h.pending = nil
}

func (h *handle) Status() Status {
	return h.status
}

func (h *handle) FileName() string {
	return h.store.path()
}

func (h *handle) Close() error {
	if h.closed {
		return nil
	}
	dirty := len(h.pending) > 0
	h.Sync()
	h.closed = true
	if dirty && h.status != NoError {
		return &StatusError{Path: h.store.path(), Status: h.status}
	}
	return nil
}
