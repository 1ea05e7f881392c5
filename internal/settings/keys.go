package settings

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

const (
	externalSeparator = "."
	internalSeparator = "/"
)

// ErrInvalidKey is matched by every key validation failure.
var ErrInvalidKey = errors.New("invalid settings key")

// KeyError describes a rejected key.
type KeyError struct {
	Key    string
	Reason string
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("invalid settings key %q: %s", e.Key, e.Reason)
}

// Is lets errors.Is(err, ErrInvalidKey) match any *KeyError.
func (e *KeyError) Is(target error) bool {
	return target == ErrInvalidKey
}

// InternalKey converts a dotted key (profiles.qt.baseProfile) to the
// slash-separated form the backend uses (profiles/qt/baseProfile).
//
// The conversion is a plain character substitution. It round-trips with
// ExternalKey only for keys whose segments contain neither separator; use
// ValidateKey to reject anything else.
func InternalKey(external string) string {
	return strings.ReplaceAll(external, externalSeparator, internalSeparator)
}

// ExternalKey converts a slash-separated backend key to dotted form.
//
// A backend segment that itself contains a dot (possible in hand-edited
// files) does not survive the trip back through InternalKey. Such keys are
// listed as-is and their behavior on lookup is undefined.
func ExternalKey(internal string) string {
	return strings.ReplaceAll(internal, internalSeparator, externalSeparator)
}

// ValidateKey checks that a dotted key is made of non-empty segments and that
// no segment contains the backend separator.
func ValidateKey(key string) error {
	if key == "" {
		return &KeyError{Key: key, Reason: "key is empty"}
	}
	for i, segment := range strings.Split(key, externalSeparator) {
		if segment == "" {
			return &KeyError{Key: key, Reason: fmt.Sprintf("segment %d is empty", i+1)}
		}
		if strings.Contains(segment, internalSeparator) {
			return &KeyError{Key: key, Reason: fmt.Sprintf("segment %q contains %q", segment, internalSeparator)}
		}
	}
	return nil
}

// externalKeys turns raw backend keys into the sorted, duplicate-free list of
// dotted keys. Sorting happens on the internal form; the substitution keeps
// relative order apart from '.' and '/' themselves.
func externalKeys(internal []string, prefix string) []string {
	sorted := make([]string, 0, len(internal))
	seen := make(map[string]struct{}, len(internal))
	for _, k := range internal {
		if prefix != "" {
			k = prefix + internalSeparator + k
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		sorted = append(sorted, k)
	}
	// Byte order on UTF-8 is code point order.
	sort.Strings(sorted)

	out := make([]string, len(sorted))
	for i, k := range sorted {
		out[i] = ExternalKey(k)
	}
	return out
}
