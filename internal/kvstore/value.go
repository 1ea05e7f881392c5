package kvstore

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/spf13/cast"
)

// Mapping values are stored as one opaque leaf, the way QSettings stores a
// QVariantMap as @Variant(...): a nested map in the tree would be read back
// as a group of separate keys. Strings that start with '@' are escaped as
// "@@" so they cannot be mistaken for an encoded value.
const (
	mappingPrefix = "@Map("
	mappingSuffix = ")"
	escapePrefix  = "@"
)

// encodeValue converts a value into its stored form.
func encodeValue(v any) (any, error) {
	if s, ok := v.(string); ok {
		if strings.HasPrefix(s, escapePrefix) {
			return escapePrefix + s, nil
		}
		return s, nil
	}
	if v == nil || reflect.TypeOf(v).Kind() != reflect.Map {
		return v, nil
	}

	m, err := cast.ToStringMapE(v)
	if err != nil {
		return nil, fmt.Errorf("encoding mapping: %w", err)
	}
	b, err := json.Parser().Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding mapping: %w", err)
	}
	return mappingPrefix + string(b) + mappingSuffix, nil
}

// decodeValue reverses encodeValue. Stored strings that do not decode are
// returned unchanged.
func decodeValue(v any) any {
	s, ok := v.(string)
	if !ok || !strings.HasPrefix(s, escapePrefix) {
		return v
	}
	if strings.HasPrefix(s, escapePrefix+escapePrefix) {
		return s[len(escapePrefix):]
	}
	if strings.HasPrefix(s, mappingPrefix) && strings.HasSuffix(s, mappingSuffix) {
		body := s[len(mappingPrefix) : len(s)-len(mappingSuffix)]
		m, err := json.Parser().Unmarshal([]byte(body))
		if err != nil {
			logger.Debugf("decoding stored mapping %q: %v", s, err)
			return v
		}
		return m
	}
	return v
}
