// Package qtini implements a koanf parser for QSettings-style INI files.
//
// Top-level keys live in the [General] section. A key a/b/c is written to
// section [a] as b\c; a group named General is written to [%General].
// Every value is read back as text: INI carries no type information, and
// string lists are written comma-separated.
package qtini

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/knadh/koanf/maps"
	"github.com/spf13/cast"
	"gopkg.in/ini.v1"
)

const (
	generalSection = "General"
	// escapedGeneral names a real group called General, which would
	// otherwise be read back as top-level keys.
	escapedGeneral = "%General"
	keySeparator   = `\`
	delim          = "/"
	invalidValue   = "@Invalid()"
)

// INI implements koanf.Parser.
type INI struct{}

// Parser returns a QSettings INI parser.
func Parser() *INI {
	return &INI{}
}

// Unmarshal parses INI bytes into a nested map.
func (p *INI) Unmarshal(b []byte) (map[string]interface{}, error) {
	f, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment: true,
	}, b)
	if err != nil {
		return nil, fmt.Errorf("parsing ini: %w", err)
	}

	flat := map[string]interface{}{}
	for _, sec := range f.Sections() {
		var prefix string
		switch name := sec.Name(); name {
		case ini.DefaultSection, generalSection:
		case escapedGeneral:
			prefix = generalSection + delim
		default:
			prefix = name + delim
		}
		for _, key := range sec.Keys() {
			path := prefix + strings.ReplaceAll(key.Name(), keySeparator, delim)
			value := key.Value()
			if value == invalidValue {
				continue
			}
			flat[path] = value
		}
	}
	return maps.Unflatten(flat, delim), nil
}

// Marshal renders a nested map as INI bytes.
func (p *INI) Marshal(o map[string]interface{}) ([]byte, error) {
	flat, _ := maps.Flatten(o, nil, delim)

	sections := map[string]map[string]string{}
	for path, v := range flat {
		if _, isGroup := v.(map[string]interface{}); isGroup {
			continue
		}
		section, key := generalSection, path
		if i := strings.Index(path, delim); i >= 0 {
			section = path[:i]
			key = strings.ReplaceAll(path[i+1:], delim, keySeparator)
			if section == generalSection {
				section = escapedGeneral
			}
		}
		text, err := render(v)
		if err != nil {
			return nil, fmt.Errorf("encoding %q: %w", path, err)
		}
		if sections[section] == nil {
			sections[section] = map[string]string{}
		}
		sections[section][key] = text
	}

	f := ini.Empty()
	for _, name := range sectionOrder(sections) {
		sec, err := f.NewSection(name)
		if err != nil {
			return nil, fmt.Errorf("creating section %q: %w", name, err)
		}
		keys := make([]string, 0, len(sections[name]))
		for k := range sections[name] {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if _, err := sec.NewKey(k, sections[name][k]); err != nil {
				return nil, fmt.Errorf("creating key %q: %w", k, err)
			}
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("writing ini: %w", err)
	}
	return buf.Bytes(), nil
}

// sectionOrder puts [General] first, then the rest alphabetically.
func sectionOrder(sections map[string]map[string]string) []string {
	names := make([]string, 0, len(sections))
	for name := range sections {
		if name != generalSection {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if _, ok := sections[generalSection]; ok {
		names = append([]string{generalSection}, names...)
	}
	return names
}

func render(v interface{}) (string, error) {
	switch val := v.(type) {
	case nil:
		return invalidValue, nil
	case []interface{}:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			s, err := cast.ToStringE(item)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ", "), nil
	case []string:
		return strings.Join(val, ", "), nil
	default:
		return cast.ToStringE(val)
	}
}
