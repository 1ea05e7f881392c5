package kvstore

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/v2"

	"github.com/qbs-tools/qbs/internal/kvstore/qtini"
)

// Format selects the on-disk encoding of a settings file.
type Format string

const (
	// FormatINI is the QSettings-compatible .conf layout.
	FormatINI Format = "ini"
	// FormatYAML stores the settings tree as nested YAML mappings.
	FormatYAML Format = "yaml"
	// FormatJSON stores the settings tree as nested JSON objects.
	FormatJSON Format = "json"
)

// Formats lists every supported format.
var Formats = []Format{FormatINI, FormatYAML, FormatJSON}

// ParseFormat converts a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ini", "conf":
		return FormatINI, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown settings format %q (valid options: ini, yaml, json)", s)
	}
}

// Extension returns the file extension used for the format.
func (f Format) Extension() string {
	switch f {
	case FormatYAML:
		return ".yml"
	case FormatJSON:
		return ".json"
	default:
		return ".conf"
	}
}

// Parser returns the koanf parser that reads and writes the format.
func (f Format) Parser() koanf.Parser {
	switch f {
	case FormatYAML:
		return yaml.Parser()
	case FormatJSON:
		return json.Parser()
	default:
		return qtini.Parser()
	}
}
