package settings

import (
	"fmt"

	"github.com/qbs-tools/qbs/internal/kvstore"
)

// AccessError reports that the settings file could not be read or written.
type AccessError struct {
	Path string
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("%s is not accessible.", e.Path)
}

// FormatError reports that the settings file holds data that cannot be parsed.
type FormatError struct {
	Path string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("Format error in %s.", e.Path)
}

// statusError maps a backend status to the matching typed error.
func statusError(status kvstore.Status, path string) error {
	switch status {
	case kvstore.NoError:
		return nil
	case kvstore.AccessError:
		return &AccessError{Path: path}
	case kvstore.FormatError:
		return &FormatError{Path: path}
	default:
		return fmt.Errorf("%s: unexpected settings status %d", path, int(status))
	}
}
