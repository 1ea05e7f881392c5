package settings

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"
)

// Export writes every setting as a flat YAML mapping of dotted keys to
// values, in AllKeys order.
func (s *Store) Export(w io.Writer) error {
	return s.ExportKeys(w, s.AllKeys())
}

// ExportKeys writes the given keys like Export, in the order given. Keys
// without a value are written as null.
func (s *Store) ExportKeys(w io.Writer, keys []string) error {
	doc := &yaml.Node{Kind: yaml.MappingNode}
	for _, key := range keys {
		var value yaml.Node
		if err := value.Encode(s.Value(key, nil)); err != nil {
			return fmt.Errorf("encoding %q: %w", key, err)
		}
		doc.Content = append(doc.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			&value,
		)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return enc.Close()
}

// Import reads a mapping produced by Export and stores every entry. All keys
// are validated before anything is written; the store is flushed once.
func (s *Store) Import(r io.Reader) error {
	var entries map[string]any
	if err := yaml.NewDecoder(r).Decode(&entries); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("reading settings: %w", err)
	}

	keys := make([]string, 0, len(entries))
	for key := range entries {
		if err := ValidateKey(key); err != nil {
			return err
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		s.handle.SetValue(InternalKey(key), entries[key])
	}
	return s.checkStatus()
}
