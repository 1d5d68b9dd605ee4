package catalog

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Marshal encodes entries to YAML bytes.
func Marshal(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(entries); err != nil {
		return nil, fmt.Errorf("encoding entries: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes entries to a file on disk.
func Save(path string, entries []Entry) error {
	data, err := Marshal(entries)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
