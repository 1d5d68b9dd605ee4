package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads an import file from disk. YAML and JSON are both accepted.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading import file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a list of entries, or a document with a top-level
// "records" list.
func Parse(data []byte) ([]Entry, error) {
	if len(data) == 0 {
		return []Entry{}, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing import file: %w", err)
	}
	if len(doc.Content) == 0 {
		return []Entry{}, nil
	}

	root := doc.Content[0]
	var entries []Entry
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&entries); err != nil {
			return nil, fmt.Errorf("parsing import file: %w", err)
		}
	case yaml.MappingNode:
		var wrapped struct {
			Records []Entry `yaml:"records"`
		}
		if err := root.Decode(&wrapped); err != nil {
			return nil, fmt.Errorf("parsing import file: %w", err)
		}
		entries = wrapped.Records
	default:
		return nil, fmt.Errorf("parsing import file: expected a list of records")
	}

	if entries == nil {
		return []Entry{}, nil
	}
	return entries, nil
}
