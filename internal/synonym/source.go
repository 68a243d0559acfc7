package synonym

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrUnsupportedFormat is returned for synonym files that are neither JSON nor YAML
var ErrUnsupportedFormat = errors.New("unsupported synonym file format")

var (
	defaultTable     *Table
	defaultTableOnce sync.Once
	defaultTableErr  error
)

// LoadDefault parses the embedded phrase table once and caches it
func LoadDefault() (*Table, error) {
	defaultTableOnce.Do(func() {
		defaultTable, defaultTableErr = parse(defaultsYAML, ".yaml")
		if defaultTableErr != nil {
			defaultTableErr = fmt.Errorf("parse embedded defaults.yaml: %w", defaultTableErr)
		}
	})
	return defaultTable, defaultTableErr
}

// Default returns the embedded table, or an empty one if it fails to parse
func Default() *Table {
	t, err := LoadDefault()
	if err != nil {
		return Empty()
	}
	return t
}

// LoadFile reads one synonym source. The format follows the extension:
// .json or .yaml/.yml. Either holds a flat phrase -> canonical mapping or
// the grouped canonical -> [phrases] layout; both may be mixed.
func LoadFile(path string) (*Table, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !isSupported(ext) {
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read synonyms: %w", err)
	}

	t, err := parse(data, ext)
	if err != nil {
		return nil, fmt.Errorf("parse synonyms %s: %w", path, err)
	}
	return t, nil
}

// Build layers the embedded defaults and then each path in order
func Build(paths []string) (*Table, error) {
	base, err := LoadDefault()
	if err != nil {
		return nil, err
	}

	tables := []*Table{base}
	for _, p := range paths {
		t, err := LoadFile(p)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return Merge(tables...), nil
}

// Write persists a table as a flat mapping, choosing JSON or YAML by
// extension. The file is replaced atomically.
func Write(path string, t *Table) error {
	ext := strings.ToLower(filepath.Ext(path))

	var data []byte
	switch ext {
	case ".json":
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(t.Entries()); err != nil {
			return fmt.Errorf("encode synonyms: %w", err)
		}
		data = buf.Bytes()
	case ".yaml", ".yml":
		out, err := yaml.Marshal(sortedNode(t))
		if err != nil {
			return fmt.Errorf("encode synonyms: %w", err)
		}
		data = out
	default:
		return fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create synonyms dir: %w", err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write synonyms: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace synonyms: %w", err)
	}
	return nil
}

func isSupported(ext string) bool {
	switch ext {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

func parse(data []byte, ext string) (*Table, error) {
	raw := map[string]interface{}{}
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	default:
		return nil, ErrUnsupportedFormat
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make(map[string]string, len(raw))
	for _, key := range keys {
		value := raw[key]
		switch v := value.(type) {
		case string:
			entries[key] = v
		case []interface{}:
			// grouped layout: key is the canonical symptom
			for _, item := range v {
				phrase, ok := item.(string)
				if !ok {
					return nil, fmt.Errorf("group %q: phrase %v is not a string", key, item)
				}
				entries[phrase] = key
			}
		case nil:
			continue
		default:
			return nil, fmt.Errorf("key %q: unsupported value type %T", key, value)
		}
	}
	return NewTable(entries), nil
}

// sortedNode renders the table as a YAML mapping with sorted keys
func sortedNode(t *Table) *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range t.Keys() {
		v, _ := t.Lookup(k)
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: k},
			&yaml.Node{Kind: yaml.ScalarNode, Value: v},
		)
	}
	return node
}
