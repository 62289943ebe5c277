package doctor

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/conn-castle/pkgtrim/internal/config"
	"github.com/conn-castle/pkgtrim/internal/messages"
)

type unknownKey struct {
	Path       string
	Allowed    []string
	Suggestion string
}

// schemaNode lists the keys allowed at one level of the config.
type schemaNode struct {
	children map[string]*schemaNode
	// freeform nodes accept any key (maps such as as_installed.versions).
	freeform bool
}

var (
	schemaOnce sync.Once
	schemaRoot *schemaNode
)

// configUnknownKeys returns the keys in the config file at path that the
// current schema does not know, sorted by path.
func configUnknownKeys(path string) ([]unknownKey, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	schemaOnce.Do(func() {
		schemaRoot = buildSchema(reflect.TypeOf(config.Config{}))
	})
	var found []unknownKey
	collectUnknownKeys(raw, schemaRoot, "", &found)
	sort.Slice(found, func(i, j int) bool { return found[i].Path < found[j].Path })
	return found, nil
}

// buildSchema derives a schema tree from toml struct tags.
func buildSchema(t reflect.Type) *schemaNode {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Struct:
		node := &schemaNode{children: make(map[string]*schemaNode)}
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			name := strings.Split(field.Tag.Get("toml"), ",")[0]
			if !field.IsExported() || name == "" || name == "-" {
				continue
			}
			node.children[name] = buildSchema(field.Type)
		}
		return node
	case reflect.Map:
		return &schemaNode{freeform: true}
	default:
		return &schemaNode{}
	}
}

func collectUnknownKeys(raw map[string]any, node *schemaNode, prefix string, found *[]unknownKey) {
	if node == nil || node.freeform {
		return
	}
	for key, value := range raw {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		child, ok := node.children[key]
		if !ok {
			*found = append(*found, unknownKey{
				Path:       path,
				Allowed:    node.allowedKeys(),
				Suggestion: suggestKey(key, node, prefix),
			})
			continue
		}
		if table, isTable := value.(map[string]any); isTable {
			collectUnknownKeys(table, child, path, found)
		}
	}
}

func (n *schemaNode) allowedKeys() []string {
	keys := make([]string, 0, len(n.children))
	for key := range n.children {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// suggestKey maps an unknown key to a known one differing only in case or
// in using dashes for underscores.
func suggestKey(key string, node *schemaNode, prefix string) string {
	normalized := strings.ReplaceAll(key, "-", "_")
	for allowed := range node.children {
		if strings.EqualFold(normalized, allowed) {
			if prefix == "" {
				return allowed
			}
			return prefix + "." + allowed
		}
	}
	return ""
}

// formatUnknownKeyRecommendation renders a multi-line recommendation for unknown keys.
func formatUnknownKeyRecommendation(path string, keys []unknownKey) string {
	lines := []string{fmt.Sprintf(messages.DoctorUnknownKeysHeaderFmt, path), ""}
	for _, k := range keys {
		line := "- " + k.Path
		if len(k.Allowed) > 0 {
			line += fmt.Sprintf(messages.DoctorUnknownKeyAllowedFmt, strings.Join(k.Allowed, ", "))
		} else {
			line += messages.DoctorUnknownKeyNoNested
		}
		if k.Suggestion != "" {
			line += fmt.Sprintf(messages.DoctorUnknownKeySuggestFmt, k.Suggestion)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
