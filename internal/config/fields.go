package config

import (
	"fmt"
	"strconv"
	"strings"

	tomlv1 "github.com/pelletier/go-toml"

	"github.com/conn-castle/pkgtrim/internal/inventory"
	"github.com/conn-castle/pkgtrim/internal/messages"
	"github.com/conn-castle/pkgtrim/internal/vercmp"
)

// FieldType classifies the kind of value a config field accepts.
type FieldType string

const (
	// FieldBool accepts true or false.
	FieldBool FieldType = "bool"
	// FieldEnum accepts one of a fixed set of options.
	FieldEnum FieldType = "enum"
	// FieldFreetext accepts arbitrary string input.
	FieldFreetext FieldType = "freetext"
	// FieldNonNegativeInt accepts zero or a positive integer.
	FieldNonNegativeInt FieldType = "non_negative_int"
	// FieldList accepts a comma-separated list of strings.
	FieldList FieldType = "list"
)

// FieldOption describes a single selectable value for a field.
type FieldOption struct {
	Value       string
	Description string // empty for options without descriptions
}

// FieldDef describes a single settable config field.
type FieldDef struct {
	Key     string
	Type    FieldType
	Options []FieldOption
}

var recommendationOptions = []FieldOption{
	{Value: string(inventory.Keep)},
	{Value: string(inventory.Remove)},
}

// fields is the ordered registry of keys accepted by Set.
var fields = buildFields()

func buildFields() []FieldDef {
	out := []FieldDef{
		{Key: "pacman_conf", Type: FieldFreetext},
		{Key: "cache_dirs", Type: FieldList},
		{Key: "db_path", Type: FieldFreetext},
		{
			Key:  "version_scheme",
			Type: FieldEnum,
			Options: []FieldOption{
				{Value: vercmp.SchemePacman, Description: messages.ConfigSchemePacmanDescription},
				{Value: vercmp.SchemeSemver, Description: messages.ConfigSchemeSemverDescription},
			},
		},
		{Key: "retention.older_versions", Type: FieldNonNegativeInt},
		{Key: "retention.as_installed_older_versions", Type: FieldNonNegativeInt},
		{Key: "retention.pkgrel_exception", Type: FieldBool},
	}
	for _, reason := range inventory.Reasons() {
		out = append(out, FieldDef{Key: "recommendations." + string(reason), Type: FieldEnum, Options: recommendationOptions})
	}
	return out
}

// fieldIndex provides O(1) lookup by key.
var fieldIndex = buildFieldIndex()

func buildFieldIndex() map[string]int {
	idx := make(map[string]int, len(fields))
	for i, f := range fields {
		idx[f.Key] = i
	}
	return idx
}

// LookupField returns the field definition for the given config key.
// Returns false when the key is not in the catalog.
func LookupField(key string) (FieldDef, bool) {
	i, ok := fieldIndex[key]
	if !ok {
		return FieldDef{}, false
	}
	return copyFieldDef(fields[i]), true
}

// Fields returns a copy of all registered field definitions in catalog order.
func Fields() []FieldDef {
	out := make([]FieldDef, len(fields))
	for i, f := range fields {
		out[i] = copyFieldDef(f)
	}
	return out
}

// FieldOptionValues returns the option values for a field as a plain string slice.
// Returns nil when the key is not in the catalog or has no options.
func FieldOptionValues(key string) []string {
	f, ok := LookupField(key)
	if !ok || len(f.Options) == 0 {
		return nil
	}
	values := make([]string, len(f.Options))
	for i, opt := range f.Options {
		values[i] = opt.Value
	}
	return values
}

// copyFieldDef returns a deep copy of a FieldDef so callers cannot mutate the registry.
func copyFieldDef(f FieldDef) FieldDef {
	if len(f.Options) > 0 {
		opts := make([]FieldOption, len(f.Options))
		copy(opts, f.Options)
		f.Options = opts
	}
	return f
}

// Set parses value according to the field registered for key and stores it in cfg.
func Set(cfg *Config, key string, value string) error {
	field, ok := LookupField(key)
	if !ok {
		return fmt.Errorf(messages.ConfigUnknownKeyFmt, key)
	}
	value = strings.TrimSpace(value)

	switch field.Type {
	case FieldBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf(messages.ConfigSetInvalidBoolFmt, key, value)
		}
		return assignBool(cfg, key, b)
	case FieldNonNegativeInt:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf(messages.ConfigSetInvalidIntFmt, key, value)
		}
		return assignInt(cfg, key, n)
	case FieldEnum:
		for _, opt := range field.Options {
			if strings.EqualFold(opt.Value, value) {
				return assignString(cfg, key, opt.Value)
			}
		}
		return fmt.Errorf(messages.ConfigSetInvalidOptionFmt, key, value, strings.Join(FieldOptionValues(key), ", "))
	case FieldList:
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		cfg.CacheDirs = items
		return nil
	default:
		return assignString(cfg, key, value)
	}
}

func assignBool(cfg *Config, key string, value bool) error {
	switch key {
	case "retention.pkgrel_exception":
		cfg.Retention.PkgrelException = value
		return nil
	}
	return fmt.Errorf(messages.ConfigUnknownKeyFmt, key)
}

func assignInt(cfg *Config, key string, value int) error {
	switch key {
	case "retention.older_versions":
		cfg.Retention.OlderVersions = value
	case "retention.as_installed_older_versions":
		cfg.Retention.AsInstalledOlderVersions = value
	default:
		return fmt.Errorf(messages.ConfigUnknownKeyFmt, key)
	}
	return nil
}

func assignString(cfg *Config, key string, value string) error {
	switch key {
	case "pacman_conf":
		cfg.PacmanConf = value
		return nil
	case "db_path":
		cfg.DBPath = value
		return nil
	case "version_scheme":
		cfg.VersionScheme = value
		return nil
	}
	if name, ok := strings.CutPrefix(key, "recommendations."); ok {
		if target, found := cfg.Recommendations.recommendationFields()[inventory.Reason(name)]; found {
			*target = value
			return nil
		}
	}
	return fmt.Errorf(messages.ConfigUnknownKeyFmt, key)
}

// Get returns the effective value at a dotted key, defaults included.
// Tables are rendered as TOML.
func Get(cfg *Config, key string) (string, error) {
	data, err := Marshal(cfg)
	if err != nil {
		return "", err
	}
	tree, err := tomlv1.LoadBytes(data)
	if err != nil {
		return "", fmt.Errorf(messages.ConfigEncodeFmt, err)
	}
	value := tree.Get(key)
	if value == nil {
		if _, ok := LookupField(key); ok || key == "as_installed.versions" {
			return "", nil
		}
		return "", fmt.Errorf(messages.ConfigUnknownKeyFmt, key)
	}
	switch v := value.(type) {
	case *tomlv1.Tree:
		return v.ToTomlString()
	case []interface{}:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = fmt.Sprint(item)
		}
		return strings.Join(parts, ", "), nil
	default:
		return fmt.Sprint(v), nil
	}
}
