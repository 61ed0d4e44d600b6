package headers

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"path"

	"github.com/spf13/viper"

	"github.com/ThiagoRGoveia/dock-operations/internal/models"
)

//go:embed schemas/*.json
var builtinSchemas embed.FS

var ErrUnknownSchema = errors.New("unknown synonym schema")

const maxExtendsDepth = 4

// Schema is a versioned synonym table: for each canonical field, the header
// spellings that refer to it. Schemas are data; adding a carrier's header names
// never needs a code change.
type Schema struct {
	Version  string
	Synonyms map[models.Field][]string
}

// DefaultSchema returns the embedded "default" table. It panics only if the
// binary was built with a broken embedded file.
func DefaultSchema() Schema {
	s, err := BuiltinSchema("default")
	if err != nil {
		panic(fmt.Sprintf("headers: embedded default schema: %v", err))
	}
	return s
}

// BuiltinSchema loads one of the embedded tables by version name ("default", "es").
func BuiltinSchema(version string) (Schema, error) {
	return loadBuiltin(version, 0)
}

// LoadSchema loads an embedded table and merges the aliases of an optional
// override file on top. The override format follows its extension (json, yaml, toml).
func LoadSchema(version, overridePath string) (Schema, error) {
	if version == "" {
		version = "default"
	}
	schema, err := BuiltinSchema(version)
	if err != nil {
		return Schema{}, err
	}
	if overridePath == "" {
		return schema, nil
	}

	v := viper.New()
	v.SetConfigFile(overridePath)
	if err := v.ReadInConfig(); err != nil {
		return Schema{}, fmt.Errorf("failed to read synonyms file %s: %w", overridePath, err)
	}
	extra, err := schemaFromViper(v)
	if err != nil {
		return Schema{}, fmt.Errorf("invalid synonyms file %s: %w", overridePath, err)
	}

	merged := schema.Merge(extra.Synonyms)
	if extra.Version != "" {
		merged.Version = schema.Version + "+" + extra.Version
	}
	return merged, nil
}

func loadBuiltin(version string, depth int) (Schema, error) {
	if depth > maxExtendsDepth {
		return Schema{}, fmt.Errorf("schema %q: extends chain too deep", version)
	}
	data, err := builtinSchemas.ReadFile(path.Join("schemas", version+".json"))
	if err != nil {
		return Schema{}, fmt.Errorf("%w: %q", ErrUnknownSchema, version)
	}

	v := viper.New()
	v.SetConfigType("json")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return Schema{}, fmt.Errorf("schema %q: %w", version, err)
	}
	schema, err := schemaFromViper(v)
	if err != nil {
		return Schema{}, fmt.Errorf("schema %q: %w", version, err)
	}
	if schema.Version == "" {
		schema.Version = version
	}

	parent := v.GetString("extends")
	if parent == "" {
		return schema, nil
	}
	base, err := loadBuiltin(parent, depth+1)
	if err != nil {
		return Schema{}, err
	}
	merged := base.Merge(schema.Synonyms)
	merged.Version = schema.Version
	return merged, nil
}

func schemaFromViper(v *viper.Viper) (Schema, error) {
	raw := v.GetStringMapStringSlice("fields")
	synonyms := make(map[models.Field][]string, len(raw))
	for name, aliases := range raw {
		f, ok := models.ParseField(name)
		if !ok {
			return Schema{}, fmt.Errorf("unknown field %q in synonym table", name)
		}
		synonyms[f] = aliases
	}
	return Schema{Version: v.GetString("version"), Synonyms: synonyms}, nil
}

// Merge returns a copy of s with extra aliases appended per field.
func (s Schema) Merge(extra map[models.Field][]string) Schema {
	out := Schema{Version: s.Version, Synonyms: make(map[models.Field][]string, len(s.Synonyms))}
	for f, aliases := range s.Synonyms {
		out.Synonyms[f] = append([]string(nil), aliases...)
	}
	for f, aliases := range extra {
		out.Synonyms[f] = append(out.Synonyms[f], aliases...)
	}
	return out
}
