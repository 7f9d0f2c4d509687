package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"github.com/meigma/jagcache/definition"
	"github.com/meigma/jagcache/sound"
)

// schemaTypes lists the record types the dumps emit, by output name.
var schemaTypes = []struct {
	name string
	v    any
}{
	{"varbit", &definition.Varbit{}},
	{"enum", &definition.Enum{}},
	{"struct", &definition.Struct{}},
	{"hitsplat", &definition.HitSplat{}},
	{"sfx", &sound.Track{}},
}

// writeSchemas writes <out>/schema/<name>.schema.json for every record type.
func writeSchemas(out string, logger *slog.Logger) error {
	dir := filepath.Join(out, "schema")
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec // output is meant to be shared
		return fmt.Errorf("failed to create schema directory: %w", err)
	}
	r := jsonschema.Reflector{Anonymous: true, DoNotReference: true}
	for _, st := range schemaTypes {
		b, err := json.MarshalIndent(r.Reflect(st.v), "", "  ")
		if err != nil {
			return fmt.Errorf("schema %s: %w", st.name, err)
		}
		path := filepath.Join(dir, st.name+".schema.json")
		if err := os.WriteFile(path, b, 0o644); err != nil { //nolint:gosec // output is meant to be shared
			return err
		}
		logger.Info("wrote schema", "type", st.name, "path", path)
	}
	return nil
}
