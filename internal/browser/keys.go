package browser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/jsonc"
)

// Keys maps each store identity to its options, as parsed from the keys input.
type Keys map[ID]Options

// ErrNoKeys is returned when the keys input is empty.
var ErrNoKeys = errors.New("no keys provided")

const keysSchemaURL = "https://webstore-publish.local/keys.schema.json"

// keysSchema constrains the known store entries: each is an object (or
// null) with the shared bundle and override fields typed. Other top-level
// entries are left alone so unrelated keys never reject the input.
const keysSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "$defs": {
    "store": {
      "type": ["object", "null"],
      "properties": {
        "zip":         {"type": "string"},
        "file":        {"type": "string"},
        "versionFile": {"type": "string"},
        "notes":       {"type": "string"},
        "verbose":     {"type": ["boolean", "string"]},
        "dryRun":      {"type": ["boolean", "string"]}
      }
    }
  },
  "properties": {
    "chrome":  {"$ref": "#/$defs/store"},
    "firefox": {"$ref": "#/$defs/store"},
    "edge":    {"$ref": "#/$defs/store"},
    "itero":   {"$ref": "#/$defs/store"},
    "opera":   {"$ref": "#/$defs/store"}
  }
}`

var compiledKeysSchema = mustCompileKeysSchema()

func mustCompileKeysSchema() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(keysSchemaURL, strings.NewReader(keysSchema)); err != nil {
		panic(fmt.Sprintf("keys schema load failed: %v", err))
	}
	return c.MustCompile(keysSchemaURL)
}

// ParseKeys decodes the keys input. Comments and trailing commas are
// tolerated. Store names are matched case-insensitively; two entries naming
// the same store are an error. A null store entry means empty options;
// unknown entries that are not objects are dropped.
func ParseKeys(raw string) (Keys, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrNoKeys
	}

	data := jsonc.ToJSON([]byte(raw))

	var doc any
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse keys: %w", err)
	}

	obj, ok := doc.(map[string]any)
	if !ok {
		if err := compiledKeysSchema.Validate(doc); err != nil {
			return nil, fmt.Errorf("invalid keys: %w", err)
		}
		return nil, fmt.Errorf("invalid keys: expected an object")
	}

	normalized := make(map[string]any, len(obj))
	given := make(map[string]string, len(obj))
	for name, v := range obj {
		id := strings.ToLower(strings.TrimSpace(name))
		if prev, dup := given[id]; dup {
			first, second := prev, name
			if second < first {
				first, second = second, first
			}
			return nil, fmt.Errorf("invalid keys: %q and %q name the same store", first, second)
		}
		given[id] = name
		normalized[id] = v
	}
	if err := compiledKeysSchema.Validate(normalized); err != nil {
		return nil, fmt.Errorf("invalid keys: %w", err)
	}

	keys := make(Keys, len(normalized))
	for id, v := range normalized {
		switch opts := v.(type) {
		case map[string]any:
			keys[ID(id)] = Options(opts)
		case nil:
			if slices.Contains(All, ID(id)) {
				keys[ID(id)] = Options{}
			}
		}
	}
	return keys, nil
}
