package paperdb

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// artifactSchema is what a valid release artifact must look like. Every
// artifact is validated on load, so a truncated or hand-edited file fails
// loudly instead of feeding bad records into reconciliation.
const artifactSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["label", "index", "tex"],
    "properties": {
      "label": {"type": ["string", "null"]},
      "index": {"type": "string", "minLength": 1},
      "tex": {"type": "string"}
    }
  }
}`

var compiledSchema = jsonschema.MustCompileString("artifact.schema.json", artifactSchema)

// Load reads and validates one release's artifact.
func Load(dir, tag string) (Database, error) {
	data, err := os.ReadFile(ArtifactPath(dir, tag))
	if err != nil {
		return nil, err
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("artifact %s: %w", tag, err)
	}
	if err := compiledSchema.Validate(raw); err != nil {
		return nil, fmt.Errorf("artifact %s: %w", tag, err)
	}

	var list []Formula
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("artifact %s: %w", tag, err)
	}

	db := make(Database, len(list))
	for _, f := range list {
		db[f.Index] = f
	}
	return db, nil
}

// LoadAll loads every artifact under dir, keyed by version (the release tag
// without its leading "v").
func LoadAll(dir string) (map[string]Database, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	dbs := make(map[string]Database)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		tag := strings.TrimSuffix(name, ".json")
		db, err := Load(dir, tag)
		if err != nil {
			return nil, err
		}
		dbs[strings.TrimPrefix(tag, "v")] = db
	}
	return dbs, nil
}
