package roster

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/mod/semver"
)

// MinDocumentVersion is the oldest roster document version this build reads.
const MinDocumentVersion = "v1.0.0"

// ErrUnsupportedVersion is returned for roster documents older than
// MinDocumentVersion or with a malformed version string.
var ErrUnsupportedVersion = errors.New("unsupported roster document version")

// Document is the on-disk roster format.
type Document struct {
	Version   string    `json:"version"`
	Countries []Country `json:"countries"`
}

var documentSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"version": map[string]any{"type": "string"},
		"countries": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"code":           map[string]any{"type": "string", "pattern": "^[a-z]{2,8}(-[a-z0-9]+)?$"},
					"name_primary":   map[string]any{"type": "string", "minLength": 1},
					"name_secondary": map[string]any{"type": "string"},
					"continent": map[string]any{
						"type": "string",
						"enum": []any{"asia", "europe", "africa", "northAmerica", "southAmerica", "oceania", "antarctica"},
					},
					"style_tags": map[string]any{
						"type":  "array",
						"items": map[string]any{"type": "string"},
					},
				},
				"required": []any{"code", "name_primary", "continent"},
			},
		},
	},
	"required": []any{"version", "countries"},
}

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		// The compiler wants a decoded JSON value, not Go literals.
		defBytes, err := json.Marshal(documentSchema)
		if err != nil {
			compileErr = fmt.Errorf("marshal schema definition: %w", err)
			return
		}
		var def any
		if err := json.Unmarshal(defBytes, &def); err != nil {
			compileErr = fmt.Errorf("parse schema definition: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		const url = "schema://roster.json"
		if err := c.AddResource(url, def); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile(url)
	})
	return compiled, compileErr
}

// Parse validates raw roster JSON and decodes it. Duplicate codes are
// rejected because the partitioner relies on codes being unique.
func Parse(raw []byte) (*Document, error) {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("invalid roster JSON: %w", err)
	}

	sch, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("compile roster schema: %w", err)
	}
	if err := sch.Validate(parsed); err != nil {
		return nil, fmt.Errorf("roster schema validation failed: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode roster: %w", err)
	}

	if !semver.IsValid(doc.Version) || semver.Compare(doc.Version, MinDocumentVersion) < 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVersion, doc.Version)
	}

	seen := make(map[string]bool, len(doc.Countries))
	for _, c := range doc.Countries {
		if seen[c.Code] {
			return nil, fmt.Errorf("duplicate country code %q", c.Code)
		}
		seen[c.Code] = true
	}

	return &doc, nil
}
