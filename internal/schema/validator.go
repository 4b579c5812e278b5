package schema

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// Known schema names.
const (
	AssetV1   = "asset-v1"
	ConfigV1  = "config-v1"
	SessionV1 = "session-v1"
)

//go:embed schemas/*.yaml
var embedded embed.FS

// ValidationError represents a single validation error.
type ValidationError struct {
	Path    string `json:"path,omitempty"` // dotted field path, "root" for the document itself
	Message string `json:"message"`
}

// Result holds the validation result.
type Result struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// Error joins the individual errors into one line per field.
func (r *Result) Error() string {
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		parts = append(parts, e.Path+": "+e.Message)
	}
	return strings.Join(parts, "; ")
}

// registry holds pre-compiled schemas keyed by file stem.
var registry = make(map[string]*gojsonschema.Schema)

func init() {
	entries, err := embedded.ReadDir("schemas")
	if err != nil {
		panic(fmt.Sprintf("schema: reading embedded schemas: %v", err))
	}
	for _, e := range entries {
		name := strings.TrimSuffix(e.Name(), path.Ext(e.Name()))
		raw, err := embedded.ReadFile("schemas/" + e.Name())
		if err != nil {
			panic(fmt.Sprintf("schema: reading %s: %v", e.Name(), err))
		}
		compiled, err := compileYAML(raw)
		if err != nil {
			panic(fmt.Sprintf("schema: compiling %s: %v", e.Name(), err))
		}
		registry[name] = compiled
	}
}

// compileYAML converts a YAML schema document to JSON for gojsonschema.
func compileYAML(raw []byte) (*gojsonschema.Schema, error) {
	var schemaData interface{}
	if err := yaml.Unmarshal(raw, &schemaData); err != nil {
		return nil, err
	}
	jsonBytes, err := json.Marshal(schemaData)
	if err != nil {
		return nil, err
	}
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(jsonBytes))
}

// Names lists the registered schema names.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Validate validates data (interface{}) against the named schema.
func Validate(data interface{}, schemaName string) (*Result, error) {
	schema, ok := registry[schemaName]
	if !ok {
		return nil, fmt.Errorf("schema %s not found in registry", schemaName)
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(data))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	res := &Result{Valid: result.Valid()}
	if !result.Valid() {
		for _, verr := range result.Errors() {
			field := verr.Field()
			if field == "" || field == "(root)" {
				field = "root"
			}
			res.Errors = append(res.Errors, ValidationError{
				Path:    field,
				Message: verr.Description(),
			})
		}
	}

	return res, nil
}
