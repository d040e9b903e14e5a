package listing

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/*.json
var schemaFS embed.FS

var schemas = compileSchemas()

// compileSchemas compiles every embedded schema, keyed by file name without
// extension.
func compileSchemas() map[string]*jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	paths, err := fs.Glob(schemaFS, "schema/*.json")
	if err != nil {
		panic(fmt.Sprintf("listing: globbing schemas: %v", err))
	}

	for _, p := range paths {
		data, err := schemaFS.ReadFile(p)
		if err != nil {
			panic(fmt.Sprintf("listing: reading schema %s: %v", p, err))
		}
		if err := compiler.AddResource(p, bytes.NewReader(data)); err != nil {
			panic(fmt.Sprintf("listing: adding schema %s: %v", p, err))
		}
	}

	out := make(map[string]*jsonschema.Schema, len(paths))
	for _, p := range paths {
		s, err := compiler.Compile(p)
		if err != nil {
			panic(fmt.Sprintf("listing: compiling schema %s: %v", p, err))
		}
		out[strings.TrimSuffix(path.Base(p), ".json")] = s
	}
	return out
}

// validate checks body against the named response schema.
func validate(name string, body []byte) error {
	s, ok := schemas[name]
	if !ok {
		return fmt.Errorf("no schema named %q", name)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("response is not valid JSON: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("response shape mismatch: %w", err)
	}
	return nil
}

// pageEnvelope is the documented GET /properties response.
type pageEnvelope struct {
	Data struct {
		Property []Property `json:"property"`
		Total    *int       `json:"total"`
	} `json:"data"`
}

// decodePage is the single normalization boundary for listing responses.
// The documented shape is {"data":{"property":[...],"total":n}}. In strict
// mode anything else is an error; otherwise a bare {"data":[...]} array from
// older API versions is accepted with a warning.
func (c *Client) decodePage(body []byte) (*Page, error) {
	if c.strict {
		if err := validate("properties", body); err != nil {
			return nil, err
		}
	}

	var probe struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, err
	}

	data := bytes.TrimSpace(probe.Data)
	if len(data) > 0 && data[0] == '[' {
		var items []Property
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, err
		}
		c.logger.Warn("listing response used legacy array shape", "items", len(items))
		return &Page{Items: items}, nil
	}

	var env pageEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, err
	}
	if env.Data.Property == nil {
		env.Data.Property = []Property{}
	}
	return &Page{Items: env.Data.Property, Total: env.Data.Total}, nil
}
