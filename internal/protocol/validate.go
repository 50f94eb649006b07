package protocol

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const schemaBase = "https://voxelfuel.ai/schemas/"

// Validator checks inbound client messages against the bundled schemas.
type Validator struct {
	hello *jsonschema.Schema
	cmd   *jsonschema.Schema
}

func NewValidator() (*Validator, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft7
	for _, name := range []string{"hello.schema.json", "cmd.schema.json", "status.schema.json"} {
		b, err := schemaFS.ReadFile("schemas/" + name)
		if err != nil {
			return nil, err
		}
		if err := c.AddResource(schemaBase+name, bytes.NewReader(b)); err != nil {
			return nil, fmt.Errorf("schema %s: %w", name, err)
		}
	}
	v := &Validator{}
	var err error
	if v.hello, err = c.Compile(schemaBase + "hello.schema.json"); err != nil {
		return nil, fmt.Errorf("compile hello: %w", err)
	}
	if v.cmd, err = c.Compile(schemaBase + "cmd.schema.json"); err != nil {
		return nil, fmt.Errorf("compile cmd: %w", err)
	}
	return v, nil
}

func (v *Validator) ValidateHello(raw []byte) error { return validateRaw(v.hello, raw) }
func (v *Validator) ValidateCmd(raw []byte) error   { return validateRaw(v.cmd, raw) }

func validateRaw(s *jsonschema.Schema, raw []byte) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return err
	}
	return s.Validate(doc)
}
