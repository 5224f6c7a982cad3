package protocol

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

// Validator checks inbound messages against the embedded JSON schemas.
type Validator struct {
	byType map[string]*jsonschema.Schema
}

const schemaBaseURL = "https://villagecraft.ai/schemas/"

var schemaFiles = map[string]string{
	TypeHello:         "hello.schema.json",
	TypeOrder:         "order.schema.json",
	TypeState:         "state.schema.json",
	TypeEventBatchReq: "event_batch_req.schema.json",
}

func NewValidator() (*Validator, error) {
	c := jsonschema.NewCompiler()
	for _, name := range schemaFiles {
		b, err := schemaFS.ReadFile("schemas/" + name)
		if err != nil {
			return nil, err
		}
		if err := c.AddResource(schemaBaseURL+name, bytes.NewReader(b)); err != nil {
			return nil, fmt.Errorf("schema %s: %w", name, err)
		}
	}
	v := &Validator{byType: map[string]*jsonschema.Schema{}}
	for typ, name := range schemaFiles {
		s, err := c.Compile(schemaBaseURL + name)
		if err != nil {
			return nil, fmt.Errorf("compile %s: %w", name, err)
		}
		v.byType[typ] = s
	}
	return v, nil
}

// Validate checks raw against the schema registered for typ. Types without a
// schema pass.
func (v *Validator) Validate(typ string, raw []byte) error {
	s := v.byType[typ]
	if s == nil {
		return nil
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	return s.Validate(doc)
}
