package rules

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed schema.cue
var schemaSource []byte

// Schema validates decoded rule documents against the closed CUE definitions
// in schema.cue. A cue.Context is not safe for concurrent use, so calls are
// serialised.
type Schema struct {
	mu       sync.Mutex
	ctx      *cue.Context
	document cue.Value
}

// NewSchema compiles the embedded schema
func NewSchema() (*Schema, error) {
	ctx := cuecontext.New()

	v := ctx.CompileBytes(schemaSource)
	if v.Err() != nil {
		return nil, fmt.Errorf("compile rule schema: %w", v.Err())
	}

	doc := v.LookupPath(cue.ParsePath("#Document"))
	if !doc.Exists() {
		return nil, fmt.Errorf("rule schema has no #Document definition")
	}
	if doc.Err() != nil {
		return nil, fmt.Errorf("rule schema #Document: %w", doc.Err())
	}

	return &Schema{ctx: ctx, document: doc}, nil
}

// Validate checks one document. The value is the generic form produced by
// decoding YAML into interface{} (maps, slices, strings, numbers).
func (s *Schema) Validate(document interface{}) error {
	data, err := json.Marshal(document)
	if err != nil {
		return fmt.Errorf("encode document for schema check: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.ctx.CompileBytes(data)
	if v.Err() != nil {
		return fmt.Errorf("compile document: %w", v.Err())
	}

	unified := s.document.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return err
	}
	return nil
}
