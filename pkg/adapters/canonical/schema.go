package canonical

import (
	"bytes"
	"log/slog"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Schema is an optional per-adapter JSON Schema a raw record is validated
// against before coercion. Validation failures widen the set of
// null/defaulted fields rather than aborting the batch — InputMalformed,
// not PersistenceError (spec §7) — so a nil Schema never gates ingestion
// of sources whose payload shape is intentionally loose.
type Schema struct {
	compiled *jsonschema.Schema
}

// CompileSchema compiles a JSON Schema document, given as raw JSON bytes
// and registered under name, for repeated use across a batch.
func CompileSchema(name string, schemaJSON []byte) (*Schema, error) {
	compiler := jsonschema.NewCompiler()
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, err
	}
	if err := compiler.AddResource(name, doc); err != nil {
		return nil, err
	}
	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, err
	}
	return &Schema{compiled: compiled}, nil
}

// Validate checks raw against the schema, logging and returning false on
// failure rather than returning an error — the caller treats a failed
// validation as InputMalformed recovery, not an abort condition.
func (s *Schema) Validate(sourceSystem string, raw map[string]any) bool {
	if s == nil || s.compiled == nil {
		return true
	}
	if err := s.compiled.Validate(raw); err != nil {
		slog.Warn("adapter record failed schema validation", "source_system", sourceSystem, "error", err)
		return false
	}
	return true
}
