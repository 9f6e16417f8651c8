package canonical

import "testing"

const samplePermitSchema = `{
	"type": "object",
	"required": ["api_number"],
	"properties": {"api_number": {"type": "string"}}
}`

func TestSchema_NilSchemaAlwaysValidates(t *testing.T) {
	var s *Schema
	if !s.Validate("tx_rrc", map[string]any{}) {
		t.Errorf("expected nil schema to validate everything")
	}
}

func TestCompileSchema_ValidatesRequiredField(t *testing.T) {
	s, err := CompileSchema("permit.json", []byte(samplePermitSchema))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.Validate("tx_rrc", map[string]any{"api_number": "42-301-00001"}) {
		t.Errorf("expected valid record to pass")
	}
	if s.Validate("tx_rrc", map[string]any{}) {
		t.Errorf("expected record missing api_number to fail")
	}
}
