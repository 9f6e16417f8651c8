package alertgen

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// evidenceClaims is the minimal claim set signed over an alert's identity
// and evidence, letting a downstream consumer verify the evidence pointer
// wasn't altered in transit without re-deriving the alert id.
type evidenceClaims struct {
	jwt.RegisteredClaims
	CanonicalDocID  string         `json:"canonical_doc_id"`
	EvidencePointer map[string]any `json:"evidence_pointer"`
}

// Signer produces a compact JWS over an alert's canonical_doc_id and
// evidence_pointer. A nil *Signer leaves Alert.IntegritySignature empty.
type Signer struct {
	method jwt.SigningMethod
	key    any
}

// NewHMACSigner builds a Signer using HS256 over a shared secret.
func NewHMACSigner(secret []byte) *Signer {
	return &Signer{method: jwt.SigningMethodHS256, key: secret}
}

// NewEdDSASigner builds a Signer using EdDSA over an ed25519 private key.
func NewEdDSASigner(privateKey any) *Signer {
	return &Signer{method: jwt.SigningMethodEdDSA, key: privateKey}
}

// Sign returns the compact JWS string for the given alert identity fields.
func (s *Signer) Sign(canonicalDocID string, evidencePointer map[string]any) (string, error) {
	if s == nil {
		return "", nil
	}
	claims := evidenceClaims{CanonicalDocID: canonicalDocID, EvidencePointer: evidencePointer}
	token := jwt.NewWithClaims(s.method, claims)
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("alertgen: sign evidence: %w", err)
	}
	return signed, nil
}

