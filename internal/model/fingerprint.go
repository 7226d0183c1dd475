package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for fingerprint computation. The version suffix
// enables future algorithm migration without colliding hashes.
const (
	DomainPlan         = "wirecue/plan/v1"
	DomainDeclarations = "wirecue/declarations/v1"
)

// hashWithDomain computes SHA-256 with domain separation:
// SHA256(domain + 0x00 + data). The null byte prevents domain/data
// boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint computes the content-addressed identity of the plan.
// Equal plans fingerprint identically; this is the reproducible-build
// contract checked by the generation journal.
func (p *RegistrationPlan) Fingerprint() (string, error) {
	canonical, err := MarshalCanonical(p.Canonical())
	if err != nil {
		return "", fmt.Errorf("plan fingerprint: %w", err)
	}
	return hashWithDomain(DomainPlan, canonical), nil
}

// DeclarationsFingerprint computes the identity of a normalized
// declaration set, in discovery order.
func DeclarationsFingerprint(records []*DeclarationRecord) (string, error) {
	canonical, err := MarshalCanonical(map[string]any{
		"declarations": statementList(records),
	})
	if err != nil {
		return "", fmt.Errorf("declarations fingerprint: %w", err)
	}
	return hashWithDomain(DomainDeclarations, canonical), nil
}
