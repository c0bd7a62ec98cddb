package auth

import "crypto/subtle"

// CredentialChecker decides whether a caller may mint tokens. It exists so
// the shared-secret scheme below can be swapped for per-user credential
// storage without touching token verification.
type CredentialChecker interface {
	Check(apiKey string) bool
}

// SharedSecretChecker accepts any caller presenting the configured proxy
// secret. This conflates "knows the deployment secret" with "is an
// authorized user": whoever holds the one secret can mint a token for any
// subject. That is the deployed scheme, kept behind CredentialChecker so a
// real credential store can replace it.
type SharedSecretChecker struct {
	secret []byte
}

// NewSharedSecretChecker returns a checker for the given secret.
func NewSharedSecretChecker(secret string) *SharedSecretChecker {
	return &SharedSecretChecker{secret: []byte(secret)}
}

// Check compares the supplied key against the secret in constant time.
func (s *SharedSecretChecker) Check(apiKey string) bool {
	if apiKey == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(apiKey), s.secret) == 1
}
