package ports

// TokenService mints and checks stateless session tokens.
type TokenService interface {
	Issue(subjectID int64) (string, error)
	// Verify never returns an error: anything wrong with the token is false.
	Verify(token string) bool
	// ExtractSubject must only be called after Verify succeeded.
	ExtractSubject(token string) (string, error)
}

// PasswordHasher produces self-describing salted hashes.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(hash, plaintext string) bool
}
