// Package models holds server-side persistence models that are not part of
// the synchronized entity set.
package models

// User is an account row. Verifier is the argon2id digest of the password
// under Salt; the plaintext password is never stored.
type User struct {
	ID       string
	UserName string
	Salt     []byte
	Verifier []byte
}
