// Package credentials wraps the credential hashing primitive. The rest of
// the system treats it as an opaque verifier so the algorithm can be
// swapped without touching the auth flow.
package credentials

import "golang.org/x/crypto/bcrypt"

// Hash derives a salted one-way hash of the password.
func Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether the password matches the stored hash.
func Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
