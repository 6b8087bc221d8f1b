package utils

import "golang.org/x/crypto/bcrypt"

// Credential hashing for every account tier, including the admin account
// seeded at startup.  The cost comes from configuration (BCRYPT_COST) so a
// deployment can raise it without touching code; rehashing existing rows is
// not attempted.

// HashPassword bcrypt-hashes a plaintext password at the given cost.
func HashPassword(plain string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	return string(hashed), err
}

// VerifyPassword reports whether plain matches the stored bcrypt hash.  Any
// failure, including a malformed hash, counts as a mismatch; login treats
// both identically as invalid credentials.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
