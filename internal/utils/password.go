package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword derives the bcrypt hash stored for a member account.
// The cost comes from configuration (BCRYPT_COST) so deployments can
// raise it without a code change; values outside bcrypt's supported
// range fall back to the library default.
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches the stored bcrypt
// hash.  The comparison is constant-time inside bcrypt; the boolean
// hides the library error so callers cannot leak why a login failed.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
