package service

import "golang.org/x/crypto/bcrypt"

const defaultBcryptCost = 12

// PasswordHasher aplica hashing bcrypt con costo configurable.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher crea un hasher; costos fuera de rango usan el default.
func NewPasswordHasher(cost int) PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = defaultBcryptCost
	}
	return PasswordHasher{cost: cost}
}

func (h PasswordHasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify devuelve true solo si digest proviene de plaintext; un digest
// corrupto nunca autentica.
func (h PasswordHasher) Verify(plaintext, digest string) bool {
	if digest == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
