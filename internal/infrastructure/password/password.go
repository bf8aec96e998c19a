package password

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes a provisioned user password using bcrypt. The token
// server never compares user passwords itself (there is no password
// grant); the hash only exists so plaintext credentials are never stored.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword checks a plaintext password against its bcrypt hash
func CheckPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
