package token

import (
	"crypto/rand"
	"encoding/hex"

	"go.uber.org/zap"
)

// accessTokenBytes is the entropy of a generated access token. The hex
// encoded string is twice this length.
const accessTokenBytes = 32

// Generator produces opaque, cryptographically random access token
// strings. Token generation is deliberately outside the token model; the
// model only stores and validates what it is handed.
type Generator struct {
	logger *zap.Logger
}

// NewGenerator creates a new access token generator
func NewGenerator(logger *zap.Logger) *Generator {
	return &Generator{logger: logger}
}

// Generate returns a new random access token string
func (g *Generator) Generate() (string, error) {
	b := make([]byte, accessTokenBytes)
	if _, err := rand.Read(b); err != nil {
		g.logger.Error("failed to generate access token", zap.Error(err))
		return "", err
	}
	return hex.EncodeToString(b), nil
}
