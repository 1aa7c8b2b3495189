package keygen

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TokenBytes is the amount of entropy in a bearer token.
const TokenBytes = 24

// GenerateBearerToken generates an opaque bearer token
// Token: 24 random bytes, standard Base64 (32 characters)
func GenerateBearerToken() (string, error) {
	buf := make([]byte, TokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

// GenerateRequestID generates a request correlation id (UUID v4)
func GenerateRequestID() string {
	return uuid.New().String()
}

// GenerateObjectKey builds a date-partitioned, collision-free storage key
// e.g. characters/2026/10/19/6f1c...e2.png
func GenerateObjectKey(prefix string, at time.Time, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	key := fmt.Sprintf("%s/%04d/%02d/%02d/%s", strings.Trim(prefix, "/"), at.Year(), at.Month(), at.Day(), uuid.New())
	if ext != "" {
		key += "." + ext
	}
	return key
}
