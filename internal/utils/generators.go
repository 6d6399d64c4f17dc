package utils

import (
	"github.com/google/uuid"
)

// GenerateUUID returns a random token, used for request correlation and
// lock ownership.
func GenerateUUID() string {
	return uuid.NewString()
}
