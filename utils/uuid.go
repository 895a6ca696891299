package utils

import "github.com/google/uuid"

// GenerateID returns a random UUID, the primary key of every engine entity
func GenerateID() string {
	return uuid.New().String()
}
