package common

import (
	"fmt"

	"github.com/google/uuid"
)

// NewChunkID generates a unique chunk identifier
func NewChunkID() string {
	return fmt.Sprintf("chunk_%s", uuid.New().String())
}
