package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	bare := &pq.Error{Code: "23505"}
	assert.True(t, IsUniqueViolation(bare))

	// Repositories wrap driver errors before they reach callers.
	wrapped := fmt.Errorf("failed to create category: %w", bare)
	assert.True(t, IsUniqueViolation(wrapped))

	doubleWrapped := fmt.Errorf("business create: %w", wrapped)
	assert.True(t, IsUniqueViolation(doubleWrapped))

	assert.False(t, IsUniqueViolation(nil))
	assert.False(t, IsUniqueViolation(errors.New("connection reset")))
	assert.False(t, IsUniqueViolation(fmt.Errorf("fk violation: %w", &pq.Error{Code: "23503"})))
}
