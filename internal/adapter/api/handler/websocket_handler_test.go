package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOriginAllowedEmptyListAllowsAll(t *testing.T) {
	assert.True(t, originAllowed(nil, "https://evil.example.com"))
	assert.True(t, originAllowed(nil, ""))
}

func TestOriginAllowedMatchesConfiguredOrigins(t *testing.T) {
	allowed := []string{"https://app.homexa.id", "http://localhost:3000"}

	assert.True(t, originAllowed(allowed, "https://app.homexa.id"))
	assert.True(t, originAllowed(allowed, "http://localhost:3000"))
	assert.False(t, originAllowed(allowed, "https://evil.example.com"))
	assert.False(t, originAllowed(allowed, ""))
}
