package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAuthorized(t *testing.T) {
	a := NewAuthenticator([]int64{10, 20})

	assert.True(t, a.IsAuthorized(10))
	assert.True(t, a.IsAuthorized(20))
	assert.False(t, a.IsAuthorized(30))
}

func TestEmptyListAuthorizesNobody(t *testing.T) {
	a := NewAuthenticator(nil)

	assert.False(t, a.IsAuthorized(0))
	assert.False(t, a.IsAuthorized(42))
}
