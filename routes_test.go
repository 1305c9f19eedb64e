package moments_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	moments "github.com/momentkit/go-moments"
)

func TestRoutes(t *testing.T) {
	assert.Equal(t, "/", moments.Home)
	assert.Equal(t, "/sign-in", moments.SignIn)
	assert.Equal(t, "/sign-up", moments.SignUp)
	assert.Equal(t, "/studio/:id", moments.StudioPattern())
	assert.Equal(t, "/studio/abc-123", moments.Studio("abc-123"))
}
