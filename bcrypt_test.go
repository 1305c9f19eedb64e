package moments_test

import (
	"os"
	"testing"

	"github.com/momentkit/go-moments"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	moments.PasswordHashCost = bcrypt.MinCost
	os.Exit(m.Run())
}

func TestHashPassword(t *testing.T) {
	hash, err := moments.HashPassword("correct horse battery")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NoError(t, moments.ComparePasswordAndHash("correct horse battery", hash))

	_, err = moments.HashPassword("")
	assert.ErrorIs(t, err, moments.ErrNoEmptyString)
}

func TestComparePasswordAndHash(t *testing.T) {
	pa := moments.NewPasswordAuthenticator()
	hash, err := pa.HashPassword("s3cret-password")
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
		hash     string
		mismatch bool
		wantErr  bool
	}{
		{name: "match", password: "s3cret-password", hash: hash},
		{name: "wrong password", password: "nope", hash: hash, wantErr: true, mismatch: true},
		{name: "invalid hash", password: "s3cret-password", hash: "invalidhash", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := pa.ComparePasswordAndHash(tt.password, tt.hash)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			if tt.mismatch {
				assert.Equal(t, moments.ErrMismatchedHashAndPassword, err)
			}
		})
	}
}
