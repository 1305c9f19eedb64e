package upload_test

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentkit/go-moments/upload"
)

func TestSign(t *testing.T) {
	mac := hmac.New(sha1.New, []byte("private_key"))
	mac.Write([]byte("token-1" + "1700001800"))
	expected := hex.EncodeToString(mac.Sum(nil))

	assert.Equal(t, expected, upload.Sign("private_key", "token-1", 1700001800))
	assert.Len(t, expected, 40)
	assert.NotEqual(t, expected, upload.Sign("other_key", "token-1", 1700001800))
	assert.NotEqual(t, expected, upload.Sign("private_key", "token-1", 1700001801))
}

func TestSignerAuthParams(t *testing.T) {
	now := time.Unix(1700000000, 0)
	signer := upload.NewSigner("private_key", "public_key",
		upload.WithClock(func() time.Time { return now }),
		upload.WithTokenGenerator(func() (string, error) { return "fixed-token", nil }),
	)

	params, err := signer.AuthParams()
	require.NoError(t, err)

	assert.Equal(t, "fixed-token", params.Token)
	assert.Equal(t, int64(1700000000+30*60), params.Expire)
	assert.Equal(t, upload.Sign("private_key", "fixed-token", params.Expire), params.Signature)
	assert.Equal(t, "public_key", params.PublicKey)
}

func TestSignerDefaultTokenIsUUIDv4(t *testing.T) {
	signer := upload.NewSigner("private_key", "public_key")

	first, err := signer.AuthParams()
	require.NoError(t, err)
	second, err := signer.AuthParams()
	require.NoError(t, err)

	id, err := uuid.Parse(first.Token)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), id.Version())
	assert.NotEqual(t, first.Token, second.Token)

	ttl := time.Until(time.Unix(first.Expire, 0))
	assert.Less(t, ttl, upload.MaxTTL)
	assert.Greater(t, ttl, 29*time.Minute)
}

func TestSignerTTLBounds(t *testing.T) {
	now := time.Unix(1700000000, 0)
	clock := upload.WithClock(func() time.Time { return now })

	tests := []struct {
		name string
		ttl  time.Duration
		want int64
	}{
		{"custom", 10 * time.Minute, 600},
		{"zero ignored", 0, 1800},
		{"one hour ignored", time.Hour, 1800},
		{"over max ignored", 2 * time.Hour, 1800},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signer := upload.NewSigner("k", "p", clock, upload.WithTTL(tt.ttl))
			params, err := signer.AuthParams()
			require.NoError(t, err)
			assert.Equal(t, now.Unix()+tt.want, params.Expire)
		})
	}
}

func TestSignerErrors(t *testing.T) {
	_, err := upload.NewSigner("", "public_key").AuthParams()
	require.ErrorIs(t, err, upload.ErrMissingPrivateKey)

	failing := upload.NewSigner("k", "p", upload.WithTokenGenerator(func() (string, error) {
		return "", errors.New("entropy exhausted")
	}))
	_, err = failing.AuthParams()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to generate upload token")
}
