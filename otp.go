package moments

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"io"
	"math/big"

	"github.com/goliatone/go-errors"
)

// DefaultCodeLength is the number of digits in an email verification code
const DefaultCodeLength = 6

var (
	codeRand  io.Reader = rand.Reader
	codeRadix           = big.NewInt(10)
)

// GenerateCode returns a numeric code with length digits.
func GenerateCode(length int) (string, error) {
	if length <= 0 {
		length = DefaultCodeLength
	}

	s := make([]byte, length)
	for i := range s {
		n, err := rand.Int(codeRand, codeRadix)
		if err != nil {
			return "", errors.Wrap(err, errors.CategoryInternal, "failed to generate verification code")
		}
		s[i] = '0' + byte(n.Int64())
	}
	return string(s), nil
}

// HashCode returns the hex encoded SHA-256 of code.
func HashCode(code string) string {
	h := sha256.Sum256([]byte(code))
	return hex.EncodeToString(h[:])
}

// CodeEqual compares code against a stored hash in constant time.
func CodeEqual(code, storedHash string) bool {
	provided := HashCode(code)
	return subtle.ConstantTimeCompare([]byte(provided), []byte(storedHash)) == 1
}
