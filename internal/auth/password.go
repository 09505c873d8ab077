package auth

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	tempPasswordLength = 12
	maxGenerateRetries = 1000

	lowerChars = "abcdefghijklmnopqrstuvwxyz"
	upperChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars = "0123456789"
	punctChars = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"
)

var tempPasswordAlphabet = lowerChars + upperChars + digitChars + punctChars

// GenerateTempPassword returns a 12-character temporary credential with
// at least one lowercase, uppercase, digit and punctuation character.
// Candidates failing the composition check are resampled; the retry cap
// exists so a broken entropy source fails loudly instead of spinning.
func GenerateTempPassword() (string, error) {
	for attempt := 0; attempt < maxGenerateRetries; attempt++ {
		candidate, err := randomString(tempPasswordLength, tempPasswordAlphabet)
		if err != nil {
			return "", err
		}
		if strings.ContainsAny(candidate, lowerChars) &&
			strings.ContainsAny(candidate, upperChars) &&
			strings.ContainsAny(candidate, digitChars) &&
			strings.ContainsAny(candidate, punctChars) {
			return candidate, nil
		}
	}
	return "", errors.New("temp password generation exceeded retry limit")
}

func randomString(length int, alphabet string) (string, error) {
	var sb strings.Builder
	sb.Grow(length)
	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(alphabet[n.Int64()])
	}
	return sb.String(), nil
}

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
