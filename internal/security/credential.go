package security

import (
	"crypto/rand"
	"math/big"
)

// RootCredentialLength is the size of generated root bootstrap credentials.
const RootCredentialLength = 32

// Alphabets used for generated credentials. Glyphs that are easy to misread
// (I, O, l, 0, 1) are left out.
const (
	credentialUpper   = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	credentialLower   = "abcdefghijkmnopqrstuvwxyz"
	credentialDigits  = "23456789"
	credentialSpecial = "!@#$%^&*()-_=+[]{}"
)

// GenerateRootCredential returns a random credential of RootCredentialLength characters
// containing at least one character of every class.
func GenerateRootCredential() (string, error) {
	classes := []string{credentialUpper, credentialLower, credentialDigits, credentialSpecial}
	all := credentialUpper + credentialLower + credentialDigits + credentialSpecial

	out := make([]byte, 0, RootCredentialLength)
	for _, c := range classes {
		b, err := randomChar(c)
		if err != nil {
			return "", err
		}
		out = append(out, b)
	}
	for len(out) < RootCredentialLength {
		b, err := randomChar(all)
		if err != nil {
			return "", err
		}
		out = append(out, b)
	}
	// Fisher-Yates so the guaranteed characters are not always in front.
	for i := len(out) - 1; i > 0; i-- {
		j, err := randomInt(i + 1)
		if err != nil {
			return "", err
		}
		out[i], out[j] = out[j], out[i]
	}
	return string(out), nil
}

func randomChar(alphabet string) (byte, error) {
	i, err := randomInt(len(alphabet))
	if err != nil {
		return 0, err
	}
	return alphabet[i], nil
}

func randomInt(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}
