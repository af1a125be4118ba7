package security

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the minimum HS256 secret size in bytes.
const MinSecretLength = 32

var (
	// ErrInvalidKey is returned when PEM or key type is invalid.
	ErrInvalidKey = errors.New("invalid key")
	// ErrWeakSecret is returned when an HMAC secret is shorter than MinSecretLength.
	ErrWeakSecret = errors.New("signing secret must be at least 32 bytes")
)

// SigningKeys pairs a JWT signing method with the keys used to sign and verify.
type SigningKeys struct {
	method    jwt.SigningMethod
	signKey   interface{}
	verifyKey interface{}
}

// Alg returns the JWT alg header value (HS256, RS256 or ES256).
func (k SigningKeys) Alg() string {
	if k.method == nil {
		return ""
	}
	return k.method.Alg()
}

// HMACKeys returns HS256 keys for a shared secret.
func HMACKeys(secret []byte) (SigningKeys, error) {
	if len(secret) < MinSecretLength {
		return SigningKeys{}, ErrWeakSecret
	}
	return SigningKeys{method: jwt.SigningMethodHS256, signKey: secret, verifyKey: secret}, nil
}

// AsymmetricKeys returns RS256 or ES256 keys depending on the private key type.
func AsymmetricKeys(privateKey crypto.Signer, publicKey crypto.PublicKey) (SigningKeys, error) {
	if privateKey == nil || publicKey == nil {
		return SigningKeys{}, ErrInvalidKey
	}
	switch privateKey.Public().(type) {
	case *rsa.PublicKey:
		return SigningKeys{method: jwt.SigningMethodRS256, signKey: privateKey, verifyKey: publicKey}, nil
	case *ecdsa.PublicKey:
		return SigningKeys{method: jwt.SigningMethodES256, signKey: privateKey, verifyKey: publicKey}, nil
	default:
		return SigningKeys{}, ErrInvalidKey
	}
}

// LoadSigningKeys selects asymmetric keys when privateKey is set (inline PEM or file path),
// otherwise HS256 with secret.
func LoadSigningKeys(secret, privateKey, publicKey string) (SigningKeys, error) {
	if strings.TrimSpace(privateKey) == "" {
		return HMACKeys([]byte(secret))
	}
	signer, err := ParsePrivateKey(privateKey)
	if err != nil {
		return SigningKeys{}, fmt.Errorf("jwt private key: %w", err)
	}
	pub, err := ParsePublicKey(publicKey)
	if err != nil {
		return SigningKeys{}, fmt.Errorf("jwt public key: %w", err)
	}
	return AsymmetricKeys(signer, pub)
}

// LoadPEM returns s as PEM bytes when it looks like inline PEM (literal "\n" sequences
// from env files are expanded); otherwise it reads the file at path s.
func LoadPEM(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrInvalidKey
	}
	if strings.HasPrefix(s, "-----BEGIN") {
		return []byte(strings.ReplaceAll(s, `\n`, "\n")), nil
	}
	return os.ReadFile(s)
}

// ParsePrivateKey parses a PEM-encoded private key (RSA or ECDSA). s may be inline PEM or a file path.
func ParsePrivateKey(s string) (crypto.Signer, error) {
	pemBytes, err := LoadPEM(s)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, ErrInvalidKey
	}
	switch block.Type {
	case "RSA PRIVATE KEY":
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		signer, ok := key.(crypto.Signer)
		if !ok {
			return nil, ErrInvalidKey
		}
		return signer, nil
	case "EC PRIVATE KEY":
		return x509.ParseECPrivateKey(block.Bytes)
	default:
		return nil, ErrInvalidKey
	}
}

// ParsePublicKey parses a PEM-encoded public key (RSA or ECDSA). s may be inline PEM or a file path.
func ParsePublicKey(s string) (crypto.PublicKey, error) {
	pemBytes, err := LoadPEM(s)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, ErrInvalidKey
	}
	switch block.Type {
	case "RSA PUBLIC KEY":
		return x509.ParsePKCS1PublicKey(block.Bytes)
	case "PUBLIC KEY":
		return x509.ParsePKIXPublicKey(block.Bytes)
	default:
		return nil, ErrInvalidKey
	}
}
