// Package jwtsigner holds the key material tokens are signed and verified with.
package jwtsigner

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const (
	AlgHS256 = "HS256"
	AlgEdDSA = "EdDSA"
)

// Minimum HS256 secret length in bytes.
const minSecretLen = 32

// Keys signs with either an HMAC secret or an Ed25519 private key.
type Keys struct {
	KeyID  string
	method jwt.SigningMethod
	sign   any
	verify any
	public ed25519.PublicKey
}

// New builds Keys for alg. For HS256 secret is the raw shared secret. For
// EdDSA it is a base64 Ed25519 private key; an empty value generates an
// ephemeral key, which is only suitable for local development.
func New(alg, secret, kid string) (*Keys, error) {
	switch strings.ToUpper(alg) {
	case "", AlgHS256:
		if len(secret) < minSecretLen {
			return nil, fmt.Errorf("hs256 secret must be at least %d bytes", minSecretLen)
		}
		key := []byte(secret)
		return &Keys{KeyID: kid, method: jwt.SigningMethodHS256, sign: key, verify: key}, nil
	case strings.ToUpper(AlgEdDSA):
		priv, err := parseEd25519(secret)
		if err != nil {
			return nil, err
		}
		pub := priv.Public().(ed25519.PublicKey)
		return &Keys{KeyID: kid, method: jwt.SigningMethodEdDSA, sign: priv, verify: pub, public: pub}, nil
	default:
		return nil, fmt.Errorf("unsupported signing algorithm %q", alg)
	}
}

func parseEd25519(privB64 string) (ed25519.PrivateKey, error) {
	if privB64 == "" {
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		return priv, err
	}
	raw, err := base64.StdEncoding.DecodeString(privB64)
	if err != nil {
		return nil, err
	}
	switch len(raw) {
	case ed25519.PrivateKeySize:
		return ed25519.PrivateKey(raw), nil
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(raw), nil
	default:
		return nil, errors.New("invalid ed25519 private key size")
	}
}

func (k *Keys) Method() jwt.SigningMethod { return k.method }

// Sign signs claims and stamps the kid header.
func (k *Keys) Sign(claims jwt.Claims) (string, error) {
	t := jwt.NewWithClaims(k.method, claims)
	if k.KeyID != "" {
		t.Header["kid"] = k.KeyID
	}
	return t.SignedString(k.sign)
}

// Keyfunc returns the verification key, for use with jwt parsers pinned to Method.
func (k *Keys) Keyfunc(*jwt.Token) (any, error) { return k.verify, nil }

// PublicJWK renders the Ed25519 public key as a JWK. HS256 keys have no
// public part and return nil.
func (k *Keys) PublicJWK() map[string]any {
	if k.public == nil {
		return nil
	}
	return map[string]any{
		"kty": "OKP",
		"crv": "Ed25519",
		"alg": AlgEdDSA,
		"use": "sig",
		"kid": k.KeyID,
		"x":   base64.RawURLEncoding.EncodeToString(k.public),
	}
}
