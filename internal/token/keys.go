// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package token

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

// MinKeyBits is the smallest RSA modulus accepted by GenerateKeyPair.
const MinKeyBits = 2048

// ParsePrivateKey decodes an RSA private key given either as PEM or as
// base64-encoded PEM.
func ParsePrivateKey(encoded string) (*rsa.PrivateKey, error) {
	raw, err := decodePEM(encoded)
	if err != nil {
		return nil, err
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(raw)
	if err != nil {
		return nil, oops.Code("TOKEN_KEY_INVALID").With("kind", "private").Wrap(err)
	}
	return key, nil
}

// ParsePublicKey decodes an RSA public key given either as PEM or as
// base64-encoded PEM.
func ParsePublicKey(encoded string) (*rsa.PublicKey, error) {
	raw, err := decodePEM(encoded)
	if err != nil {
		return nil, err
	}
	key, err := jwt.ParseRSAPublicKeyFromPEM(raw)
	if err != nil {
		return nil, oops.Code("TOKEN_KEY_INVALID").With("kind", "public").Wrap(err)
	}
	return key, nil
}

// LoadKeyPair parses both halves of a key pair and checks that they match.
func LoadKeyPair(privateEncoded, publicEncoded string) (KeyPair, error) {
	priv, err := ParsePrivateKey(privateEncoded)
	if err != nil {
		return KeyPair{}, err
	}
	pub, err := ParsePublicKey(publicEncoded)
	if err != nil {
		return KeyPair{}, err
	}
	if !priv.PublicKey.Equal(pub) {
		return KeyPair{}, oops.Code("TOKEN_KEY_MISMATCH").Errorf("public key does not match private key")
	}
	return KeyPair{Private: priv, Public: pub}, nil
}

// GenerateKeyPair creates a new RSA key pair and returns the PKCS#8 private
// key and PKIX public key as PEM.
func GenerateKeyPair(bits int) (privatePEM, publicPEM []byte, err error) {
	if bits < MinKeyBits {
		return nil, nil, oops.Code("TOKEN_KEY_TOO_SMALL").
			With("bits", bits).
			Errorf("key size must be at least %d bits", MinKeyBits)
	}

	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, nil, oops.Code("TOKEN_KEY_GENERATE_FAILED").Wrap(err)
	}

	privDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, nil, oops.Code("TOKEN_KEY_GENERATE_FAILED").With("operation", "marshal private key").Wrap(err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, nil, oops.Code("TOKEN_KEY_GENERATE_FAILED").With("operation", "marshal public key").Wrap(err)
	}

	privatePEM = pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER})
	publicPEM = pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	return privatePEM, publicPEM, nil
}

// EncodeKey base64-encodes PEM bytes for single-line configuration values.
func EncodeKey(pemBytes []byte) string {
	return base64.StdEncoding.EncodeToString(pemBytes)
}

func decodePEM(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, oops.Code("TOKEN_KEY_MISSING").Errorf("key is empty")
	}
	if strings.HasPrefix(encoded, "-----BEGIN") {
		return []byte(encoded), nil
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, oops.Code("TOKEN_KEY_INVALID").With("operation", "base64 decode").Wrap(err)
	}
	return raw, nil
}
