// Package keys provides VAPID key implementations: signers backed by a
// key on disk, by Google Cloud KMS, and rotating wrappers over either.
package keys

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"math/big"
	"os"
)

// FileSigner implements the Signer interface using a P-256 key held in
// memory, typically loaded from disk once at startup.
type FileSigner struct {
	privateKey *ecdsa.PrivateKey
	publicKey  []byte // uncompressed format
}

// NewFileSigner loads a VAPID private key from path. The file may
// contain a PEM-encoded PKCS#8 ("PRIVATE KEY") block, a PEM-encoded SEC1
// ("EC PRIVATE KEY") block, or raw SEC1 DER with no PEM armor at all;
// these are tried in that order. A PEM file with more than one block is
// tolerated — the first block of a recognized type wins.
func NewFileSigner(privateKeyPath string) (*FileSigner, error) {
	data, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("reading private key file: %w", err)
	}
	return newFileSignerFromBytes(data)
}

// NewFileSignerFromPEMOrDER builds a FileSigner directly from key bytes
// already in memory, using the same PEM/DER dispatch as NewFileSigner.
func NewFileSignerFromPEMOrDER(data []byte) (*FileSigner, error) {
	return newFileSignerFromBytes(data)
}

func newFileSignerFromBytes(data []byte) (*FileSigner, error) {
	if privKey, ok := tryParsePEM(data); ok && privKey != nil {
		return newFileSignerFromKey(privKey)
	}

	// No PEM armor (or none of its blocks parsed): treat the whole input
	// as raw SEC1 DER.
	privKey, err := x509.ParseECPrivateKey(data)
	if err != nil {
		if pk8, err2 := x509.ParsePKCS8PrivateKey(data); err2 == nil {
			if ec, ok := pk8.(*ecdsa.PrivateKey); ok {
				privKey = ec
				err = nil
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("parsing private key (tried PEM, SEC1 DER, PKCS8 DER): %w", err)
	}
	return newFileSignerFromKey(privKey)
}

// tryParsePEM walks every block in data, returning the first one that
// decodes as either a PKCS8 or SEC1 EC private key. ok is false if data
// contains no PEM blocks at all, so the caller falls back to raw DER.
func tryParsePEM(data []byte) (*ecdsa.PrivateKey, bool) {
	rest := data
	found := false
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		found = true

		if privKey, err := x509.ParseECPrivateKey(block.Bytes); err == nil {
			return privKey, true
		}
		if pk8, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
			if ec, ok := pk8.(*ecdsa.PrivateKey); ok {
				return ec, true
			}
		}
	}
	return nil, found
}

func newFileSignerFromKey(privKey *ecdsa.PrivateKey) (*FileSigner, error) {
	if privKey.Curve != elliptic.P256() {
		return nil, fmt.Errorf("key must be P-256 curve")
	}
	pubKey := elliptic.Marshal(privKey.Curve, privKey.X, privKey.Y)
	return &FileSigner{privateKey: privKey, publicKey: pubKey}, nil
}

// NewFileSignerFromBase64 creates a FileSigner from a raw 32-byte P-256
// scalar, base64url-encoded with or without padding.
func NewFileSignerFromBase64(privateKeyB64 string) (*FileSigner, error) {
	privKeyBytes, err := base64.RawURLEncoding.DecodeString(privateKeyB64)
	if err != nil {
		privKeyBytes, err = base64.URLEncoding.DecodeString(privateKeyB64)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding private key: %w", err)
	}

	if len(privKeyBytes) != 32 {
		return nil, fmt.Errorf("private key must be 32 bytes, got %d", len(privKeyBytes))
	}

	privKey := new(ecdsa.PrivateKey)
	privKey.Curve = elliptic.P256()
	privKey.D = new(big.Int).SetBytes(privKeyBytes)
	privKey.X, privKey.Y = privKey.Curve.ScalarBaseMult(privKeyBytes)

	pubKey := elliptic.Marshal(privKey.Curve, privKey.X, privKey.Y)
	return &FileSigner{privateKey: privKey, publicKey: pubKey}, nil
}

// Sign signs the given data using ECDSA and returns the signature in IEEE P1363 format.
func (s *FileSigner) Sign(_ context.Context, data []byte) ([]byte, error) {
	r, ss, err := ecdsa.Sign(rand.Reader, s.privateKey, data)
	if err != nil {
		return nil, fmt.Errorf("signing: %w", err)
	}

	// Convert to IEEE P1363 format (r || s, each 32 bytes)
	sig := make([]byte, 64)
	rBytes := r.Bytes()
	sBytes := ss.Bytes()
	copy(sig[32-len(rBytes):32], rBytes)
	copy(sig[64-len(sBytes):64], sBytes)

	return sig, nil
}

// PublicKey returns the ECDSA public key in uncompressed format.
func (s *FileSigner) PublicKey() []byte {
	return s.publicKey
}

// PublicKeyBase64 returns the public key as a base64 URL-encoded string.
func (s *FileSigner) PublicKeyBase64() string {
	return base64.RawURLEncoding.EncodeToString(s.publicKey)
}

// GenerateKey generates a new ECDSA P-256 key pair and saves it to path
// as a PEM-encoded SEC1 ("EC PRIVATE KEY") block.
func GenerateKey(path string) (*FileSigner, error) {
	privKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}

	privKeyBytes, err := x509.MarshalECPrivateKey(privKey)
	if err != nil {
		return nil, fmt.Errorf("marshaling private key: %w", err)
	}

	block := &pem.Block{
		Type:  "EC PRIVATE KEY",
		Bytes: privKeyBytes,
	}

	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0600); err != nil {
		return nil, fmt.Errorf("writing private key: %w", err)
	}

	pubKey := elliptic.Marshal(privKey.Curve, privKey.X, privKey.Y)
	return &FileSigner{privateKey: privKey, publicKey: pubKey}, nil
}

// GenerateKeyPair generates a new key pair and returns both keys in base64 format.
func GenerateKeyPair() (privateKeyB64, publicKeyB64 string, err error) {
	privKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return "", "", fmt.Errorf("generating key: %w", err)
	}

	privKeyBytes := privKey.D.Bytes()
	paddedPrivKey := make([]byte, 32)
	copy(paddedPrivKey[32-len(privKeyBytes):], privKeyBytes)

	pubKeyBytes := elliptic.Marshal(privKey.Curve, privKey.X, privKey.Y)

	return base64.RawURLEncoding.EncodeToString(paddedPrivKey),
		base64.RawURLEncoding.EncodeToString(pubKeyBytes),
		nil
}
