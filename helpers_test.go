package webpush

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdh"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"io"
	"math/big"

	"golang.org/x/crypto/hkdf"
)

func bigIntFromBytes(b []byte) *big.Int {
	return new(big.Int).SetBytes(b)
}

// mockSigner is a Signer that always returns a fixed-size dummy
// signature, for tests that only care about the request shape rather
// than cryptographic validity.
type mockSigner struct {
	pubKey []byte
}

func (m *mockSigner) Sign(_ context.Context, _ []byte) ([]byte, error) {
	return make([]byte, 64), nil
}

func (m *mockSigner) PublicKey() []byte { return m.pubKey }

// testClientKeys holds a subscriber-side P-256 key pair and auth secret,
// and can decrypt messages this package's encryptors produced for it —
// used to exercise testable property 1 (round-trip).
type testClientKeys struct {
	priv    *ecdh.PrivateKey
	auth    []byte
	pubB64  string
	authB64 string
}

func newTestClientKeys() (*testClientKeys, error) {
	priv, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	auth := make([]byte, 16)
	if _, err := rand.Read(auth); err != nil {
		return nil, err
	}
	return &testClientKeys{
		priv:    priv,
		auth:    auth,
		pubB64:  encodeB64URL(priv.PublicKey().Bytes()),
		authB64: encodeB64URL(auth),
	}, nil
}

// decryptAes128gcm reverses encryptAes128gcm: parse the RFC 8188 frame,
// rederive the CEK/nonce via the same HKDF steps using the client's
// private key, and open the AEAD record.
func (c *testClientKeys) decryptAes128gcm(framed []byte) ([]byte, error) {
	if len(framed) < 86 {
		return nil, errors.New("frame too short")
	}
	salt := framed[0:16]
	idlen := framed[20]
	keyid := framed[21 : 21+int(idlen)]
	ciphertext := framed[21+int(idlen):]

	serverPub, err := ecdh.P256().NewPublicKey(keyid)
	if err != nil {
		return nil, err
	}
	sharedSecret, err := c.priv.ECDH(serverPub)
	if err != nil {
		return nil, err
	}

	prkInfo := append([]byte("WebPush: info\x00"), c.priv.PublicKey().Bytes()...)
	prkInfo = append(prkInfo, serverPub.Bytes()...)
	prk := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, sharedSecret, c.auth, prkInfo), prk); err != nil {
		return nil, err
	}

	cek := make([]byte, 16)
	if _, err := io.ReadFull(hkdf.New(sha256.New, prk, salt, []byte("Content-Encoding: aes128gcm\x00")), cek); err != nil {
		return nil, err
	}
	nonce := make([]byte, 12)
	if _, err := io.ReadFull(hkdf.New(sha256.New, prk, salt, []byte("Content-Encoding: nonce\x00")), nonce); err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(cek)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	record, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, err
	}
	if len(record) == 0 || record[len(record)-1] != 0x02 {
		return nil, errors.New("missing record delimiter")
	}
	return record[:len(record)-1], nil
}

// decryptAesgcm reverses encryptAesgcm given the ephemeral public key and
// salt carried in the Crypto-Key/Encryption headers.
func (c *testClientKeys) decryptAesgcm(serverPubBytes, salt, ciphertext []byte) ([]byte, error) {
	serverPub, err := ecdh.P256().NewPublicKey(serverPubBytes)
	if err != nil {
		return nil, err
	}
	sharedSecret, err := c.priv.ECDH(serverPub)
	if err != nil {
		return nil, err
	}

	ikm := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, sharedSecret, c.auth, []byte("Content-Encoding: auth\x00")), ikm); err != nil {
		return nil, err
	}

	context := aesgcmContext(c.priv.PublicKey().Bytes(), serverPub.Bytes())

	cek := make([]byte, 16)
	if _, err := io.ReadFull(hkdf.New(sha256.New, ikm, salt, append([]byte("Content-Encoding: aesgcm\x00"), context...)), cek); err != nil {
		return nil, err
	}
	nonce := make([]byte, 12)
	if _, err := io.ReadFull(hkdf.New(sha256.New, ikm, salt, append([]byte("Content-Encoding: nonce\x00"), context...)), nonce); err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(cek)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	padded, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, err
	}
	if len(padded) < 2 {
		return nil, errors.New("padded record too short")
	}
	padLen := binary.BigEndian.Uint16(padded[:2])
	content := padded[2:]
	if int(padLen) > len(content) {
		return nil, errors.New("invalid padding length")
	}
	return content[padLen:], nil
}
