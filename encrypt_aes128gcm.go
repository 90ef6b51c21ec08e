package webpush

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdh"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"io"

	"golang.org/x/crypto/hkdf"
)

// maxPlaintextSize is the largest payload this package will encrypt,
// per spec §4.3/§4.4 and RFC 8291's single-record framing limit.
const maxPlaintextSize = 3052

// encryptAes128gcm implements RFC 8188 content encryption for Web Push
// (RFC 8291): a single AEAD record, all keying metadata carried in the
// body frame rather than in headers.
func encryptAes128gcm(clientPub, clientAuth, plaintext []byte) (*WebPushPayload, error) {
	if len(plaintext) > maxPlaintextSize {
		return nil, ErrPayloadTooLarge
	}

	clientPubKey, err := ecdh.P256().NewPublicKey(clientPub)
	if err != nil {
		return nil, newErrCause(KindInvalidCryptoKeys, err)
	}

	serverPriv, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return nil, newErrCause(KindIO, err)
	}
	serverPub := serverPriv.PublicKey()

	sharedSecret, err := serverPriv.ECDH(clientPubKey)
	if err != nil {
		return nil, newErrCause(KindInvalidCryptoKeys, err)
	}

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, newErrCause(KindIO, err)
	}

	prkInfo := append([]byte("WebPush: info\x00"), clientPubKey.Bytes()...)
	prkInfo = append(prkInfo, serverPub.Bytes()...)

	prk := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, sharedSecret, clientAuth, prkInfo), prk); err != nil {
		return nil, newErrCause(KindIO, err)
	}

	cek := make([]byte, 16)
	if _, err := io.ReadFull(hkdf.New(sha256.New, prk, salt, []byte("Content-Encoding: aes128gcm\x00")), cek); err != nil {
		return nil, newErrCause(KindIO, err)
	}

	nonce := make([]byte, 12)
	if _, err := io.ReadFull(hkdf.New(sha256.New, prk, salt, []byte("Content-Encoding: nonce\x00")), nonce); err != nil {
		return nil, newErrCause(KindIO, err)
	}

	block, err := aes.NewCipher(cek)
	if err != nil {
		return nil, newErrCause(KindIO, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, newErrCause(KindIO, err)
	}

	// Single-record framing: the last (only) record ends with a 0x02
	// delimiter per RFC 8188 §2.
	record := make([]byte, 0, len(plaintext)+1)
	record = append(record, plaintext...)
	record = append(record, 0x02)
	ciphertext := gcm.Seal(nil, nonce, record, nil)

	recordSize := uint32(len(ciphertext) + 86)
	header := make([]byte, 0, 86)
	header = append(header, salt...)
	header = binary.BigEndian.AppendUint32(header, recordSize)
	header = append(header, byte(len(serverPub.Bytes())))
	header = append(header, serverPub.Bytes()...)

	return &WebPushPayload{
		Content:         append(header, ciphertext...),
		ContentEncoding: Aes128Gcm,
	}, nil
}

// withVapidAes128gcm attaches the single Authorization header aes128gcm
// uses for VAPID, per spec §4.3.
func withVapidAes128gcm(p *WebPushPayload, sig *VapidSignature) {
	if sig == nil {
		return
	}
	p.CryptoHeaders = append(p.CryptoHeaders, CryptoHeader{
		Name:  "Authorization",
		Value: "vapid t=" + sig.AuthT + ", k=" + encodeB64URL(sig.AuthK),
	})
}
