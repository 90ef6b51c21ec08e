package webpush

// ContentEncoding selects which content-encryption scheme (§4.3/§4.4)
// produces the wire payload for a message.
type ContentEncoding string

const (
	// Aes128Gcm is RFC 8188 content encryption and is the default scheme.
	Aes128Gcm ContentEncoding = "aes128gcm"
	// AesGcm is the older draft-03 scheme some push services still require.
	AesGcm ContentEncoding = "aesgcm"
)

// Urgency hints the push service about delivery priority, letting it
// defer low-urgency messages to save the receiving device's battery.
type Urgency string

const (
	UrgencyVeryLow Urgency = "very-low"
	UrgencyLow     Urgency = "low"
	UrgencyNormal  Urgency = "normal"
	UrgencyHigh    Urgency = "high"
)

// CryptoHeader is a single (name, value) header pair emitted by a content
// encryption scheme; order is significant and preserved onto the wire.
type CryptoHeader struct {
	Name  string
	Value string
}

// WebPushPayload is the result of running an encryption scheme over a
// plaintext: opaque ciphertext plus whatever headers that scheme needs
// the push service to see.
type WebPushPayload struct {
	Content         []byte
	CryptoHeaders   []CryptoHeader
	ContentEncoding ContentEncoding
}

// VapidSignature is a signed VAPID JWT ready to be attached to a message.
type VapidSignature struct {
	// AuthT is the compact JWT: header.claims.signature, all base64url.
	AuthT string
	// AuthK is the 65-byte uncompressed SEC1 public key of the signing key.
	AuthK []byte
}
