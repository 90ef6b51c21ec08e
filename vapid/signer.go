package vapid

import "context"

// Signer is the seam between a VAPID key's storage/custody and its use in
// signing. It is declared independently in webpush, keys, and vapid —
// each package depends on it structurally rather than importing one
// canonical interface type. (webpush does name keys.Signer, in the
// rotating-key selector of its Client.) Any concrete type satisfying this shape (a
// *keys.FileSigner, *keys.KMSSigner, *keys.RotatingSigner, ...) works
// with Sign in this package.
type Signer interface {
	// Sign signs data (already hashed, for ES256 a SHA-256 digest) and
	// returns the signature. Implementations that talk to a remote signer
	// (KMS, an HSM) take a context for cancellation.
	Sign(ctx context.Context, data []byte) ([]byte, error)
	// PublicKey returns the uncompressed SEC1 P-256 public key, 65 bytes,
	// leading 0x04.
	PublicKey() []byte
}
