package vapid

import (
	"encoding/asn1"
	"fmt"
	"math/big"
)

// DERToP1363 converts a DER-encoded ECDSA signature (ASN.1 SEQUENCE of two
// INTEGERs) into the JOSE fixed-width R||S form ES256 requires: 64 bytes,
// R and S each left-padded with zeros to 32. Cloud KMS and most PKCS#11
// modules return DER; Sign in this package needs the fixed-width form.
func DERToP1363(der []byte) ([]byte, error) {
	var sig struct {
		R, S *big.Int
	}
	if _, err := asn1.Unmarshal(der, &sig); err != nil {
		return nil, fmt.Errorf("parsing DER signature: %w", err)
	}

	result := make([]byte, 64)
	rBytes := sig.R.Bytes()
	sBytes := sig.S.Bytes()
	copy(result[32-len(rBytes):32], rBytes)
	copy(result[64-len(sBytes):64], sBytes)

	return result, nil
}
