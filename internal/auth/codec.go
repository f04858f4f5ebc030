package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrTokenInvalid is the single outward failure of Verify. Malformed tokens
// and signature mismatches both collapse into it so a caller probing the
// endpoint cannot tell a forged signature from garbage; the wrapped detail
// is for server-side logs only.
var ErrTokenInvalid = errors.New("invalid token")

const tokenHeader = `{"alg":"HS256","typ":"JWT"}`

// Codec signs and verifies access tokens with a process-lifetime symmetric
// key. It is stateless apart from the key and safe for concurrent use.
type Codec struct {
	secret []byte
}

func NewCodec(secret []byte) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("empty signing secret")
	}
	return &Codec{secret: secret}, nil
}

// Sign serializes the claims and appends an HMAC-SHA256 signature. Output is
// deterministic for identical claims; per-issuance uniqueness comes from the
// JTI the issuer stamps into the claims, not from the codec.
func (c *Codec) Sign(cl Claims) (string, error) {
	payloadJSON, err := json.Marshal(cl)
	if err != nil {
		return "", fmt.Errorf("marshal claims: %w", err)
	}
	header := base64.RawURLEncoding.EncodeToString([]byte(tokenHeader))
	payload := base64.RawURLEncoding.EncodeToString(payloadJSON)

	signingInput := header + "." + payload
	sig := hmacSHA256(c.secret, []byte(signingInput))

	return signingInput + "." + base64.RawURLEncoding.EncodeToString(sig), nil
}

// Verify checks structure, header, and signature, then decodes the claims.
// It does not check temporal validity; expiry is the caller's step so that
// an expired-but-authentic token is distinguishable from a forged one.
func (c *Codec) Verify(token string) (*Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected three segments, got %d", ErrTokenInvalid, len(parts))
	}
	headerB64, payloadB64, sigB64 := parts[0], parts[1], parts[2]

	headerJSON, err := base64.RawURLEncoding.DecodeString(headerB64)
	if err != nil {
		return nil, fmt.Errorf("%w: decode header: %v", ErrTokenInvalid, err)
	}
	var hdr struct {
		Alg string `json:"alg"`
		Typ string `json:"typ"`
	}
	if err := json.Unmarshal(headerJSON, &hdr); err != nil {
		return nil, fmt.Errorf("%w: unmarshal header: %v", ErrTokenInvalid, err)
	}
	// Pinning the algorithm defeats alg-substitution (e.g. "none") on
	// attacker-supplied headers.
	if hdr.Alg != "HS256" || hdr.Typ != "JWT" {
		return nil, fmt.Errorf("%w: unexpected header alg=%q typ=%q", ErrTokenInvalid, hdr.Alg, hdr.Typ)
	}

	sig, err := base64.RawURLEncoding.DecodeString(sigB64)
	if err != nil {
		return nil, fmt.Errorf("%w: decode signature: %v", ErrTokenInvalid, err)
	}
	expected := hmacSHA256(c.secret, []byte(headerB64+"."+payloadB64))
	if !hmac.Equal(sig, expected) {
		return nil, fmt.Errorf("%w: signature mismatch", ErrTokenInvalid)
	}

	payloadJSON, err := base64.RawURLEncoding.DecodeString(payloadB64)
	if err != nil {
		return nil, fmt.Errorf("%w: decode payload: %v", ErrTokenInvalid, err)
	}
	var cl Claims
	if err := json.Unmarshal(payloadJSON, &cl); err != nil {
		return nil, fmt.Errorf("%w: unmarshal claims: %v", ErrTokenInvalid, err)
	}

	return &cl, nil
}

// NewJTI returns a random url-safe nonce for stamping into fresh claims.
func NewJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func hmacSHA256(secret, message []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(message)
	return mac.Sum(nil)
}
