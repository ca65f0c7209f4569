package auth

import (
	"crypto"
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
)

const MinRSAKeyBits = 2048

// KeySource describes where key material comes from. Inline base64 PEM takes
// precedence over files.
type KeySource struct {
	PrivateKeyBase64         string
	PublicKeyBase64          string
	PrivateKeyFile           string
	PublicKeyFile            string
	PreviousPublicKeysBase64 []string
}

type verificationKey struct {
	kid string
	key *rsa.PublicKey
}

// KeySet holds the signing key and every public key tokens may be verified
// with. It is built once at startup and never mutated, so it is safe to share
// across goroutines.
type KeySet struct {
	signing *rsa.PrivateKey
	active  verificationKey
	byKID   map[string]*rsa.PublicKey
	ordered []verificationKey
}

// NewKeySet validates the pair and freezes it. public may be nil, in which
// case the private key's public half is used. previous keys only verify.
func NewKeySet(private *rsa.PrivateKey, public *rsa.PublicKey, previous ...*rsa.PublicKey) (*KeySet, error) {
	if private == nil {
		return nil, fmt.Errorf("%w: private key missing", ErrInvalidKeyMaterial)
	}
	if err := private.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, err)
	}
	if public == nil {
		public = &private.PublicKey
	}
	if !private.PublicKey.Equal(public) {
		return nil, fmt.Errorf("%w: public key does not match private key", ErrInvalidKeyMaterial)
	}

	ks := &KeySet{signing: private, byKID: make(map[string]*rsa.PublicKey, 1+len(previous))}
	for i, pub := range append([]*rsa.PublicKey{public}, previous...) {
		if pub == nil {
			return nil, fmt.Errorf("%w: previous key %d is nil", ErrInvalidKeyMaterial, i)
		}
		if bits := pub.N.BitLen(); bits < MinRSAKeyBits {
			return nil, fmt.Errorf("%w: rsa key has %d bits, need at least %d", ErrInvalidKeyMaterial, bits, MinRSAKeyBits)
		}
		kid, err := Thumbprint(pub)
		if err != nil {
			return nil, err
		}
		if _, dup := ks.byKID[kid]; dup {
			continue
		}
		ks.byKID[kid] = pub
		ks.ordered = append(ks.ordered, verificationKey{kid: kid, key: pub})
	}
	ks.active = ks.ordered[0]
	return ks, nil
}

// LoadKeySet reads and parses key material from src.
func LoadKeySet(src KeySource) (*KeySet, error) {
	privPEM, err := readPEM(src.PrivateKeyBase64, src.PrivateKeyFile)
	if err != nil {
		return nil, fmt.Errorf("private key: %w", err)
	}
	if privPEM == nil {
		return nil, fmt.Errorf("%w: no private key configured", ErrInvalidKeyMaterial)
	}
	private, err := jwt.ParseRSAPrivateKeyFromPEM(privPEM)
	if err != nil {
		return nil, fmt.Errorf("%w: parse private key: %v", ErrInvalidKeyMaterial, err)
	}

	var public *rsa.PublicKey
	pubPEM, err := readPEM(src.PublicKeyBase64, src.PublicKeyFile)
	if err != nil {
		return nil, fmt.Errorf("public key: %w", err)
	}
	if pubPEM != nil {
		if public, err = jwt.ParseRSAPublicKeyFromPEM(pubPEM); err != nil {
			return nil, fmt.Errorf("%w: parse public key: %v", ErrInvalidKeyMaterial, err)
		}
	}

	previous := make([]*rsa.PublicKey, 0, len(src.PreviousPublicKeysBase64))
	for i, enc := range src.PreviousPublicKeysBase64 {
		raw, err := decodePEM(enc)
		if err != nil {
			return nil, fmt.Errorf("previous public key %d: %w", i, err)
		}
		pub, err := jwt.ParseRSAPublicKeyFromPEM(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: parse previous public key %d: %v", ErrInvalidKeyMaterial, i, err)
		}
		previous = append(previous, pub)
	}

	return NewKeySet(private, public, previous...)
}

// Thumbprint returns the RFC 7638 SHA-256 thumbprint of pub, base64url encoded.
func Thumbprint(pub *rsa.PublicKey) (string, error) {
	tp, err := (&jose.JSONWebKey{Key: pub}).Thumbprint(crypto.SHA256)
	if err != nil {
		return "", fmt.Errorf("%w: thumbprint: %v", ErrInvalidKeyMaterial, err)
	}
	return base64.RawURLEncoding.EncodeToString(tp), nil
}

// ActiveKID identifies the key new tokens are signed with.
func (ks *KeySet) ActiveKID() string { return ks.active.kid }

// PublicKey looks up a verification key by kid.
func (ks *KeySet) PublicKey(kid string) (*rsa.PublicKey, bool) {
	pub, ok := ks.byKID[kid]
	return pub, ok
}

// KIDs lists verification key ids, active key first.
func (ks *KeySet) KIDs() []string {
	out := make([]string, len(ks.ordered))
	for i, k := range ks.ordered {
		out[i] = k.kid
	}
	return out
}

func (ks *KeySet) signingKey() (*rsa.PrivateKey, string) {
	return ks.signing, ks.active.kid
}

func readPEM(inline, path string) ([]byte, error) {
	if strings.TrimSpace(inline) != "" {
		return decodePEM(inline)
	}
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, err)
	}
	return raw, nil
}

// decodePEM accepts either raw PEM text or base64 of it.
func decodePEM(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "-----BEGIN") {
		return []byte(s), nil
	}
	compact := strings.Join(strings.Fields(s), "")
	raw, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		if raw, err = base64.RawStdEncoding.DecodeString(compact); err != nil {
			return nil, fmt.Errorf("%w: base64: %v", ErrInvalidKeyMaterial, err)
		}
	}
	return raw, nil
}
