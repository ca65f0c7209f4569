package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher produces salted one-way hashes and checks plaintexts against them.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"

	argon2Prefix = "argon2id$"
)

// ArgonParams controls argon2id hashing cost.
type ArgonParams struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	SaltLen     int
	KeyLen      uint32
}

var DefaultArgon = ArgonParams{
	Memory:      64 * 1024,
	Time:        3,
	Parallelism: 1,
	SaltLen:     16,
	KeyLen:      32,
}

// upper bounds accepted when decoding a stored argon2id hash
const (
	maxArgonMemory = 1024 * 1024
	maxArgonTime   = 16
	maxArgonKeyLen = 128
)

type passwordHasher struct {
	algorithm  string
	bcryptCost int
	argon      ArgonParams
}

// NewPasswordHasher hashes with the given algorithm. Verify accepts bcrypt and
// argon2id hashes regardless of the algorithm used for new hashes, so the
// algorithm can be switched without invalidating stored passwords.
func NewPasswordHasher(algorithm string, bcryptCost int) (PasswordHasher, error) {
	switch algorithm {
	case "", AlgorithmBcrypt:
		algorithm = AlgorithmBcrypt
	case AlgorithmArgon2id:
	default:
		return nil, fmt.Errorf("unsupported password algorithm %q", algorithm)
	}
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range", bcryptCost)
	}
	return &passwordHasher{algorithm: algorithm, bcryptCost: bcryptCost, argon: DefaultArgon}, nil
}

func (h *passwordHasher) Hash(plaintext string) (string, error) {
	if h.algorithm == AlgorithmArgon2id {
		return hashArgon2id(h.argon, plaintext)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

func (h *passwordHasher) Verify(plaintext, hash string) bool {
	if strings.HasPrefix(hash, argon2Prefix) {
		return verifyArgon2id(plaintext, hash)
	}
	// CompareHashAndPassword rejects malformed hashes with an error and
	// compares digests with subtle.ConstantTimeCompare.
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// encoded format: argon2id$m=<M>,t=<T>,p=<P>$<b64(salt)>$<b64(key)>
func hashArgon2id(p ArgonParams, plaintext string) (string, error) {
	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	key := argon2.IDKey([]byte(plaintext), salt, p.Time, p.Memory, p.Parallelism, p.KeyLen)
	return fmt.Sprintf("%sm=%d,t=%d,p=%d$%s$%s",
		argon2Prefix, p.Memory, p.Time, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func verifyArgon2id(plaintext, encoded string) bool {
	parts := strings.Split(strings.TrimPrefix(encoded, argon2Prefix), "$")
	if len(parts) != 3 {
		return false
	}

	var m, t uint32
	var p uint8
	if _, err := fmt.Sscanf(parts[0], "m=%d,t=%d,p=%d", &m, &t, &p); err != nil {
		return false
	}
	if m == 0 || m > maxArgonMemory || t == 0 || t > maxArgonTime || p == 0 {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[1])
	if err != nil || len(salt) == 0 {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[2])
	if err != nil || len(want) == 0 || len(want) > maxArgonKeyLen {
		return false
	}

	got := argon2.IDKey([]byte(plaintext), salt, t, m, p, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}
