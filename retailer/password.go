package retailer

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, phc string) bool
}

type Argon2Params struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	KeyLen      uint32
}

var DefaultArgon2Params = Argon2Params{Memory: 64 * 1024, Time: 3, Parallelism: 1, KeyLen: 32}

var _ PasswordHasher = &Argon2Hasher{}

// Argon2Hasher produces PHC strings of the form
// $argon2id$v=19$m=...,t=...,p=...$<salt>$<key>. When a pepper is set the
// password is HMAC'd with it before hashing, so the stored string alone is
// not enough to brute force.
type Argon2Hasher struct {
	params Argon2Params
	pepper []byte
}

func NewArgon2Hasher(params Argon2Params, pepper []byte) *Argon2Hasher {
	return &Argon2Hasher{
		params: params,
		pepper: pepper,
	}
}

func (h *Argon2Hasher) Hash(plain string) (string, error) {
	if plain == "" {
		return "", errors.New("empty password")
	}

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	p := h.params
	key := argon2.IDKey(h.peppered(plain), salt, p.Time, p.Memory, p.Parallelism, p.KeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Time, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (h *Argon2Hasher) Verify(plain, phc string) bool {
	var v, m, t, p int
	var saltB64 string

	n, _ := fmt.Sscanf(phc, "$argon2id$v=%d$m=%d,t=%d,p=%d$%s", &v, &m, &t, &p, &saltB64)
	if n != 5 || v != argon2.Version {
		return false
	}
	// %s is greedy so the salt and key come out together.
	saltB64, keyB64, ok := strings.Cut(saltB64, "$")
	if !ok {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(saltB64)
	if err != nil {
		return false
	}
	stored, err := base64.RawStdEncoding.DecodeString(keyB64)
	if err != nil {
		return false
	}

	key := argon2.IDKey(h.peppered(plain), salt, uint32(t), uint32(m), uint8(p), uint32(len(stored)))
	return subtle.ConstantTimeCompare(key, stored) == 1
}

func (h *Argon2Hasher) peppered(plain string) []byte {
	if len(h.pepper) == 0 {
		return []byte(plain)
	}
	mac := hmac.New(sha256.New, h.pepper)
	mac.Write([]byte(plain))
	return mac.Sum(nil)
}
