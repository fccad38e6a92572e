// AngelaMos | 2026
// security.go

package core

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
)

const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	saltLength   = 16
)

var ErrMalformedHash = fmt.Errorf("malformed password hash: %w", ErrInvalidInput)

type argonParams struct {
	memory  uint32
	time    uint32
	threads uint8
	keyLen  uint32
}

var currentParams = argonParams{
	memory:  argonMemory,
	time:    argonTime,
	threads: argonThreads,
	keyLen:  argonKeyLen,
}

// HashPassword returns a PHC-style argon2id string with a fresh random salt.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	return encodeHash(currentParams, salt, deriveKey(password, salt, currentParams)), nil
}

// VerifyPassword reports whether password matches encodedHash. When the hash
// was produced with outdated parameters and the password matches, a
// replacement hash is returned alongside.
func VerifyPassword(password, encodedHash string) (bool, string, error) {
	params, salt, want, err := decodeHash(encodedHash)
	if err != nil {
		return false, "", err
	}

	got := deriveKey(password, salt, params)
	if subtle.ConstantTimeCompare(want, got) != 1 {
		return false, "", nil
	}

	if params == currentParams {
		return true, "", nil
	}

	rehashed, err := HashPassword(password)
	if err != nil {
		//nolint:nilerr // password verified; rehash is an optional upgrade
		return true, "", nil
	}
	return true, rehashed, nil
}

var (
	dummyOnce sync.Once
	dummyHash string
)

// BurnVerification spends the same work as a real verification so that
// unknown accounts are not distinguishable by response time.
func BurnVerification(password string) {
	dummyOnce.Do(func() {
		h, err := HashPassword("huduma-dummy-password")
		if err != nil {
			panic(fmt.Sprintf("security: failed to generate dummy hash: %v", err))
		}
		dummyHash = h
	})

	//nolint:errcheck // result intentionally discarded
	_, _, _ = VerifyPassword(password, dummyHash)
}

func deriveKey(password string, salt []byte, p argonParams) []byte {
	return argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, p.keyLen)
}

func encodeHash(p argonParams, salt, key []byte) string {
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.memory,
		p.time,
		p.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
}

func decodeHash(encodedHash string) (argonParams, []byte, []byte, error) {
	var p argonParams

	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return p, nil, nil, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return p, nil, nil, fmt.Errorf("parse version: %w", ErrMalformedHash)
	}
	if version != argon2.Version {
		return p, nil, nil, fmt.Errorf("incompatible version %d: %w", version, ErrMalformedHash)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return p, nil, nil, fmt.Errorf("parse params: %w", ErrMalformedHash)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, fmt.Errorf("decode salt: %w", ErrMalformedHash)
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return p, nil, nil, fmt.Errorf("decode key: %w", ErrMalformedHash)
	}

	//nolint:gosec // G115: key length is 32 bytes for argon2id
	p.keyLen = uint32(len(key))

	return p, salt, key, nil
}
