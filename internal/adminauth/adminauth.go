// Package adminauth checks admin API tokens against a stored argon2 digest,
// so the plaintext token never has to live in the config file.
package adminauth

import (
	crand "crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

type HashOptions struct {
	Time    uint32 `toml:"time"`
	Memory  uint32 `toml:"memory"`
	Threads uint8  `toml:"threads"`
	KeyLen  uint32 `toml:"key-len"`
	SaltLen uint32 `toml:"salt-len"`
}

var defaultHashOptions = &HashOptions{
	Time:    3,
	Memory:  16384,
	Threads: 1,
	KeyLen:  32,
	SaltLen: 32,
}

func doHash(token string, salt []byte, o *HashOptions) []byte {
	return argon2.IDKey([]byte(token), salt, o.Time, o.Memory, o.Threads, o.KeyLen)
}

// HashToken produces a self-describing digest string "salt$hash", both parts
// base64. Store the digest, hand out the token.
func HashToken(token string, o *HashOptions) (string, error) {
	if o == nil {
		o = defaultHashOptions
	}
	salt := make([]byte, o.SaltLen)
	if _, err := io.ReadFull(crand.Reader, salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	hash := doHash(token, salt, o)
	enc := base64.RawStdEncoding
	return enc.EncodeToString(salt) + "$" + enc.EncodeToString(hash), nil
}

// VerifyToken checks token against a digest built by HashToken. The
// comparison is constant-time in the hash bytes.
func VerifyToken(token, digest string, o *HashOptions) error {
	if o == nil {
		o = defaultHashOptions
	}
	saltStr, hashStr, ok := strings.Cut(digest, "$")
	if !ok {
		return fmt.Errorf("malformed token digest")
	}
	enc := base64.RawStdEncoding
	salt, err := enc.DecodeString(saltStr)
	if err != nil {
		return fmt.Errorf("decode salt: %w", err)
	}
	want, err := enc.DecodeString(hashStr)
	if err != nil {
		return fmt.Errorf("decode hash: %w", err)
	}
	got := doHash(token, salt, o)
	if subtle.ConstantTimeCompare(got, want) != 1 {
		return fmt.Errorf("token mismatch")
	}
	return nil
}
