package idgen

import (
	crand "crypto/rand"
	"fmt"
	"math/big"
	"math/rand/v2"
	"strings"
	"time"
)

const (
	idAlphabet    = "0123456789abcdefghjkmnpqrstvwxyz"
	codeAlphabet  = "23456789ABCDEFGHJKMNPQRSTVWXYZ"
	tokenAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
)

func init() {
	if len(idAlphabet) != 32 {
		panic("must not happen")
	}
}

// ID generates a sortable row ID: 48 bits of timestamp followed by 80
// random bits, in the spirit of ULID but lowercase and not monotonic.
func ID() string {
	var b strings.Builder
	ts := uint64(time.Now().UnixMilli()) & ((1 << 48) - 1)
	for i := 45; i >= 0; i -= 5 {
		_ = b.WriteByte(idAlphabet[(ts>>i)&31])
	}
	for range 2 {
		r := rand.Uint64()
		for range 8 {
			_ = b.WriteByte(idAlphabet[r&31])
			r >>= 5
		}
	}
	return b.String()
}

// ConfirmationCode generates a short code people can read back over the
// phone, so the alphabet avoids 0/O, 1/I and similar pairs.
func ConfirmationCode() (string, error) {
	var b strings.Builder
	bigLen := big.NewInt(int64(len(codeAlphabet)))
	for range 10 {
		idx, err := crand.Int(crand.Reader, bigLen)
		if err != nil {
			return "", fmt.Errorf("crypto rand: %w", err)
		}
		_ = b.WriteByte(codeAlphabet[int(idx.Int64())])
	}
	return b.String(), nil
}

// SecureToken generates an admin API token.
func SecureToken() (string, error) {
	var b strings.Builder
	_, _ = b.WriteString("AmR1_")
	bigLen := big.NewInt(int64(len(tokenAlphabet)))
	for range 32 {
		idx, err := crand.Int(crand.Reader, bigLen)
		if err != nil {
			return "", fmt.Errorf("crypto rand: %w", err)
		}
		_ = b.WriteByte(tokenAlphabet[int(idx.Int64())])
	}
	return b.String(), nil
}
