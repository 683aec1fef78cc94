package idgen

import (
	"strings"
	"testing"
)

func TestIDSortable(t *testing.T) {
	const n = 1000
	seen := make(map[string]struct{}, n)
	for range n {
		id := ID()
		if len(id) != 26 {
			t.Fatalf("id length: expected = 26, got = %v (%q)", len(id), id)
		}
		for _, c := range id {
			if !strings.ContainsRune(idAlphabet, c) {
				t.Fatalf("id %q contains %q outside the alphabet", id, c)
			}
		}
		if _, ok := seen[id]; ok {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = struct{}{}
	}
}

func TestConfirmationCodeAlphabet(t *testing.T) {
	for range 100 {
		code, err := ConfirmationCode()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(code) != 10 {
			t.Fatalf("code length: expected = 10, got = %v", len(code))
		}
		for _, c := range code {
			if strings.ContainsRune("01OIL", c) {
				t.Fatalf("code %q contains ambiguous character %q", code, c)
			}
		}
	}
}

func TestSecureTokenPrefix(t *testing.T) {
	token, err := SecureToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(token, "AmR1_") {
		t.Fatalf("token %q lacks prefix", token)
	}
	if len(token) != len("AmR1_")+32 {
		t.Fatalf("token length: got = %v", len(token))
	}
}
