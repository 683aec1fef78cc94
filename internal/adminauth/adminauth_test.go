package adminauth

import "testing"

func TestHashVerifyRoundtrip(t *testing.T) {
	digest, err := HashToken("secret-token", nil)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := VerifyToken("secret-token", digest, nil); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := VerifyToken("wrong-token", digest, nil); err == nil {
		t.Fatalf("wrong token accepted")
	}
}

func TestVerifyMalformedDigest(t *testing.T) {
	for _, digest := range []string{"", "nodollar", "!!$!!"} {
		if err := VerifyToken("x", digest, nil); err == nil {
			t.Fatalf("digest %q accepted", digest)
		}
	}
}

func TestSaltVaries(t *testing.T) {
	a, err := HashToken("tok", nil)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	b, err := HashToken("tok", nil)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if a == b {
		t.Fatalf("two digests of one token are identical")
	}
}
