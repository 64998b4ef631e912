package application

import (
	"errors"
	"strings"
	"testing"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	t.Parallel()

	hash, err := CreatePasswordHash("correct horse battery staple", DefaultArgon2idParams)
	if err != nil {
		t.Fatalf("CreatePasswordHash failed: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Fatalf("unexpected hash format %q", hash)
	}

	if err := VerifyPassword(hash, "correct horse battery staple"); err != nil {
		t.Errorf("expected the password to verify: %v", err)
	}
	if err := VerifyPassword(hash, "wrong password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	t.Parallel()

	for _, hash := range []string{
		"",
		"plaintext",
		"$bcrypt$v=19$m=65536,t=3,p=2$salt$hash",
	} {
		if err := VerifyPassword(hash, "anything"); !errors.Is(err, ErrInvalidPasswordHash) {
			t.Errorf("hash %q: expected ErrInvalidPasswordHash, got %v", hash, err)
		}
	}
}

func TestPasswordHashesAreSalted(t *testing.T) {
	t.Parallel()

	first, err := CreatePasswordHash("same password", DefaultArgon2idParams)
	if err != nil {
		t.Fatalf("CreatePasswordHash failed: %v", err)
	}
	second, err := CreatePasswordHash("same password", DefaultArgon2idParams)
	if err != nil {
		t.Fatalf("CreatePasswordHash failed: %v", err)
	}
	if first == second {
		t.Error("two hashes of the same password must differ")
	}
}
