package security

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Fatalf("hash must not equal the plaintext password")
	}

	ok, err := hasher.Verify("correct horse battery staple", hash)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected password to verify against its own hash")
	}
}

func TestPasswordHasher_VerifyMismatch(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("s3cret")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}

	ok, err := hasher.Verify("wrong", hash)
	if err != nil {
		t.Fatalf("mismatch must not be an error, got: %v", err)
	}
	if ok {
		t.Fatalf("expected mismatch to verify false")
	}
}

func TestPasswordHasher_VerifyEmptyInputs(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	if ok, err := hasher.Verify("", "$2a$10$abcdefghijklmnopqrstuv"); ok || err != nil {
		t.Fatalf("empty password: got ok=%v err=%v", ok, err)
	}
	if ok, err := hasher.Verify("s3cret", ""); ok || err != nil {
		t.Fatalf("empty hash: got ok=%v err=%v", ok, err)
	}
}

func TestPasswordHasher_VerifyCorruptHash(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	ok, err := hasher.Verify("s3cret", "not-a-bcrypt-hash")
	if ok {
		t.Fatalf("corrupt hash must not verify")
	}
	if !errors.Is(err, ErrCorruptHash) {
		t.Fatalf("expected ErrCorruptHash, got: %v", err)
	}
}

func TestNewPasswordHasher_CostClamp(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MaxCost + 1)

	hash, err := hasher.Hash("s3cret")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}

	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		t.Fatalf("bcrypt.Cost returned error: %v", err)
	}
	if cost != DefaultBcryptCost {
		t.Fatalf("expected cost %d after clamp, got %d", DefaultBcryptCost, cost)
	}
}
