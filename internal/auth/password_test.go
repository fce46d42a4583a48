package auth

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if hash == "secret123" {
		t.Fatal("hash equals plain-text password")
	}

	if !CheckPasswordHash("secret123", hash) {
		t.Fatal("correct password rejected")
	}
	if CheckPasswordHash("wrong-password", hash) {
		t.Fatal("wrong password accepted")
	}
}
