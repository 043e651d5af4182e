package util

import (
	"testing"
	"time"
)

func TestIssueAndValidateJWT(t *testing.T) {
	token, err := IssueJWT("user-1", "alice", "secret", time.Hour)
	if err != nil {
		t.Fatalf("IssueJWT returned error: %v", err)
	}

	claims, err := ValidateJWT(token, "secret")
	if err != nil {
		t.Fatalf("ValidateJWT returned error: %v", err)
	}
	if claims.Subject != "user-1" || claims.Username != "alice" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestValidateJWTRejectsWrongSecret(t *testing.T) {
	token, err := IssueJWT("user-1", "alice", "secret", time.Hour)
	if err != nil {
		t.Fatalf("IssueJWT returned error: %v", err)
	}
	if _, err := ValidateJWT(token, "other"); err == nil {
		t.Fatal("expected error for wrong secret")
	}
}

func TestValidateJWTRejectsExpired(t *testing.T) {
	token, err := IssueJWT("user-1", "alice", "secret", -time.Minute)
	if err != nil {
		t.Fatalf("IssueJWT returned error: %v", err)
	}
	if _, err := ValidateJWT(token, "secret"); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if hash == "hunter22" {
		t.Fatal("hash must not equal the plain password")
	}
	if !CheckPassword(hash, "hunter22") {
		t.Fatal("expected password to match")
	}
	if CheckPassword(hash, "hunter23") {
		t.Fatal("expected wrong password to be rejected")
	}
}
