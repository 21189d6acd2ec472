package auth

import (
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/engage-labs/engage-social/internal/core/domain"
)

func testAdapter() *Adapter {
	return NewAdapterWithCost("test-secret", bcrypt.MinCost)
}

func TestHashAndVerifyPassword(t *testing.T) {
	a := testAdapter()

	hash, err := a.HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Fatal("hash equals plaintext")
	}

	if !a.VerifyPassword("correct horse battery staple", hash) {
		t.Error("correct password rejected")
	}
	if a.VerifyPassword("wrong password", hash) {
		t.Error("wrong password accepted")
	}
}

func TestGenerateAndParseToken(t *testing.T) {
	a := testAdapter()

	now := time.Now()
	claims := &domain.TokenClaims{
		UserID:    "user-1",
		Email:     "jane@example.com",
		SessionID: "sess-1",
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(time.Hour).Unix(),
	}

	token, err := a.GenerateToken(claims)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	parsed, err := a.ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.UserID != "user-1" || parsed.Email != "jane@example.com" || parsed.SessionID != "sess-1" {
		t.Errorf("claims round trip mismatch: %+v", parsed)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	a := testAdapter()
	b := NewAdapterWithCost("other-secret", bcrypt.MinCost)

	token, err := a.GenerateToken(&domain.TokenClaims{
		UserID:    "user-1",
		IssuedAt:  time.Now().Unix(),
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := b.ParseToken(token); err == nil {
		t.Error("token signed with different secret accepted")
	}
}

func TestParseToken_Expired(t *testing.T) {
	a := testAdapter()

	token, err := a.GenerateToken(&domain.TokenClaims{
		UserID:    "user-1",
		IssuedAt:  time.Now().Add(-2 * time.Hour).Unix(),
		ExpiresAt: time.Now().Add(-time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := a.ParseToken(token); err == nil {
		t.Error("expired token accepted")
	}
}

func TestParseToken_Garbage(t *testing.T) {
	a := testAdapter()

	if _, err := a.ParseToken("not.a.jwt"); err == nil {
		t.Error("garbage token accepted")
	}
}
