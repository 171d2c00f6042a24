package security

import (
	"strings"
	"testing"

	"github.com/GyabaahFelix/lynqed-backend/pkg/config"
)

func TestHashAndVerifyPassword(t *testing.T) {
	t.Parallel()

	cfg := config.PasswordConfig{}
	hash, err := HashPassword("fufu-and-light-soup", cfg)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Fatalf("expected argon2id format, got %q", hash)
	}

	ok, err := VerifyPassword("fufu-and-light-soup", hash)
	if err != nil || !ok {
		t.Fatalf("expected match, got ok=%v err=%v", ok, err)
	}

	ok, err = VerifyPassword("banku-and-okro", hash)
	if err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
	if ok {
		t.Fatalf("wrong password must not verify")
	}
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	t.Parallel()

	if _, err := HashPassword("", config.PasswordConfig{}); err == nil {
		t.Fatalf("expected empty password to fail")
	}
}

func TestHashPasswordSaltsEveryCall(t *testing.T) {
	t.Parallel()

	cfg := config.PasswordConfig{}
	first, err := HashPassword("same input", cfg)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	second, err := HashPassword("same input", cfg)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct salts to produce distinct hashes")
	}
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	t.Parallel()

	if _, err := VerifyPassword("anything", "$md5$deadbeef"); err == nil {
		t.Fatalf("expected malformed hash to fail")
	}
}

func TestGenerateGuestPassword(t *testing.T) {
	t.Parallel()

	password, err := GenerateGuestPassword(32)
	if err != nil {
		t.Fatalf("GenerateGuestPassword: %v", err)
	}
	if len(password) != 32 {
		t.Fatalf("expected 32 characters, got %d", len(password))
	}
	for _, r := range password {
		if !strings.ContainsRune(string(guestPasswordCharset), r) {
			t.Fatalf("unexpected character %q", r)
		}
	}

	again, err := GenerateGuestPassword(32)
	if err != nil {
		t.Fatalf("GenerateGuestPassword: %v", err)
	}
	if password == again {
		t.Fatalf("expected random credentials to differ")
	}
}
