package auth

import (
	"testing"

	"chatventure.world/internal/errors"
)

func TestRegisterAndVerify(t *testing.T) {
	v := NewVault()
	if err := v.Register("Ari", "hunter22"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if !v.VerifyCredential("Ari", "hunter22") {
		t.Fatalf("expected credential to verify")
	}
	if !v.VerifyCredential("ari", "hunter22") {
		t.Fatalf("expected case-insensitive name lookup")
	}
	if v.VerifyCredential("Ari", "wrong") {
		t.Fatalf("expected wrong password rejected")
	}
	if v.VerifyCredential("Nobody", "hunter22") {
		t.Fatalf("expected unknown soul rejected")
	}
}

func TestRegisterDuplicate(t *testing.T) {
	v := NewVault()
	if err := v.Register("Ari", "hunter22"); err != nil {
		t.Fatalf("register: %v", err)
	}
	err := v.Register("ARI", "another6")
	if !errors.IsValidation(err) {
		t.Fatalf("expected validation error for case-insensitive duplicate, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	v := NewVault()
	cases := []struct{ name, pass string }{
		{"", "hunter22"},
		{"two words", "hunter22"},
		{"averyveryverylongname12345", "hunter22"},
		{"Ari", ""},
		{"Ari", "short"},
	}
	for _, c := range cases {
		if err := v.Register(c.name, c.pass); !errors.IsValidation(err) {
			t.Fatalf("Register(%q, %q): expected validation error, got %v", c.name, c.pass, err)
		}
	}
}

func TestTokens(t *testing.T) {
	v := NewVault()
	tok := v.IssueToken("Ari")
	name, err := v.VerifyToken(tok)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if name != "Ari" {
		t.Fatalf("token resolved to %q, want Ari", name)
	}

	if _, err := v.VerifyToken("tok_bogus"); !errors.IsInvalidToken(err) {
		t.Fatalf("expected invalid token error, got %v", err)
	}

	v.RevokeTokens("Ari")
	if _, err := v.VerifyToken(tok); !errors.IsInvalidToken(err) {
		t.Fatalf("expected revoked token rejected, got %v", err)
	}
}

func TestSecretsRoundTrip(t *testing.T) {
	v := NewVault()
	if err := v.Register("Ari", "hunter22"); err != nil {
		t.Fatalf("register: %v", err)
	}
	secrets := v.ExportSecrets()

	restored := NewVault()
	restored.ImportSecrets(secrets)
	if !restored.VerifyCredential("Ari", "hunter22") {
		t.Fatalf("expected credential to survive export/import")
	}
}
