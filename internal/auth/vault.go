// Package auth holds credential material and session tokens.
//
// The vault is owned by the world loop goroutine and must not be touched
// from anywhere else; credential checks arrive through the world's join
// channel, never directly from connection handlers.
package auth

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"chatventure.world/internal/errors"
	"chatventure.world/internal/pkg/idgen"
)

type Vault struct {
	hashes map[string]string // lowercase soul name -> bcrypt hash
	tokens map[string]string // token -> soul name (runtime only, never persisted)

	tokenGen idgen.Generator
}

func NewVault() *Vault {
	return &Vault{
		hashes:   map[string]string{},
		tokens:   map[string]string{},
		tokenGen: idgen.NewPrefixed("tok"),
	}
}

func ValidateName(name string) error {
	if name == "" {
		return errors.Validation("name cannot be empty")
	}
	if strings.ContainsAny(name, " \t\r\n") {
		return errors.Validation("name cannot contain spaces")
	}
	if len(name) > 24 {
		return errors.Validation("name must be 24 characters or fewer")
	}
	return nil
}

func ValidatePassword(password string) error {
	if password == "" {
		return errors.Validation("password cannot be blank")
	}
	if len(password) < 6 {
		return errors.Validation("password must be at least 6 characters")
	}
	return nil
}

// Register hashes and stores a credential for a new soul.
func (v *Vault) Register(name, password string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := ValidatePassword(password); err != nil {
		return err
	}
	key := strings.ToLower(name)
	if _, ok := v.hashes[key]; ok {
		return errors.Validationf("soul name %q already taken", name)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	v.hashes[key] = string(hashed)
	return nil
}

// VerifyCredential reports whether the password matches the stored hash.
func (v *Vault) VerifyCredential(name, password string) bool {
	hash, ok := v.hashes[strings.ToLower(name)]
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// IssueToken mints a fresh session token for a soul. It does not revoke
// earlier tokens; rotation is the caller's job via RevokeTokens.
func (v *Vault) IssueToken(name string) string {
	token := v.tokenGen.Generate()
	v.tokens[token] = name
	return token
}

// VerifyToken resolves a token back to its soul name.
func (v *Vault) VerifyToken(token string) (string, error) {
	name, ok := v.tokens[token]
	if !ok {
		return "", errors.InvalidToken("unknown or expired token")
	}
	return name, nil
}

// RevokeTokens drops every token issued for a soul.
func (v *Vault) RevokeTokens(name string) {
	for tok, owner := range v.tokens {
		if owner == name {
			delete(v.tokens, tok)
		}
	}
}

// ExportSecrets copies credential hashes for the snapshot's secrets
// section. Tokens are runtime-only and never exported.
func (v *Vault) ExportSecrets() map[string]string {
	out := make(map[string]string, len(v.hashes))
	for k, h := range v.hashes {
		out[k] = h
	}
	return out
}

// ImportSecrets replaces the vault's hashes from a loaded snapshot.
func (v *Vault) ImportSecrets(secrets map[string]string) {
	v.hashes = make(map[string]string, len(secrets))
	for k, h := range secrets {
		v.hashes[strings.ToLower(k)] = h
	}
}
