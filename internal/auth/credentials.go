package auth

import (
	"fmt"

	"github.com/BenjaminJRies/examen-bentoml/pkg/config"
	"golang.org/x/crypto/bcrypt"
)

// Credential is one fixed principal. Only the bcrypt hash of the password is kept.
type Credential struct {
	Username     string
	PasswordHash []byte
}

// CredentialTable is the immutable username -> hash lookup used by Login.
type CredentialTable struct {
	entries map[string]Credential
	// dummy keeps unknown-user lookups as slow as known-user ones
	dummy []byte
}

// NewCredentialTable builds a table from already hashed credentials.
func NewCredentialTable(creds []Credential) (*CredentialTable, error) {
	t := &CredentialTable{entries: make(map[string]Credential, len(creds))}
	for _, c := range creds {
		if c.Username == "" {
			return nil, fmt.Errorf("credential with empty username")
		}
		if _, dup := t.entries[c.Username]; dup {
			return nil, fmt.Errorf("duplicate credential for %q", c.Username)
		}
		if _, err := bcrypt.Cost(c.PasswordHash); err != nil {
			return nil, fmt.Errorf("credential %q: %w", c.Username, err)
		}
		t.entries[c.Username] = Credential{
			Username:     c.Username,
			PasswordHash: append([]byte(nil), c.PasswordHash...),
		}
		if t.dummy == nil {
			t.dummy = t.entries[c.Username].PasswordHash
		}
	}
	return t, nil
}

// NewCredentialTableFromConfig hashes plain-text entries with the given cost and
// keeps pre-hashed entries as they are.
func NewCredentialTableFromConfig(users []config.UserConfig, cost int) (*CredentialTable, error) {
	creds := make([]Credential, 0, len(users))
	for _, u := range users {
		hash := []byte(u.PasswordHash)
		if len(hash) == 0 {
			var err error
			hash, err = HashPassword(u.Password, cost)
			if err != nil {
				return nil, fmt.Errorf("credential %q: %w", u.Username, err)
			}
		}
		creds = append(creds, Credential{Username: u.Username, PasswordHash: hash})
	}
	return NewCredentialTable(creds)
}

// HashPassword returns a bcrypt hash of password.
func HashPassword(password string, cost int) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), cost)
}

// Verify reports whether username exists (exact, case-sensitive match) and
// password matches its hash.
func (t *CredentialTable) Verify(username, password string) bool {
	c, ok := t.entries[username]
	if !ok {
		if t.dummy != nil {
			_ = bcrypt.CompareHashAndPassword(t.dummy, []byte(password))
		}
		return false
	}
	return bcrypt.CompareHashAndPassword(c.PasswordHash, []byte(password)) == nil
}

// Len returns the number of principals.
func (t *CredentialTable) Len() int {
	return len(t.entries)
}
