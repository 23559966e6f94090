// Package credentials hashes and verifies client-gallery passwords.
//
// New hashes are always bcrypt. Hashes written by the previous system are
// unsalted hex-encoded SHA-256 digests; they still verify through
// LegacySHA256, and Verifier.NeedsRehash reports them so callers can
// upgrade the stored value after a successful check.
package credentials

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var ErrEmptyPassword = errors.New("password is empty")

// Verifier hashes and checks secrets.
type Verifier interface {
	Hash(password string) (string, error)
	Verify(hash, password string) (bool, error)
	NeedsRehash(hash string) bool
}

type Bcrypt struct {
	Cost int
}

func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{Cost: cost}
}

func (b *Bcrypt) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), b.Cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt hash: %w", err)
	}
	return string(h), nil
}

func (b *Bcrypt) Verify(hash, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("bcrypt verify: %w", err)
	}
	return true, nil
}

func (b *Bcrypt) NeedsRehash(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	return err != nil || cost < b.Cost
}

// LegacySHA256 verifies unsalted hex SHA-256 digests. It is not used to
// produce new hashes.
type LegacySHA256 struct{}

func (LegacySHA256) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:]), nil
}

func (LegacySHA256) Verify(hash, password string) (bool, error) {
	sum := sha256.Sum256([]byte(password))
	want, err := hex.DecodeString(strings.ToLower(hash))
	if err != nil {
		return false, fmt.Errorf("legacy hash decode: %w", err)
	}
	return subtle.ConstantTimeCompare(sum[:], want) == 1, nil
}

func (LegacySHA256) NeedsRehash(string) bool {
	return true
}

// Chain hashes with Primary and verifies with whichever scheme produced the
// stored hash.
type Chain struct {
	Primary *Bcrypt
	Legacy  LegacySHA256
}

func NewChain(cost int) *Chain {
	return &Chain{Primary: NewBcrypt(cost)}
}

func (c *Chain) Hash(password string) (string, error) {
	return c.Primary.Hash(password)
}

func (c *Chain) Verify(hash, password string) (bool, error) {
	if hash == "" {
		return false, nil
	}
	if isLegacy(hash) {
		return c.Legacy.Verify(hash, password)
	}
	return c.Primary.Verify(hash, password)
}

func (c *Chain) NeedsRehash(hash string) bool {
	if isLegacy(hash) {
		return true
	}
	return c.Primary.NeedsRehash(hash)
}

func isLegacy(hash string) bool {
	if len(hash) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(hash)
	return err == nil
}
