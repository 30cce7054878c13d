package application

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/atvirokodosprendimai/clinicseed/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// TokenIdentity issues login credentials the way the clinic backend
// expects them: a bcrypt digest of the password and a random bearer token
// stored only as its sha256 digest.
type TokenIdentity struct {
	cost int
}

func NewTokenIdentity(cost int) *TokenIdentity {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &TokenIdentity{cost: cost}
}

func (i *TokenIdentity) IssueCredential(ctx context.Context, subjectID uint, secret string) (domain.Credential, error) {
	if err := ctx.Err(); err != nil {
		return domain.Credential{}, err
	}
	if subjectID == 0 || strings.TrimSpace(secret) == "" {
		return domain.Credential{}, errors.New("subject id and secret are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), i.cost)
	if err != nil {
		return domain.Credential{}, fmt.Errorf("hash secret: %w", err)
	}
	plain, digest, err := newTokenPair()
	if err != nil {
		return domain.Credential{}, fmt.Errorf("mint token: %w", err)
	}

	return domain.Credential{
		SubjectID:    subjectID,
		Token:        plain,
		TokenDigest:  digest,
		SecretDigest: string(hash),
	}, nil
}

// Verify reports whether secret matches a digest produced by IssueCredential.
func (i *TokenIdentity) Verify(secretDigest, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(secretDigest), []byte(secret)) == nil
}

func newTokenPair() (string, string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", err
	}
	plain := base64.RawURLEncoding.EncodeToString(raw)
	return plain, HashToken(plain), nil
}

func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", sum[:])
}
