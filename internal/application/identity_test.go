package application

import (
	"context"
	"testing"

	"github.com/atvirokodosprendimai/clinicseed/internal/domain"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestIssueCredential(t *testing.T) {
	identity := NewTokenIdentity(bcrypt.MinCost)

	cred, err := identity.IssueCredential(context.Background(), 42, "admin123")
	require.NoError(t, err)
	require.Equal(t, uint(42), cred.SubjectID)
	require.NotEmpty(t, cred.Token)
	require.Equal(t, HashToken(cred.Token), cred.TokenDigest)
	require.True(t, identity.Verify(cred.SecretDigest, "admin123"))
	require.False(t, identity.Verify(cred.SecretDigest, "admin124"))

	again, err := identity.IssueCredential(context.Background(), 42, "admin123")
	require.NoError(t, err)
	require.NotEqual(t, cred.Token, again.Token)
}

func TestIssueCredentialRequiresSubjectAndSecret(t *testing.T) {
	identity := NewTokenIdentity(bcrypt.MinCost)

	_, err := identity.IssueCredential(context.Background(), 0, "admin123")
	require.Error(t, err)
	_, err = identity.IssueCredential(context.Background(), 1, "  ")
	require.Error(t, err)
}

func TestIssueCredentialHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewTokenIdentity(bcrypt.MinCost).IssueCredential(ctx, 1, "x")
	require.ErrorIs(t, err, context.Canceled)
}

type loginTable map[string]domain.StoredLogin

func (t loginTable) FindLogin(_ context.Context, email string) (domain.StoredLogin, error) {
	l, ok := t[email]
	if !ok {
		return domain.StoredLogin{}, domain.ErrLoginNotFound
	}
	return l, nil
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	identity := NewTokenIdentity(bcrypt.MinCost)
	cred, err := identity.IssueCredential(ctx, 7, "recepcion123")
	require.NoError(t, err)
	dir := loginTable{"recepcion@clinica.com": {
		UserID: 7, Email: "recepcion@clinica.com", PasswordHash: cred.SecretDigest, TokenDigest: cred.TokenDigest,
	}}

	login, err := identity.Authenticate(ctx, dir, "recepcion@clinica.com", "recepcion123", "")
	require.NoError(t, err)
	require.Equal(t, uint(7), login.UserID)

	_, err = identity.Authenticate(ctx, dir, "recepcion@clinica.com", "recepcion123", cred.Token)
	require.NoError(t, err)

	_, err = identity.Authenticate(ctx, dir, "recepcion@clinica.com", "recepcion123", "forged")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = identity.Authenticate(ctx, dir, "recepcion@clinica.com", "wrong", "")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = identity.Authenticate(ctx, dir, "nobody@clinica.com", "recepcion123", "")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}
